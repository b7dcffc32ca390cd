//go:build !linux

package hotkey

import (
	"fmt"
	"sync"

	xhotkey "golang.design/x/hotkey"
)

var registerKeys = map[string]xhotkey.Key{
	"space": xhotkey.KeySpace, "tab": xhotkey.KeyTab,
	"f1": xhotkey.KeyF1, "f2": xhotkey.KeyF2, "f3": xhotkey.KeyF3, "f4": xhotkey.KeyF4,
	"f5": xhotkey.KeyF5, "f6": xhotkey.KeyF6, "f7": xhotkey.KeyF7, "f8": xhotkey.KeyF8,
	"f9": xhotkey.KeyF9, "f10": xhotkey.KeyF10, "f11": xhotkey.KeyF11, "f12": xhotkey.KeyF12,
}

var registerChars = map[rune]xhotkey.Key{
	'a': xhotkey.KeyA, 'b': xhotkey.KeyB, 'c': xhotkey.KeyC, 'd': xhotkey.KeyD,
	'e': xhotkey.KeyE, 'f': xhotkey.KeyF, 'g': xhotkey.KeyG, 'h': xhotkey.KeyH,
	'i': xhotkey.KeyI, 'j': xhotkey.KeyJ, 'k': xhotkey.KeyK, 'l': xhotkey.KeyL,
	'm': xhotkey.KeyM, 'n': xhotkey.KeyN, 'o': xhotkey.KeyO, 'p': xhotkey.KeyP,
	'q': xhotkey.KeyQ, 'r': xhotkey.KeyR, 's': xhotkey.KeyS, 't': xhotkey.KeyT,
	'u': xhotkey.KeyU, 'v': xhotkey.KeyV, 'w': xhotkey.KeyW, 'x': xhotkey.KeyX,
	'y': xhotkey.KeyY, 'z': xhotkey.KeyZ,
	'0': xhotkey.Key0, '1': xhotkey.Key1, '2': xhotkey.Key2, '3': xhotkey.Key3,
	'4': xhotkey.Key4, '5': xhotkey.Key5, '6': xhotkey.Key6, '7': xhotkey.Key7,
	'8': xhotkey.Key8, '9': xhotkey.Key9,
}

// registered grabs the trigger as an OS hotkey. It needs no accessibility
// permission but only sees the trigger itself, so exit is Ctrl+C only.
type registered struct {
	trigger Key
	hk      *xhotkey.Hotkey
	stop    chan struct{}
	once    sync.Once
}

func newRegistered(trigger Key) (Source, error) {
	var code xhotkey.Key
	var ok bool
	if trigger.char != 0 {
		code, ok = registerChars[trigger.char]
	} else {
		code, ok = registerKeys[trigger.name]
	}
	if !ok {
		return nil, fmt.Errorf("%s cannot be registered as a system hotkey (use the hook backend for modifier keys)", trigger)
	}
	return &registered{
		trigger: trigger,
		hk:      xhotkey.New(nil, code),
		stop:    make(chan struct{}),
	}, nil
}

func (r *registered) Listen(onPress, onRelease func(Key)) error {
	if err := r.hk.Register(); err != nil {
		return fmt.Errorf("register %s: %w", r.trigger, err)
	}
	defer r.hk.Unregister()

	for {
		select {
		case <-r.stop:
			return nil
		case <-r.hk.Keydown():
			dispatch(Event{Key: r.trigger, Pressed: true}, onPress, onRelease)
		case <-r.hk.Keyup():
			dispatch(Event{Key: r.trigger}, onPress, onRelease)
		}
	}
}

func (r *registered) Stop() {
	r.once.Do(func() { close(r.stop) })
}
