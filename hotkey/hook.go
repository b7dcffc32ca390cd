package hotkey

import (
	"sync"

	hook "github.com/robotn/gohook"
)

// hookSource listens through libuiohook, which needs an X server on linux
// and accessibility permission on macOS.
type hookSource struct {
	stop chan struct{}
	once sync.Once
}

func NewHook() Source {
	return &hookSource{stop: make(chan struct{})}
}

func (s *hookSource) Listen(onPress, onRelease func(Key)) error {
	evChan := hook.Start()
	defer hook.End()

	for {
		select {
		case <-s.stop:
			return nil
		case ev, ok := <-evChan:
			if !ok {
				return nil
			}
			switch ev.Kind {
			case hook.KeyHold:
				dispatch(Event{Key: keyFromVC(ev.Keycode), Pressed: true}, onPress, onRelease)
			case hook.KeyUp:
				dispatch(Event{Key: keyFromVC(ev.Keycode)}, onPress, onRelease)
			}
		}
	}
}

func (s *hookSource) Stop() {
	s.once.Do(func() { close(s.stop) })
}
