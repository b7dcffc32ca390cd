package hotkey

import "sync"

// Fake is a Source driven by the test or the stdin test harness.
type Fake struct {
	events    chan Event
	stop      chan struct{}
	stopOnce  sync.Once
	listening chan struct{}
	listenOne sync.Once
}

func NewFake() *Fake {
	return &Fake{
		events:    make(chan Event, 64),
		stop:      make(chan struct{}),
		listening: make(chan struct{}),
	}
}

func (f *Fake) Listen(onPress, onRelease func(Key)) error {
	f.listenOne.Do(func() { close(f.listening) })
	for {
		select {
		case <-f.stop:
			return nil
		case ev := <-f.events:
			dispatch(ev, onPress, onRelease)
		}
	}
}

func (f *Fake) Stop() {
	f.stopOnce.Do(func() { close(f.stop) })
}

// Listening is closed once Listen has been entered.
func (f *Fake) Listening() <-chan struct{} { return f.listening }

// Stopped is closed once Stop has been called.
func (f *Fake) Stopped() <-chan struct{} { return f.stop }

func (f *Fake) Press(k Key)   { f.send(Event{Key: k, Pressed: true}) }
func (f *Fake) Release(k Key) { f.send(Event{Key: k}) }

func (f *Fake) send(ev Event) {
	select {
	case f.events <- ev:
	case <-f.stop:
	}
}
