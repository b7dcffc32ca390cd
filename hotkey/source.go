package hotkey

// Event is one key transition. Auto-repeat is reported as further presses.
type Event struct {
	Key     Key
	Pressed bool
}

// Source delivers key events to its callbacks from a single goroutine, the
// one that called Listen, so callbacks never run concurrently.
type Source interface {
	// Listen blocks until Stop is called or the source fails.
	Listen(onPress, onRelease func(Key)) error
	Stop()
}

func dispatch(ev Event, onPress, onRelease func(Key)) {
	if ev.Pressed {
		if onPress != nil {
			onPress(ev.Key)
		}
		return
	}
	if onRelease != nil {
		onRelease(ev.Key)
	}
}
