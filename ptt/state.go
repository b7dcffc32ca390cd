package ptt

import "sync"

type State int

const (
	Ready State = iota
	Recording
	Processing
	Error
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Recording:
		return "recording"
	case Processing:
		return "processing"
	case Error:
		return "error"
	}
	return "unknown"
}

// machine owns the controller state. Every read and write goes through its
// lock; callers only get transitions, never a settable field.
type machine struct {
	mu     sync.Mutex
	state  State
	exited bool
}

func (m *machine) current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// transition moves from -> to and reports whether it happened. It fails if
// the machine is elsewhere or has exited.
func (m *machine) transition(from, to State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.exited || m.state != from {
		return false
	}
	m.state = to
	return true
}

// fail moves any non-ready state to Error.
func (m *machine) fail() (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev := m.state
	if m.exited || prev == Ready || prev == Error {
		return prev, false
	}
	m.state = Error
	return prev, true
}

// exit marks the machine terminal. Only the first call reports true.
func (m *machine) exit() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.exited {
		return false
	}
	m.exited = true
	return true
}

func (m *machine) done() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.exited
}
