// Package status carries human-facing state labels from the controller to
// whichever display owns the screen.
package status

import "time"

type Severity int

const (
	Idle Severity = iota
	Active
	Warn
	Error
)

func (s Severity) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Warn:
		return "warn"
	case Error:
		return "error"
	}
	return "unknown"
}

// Labels shown for each controller state.
const (
	Ready      = "● Ready"
	Recording  = "● RECORDING"
	Processing = "● Processing..."
	TooShort   = "● Too short"
	Silence    = "● Silence"
	NoText     = "● No text"
	Failed     = "● Error"
)

// Sink receives status changes. Implementations must not block and must
// not panic back into the caller.
type Sink interface {
	SetStatus(label string, sev Severity)
}

type Update struct {
	Label    string
	Severity Severity
	At       time.Time
}

// Display renders updates. It is only ever called from the goroutine that
// drains the queue.
type Display interface {
	Show(u Update)
	Close()
}

// Discard drops every update.
var Discard Sink = discard{}

type discard struct{}

func (discard) SetStatus(string, Severity) {}
