package status

import "murmur/beep"

// Player is satisfied by *beep.Player.
type Player interface {
	Play(c beep.Cue)
}

// WithCues plays an audible cue for the labels that mark a transition the
// user cannot see while focused on another window.
func WithCues(next Sink, p Player) Sink {
	return cueSink{next: next, p: p}
}

type cueSink struct {
	next Sink
	p    Player
}

func (c cueSink) SetStatus(label string, sev Severity) {
	switch {
	case label == Recording:
		c.p.Play(beep.Start)
	case label == Processing:
		c.p.Play(beep.Stop)
	case sev == Error:
		c.p.Play(beep.Error)
	case sev == Warn:
		c.p.Play(beep.Reject)
	}
	c.next.SetStatus(label, sev)
}
