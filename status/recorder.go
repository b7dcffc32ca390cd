package status

import "sync"

// Recorder is a Sink that keeps every update for tests.
type Recorder struct {
	mu      sync.Mutex
	updates []Update
	notify  chan struct{}
}

func NewRecorder() *Recorder {
	return &Recorder{notify: make(chan struct{}, 1)}
}

func (r *Recorder) SetStatus(label string, sev Severity) {
	r.mu.Lock()
	r.updates = append(r.updates, Update{Label: label, Severity: sev})
	r.mu.Unlock()
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

func (r *Recorder) Labels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	labels := make([]string, len(r.updates))
	for i, u := range r.updates {
		labels[i] = u.Label
	}
	return labels
}

// Changed is signalled after each update.
func (r *Recorder) Changed() <-chan struct{} { return r.notify }
