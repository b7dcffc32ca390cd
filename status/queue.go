package status

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Queue is a bounded Sink. Producers never block: when the queue is full the
// oldest pending update is dropped, since only the latest state matters to
// the display.
type Queue struct {
	mu      sync.Mutex
	ch      chan Update
	closed  bool
	done    chan struct{}
	dropped atomic.Int64
}

func NewQueue(size int) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{ch: make(chan Update, size), done: make(chan struct{})}
}

func (q *Queue) SetStatus(label string, sev Severity) {
	u := Update{Label: label, Severity: sev, At: time.Now()}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	for {
		select {
		case q.ch <- u:
			return
		default:
		}
		select {
		case <-q.ch:
			q.dropped.Add(1)
		default:
		}
	}
}

// Dropped counts updates discarded because the queue was full.
func (q *Queue) Dropped() int64 { return q.dropped.Load() }

// Close stops accepting updates. Run delivers what is already queued and
// returns.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.done)
	}
}

// Run drains the queue into d until ctx is done or the queue is closed.
// It does not close d; the caller owns it.
func (q *Queue) Run(ctx context.Context, d Display) {
	for {
		select {
		case u := <-q.ch:
			d.Show(u)
		case <-ctx.Done():
			return
		case <-q.done:
			for {
				select {
				case u := <-q.ch:
					d.Show(u)
				default:
					return
				}
			}
		}
	}
}
