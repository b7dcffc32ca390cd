// Package shutdown turns termination signals into context cancellation.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"

	"murmur/log"
)

// OnSignal returns a context that is cancelled on the first termination
// signal. A second signal calls force, which normally exits the process.
// stop releases the signal handlers.
func OnSignal(parent context.Context, force func()) (ctx context.Context, stop func()) {
	ctx, cancel := context.WithCancel(parent)
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, signals...)

	done := make(chan struct{})
	var once sync.Once
	stop = func() {
		once.Do(func() {
			signal.Stop(ch)
			close(done)
			cancel()
		})
	}

	go func() {
		select {
		case sig := <-ch:
			log.Infof("shutdown: received %v", sig)
			cancel()
		case <-done:
			return
		}
		select {
		case <-ch:
			log.Warn("shutdown: second signal, forcing exit")
			if force != nil {
				force()
			}
		case <-done:
		}
	}()
	return ctx, stop
}
