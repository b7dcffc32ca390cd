package transcriber

import (
	"context"
	"fmt"
	"sync"
)

// Fake returns canned text. If Gate is set, Transcribe waits for it to be
// closed (or for ctx) before answering.
type Fake struct {
	Gate chan struct{}

	mu    sync.Mutex
	text  string
	err   error
	calls []Request
}

func NewFake(text string, err error) *Fake {
	return &Fake{text: text, err: err}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) Load(context.Context) error { return nil }

// Set changes the canned answer.
func (f *Fake) Set(text string, err error) {
	f.mu.Lock()
	f.text, f.err = text, err
	f.mu.Unlock()
}

func (f *Fake) Transcribe(ctx context.Context, req Request) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	text, err := f.text, f.err
	f.mu.Unlock()

	if f.Gate != nil {
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", fmt.Errorf("fake transcriber error: %w", err)
	}
	return text, nil
}

func (f *Fake) Calls() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.calls...)
}
