package inject

import "sync"

// Fake records typed text instead of sending key events.
type Fake struct {
	mu    sync.Mutex
	texts []string
	Err   error
}

func (f *Fake) Type(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return f.Err
}

func (f *Fake) Texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}
