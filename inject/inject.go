// Package inject types text into whichever window has keyboard focus.
package inject

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"murmur/hotkey"
	"murmur/log"
)

var errNoClipboardTool = errors.New("no clipboard tool found (install xclip, xsel or wl-clipboard)")

const (
	DefaultSettle    = 100 * time.Millisecond
	DefaultCharDelay = 10 * time.Millisecond
	restoreDelay     = 600 * time.Millisecond
)

type Injector interface {
	Type(text string) error
}

type Options struct {
	// Mode is "type" (one key event per character) or "paste"
	// (clipboard plus the paste shortcut).
	Mode string
	// Settle is waited before the first key so the trigger release reaches
	// the focused app first.
	Settle    time.Duration
	CharDelay time.Duration
}

// New opens the virtual keyboard. Per-character typing uses linux key codes,
// so other platforms always paste.
func New(opts Options) (Injector, error) {
	if opts.Settle <= 0 {
		opts.Settle = DefaultSettle
	}
	if opts.CharDelay <= 0 {
		opts.CharDelay = DefaultCharDelay
	}
	kb, err := newKeyboard()
	if err != nil {
		return nil, fmt.Errorf("virtual keyboard: %w", err)
	}

	mode := opts.Mode
	if mode == "type" && runtime.GOOS != "linux" {
		log.Warnf("inject: per-character typing is linux only, using paste")
		mode = "paste"
	}
	switch mode {
	case "", "type":
		return &Typer{kb: kb, settle: opts.Settle, charDelay: opts.CharDelay, sleep: time.Sleep}, nil
	case "paste":
		return &Paster{kb: kb, clip: systemClipboard{}, settle: opts.Settle, sleep: time.Sleep}, nil
	}
	return nil, fmt.Errorf("unknown inject mode %q", opts.Mode)
}

// keyboard taps one key, holding shift when asked.
type keyboard interface {
	tap(code uint16, shift bool) error
	paste() error
}

// Typer sends one key tap per character.
type Typer struct {
	mu        sync.Mutex
	kb        keyboard
	settle    time.Duration
	charDelay time.Duration
	sleep     func(time.Duration)
}

// Type taps every mappable character of text. Characters with no key are
// skipped; the count is logged. The first tap error aborts.
func (t *Typer) Type(text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sleep(t.settle)
	var skipped int
	first := true
	for _, r := range text {
		code, shift, ok := hotkey.KeyForChar(r)
		if !ok {
			skipped++
			continue
		}
		if !first {
			t.sleep(t.charDelay)
		}
		first = false
		if err := t.kb.tap(code, shift); err != nil {
			return fmt.Errorf("typing %q: %w", r, err)
		}
	}
	if skipped > 0 {
		log.Warnf("inject: skipped %d character(s) with no key mapping", skipped)
	}
	return nil
}

type clipboardStore interface {
	Read() (string, error)
	Write(text string) error
}

// Paster puts text on the clipboard, sends the paste shortcut, and puts the
// previous clipboard contents back shortly after.
type Paster struct {
	mu     sync.Mutex
	kb     keyboard
	clip   clipboardStore
	settle time.Duration
	sleep  func(time.Duration)
	wg     sync.WaitGroup
}

func (p *Paster) Type(text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	prev, readErr := p.clip.Read()
	if err := p.clip.Write(text); err != nil {
		return fmt.Errorf("clipboard write: %w", err)
	}
	p.sleep(p.settle)
	if err := p.kb.paste(); err != nil {
		return fmt.Errorf("paste shortcut: %w", err)
	}
	if readErr == nil && prev != "" {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.sleep(restoreDelay)
			if err := p.clip.Write(prev); err != nil {
				log.Warnf("inject: restoring clipboard: %v", err)
			}
		}()
	}
	return nil
}

// Wait blocks until pending clipboard restores finish.
func (p *Paster) Wait() { p.wg.Wait() }
