package inject

import (
	"errors"
	"slices"
	"sync"
	"testing"
	"time"
)

type tapLog struct {
	mu     sync.Mutex
	taps   []uint16
	shifts []bool
	pastes int
	err    error
}

func (k *tapLog) tap(code uint16, shift bool) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.err != nil {
		return k.err
	}
	k.taps = append(k.taps, code)
	k.shifts = append(k.shifts, shift)
	return nil
}

func (k *tapLog) paste() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pastes++
	return k.err
}

type sleepLog struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (s *sleepLog) sleep(d time.Duration) {
	s.mu.Lock()
	s.sleeps = append(s.sleeps, d)
	s.mu.Unlock()
}

func TestTyperTapsEachCharacter(t *testing.T) {
	kb := &tapLog{}
	sl := &sleepLog{}
	ty := &Typer{kb: kb, settle: 100 * time.Millisecond, charDelay: 10 * time.Millisecond, sleep: sl.sleep}

	if err := ty.Type("Hi!"); err != nil {
		t.Fatal(err)
	}
	if want := []uint16{35, 23, 2}; !slices.Equal(kb.taps, want) {
		t.Errorf("taps = %v, want %v", kb.taps, want)
	}
	if want := []bool{true, false, true}; !slices.Equal(kb.shifts, want) {
		t.Errorf("shifts = %v, want %v", kb.shifts, want)
	}
	want := []time.Duration{100 * time.Millisecond, 10 * time.Millisecond, 10 * time.Millisecond}
	if !slices.Equal(sl.sleeps, want) {
		t.Errorf("sleeps = %v, want settle then one delay between characters %v", sl.sleeps, want)
	}
}

func TestTyperSkipsUnmappedCharacters(t *testing.T) {
	kb := &tapLog{}
	sl := &sleepLog{}
	ty := &Typer{kb: kb, settle: time.Millisecond, charDelay: time.Millisecond, sleep: sl.sleep}

	if err := ty.Type("café"); err != nil {
		t.Fatal(err)
	}
	if len(kb.taps) != 3 {
		t.Fatalf("taps = %v, want c a f only", kb.taps)
	}
}

func TestTyperStopsOnError(t *testing.T) {
	kb := &tapLog{err: errors.New("uinput gone")}
	ty := &Typer{kb: kb, sleep: func(time.Duration) {}}
	if err := ty.Type("abc"); err == nil {
		t.Fatal("expected error")
	}
}

type memClipboard struct {
	mu      sync.Mutex
	content string
	writes  []string
}

func (c *memClipboard) Read() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.content, nil
}

func (c *memClipboard) Write(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.content = text
	c.writes = append(c.writes, text)
	return nil
}

func TestPasterRestoresClipboard(t *testing.T) {
	kb := &tapLog{}
	clip := &memClipboard{content: "previous"}
	p := &Paster{kb: kb, clip: clip, sleep: func(time.Duration) {}}

	if err := p.Type("dictated"); err != nil {
		t.Fatal(err)
	}
	p.Wait()

	if kb.pastes != 1 {
		t.Errorf("pastes = %d, want 1", kb.pastes)
	}
	if want := []string{"dictated", "previous"}; !slices.Equal(clip.writes, want) {
		t.Errorf("clipboard writes = %v, want %v", clip.writes, want)
	}
}

func TestPasterLeavesEmptyClipboard(t *testing.T) {
	clip := &memClipboard{}
	p := &Paster{kb: &tapLog{}, clip: clip, sleep: func(time.Duration) {}}
	if err := p.Type("x"); err != nil {
		t.Fatal(err)
	}
	p.Wait()
	if want := []string{"x"}; !slices.Equal(clip.writes, want) {
		t.Errorf("clipboard writes = %v, want %v", clip.writes, want)
	}
}

func TestFake(t *testing.T) {
	f := &Fake{}
	f.Type("a")
	f.Err = errors.New("x")
	if err := f.Type("b"); err == nil {
		t.Fatal("expected configured error")
	}
	if !slices.Equal(f.Texts(), []string{"a", "b"}) {
		t.Fatalf("Texts() = %v", f.Texts())
	}
}
