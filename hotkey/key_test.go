package hotkey

import (
	"errors"
	"testing"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		in    string
		want  Key
		label string
	}{
		{"ctrl_r", Named("ctrl_r"), "Right Ctrl"},
		{"Key.ctrl_r", Named("ctrl_r"), "Right Ctrl"},
		{"ESC", Named("esc"), "Esc"},
		{"escape", Named("esc"), "Esc"},
		{"f8", Named("f8"), "F8"},
		{"right_alt", Named("alt_r"), "Right Alt"},
		{"a", Char('a'), "A"},
		{"Q", Char('q'), "Q"},
		{"`", Char('`'), "`"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKey(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("ParseKey(%q) = %#v, want %#v", tt.in, got, tt.want)
			}
			if got.Label() != tt.label {
				t.Errorf("Label() = %q, want %q", got.Label(), tt.label)
			}
		})
	}
}

func TestParseKeyRejects(t *testing.T) {
	for _, in := range []string{"", " ", "hyper", "é", "ctrl+shift"} {
		if _, err := ParseKey(in); !errors.Is(err, ErrUnknownKey) {
			t.Errorf("ParseKey(%q) err = %v, want ErrUnknownKey", in, err)
		}
	}
}

func TestKeyMatches(t *testing.T) {
	if !Named("ctrl_r").Matches(Named("ctrl_r")) {
		t.Error("same named key should match")
	}
	if Named("ctrl_r").Matches(Named("ctrl_l")) {
		t.Error("left and right ctrl must not match")
	}
	if !Char('a').Matches(Char('A')) {
		t.Error("character keys should match case-insensitively")
	}
	if Named("space").Matches(Char(' ')) {
		t.Error("named and character variants must not match")
	}
	if (Key{}).Matches(Key{}) {
		t.Error("zero key must match nothing")
	}
}

func TestKeyFromCodes(t *testing.T) {
	if got := keyFromEvdev(97); got != Named("ctrl_r") {
		t.Errorf("evdev 97 = %v, want ctrl_r", got)
	}
	if got := keyFromEvdev(30); got != Char('a') {
		t.Errorf("evdev 30 = %v, want a", got)
	}
	if got := keyFromVC(0x0E1D); got != Named("ctrl_r") {
		t.Errorf("vc 0x0E1D = %v, want ctrl_r", got)
	}
	if got := keyFromVC(0x001E); got != Char('a') {
		t.Errorf("vc 0x001E = %v, want a", got)
	}
	if got := keyFromEvdev(500); !got.Matches(keyFromEvdev(500)) || got.Matches(Named("esc")) {
		t.Errorf("unknown code resolved to %v", got)
	}
}

func TestKeyForChar(t *testing.T) {
	tests := []struct {
		r     rune
		code  uint16
		shift bool
	}{
		{'a', 30, false},
		{'A', 30, true},
		{'0', 11, false},
		{'?', 53, true},
		{' ', 57, false},
	}
	for _, tt := range tests {
		code, shift, ok := KeyForChar(tt.r)
		if !ok || code != tt.code || shift != tt.shift {
			t.Errorf("KeyForChar(%q) = %d, %v, %v", tt.r, code, shift, ok)
		}
	}
	if _, _, ok := KeyForChar('ü'); ok {
		t.Error("non-ASCII letter should have no mapping")
	}
}
