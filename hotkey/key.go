package hotkey

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

var ErrUnknownKey = errors.New("unknown key")

// Key identifies a single physical key: either a named control key such as
// "ctrl_r", or a printable character key. The zero Key matches nothing.
type Key struct {
	name string
	char rune
}

func Named(name string) Key { return Key{name: name} }

func Char(r rune) Key { return Key{char: unicode.ToLower(r)} }

func (k Key) IsZero() bool { return k.name == "" && k.char == 0 }

// Matches reports whether k and o denote the same key. Named keys compare by
// name and character keys by rune; the two variants never match each other.
func (k Key) Matches(o Key) bool {
	if k.IsZero() || o.IsZero() {
		return false
	}
	if k.name != "" || o.name != "" {
		return k.name == o.name
	}
	return k.char == o.char
}

// String returns the config spelling of the key.
func (k Key) String() string {
	if k.name != "" {
		return k.name
	}
	if k.char != 0 {
		return string(k.char)
	}
	return ""
}

// Label is the human form shown in the banner and status display.
func (k Key) Label() string {
	if nk, ok := namedKeys[k.name]; ok {
		return nk.label
	}
	if k.char != 0 {
		return strings.ToUpper(string(k.char))
	}
	return k.String()
}

var aliases = map[string]string{
	"escape":      "esc",
	"return":      "enter",
	"ctrl":        "ctrl_l",
	"shift":       "shift_l",
	"alt":         "alt_l",
	"alt_gr":      "alt_r",
	"cmd":         "cmd_l",
	"super":       "cmd_l",
	"super_l":     "cmd_l",
	"super_r":     "cmd_r",
	"right_ctrl":  "ctrl_r",
	"right_alt":   "alt_r",
	"right_shift": "shift_r",
}

// ParseKey accepts a named key ("ctrl_r", "f8", "Key.esc") or a single
// character that has a key on a US layout.
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) == 1 {
		r, _ := utf8.DecodeRuneInString(s)
		if _, _, ok := KeyForChar(unicode.ToLower(r)); !ok || unicode.IsSpace(r) {
			return Key{}, fmt.Errorf("%w: %q", ErrUnknownKey, s)
		}
		return Char(r), nil
	}

	name := strings.ToLower(strings.TrimPrefix(s, "Key."))
	if a, ok := aliases[name]; ok {
		name = a
	}
	if _, ok := namedKeys[name]; !ok {
		return Key{}, fmt.Errorf("%w: %q", ErrUnknownKey, s)
	}
	return Named(name), nil
}

// MustParseKey is ParseKey for constants.
func MustParseKey(s string) Key {
	k, err := ParseKey(s)
	if err != nil {
		panic(err)
	}
	return k
}
