package hotkey

import "fmt"

// Codes for named keys. evdev values come from linux/input-event-codes.h;
// vc values are libuiohook virtual codes as reported by gohook. The two
// agree for the base set and differ for extended keys.
type namedKey struct {
	label string
	evdev uint16
	vc    uint16
}

var namedKeys = map[string]namedKey{
	"esc":         {"Esc", 1, 0x0001},
	"tab":         {"Tab", 15, 0x000F},
	"enter":       {"Enter", 28, 0x001C},
	"space":       {"Space", 57, 0x0039},
	"ctrl_l":      {"Left Ctrl", 29, 0x001D},
	"ctrl_r":      {"Right Ctrl", 97, 0x0E1D},
	"shift_l":     {"Left Shift", 42, 0x002A},
	"shift_r":     {"Right Shift", 54, 0x0036},
	"alt_l":       {"Left Alt", 56, 0x0038},
	"alt_r":       {"Right Alt", 100, 0x0E38},
	"cmd_l":       {"Left Super", 125, 0x0E5B},
	"cmd_r":       {"Right Super", 126, 0x0E5C},
	"menu":        {"Menu", 127, 0x0E5D},
	"caps_lock":   {"Caps Lock", 58, 0x003A},
	"scroll_lock": {"Scroll Lock", 70, 0x0046},
	"pause":       {"Pause", 119, 0x0E45},
	"insert":      {"Insert", 110, 0x0E52},
	"f1":          {"F1", 59, 0x003B},
	"f2":          {"F2", 60, 0x003C},
	"f3":          {"F3", 61, 0x003D},
	"f4":          {"F4", 62, 0x003E},
	"f5":          {"F5", 63, 0x003F},
	"f6":          {"F6", 64, 0x0040},
	"f7":          {"F7", 65, 0x0041},
	"f8":          {"F8", 66, 0x0042},
	"f9":          {"F9", 67, 0x0043},
	"f10":         {"F10", 68, 0x0044},
	"f11":         {"F11", 87, 0x0057},
	"f12":         {"F12", 88, 0x0058},
}

// a=30, b=48, c=46, d=32, e=18, f=33, g=34, h=35, i=23, j=36,
// k=37, l=38, m=50, n=49, o=24, p=25, q=16, r=19, s=31, t=20,
// u=22, v=47, w=17, x=45, y=21, z=44
var letterCodes = [26]uint16{
	30, 48, 46, 32, 18, 33, 34, 35, 23, 36,
	37, 38, 50, 49, 24, 25, 16, 19, 31, 20,
	22, 47, 17, 45, 21, 44,
}

// 0=11, 1=2, 2=3, ..., 9=10
var digitCodes = [10]uint16{11, 2, 3, 4, 5, 6, 7, 8, 9, 10}

type shiftedCode struct {
	code  uint16
	shift bool
}

var punctCodes = map[rune]shiftedCode{
	'.': {52, false}, ',': {51, false}, '/': {53, false},
	';': {39, false}, '\'': {40, false}, '[': {26, false},
	']': {27, false}, '-': {12, false}, '=': {13, false},
	'\\': {43, false}, '`': {41, false},
	'!': {2, true}, '@': {3, true}, '#': {4, true},
	'$': {5, true}, '%': {6, true}, '^': {7, true},
	'&': {8, true}, '*': {9, true}, '(': {10, true},
	')': {11, true}, '_': {12, true}, '+': {13, true},
	'{': {26, true}, '}': {27, true}, '|': {43, true},
	':': {39, true}, '"': {40, true}, '<': {51, true},
	'>': {52, true}, '?': {53, true}, '~': {41, true},
}

// KeyForChar maps a character to the linux key code that produces it on a
// US layout, and whether shift must be held.
func KeyForChar(r rune) (code uint16, shift bool, ok bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return letterCodes[r-'a'], false, true
	case r >= 'A' && r <= 'Z':
		return letterCodes[r-'A'], true, true
	case r >= '0' && r <= '9':
		return digitCodes[r-'0'], false, true
	case r == ' ':
		return 57, false, true
	case r == '\n':
		return 28, false, true
	case r == '\t':
		return 15, false, true
	}
	if k, ok := punctCodes[r]; ok {
		return k.code, k.shift, true
	}
	return 0, false, false
}

var (
	namedByEvdev = map[uint16]string{}
	namedByVC    = map[uint16]string{}
	charByCode   = map[uint16]rune{}
)

func init() {
	for name, k := range namedKeys {
		namedByEvdev[k.evdev] = name
		namedByVC[k.vc] = name
	}
	for i, c := range letterCodes {
		charByCode[c] = rune('a' + i)
	}
	for i, c := range digitCodes {
		charByCode[c] = rune('0' + i)
	}
	for r, k := range punctCodes {
		if !k.shift {
			charByCode[k.code] = r
		}
	}
}

// keyFromEvdev resolves a linux key code. Named keys win over characters.
func keyFromEvdev(code uint16) Key {
	if name, ok := namedByEvdev[code]; ok {
		return Named(name)
	}
	if r, ok := charByCode[code]; ok {
		return Char(r)
	}
	return Named(fmt.Sprintf("code_%d", code))
}

// keyFromVC resolves a libuiohook virtual code. For the base set these are
// the same scan codes linux uses, so the character table is shared.
func keyFromVC(vc uint16) Key {
	if name, ok := namedByVC[vc]; ok {
		return Named(name)
	}
	if r, ok := charByCode[vc]; ok {
		return Char(r)
	}
	return Named(fmt.Sprintf("vc_%d", vc))
}
