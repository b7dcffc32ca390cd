package inject

import (
	"runtime"
	"time"

	"github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"
)

type keybdKeyboard struct {
	kb keybd_event.KeyBonding
}

func newKeyboard() (*keybdKeyboard, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, err
	}
	if runtime.GOOS == "linux" {
		// udev must register the new uinput device before its first event.
		time.Sleep(500 * time.Millisecond)
	}
	return &keybdKeyboard{kb: kb}, nil
}

func (k *keybdKeyboard) tap(code uint16, shift bool) error {
	k.kb.Clear()
	k.kb.SetKeys(int(code))
	k.kb.HasSHIFT(shift)
	return k.kb.Launching()
}

func (k *keybdKeyboard) paste() error {
	k.kb.Clear()
	k.kb.SetKeys(keybd_event.VK_V)
	if runtime.GOOS == "darwin" {
		k.kb.HasSuper(true)
	} else {
		k.kb.HasCTRL(true)
	}
	return k.kb.Launching()
}

type systemClipboard struct{}

func (systemClipboard) Read() (string, error)   { return clipboard.ReadAll() }
func (systemClipboard) Write(text string) error { return clipboard.WriteAll(text) }

// Diagnose reports whether the clipboard can be reached, for the doctor.
func Diagnose() (string, error) {
	if clipboard.Unsupported {
		return "", errNoClipboardTool
	}
	if _, err := clipboard.ReadAll(); err != nil {
		return "", err
	}
	return "clipboard readable", nil
}
