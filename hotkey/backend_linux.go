//go:build linux

package hotkey

import "fmt"

const DefaultBackend = "evdev"

// New returns the key source for backend: "evdev" or "hook". trigger is
// only needed by backends that grab a single key.
func New(backend string, _ Key) (Source, error) {
	switch backend {
	case "", "evdev":
		return NewEvdev(), nil
	case "hook":
		return NewHook(), nil
	case "register":
		return nil, fmt.Errorf("input backend %q is not available on linux", backend)
	}
	return nil, fmt.Errorf("unknown input backend %q", backend)
}

func Diagnose(backend string) (string, error) {
	if backend == "hook" {
		return "global hook via libuiohook (requires X11)", nil
	}
	return diagnoseEvdev()
}
