//go:build !linux

package hotkey

import "fmt"

const DefaultBackend = "hook"

// New returns the key source for backend: "hook" sees every key, "register"
// grabs only trigger as a system hotkey.
func New(backend string, trigger Key) (Source, error) {
	switch backend {
	case "", "hook":
		return NewHook(), nil
	case "register":
		return newRegistered(trigger)
	}
	return nil, fmt.Errorf("input backend %q is not available on this platform", backend)
}

func Diagnose(backend string) (string, error) {
	if backend == "register" {
		return "system hotkey registration (trigger only, no permission needed)", nil
	}
	return "global hook via libuiohook (grant Accessibility/Input Monitoring if keys are not seen)", nil
}
