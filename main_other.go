//go:build !linux

package main

import (
	"os"
	"runtime"

	"golang.design/x/hotkey/mainthread"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	o, code, ok := parseOptions(os.Args[1:])
	if !ok {
		os.Exit(code)
	}
	if o.cfg.UI.Mode == "gui" && !o.doctor && o.testWAV == "" {
		// fyne takes the main thread and runs the app in a goroutine
		os.Exit(initGUI(o))
	}
	// System hotkeys and the event tap must be serviced from the main thread.
	mainthread.Init(func() { code = run(o, nil) })
	os.Exit(code)
}
