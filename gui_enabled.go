//go:build gui

package main

import (
	"fmt"
	"os"
	"runtime"

	"murmur/gui"
)

func initGUI(o *options) int {
	// Lock this goroutine to the OS thread for Fyne/GLFW
	runtime.LockOSThread()

	codes := make(chan int, 1)
	var app *gui.App
	app = gui.NewApp(func() {
		codes <- run(o, app)
	})
	if err := gui.Run(app); err != nil {
		fmt.Fprintf(os.Stderr, "Error: gui: %v\n", err)
		return 1
	}
	select {
	case code := <-codes:
		return code
	default:
		return 0
	}
}
