//go:build linux

package main

import "os"

func main() {
	o, code, ok := parseOptions(os.Args[1:])
	if !ok {
		os.Exit(code)
	}
	if o.cfg.UI.Mode == "gui" && !o.doctor && o.testWAV == "" {
		os.Exit(initGUI(o))
	}
	os.Exit(run(o, nil))
}
