//go:build !gui

package main

import (
	"fmt"
	"os"
)

func initGUI(*options) int {
	fmt.Fprintln(os.Stderr, "Error: murmur was built without GUI support (rebuild with -tags gui)")
	return 1
}
