//go:build !windows

package doctor

import "os/exec"

// resetTerminal undoes raw mode left behind by a key source or prompt.
func resetTerminal() {
	exec.Command("stty", "sane").Run()
}
