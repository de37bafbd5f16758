//go:build windows

package proc

import (
	"os"
	"os/exec"
)

// setSysProcAttr is a no-op on Windows.
func setSysProcAttr(cmd *exec.Cmd) {}

// sendTermSignal kills the process; Windows has no SIGTERM.
func sendTermSignal(p *os.Process) error {
	return p.Kill()
}
