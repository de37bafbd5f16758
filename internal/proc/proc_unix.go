//go:build unix

package proc

import (
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setSysProcAttr puts the child in its own process group so the whole
// group can be signalled and a terminal ^C reaches only the supervisor.
func setSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// sendTermSignal sends SIGTERM to the process group led by p, falling back
// to p alone when it is not a group leader.
func sendTermSignal(p *os.Process) error {
	if pgid, err := unix.Getpgid(p.Pid); err == nil && pgid == p.Pid {
		if err := unix.Kill(-pgid, unix.SIGTERM); err == nil {
			return nil
		}
	}
	return p.Signal(syscall.SIGTERM)
}
