//go:build !windows

package loop

import (
	"os"
	"syscall"
)

// InterruptSignals are handled by the double-interrupt shutdown.
func InterruptSignals() []os.Signal {
	return []os.Signal{syscall.SIGINT}
}

// StopSignals end the loop at once after terminating background processes.
func StopSignals() []os.Signal {
	return []os.Signal{syscall.SIGTERM, syscall.SIGHUP}
}
