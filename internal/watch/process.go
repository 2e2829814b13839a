package watch

import (
	"os"
	"syscall"
)

// processAlive sends signal 0 to pid. Where signal 0 is unsupported the
// process counts as gone.
func processAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
