//go:build unix

package pipeline

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// terminate asks a stage to exit. Stages that ignore it are killed after the
// runner's grace period.
func terminate(p *os.Process) error {
	if p == nil {
		return os.ErrProcessDone
	}
	err := unix.Kill(p.Pid, unix.SIGTERM)
	if errors.Is(err, unix.ESRCH) {
		return os.ErrProcessDone
	}
	return err
}
