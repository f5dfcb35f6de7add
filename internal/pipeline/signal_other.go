//go:build !unix

package pipeline

import "os"

func terminate(p *os.Process) error {
	if p == nil {
		return os.ErrProcessDone
	}
	return p.Kill()
}
