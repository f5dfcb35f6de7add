package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const stderrTail = 4 << 10

// tailBuffer keeps the last stderrTail bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - stderrTail; over > 0 {
		b.buf = append(b.buf[:0], b.buf[over:]...)
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}

// execute runs spec with each stage's stdout connected to the next stage's
// stdin and the last stage writing to out (nil discards). It waits for every
// stage and returns the failures of all of them.
func execute(ctx context.Context, spec Spec, out *os.File, grace time.Duration, logger logrus.FieldLogger) ([]StageFailure, error) {
	if len(spec) == 0 {
		return nil, errors.New("empty pipeline")
	}

	cmds := make([]*exec.Cmd, len(spec))
	stderrs := make([]*tailBuffer, len(spec))
	for i, st := range spec {
		cmd := exec.CommandContext(ctx, st.Path, st.Args...) //nolint:gosec
		cmd.Dir = st.Dir
		cmd.Cancel = func() error { return terminate(cmd.Process) }
		cmd.WaitDelay = grace
		stderrs[i] = &tailBuffer{}
		cmd.Stderr = stderrs[i]
		cmds[i] = cmd
	}

	// parent copies of the pipe ends, closed once every stage has started
	var ends []*os.File
	closeEnds := func() {
		for _, f := range ends {
			_ = f.Close()
		}
		ends = nil
	}
	for i := 0; i < len(cmds)-1; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			closeEnds()
			return nil, fmt.Errorf("create pipe: %w", err)
		}
		cmds[i].Stdout = w
		cmds[i+1].Stdin = r
		ends = append(ends, r, w)
	}
	if out != nil {
		cmds[len(cmds)-1].Stdout = out
	}

	started := 0
	var startErr error
	for i, cmd := range cmds {
		logger.Debugf("starting %s stage: %s", spec[i].Name, spec[i])
		if err := cmd.Start(); err != nil {
			startErr = fmt.Errorf("start %s stage: %w", spec[i].Name, err)
			break
		}
		started++
	}
	closeEnds()

	if startErr != nil {
		for _, cmd := range cmds[:started] {
			_ = cmd.Process.Kill()
		}
	}

	var failures []StageFailure
	for i, cmd := range cmds[:started] {
		err := cmd.Wait()
		if err == nil {
			logger.Debugf("%s stage finished", spec[i].Name)
			continue
		}
		f := StageFailure{Stage: spec[i].Name, ExitCode: -1, Stderr: stderrs[i].String(), Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			f.ExitCode = exitErr.ExitCode()
		}
		logger.Debugf("%s stage failed: %v", spec[i].Name, err)
		failures = append(failures, f)
	}
	if startErr != nil {
		return failures, startErr
	}
	return failures, nil
}
