package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyOutput is reported when every stage succeeded but nothing was
// produced.
var ErrEmptyOutput = errors.New("pipeline produced no output")

// StageFailure describes one stage that did not exit cleanly.
type StageFailure struct {
	Stage    string
	ExitCode int    // -1 when the process was killed by a signal or never ran
	Stderr   string // last part of the stage's standard error
	Err      error
}

func (f StageFailure) String() string {
	msg := fmt.Sprintf("%s exited with status %d", f.Stage, f.ExitCode)
	if f.ExitCode < 0 && f.Err != nil {
		msg = fmt.Sprintf("%s: %v", f.Stage, f.Err)
	}
	if tail := lastLine(f.Stderr); tail != "" {
		msg += ": " + tail
	}
	return msg
}

// Error reports a failed pipeline run. No destination was written.
type Error struct {
	Op       string // "compress" or "decompress"
	Target   string
	Failures []StageFailure
	Err      error // cancellation, ErrEmptyOutput or a setup failure
}

func (e *Error) Error() string {
	var parts []string
	for _, f := range e.Failures {
		parts = append(parts, f.String())
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return fmt.Sprintf("%s %s failed: %s", e.Op, e.Target, strings.Join(parts, "; "))
}

func (e *Error) Unwrap() error { return e.Err }

// Failed reports whether the named stage is among the failures.
func (e *Error) Failed(stage string) bool {
	for _, f := range e.Failures {
		if f.Stage == stage {
			return true
		}
	}
	return false
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}
