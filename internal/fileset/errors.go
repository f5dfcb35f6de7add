package fileset

import (
	"fmt"
	"strings"
)

// NoInputsError reports an invocation without any input path.
type NoInputsError struct {
	Mode string
}

func (e *NoInputsError) Error() string {
	if e.Mode == "decompress" {
		return "no archive given to decompress"
	}
	return "no input files given"
}

// MissingInputsError lists every input path that does not exist.
type MissingInputsError struct {
	Paths []string
}

func (e *MissingInputsError) Error() string {
	if len(e.Paths) == 1 {
		return fmt.Sprintf("no such file or directory: %s", e.Paths[0])
	}
	return fmt.Sprintf("%d inputs do not exist: %s", len(e.Paths), strings.Join(e.Paths, ", "))
}

// OutputExistsError reports a destination that would be overwritten.
type OutputExistsError struct {
	Path string
}

func (e *OutputExistsError) Error() string {
	return fmt.Sprintf("output already exists: %s", e.Path)
}

// NoRecipientsError reports a compress run with nobody to encrypt for.
type NoRecipientsError struct{}

func (e *NoRecipientsError) Error() string {
	return "no recipients given; pass -r or define recipients in a preset"
}

// OutputInsideInputError reports a run that would remove the directory its
// own archive is written into.
type OutputInsideInputError struct {
	Output, Input string
}

func (e *OutputInsideInputError) Error() string {
	return fmt.Sprintf("output %s lies inside input %s, which --remove would delete", e.Output, e.Input)
}
