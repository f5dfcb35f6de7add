package pipeline

import (
	"fmt"
	"os/exec"
	"strings"
)

// Tools names the executables used for each stage. Names without a path
// separator are looked up in PATH.
type Tools struct {
	Archiver   string
	Compressor string
	Encryptor  string
}

// DefaultTools returns tar, brotli and gpg.
func DefaultTools() Tools {
	return Tools{Archiver: "tar", Compressor: "brotli", Encryptor: "gpg"}
}

func (t Tools) withDefaults() Tools {
	def := DefaultTools()
	if strings.TrimSpace(t.Archiver) == "" {
		t.Archiver = def.Archiver
	}
	if strings.TrimSpace(t.Compressor) == "" {
		t.Compressor = def.Compressor
	}
	if strings.TrimSpace(t.Encryptor) == "" {
		t.Encryptor = def.Encryptor
	}
	return t
}

// MissingToolError lists every stage executable that could not be found.
type MissingToolError struct {
	Tools []string
}

func (e *MissingToolError) Error() string {
	return fmt.Sprintf("required tool not found: %s", strings.Join(e.Tools, ", "))
}

// Resolve looks up every tool and returns their full paths. All missing tools
// are reported together.
func (t Tools) Resolve() (Tools, error) {
	t = t.withDefaults()
	var missing []string
	lookup := func(name string) string {
		path, err := exec.LookPath(strings.TrimSpace(name))
		if err != nil {
			missing = append(missing, name)
			return name
		}
		return path
	}

	resolved := Tools{
		Archiver:   lookup(t.Archiver),
		Compressor: lookup(t.Compressor),
		Encryptor:  lookup(t.Encryptor),
	}
	if len(missing) > 0 {
		return Tools{}, &MissingToolError{Tools: missing}
	}
	return resolved, nil
}
