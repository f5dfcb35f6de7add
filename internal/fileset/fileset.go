// Package fileset checks an invocation's inputs and destination before any
// external process is started. Nothing in this package writes to disk.
package fileset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mahyarmirrashed/obfus/internal/config"
	"github.com/mahyarmirrashed/obfus/internal/utils"
)

// Request is the input to Validate.
type Request struct {
	Inputs  []string
	Config  config.Config
	WorkDir string // relative paths resolve here; "" means the current directory
}

// Plan is a validated invocation.
type Plan struct {
	Mode config.Mode

	// Inputs holds absolute input paths in compress mode and absolute archive
	// paths in decompress mode.
	Inputs []string

	// Output is the absolute destination of the archive. Empty in decompress
	// mode, where archives extract into WorkDir.
	Output string

	WorkDir string
}

// Validate applies the checks in order and returns the first failing class.
// Within a class every offending path is reported.
func Validate(req Request) (Plan, error) {
	cfg := req.Config
	plan := Plan{Mode: cfg.Mode}

	if len(req.Inputs) == 0 {
		return Plan{}, &NoInputsError{Mode: string(cfg.Mode)}
	}

	workDir, err := resolveWorkDir(req.WorkDir)
	if err != nil {
		return Plan{}, err
	}
	plan.WorkDir = workDir

	abs := make([]string, len(req.Inputs))
	for i, in := range req.Inputs {
		abs[i] = absolute(workDir, in)
	}

	if cfg.Mode == config.ModeCompress {
		// "." names the work dir itself, so derive from the resolved path
		name := cfg.Naming.DeriveName(abs)
		if cfg.Output != "" {
			name = config.SanitizeOutputName(cfg.Output)
		}
		plan.Output = filepath.Join(workDir, name)

		if !cfg.Force {
			if exists, err := Exists(plan.Output); err != nil {
				return Plan{}, fmt.Errorf("check output: %w", err)
			} else if exists {
				return Plan{}, &OutputExistsError{Path: plan.Output}
			}
		}
	}

	var missing []string
	for i, path := range abs {
		exists, err := Exists(path)
		if err != nil {
			return Plan{}, fmt.Errorf("check input %s: %w", req.Inputs[i], err)
		}
		if !exists {
			missing = append(missing, path)
			continue
		}
		plan.Inputs = append(plan.Inputs, path)
	}
	if len(missing) > 0 {
		return Plan{}, &MissingInputsError{Paths: missing}
	}

	if cfg.Mode == config.ModeCompress && !cfg.Keep {
		for _, in := range plan.Inputs {
			if within(in, plan.Output) {
				return Plan{}, &OutputInsideInputError{Output: plan.Output, Input: in}
			}
		}
	}

	if cfg.Mode == config.ModeCompress && len(cfg.Recipients) == 0 {
		return Plan{}, &NoRecipientsError{}
	}
	return plan, nil
}

func resolveWorkDir(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		return wd, nil
	}
	abs, err := utils.AbsPath(dir)
	if err != nil {
		return "", fmt.Errorf("resolve working directory %s: %w", dir, err)
	}
	return abs, nil
}

func absolute(workDir, path string) string {
	path = utils.ExpandTilde(path)
	if !filepath.IsAbs(path) {
		path = filepath.Join(workDir, path)
	}
	return filepath.Clean(path)
}

// within reports whether path is dir or lies below it.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// Exists reports whether anything is present at path. It uses Lstat so a
// dangling symlink still counts as present.
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}
