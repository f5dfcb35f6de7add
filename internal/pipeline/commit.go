package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mahyarmirrashed/obfus/internal/fileset"
)

// commitFile moves the finished temporary archive onto dest. The destination
// is checked again under the lock so two runs racing for one name cannot both
// win.
func (r *Runner) commitFile(ctx context.Context, tmp *os.File, dest string, force bool) error {
	unlock, err := lock(ctx, filepath.Join(filepath.Dir(dest), "."+filepath.Base(dest)+".lock"))
	if err != nil {
		return err
	}
	defer unlock()

	if !force {
		exists, err := fileset.Exists(dest)
		if err != nil {
			return fmt.Errorf("check output: %w", err)
		}
		if exists {
			return &fileset.OutputExistsError{Path: dest}
		}
	}

	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("commit archive: %w", err)
	}
	r.logger().Debugf("committed %s", dest)
	return nil
}

// commitEntries moves the named entries from scratch into dir. Nothing is
// moved unless every entry can be placed.
func (r *Runner) commitEntries(ctx context.Context, scratch, dir string, names []string, force bool) ([]string, error) {
	unlock, err := lock(ctx, filepath.Join(dir, ".obfus.lock"))
	if err != nil {
		return nil, err
	}
	defer unlock()

	targets := make([]string, len(names))
	for i, name := range names {
		targets[i] = filepath.Join(dir, name)
		exists, err := fileset.Exists(targets[i])
		if err != nil {
			return nil, fmt.Errorf("check output: %w", err)
		}
		if exists && !force {
			return nil, &fileset.OutputExistsError{Path: targets[i]}
		}
	}

	for i, name := range names {
		if force {
			if err := os.RemoveAll(targets[i]); err != nil {
				return targets[:i], fmt.Errorf("replace %s: %w", targets[i], err)
			}
		}
		if err := os.Rename(filepath.Join(scratch, name), targets[i]); err != nil {
			return targets[:i], fmt.Errorf("move %s: %w", targets[i], err)
		}
		r.logger().Debugf("extracted %s", targets[i])
	}
	return targets, nil
}

// readNames lists dir in name order.
func readNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
