// Package pipeline runs the external archive, compress and encrypt stages as
// one operation and commits the result atomically.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/mahyarmirrashed/obfus/internal/config"
	"github.com/mahyarmirrashed/obfus/internal/fileset"
	"github.com/sirupsen/logrus"
)

const (
	defaultGracePeriod = 5 * time.Second
	lockRetryDelay     = 50 * time.Millisecond
)

// Runner executes validated plans.
type Runner struct {
	Tools Tools
	Log   logrus.FieldLogger
	Out   io.Writer // receives the verbose summary

	// GracePeriod is how long a stage may take to exit after SIGTERM before
	// it is killed.
	GracePeriod time.Duration
}

// Result describes a successful run.
type Result struct {
	Artifacts []string // the archive written, or the top-level entries extracted
	Bytes     int64    // size of the archive written or read
}

// NewRunner returns a Runner using tools, logging to logger and printing the
// verbose summary to out.
func NewRunner(tools Tools, logger logrus.FieldLogger, out io.Writer) *Runner {
	return &Runner{Tools: tools, Log: logger, Out: out}
}

// Run executes plan. On any failure no destination is created and every
// temporary file is removed. Sources are removed only after a successful
// commit, and only when cfg.Keep is false.
func (r *Runner) Run(ctx context.Context, plan fileset.Plan, cfg config.Config) (Result, error) {
	tools, err := r.Tools.Resolve()
	if err != nil {
		return Result{}, err
	}

	if cfg.Verbose() && r.Out != nil {
		fmt.Fprintln(r.Out, Summary(plan, cfg))
	}

	switch plan.Mode {
	case config.ModeCompress:
		return r.compress(ctx, tools, plan, cfg)
	case config.ModeDecompress:
		return r.decompress(ctx, tools, plan, cfg)
	}
	return Result{}, fmt.Errorf("unknown mode %q", plan.Mode)
}

func (r *Runner) compress(ctx context.Context, tools Tools, plan fileset.Plan, cfg config.Config) (Result, error) {
	dest := plan.Output
	fail := func(failures []StageFailure, err error) error {
		return &Error{Op: "compress", Target: dest, Failures: failures, Err: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return Result{}, fmt.Errorf("create temporary archive: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	// the temporary archive may sit inside an input, e.g. when archiving "."
	spec := CompressSpec(tools, plan.Inputs, cfg.Level, cfg.Recipients, filepath.Base(tmp.Name()))

	r.logger().Infof("compressing %d input(s) into %s", len(plan.Inputs), dest)
	failures, err := execute(ctx, spec, tmp, r.grace(), r.logger())
	if err == nil {
		err = ctx.Err()
	}
	if err != nil || len(failures) > 0 {
		return Result{}, fail(failures, err)
	}

	info, err := tmp.Stat()
	if err != nil {
		return Result{}, fmt.Errorf("stat temporary archive: %w", err)
	}
	if info.Size() == 0 {
		return Result{}, fail(nil, ErrEmptyOutput)
	}

	if err := r.commitFile(ctx, tmp, dest, cfg.Force); err != nil {
		return Result{}, err
	}
	committed = true
	r.logger().Infof("wrote %s (%s)", dest, humanize.Bytes(uint64(info.Size())))

	res := Result{Artifacts: []string{dest}, Bytes: info.Size()}
	if !cfg.Keep {
		if err := r.removeSources(plan.Inputs); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (r *Runner) decompress(ctx context.Context, tools Tools, plan fileset.Plan, cfg config.Config) (Result, error) {
	var res Result
	for _, archive := range plan.Inputs {
		entries, size, err := r.extract(ctx, tools, archive, plan.WorkDir, cfg.Force)
		if err != nil {
			return res, err
		}
		res.Artifacts = append(res.Artifacts, entries...)
		res.Bytes += size
		r.logger().Infof("extracted %s (%s) into %s", archive, humanize.Bytes(uint64(size)), plan.WorkDir)

		if !cfg.Keep {
			if err := r.removeSources([]string{archive}); err != nil {
				return res, err
			}
		}
	}
	return res, nil
}

// extract unpacks archive into a scratch directory inside workDir and then
// moves the top-level entries into workDir.
func (r *Runner) extract(ctx context.Context, tools Tools, archive, workDir string, force bool) ([]string, int64, error) {
	fail := func(failures []StageFailure, err error) error {
		return &Error{Op: "decompress", Target: archive, Failures: failures, Err: err}
	}

	info, err := os.Stat(archive)
	if err != nil {
		return nil, 0, fmt.Errorf("stat archive: %w", err)
	}

	scratch, err := os.MkdirTemp(workDir, ".obfus-extract-*")
	if err != nil {
		return nil, 0, fmt.Errorf("create extraction directory: %w", err)
	}
	defer os.RemoveAll(scratch)

	r.logger().Infof("decompressing %s", archive)
	failures, err := execute(ctx, DecompressSpec(tools, archive, scratch), nil, r.grace(), r.logger())
	if err == nil {
		err = ctx.Err()
	}
	if err != nil || len(failures) > 0 {
		return nil, 0, fail(failures, err)
	}

	names, err := readNames(scratch)
	if err != nil {
		return nil, 0, fmt.Errorf("read extracted entries: %w", err)
	}
	if len(names) == 0 {
		return nil, 0, fail(nil, ErrEmptyOutput)
	}

	moved, err := r.commitEntries(ctx, scratch, workDir, names, force)
	if err != nil {
		return nil, 0, err
	}
	return moved, info.Size(), nil
}

func (r *Runner) removeSources(paths []string) error {
	var errs []error
	for _, p := range paths {
		r.logger().Debugf("removing %s", p)
		if err := os.RemoveAll(p); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

func (r *Runner) grace() time.Duration {
	if r.GracePeriod > 0 {
		return r.GracePeriod
	}
	return defaultGracePeriod
}

func (r *Runner) logger() logrus.FieldLogger {
	if r.Log == nil {
		return logrus.StandardLogger()
	}
	return r.Log
}

// lock takes the advisory lock guarding commits into dir.
func lock(ctx context.Context, path string) (func(), error) {
	fl := flock.New(path)
	ok, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("acquire lock %s: not acquired", path)
	}
	return func() {
		_ = fl.Unlock()
		_ = os.Remove(path)
	}, nil
}
