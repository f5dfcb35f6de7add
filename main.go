package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/mahyarmirrashed/obfus/internal/config"
	"github.com/mahyarmirrashed/obfus/internal/fileset"
	"github.com/mahyarmirrashed/obfus/internal/pipeline"
	"github.com/mahyarmirrashed/obfus/internal/utils"
	"github.com/mattn/go-isatty"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

// Set at build time: go build -ldflags "-X main.version=1.2.3"
var version = "dev"

func init() {
	// -v is --verbose
	cli.VersionFlag = &cli.BoolFlag{Name: "version", Usage: "print the version"}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if err := newApp(stdout, stderr).Run(ctx, args); err != nil {
		report(stderr, err)
		return 1
	}
	return 0
}

// usageError reports a malformed command line.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func newApp(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:                   "obfus",
		Usage:                  "bundle files into an encrypted, compressed archive and back",
		ArgsUsage:              "FILE... | -d ARCHIVE...",
		Version:                version,
		Writer:                 stdout,
		ErrWriter:              stderr,
		UseShortOptionHandling: true,
		HideHelpCommand:        true,
		OnUsageError: func(ctx context.Context, cmd *cli.Command, err error, isSubcommand bool) error {
			return &usageError{err: err}
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "compress",
				Aliases: []string{"z"},
				Usage:   "archive, compress and encrypt FILEs (default)",
			},
			&cli.BoolFlag{
				Name:    "decompress",
				Aliases: []string{"d"},
				Usage:   "decrypt and extract ARCHIVEs into the current directory",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "archive file name; directory components are ignored",
			},
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "overwrite existing output",
			},
			&cli.StringFlag{
				Name:    "preset",
				Aliases: []string{"p"},
				Usage:   "configuration preset to apply",
				Sources: cli.EnvVars("OBFUS_PRESET"),
			},
			&cli.IntFlag{
				Name:    "level",
				Aliases: []string{"l"},
				Usage:   "compression level, 0-9",
			},
			&cli.BoolFlag{
				Name:    "remove",
				Aliases: []string{"j"},
				Usage:   "remove sources after a successful run",
			},
			&cli.BoolFlag{
				Name:    "keep",
				Aliases: []string{"k"},
				Usage:   "keep sources (default)",
			},
			&cli.StringSliceFlag{
				Name:    "recipients",
				Aliases: []string{"r"},
				Usage:   "encrypt for these recipients (repeat or comma-separated)",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "print a summary and debug output",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "only print errors",
			},
			&cli.StringFlag{
				Name:  "naming",
				Usage: "default archive naming: suffix (a.txt.obfus) or strip (a)",
			},
			&cli.BoolFlag{
				Name:  "notify",
				Usage: "send a desktop notification when done",
			},
			&cli.StringFlag{
				Name:    "config-dir",
				Usage:   "directory searched for configuration files",
				Sources: cli.EnvVars("OBFUS_CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "archiver",
				Hidden:  true,
				Sources: cli.EnvVars("OBFUS_ARCHIVER"),
			},
			&cli.StringFlag{
				Name:    "compressor",
				Hidden:  true,
				Sources: cli.EnvVars("OBFUS_COMPRESSOR"),
			},
			&cli.StringFlag{
				Name:    "encryptor",
				Hidden:  true,
				Sources: cli.EnvVars("OBFUS_ENCRYPTOR"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			overrides, err := overridesFromFlags(cmd)
			if err != nil {
				return err
			}

			logger := newLogger(stderr)
			// ambiguous config files are reported even under --quiet
			if overrides.Verbosity != nil {
				logger.SetLevel(max(logLevel(*overrides.Verbosity), log.WarnLevel))
			}

			store := config.NewStore(utils.ExpandTilde(cmd.String("config-dir")), logger)
			cfg, err := config.NewResolver(store).Resolve(overrides)
			if err != nil {
				return err
			}
			logger.SetLevel(logLevel(cfg.Verbosity))

			entry := log.NewEntry(logger)
			if cfg.Verbose() {
				entry = entry.WithField("run", uuid.NewString())
			}
			if cfg.Source != "" {
				entry.Debugf("config %s, preset %q", cfg.Source, cfg.Preset)
			}

			plan, err := fileset.Validate(fileset.Request{Inputs: cmd.Args().Slice(), Config: cfg})
			if err != nil {
				return err
			}

			tools := pipeline.Tools{
				Archiver:   cmd.String("archiver"),
				Compressor: cmd.String("compressor"),
				Encryptor:  cmd.String("encryptor"),
			}
			res, err := pipeline.NewRunner(tools, entry, stdout).Run(ctx, plan, cfg)
			if err != nil {
				utils.SendNotification(cfg.Notify, "obfus", fmt.Sprintf("%s failed", cfg.Mode))
				return err
			}

			utils.SendNotification(cfg.Notify, "obfus", fmt.Sprintf("%s finished: %s", cfg.Mode, strings.Join(res.Artifacts, ", ")))
			return nil
		},
	}
}

// overridesFromFlags copies every flag the user actually set.
func overridesFromFlags(cmd *cli.Command) (config.Overrides, error) {
	var o config.Overrides

	if cmd.Bool("compress") && cmd.Bool("decompress") {
		return o, usagef("--compress and --decompress are mutually exclusive")
	}
	if cmd.Bool("keep") && cmd.Bool("remove") {
		return o, usagef("--keep and --remove are mutually exclusive")
	}
	if cmd.Bool("verbose") && cmd.Bool("quiet") {
		return o, usagef("--verbose and --quiet are mutually exclusive")
	}

	switch {
	case cmd.Bool("decompress"):
		mode := config.ModeDecompress
		o.Mode = &mode
	case cmd.Bool("compress"):
		mode := config.ModeCompress
		o.Mode = &mode
	}

	if cmd.IsSet("preset") {
		preset := cmd.String("preset")
		o.Preset = &preset
	}
	if cmd.IsSet("level") {
		level := int(cmd.Int("level"))
		o.Level = &level
	}
	switch {
	case cmd.Bool("keep"):
		keep := true
		o.Keep = &keep
	case cmd.Bool("remove"):
		keep := false
		o.Keep = &keep
	}
	if cmd.IsSet("recipients") {
		var merged []string
		for _, r := range cmd.StringSlice("recipients") {
			merged = append(merged, strings.Split(r, ",")...)
		}
		o.Recipients = merged
	}
	if cmd.IsSet("output") {
		output := cmd.String("output")
		o.Output = &output
	}
	if cmd.IsSet("force") {
		force := cmd.Bool("force")
		o.Force = &force
	}
	switch {
	case cmd.Bool("verbose"):
		v := config.VerbosityVerbose
		o.Verbosity = &v
	case cmd.Bool("quiet"):
		v := config.VerbosityQuiet
		o.Verbosity = &v
	}
	if cmd.IsSet("naming") {
		naming := config.Naming(strings.ToLower(strings.TrimSpace(cmd.String("naming"))))
		o.Naming = &naming
	}
	if cmd.IsSet("notify") {
		notify := cmd.Bool("notify")
		o.Notify = &notify
	}
	return o, nil
}

func newLogger(w io.Writer) *log.Logger {
	logger := log.New()
	logger.SetOutput(w)

	tty := false
	if f, ok := w.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	logger.SetFormatter(&log.TextFormatter{
		DisableTimestamp: true,
		ForceColors:      tty,
		DisableColors:    !tty,
	})
	logger.SetLevel(log.InfoLevel)
	return logger
}

func logLevel(v config.Verbosity) log.Level {
	switch v {
	case config.VerbosityQuiet:
		return log.ErrorLevel
	case config.VerbosityVerbose:
		return log.DebugLevel
	default:
		return log.InfoLevel
	}
}

// report prints err and, where the user can fix it, a hint.
func report(w io.Writer, err error) {
	fmt.Fprintf(w, "obfus: error: %v\n", err)
	if hint := hintFor(err); hint != "" {
		fmt.Fprintf(w, "obfus: %s\n", hint)
	}
}

func hintFor(err error) string {
	var (
		usage    *usageError
		noInputs *fileset.NoInputsError
		noRecips *fileset.NoRecipientsError
		exists   *fileset.OutputExistsError
		inside   *fileset.OutputInsideInputError
		preset   *config.UnknownPresetError
		invalid  *config.InvalidOptionError
		noTool   *pipeline.MissingToolError
	)
	switch {
	case errors.As(err, &exists):
		return "use --force to overwrite"
	case errors.As(err, &inside):
		return "drop --remove or run obfus from the parent directory"
	case errors.As(err, &noTool):
		return "install it or point --archiver, --compressor or --encryptor at it"
	case errors.As(err, &usage), errors.As(err, &noInputs), errors.As(err, &noRecips),
		errors.As(err, &preset), errors.As(err, &invalid):
		return "try 'obfus --help'"
	}
	return ""
}
