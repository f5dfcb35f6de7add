package config

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Mode selects the pipeline direction.
type Mode string

const (
	ModeCompress   Mode = "compress"
	ModeDecompress Mode = "decompress"
)

// Verbosity controls diagnostic output only; it never changes behavior.
type Verbosity string

const (
	VerbosityQuiet   Verbosity = "quiet"
	VerbosityNormal  Verbosity = "normal"
	VerbosityVerbose Verbosity = "verbose"
)

// Naming is the policy used to derive an archive name when none is given.
type Naming string

const (
	NamingSuffix Naming = "suffix" // "a.txt" -> "a.txt.obfus"
	NamingStrip  Naming = "strip"  // "a.txt" -> "a"
)

const (
	// DefaultPreset is consulted when no preset is requested explicitly.
	DefaultPreset = "default"

	// ArchiveSuffix is appended to derived names under NamingSuffix.
	ArchiveSuffix = ".obfus"

	// FallbackName is the archive base name used for multiple inputs.
	FallbackName = "Archive"

	MinLevel = 0
	MaxLevel = 9
)

// Config is the effective configuration for one invocation. It is built once
// by Resolver.Resolve and passed by value afterwards; treat it as read-only.
type Config struct {
	Mode       Mode
	Preset     string // name of the applied preset layer, "" if none
	Level      int
	Keep       bool
	Recipients []string
	Output     string // sanitized archive name, "" to derive one
	Force      bool
	Verbosity  Verbosity
	Naming     Naming
	Notify     bool
	Source     string // config file the preset came from, "" if none
}

// Defaults returns the built-in configuration layer.
func Defaults() Config {
	return Config{
		Mode:       ModeCompress,
		Level:      MaxLevel,
		Keep:       true,
		Recipients: []string{},
		Verbosity:  VerbosityNormal,
		Naming:     NamingSuffix,
	}
}

// Verbose reports whether the pre-run summary should be printed.
func (c Config) Verbose() bool { return c.Verbosity == VerbosityVerbose }

// Overrides holds explicitly supplied run-time options. A nil field was not
// supplied and leaves the lower layers untouched.
type Overrides struct {
	Mode       *Mode
	Preset     *string
	Level      *int
	Keep       *bool
	Recipients []string
	Output     *string
	Force      *bool
	Verbosity  *Verbosity
	Naming     *Naming
	Notify     *bool
}

// Preset is one named option bundle from the configuration document.
type Preset struct {
	Level      *int       `yaml:"level" toml:"level"`
	Keep       *bool      `yaml:"keep" toml:"keep"`
	Recipients []string   `yaml:"recipients" toml:"recipients"`
	Naming     *Naming    `yaml:"naming" toml:"naming"`
	Verbosity  *Verbosity `yaml:"verbosity" toml:"verbosity"`
	Notify     *bool      `yaml:"notify" toml:"notify"`
}

// Document maps preset names to presets, exactly as loaded from disk.
type Document map[string]Preset

// Lookup returns the named preset and whether it is defined.
func (d Document) Lookup(name string) (Preset, bool) {
	p, ok := d[name]
	return p, ok
}

var dirPrefix = regexp.MustCompile(`^.*[\\/]`)

// SanitizeOutputName trims name and strips every directory component,
// treating both '/' and '\' as separators.
func SanitizeOutputName(name string) string {
	return dirPrefix.ReplaceAllString(strings.TrimSpace(name), "")
}

func (n Naming) valid() bool {
	return n == NamingSuffix || n == NamingStrip
}

func (v Verbosity) valid() bool {
	return v == VerbosityQuiet || v == VerbosityNormal || v == VerbosityVerbose
}

// DeriveName returns the default archive name for inputs under policy n.
func (n Naming) DeriveName(inputs []string) string {
	name := FallbackName
	if len(inputs) == 1 {
		name = filepath.Base(filepath.Clean(inputs[0]))
		switch name {
		case ".", "..", string(filepath.Separator):
			name = FallbackName
		}
		if n == NamingStrip {
			if stripped := strings.TrimSuffix(name, filepath.Ext(name)); stripped != "" {
				name = stripped
			}
		}
	}
	if n == NamingStrip {
		return name
	}
	return name + ArchiveSuffix
}
