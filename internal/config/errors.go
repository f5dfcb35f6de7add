package config

import "fmt"

// ParseError reports a configuration file that could not be read or parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse config %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// UnknownPresetError reports an explicitly requested preset that the
// configuration document does not define.
type UnknownPresetError struct {
	Name   string
	Source string // "" when no config file was found
}

func (e *UnknownPresetError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("preset %q requested but no configuration file was found", e.Name)
	}
	return fmt.Sprintf("preset %q is not defined in %s", e.Name, e.Source)
}

// InvalidOptionError reports an option value outside its accepted domain.
type InvalidOptionError struct {
	Option string
	Value  string
	Reason string
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Option, e.Value, e.Reason)
}
