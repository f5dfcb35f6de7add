package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Resolver merges built-in defaults, a preset from the configuration
// document, and explicit overrides into one effective Config.
type Resolver struct {
	// Store locates and loads the configuration document. A nil Store means
	// no configuration file is consulted.
	Store *Store
}

// NewResolver returns a Resolver reading presets through store.
func NewResolver(store *Store) *Resolver {
	return &Resolver{Store: store}
}

// Resolve computes the effective configuration. The result depends only on
// the defaults, the discovered document and o.
func (r *Resolver) Resolve(o Overrides) (Config, error) {
	cfg := Defaults()

	var doc Document
	if r.Store != nil {
		if path := r.Store.Locate(); path != "" {
			loaded, err := r.Store.Load(path)
			if err != nil {
				return Config{}, err
			}
			doc = loaded
			cfg.Source = path
		}
	}

	var preset Preset
	switch {
	case o.Preset != nil:
		name := strings.TrimSpace(*o.Preset)
		p, ok := doc.Lookup(name)
		if !ok {
			return Config{}, &UnknownPresetError{Name: name, Source: cfg.Source}
		}
		preset = p
		cfg.Preset = name
	default:
		if p, ok := doc.Lookup(DefaultPreset); ok {
			preset = p
			cfg.Preset = DefaultPreset
		}
	}

	cfg.applyPreset(preset)
	presetRecipients := cfg.Recipients

	cfg.applyOverrides(o)
	if o.Output != nil && cfg.Output == "" {
		return Config{}, &InvalidOptionError{Option: "output name", Value: *o.Output, Reason: "no file name left after removing directories"}
	}
	if o.Recipients != nil {
		cfg.Recipients = Union(normalizeRecipients(o.Recipients), presetRecipients)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyPreset(p Preset) {
	if p.Level != nil {
		c.Level = *p.Level
	}
	if p.Keep != nil {
		c.Keep = *p.Keep
	}
	if p.Recipients != nil {
		c.Recipients = normalizeRecipients(p.Recipients)
	}
	if p.Naming != nil {
		c.Naming = Naming(strings.ToLower(strings.TrimSpace(string(*p.Naming))))
	}
	if p.Verbosity != nil {
		c.Verbosity = Verbosity(strings.ToLower(strings.TrimSpace(string(*p.Verbosity))))
	}
	if p.Notify != nil {
		c.Notify = *p.Notify
	}
}

// applyOverrides replaces every supplied field. Recipients are merged by the
// caller.
func (c *Config) applyOverrides(o Overrides) {
	if o.Mode != nil {
		c.Mode = *o.Mode
	}
	if o.Level != nil {
		c.Level = *o.Level
	}
	if o.Keep != nil {
		c.Keep = *o.Keep
	}
	if o.Output != nil {
		c.Output = SanitizeOutputName(*o.Output)
	}
	if o.Force != nil {
		c.Force = *o.Force
	}
	if o.Verbosity != nil {
		c.Verbosity = *o.Verbosity
	}
	if o.Naming != nil {
		c.Naming = *o.Naming
	}
	if o.Notify != nil {
		c.Notify = *o.Notify
	}
}

func (c *Config) validate() error {
	if c.Mode != ModeCompress && c.Mode != ModeDecompress {
		return &InvalidOptionError{Option: "mode", Value: string(c.Mode), Reason: "use 'compress' or 'decompress'"}
	}
	if c.Level < MinLevel || c.Level > MaxLevel {
		return &InvalidOptionError{
			Option: "level",
			Value:  strconv.Itoa(c.Level),
			Reason: fmt.Sprintf("must be between %d and %d", MinLevel, MaxLevel),
		}
	}
	if !c.Naming.valid() {
		return &InvalidOptionError{Option: "naming", Value: string(c.Naming), Reason: "use 'suffix' or 'strip'"}
	}
	if !c.Verbosity.valid() {
		return &InvalidOptionError{Option: "verbosity", Value: string(c.Verbosity), Reason: "use 'quiet', 'normal' or 'verbose'"}
	}
	switch c.Output {
	case ".", "..":
		return &InvalidOptionError{Option: "output name", Value: c.Output, Reason: "not a file name"}
	}
	return nil
}

// Union returns explicit followed by every entry of inherited that explicit
// does not already contain. Neither input is modified.
func Union(explicit, inherited []string) []string {
	out := make([]string, 0, len(explicit)+len(inherited))
	seen := make(map[string]struct{}, len(explicit)+len(inherited))
	for _, list := range [][]string{explicit, inherited} {
		for _, r := range list {
			if _, ok := seen[r]; ok {
				continue
			}
			seen[r] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}

// normalizeRecipients trims entries, drops empty ones and removes duplicates
// while keeping first-seen order.
func normalizeRecipients(in []string) []string {
	trimmed := make([]string, 0, len(in))
	for _, r := range in {
		if r = strings.TrimSpace(r); r != "" {
			trimmed = append(trimmed, r)
		}
	}
	return Union(trimmed, nil)
}
