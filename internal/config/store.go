package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mahyarmirrashed/obfus/internal/matcher"
	"github.com/sirupsen/logrus"
)

// candidate is one config location pattern, rooted at a directory chosen by
// the store.
type candidate struct {
	root func(*Store) string
	set  *matcher.Set
}

// Candidate locations, in precedence order.
var candidates = []candidate{
	{root: (*Store).configDir, set: matcher.MustNew("{.config*,config*}")},
	{root: (*Store).configDir, set: matcher.MustNew("{.obfusconfig*,.obfusrc}")},
	{root: (*Store).homeDir, set: matcher.MustNew("{.obfusconfig*,.obfusrc}")},
}

// Store locates and reads the configuration document. It performs no merging.
type Store struct {
	Dir  string // obfus config directory, e.g. ~/.config/obfus
	Home string // home directory
	Log  logrus.FieldLogger
}

// NewStore returns a Store rooted at the user's configuration and home
// directories. dir, when non-empty, replaces the obfus config directory.
func NewStore(dir string, logger logrus.FieldLogger) *Store {
	s := &Store{Dir: dir, Log: logger}
	if home, err := os.UserHomeDir(); err == nil {
		s.Home = home
	}
	if s.Dir == "" {
		if base, err := os.UserConfigDir(); err == nil {
			s.Dir = filepath.Join(base, "obfus")
		}
	}
	if s.Log == nil {
		s.Log = logrus.StandardLogger()
	}
	return s
}

func (s *Store) configDir() string { return s.Dir }
func (s *Store) homeDir() string   { return s.Home }

// Locate returns the configuration file to use, or "" when there is none.
// When several candidates match, every match is reported and the first one,
// in pattern-then-name order, is used. Locate never fails: unreadable
// candidate directories count as having no matches.
func (s *Store) Locate() string {
	matches := s.Candidates()
	switch len(matches) {
	case 0:
		s.logger().Debug("no configuration file found")
		return ""
	case 1:
		s.logger().Debugf("using config file %s", matches[0])
		return matches[0]
	}

	s.logger().Warnf("encountered multiple configuration files:\n  %s\nreading from: %s",
		strings.Join(matches, "\n  "), matches[0])
	return matches[0]
}

// Candidates expands every location pattern and returns all matching regular
// files as absolute paths, without duplicates.
func (s *Store) Candidates() []string {
	var out []string
	seen := map[string]struct{}{}
	for _, c := range candidates {
		root := c.root(s)
		if root == "" {
			continue
		}
		for _, m := range s.glob(root, c.set) {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	return out
}

func (s *Store) glob(root string, set *matcher.Set) []string {
	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger().Debugf("skipping config location %s: %v", root, err)
		}
		return nil
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !set.Matches(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	out := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(root, name)
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		out = append(out, path)
	}
	return out
}

func (s *Store) logger() logrus.FieldLogger {
	if s.Log == nil {
		return logrus.StandardLogger()
	}
	return s.Log
}
