package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

// resolverWith returns a Resolver whose store holds a single config.yaml
// with body, or no file at all when body is empty.
func resolverWith(t *testing.T, body string) (*Resolver, string) {
	t.Helper()
	base := t.TempDir()
	logger, _ := test.NewNullLogger()
	s := &Store{Dir: filepath.Join(base, "obfus"), Home: filepath.Join(base, "home"), Log: logger}
	if body == "" {
		return NewResolver(s), ""
	}
	require.NoError(t, os.MkdirAll(s.Dir, 0o755))
	path := filepath.Join(s.Dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	abs, err := filepath.Abs(path)
	require.NoError(t, err)
	return NewResolver(s), abs
}

func TestResolveDefaultsWithoutConfigFile(t *testing.T) {
	r, _ := resolverWith(t, "")

	cfg, err := r.Resolve(Overrides{Recipients: []string{"alice"}})
	require.NoError(t, err)

	want := Defaults()
	want.Recipients = []string{"alice"}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveNilStore(t *testing.T) {
	cfg, err := NewResolver(nil).Resolve(Overrides{})
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestResolveAdoptsDefaultPreset(t *testing.T) {
	r, src := resolverWith(t, "default:\n  level: 6\n  keep: false\n  recipients: [alice]\n")

	cfg, err := r.Resolve(Overrides{})
	require.NoError(t, err)

	assert.Equal(t, DefaultPreset, cfg.Preset)
	assert.Equal(t, src, cfg.Source)
	assert.Equal(t, 6, cfg.Level)
	assert.False(t, cfg.Keep)
	assert.Equal(t, []string{"alice"}, cfg.Recipients)
}

func TestResolveRecipientUnion(t *testing.T) {
	r, _ := resolverWith(t, "default:\n  recipients: [alice]\n")

	cfg, err := r.Resolve(Overrides{Recipients: []string{"bob"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "alice"}, cfg.Recipients)
}

func TestResolveRecipientUnionDropsDuplicates(t *testing.T) {
	r, _ := resolverWith(t, "work:\n  recipients: [alice, bob, alice]\n")

	cfg, err := r.Resolve(Overrides{
		Preset:     ptr("work"),
		Recipients: []string{" bob ", "carol", "bob", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, "work", cfg.Preset)
	assert.Equal(t, []string{"bob", "carol", "alice"}, cfg.Recipients)
}

func TestResolveOverridesWinOverPreset(t *testing.T) {
	r, _ := resolverWith(t, "default:\n  level: 2\n  keep: false\n  naming: strip\n  verbosity: quiet\n")

	cfg, err := r.Resolve(Overrides{
		Mode:      ptr(ModeDecompress),
		Level:     ptr(7),
		Keep:      ptr(true),
		Naming:    ptr(NamingSuffix),
		Verbosity: ptr(VerbosityVerbose),
		Force:     ptr(true),
	})
	require.NoError(t, err)

	assert.Equal(t, ModeDecompress, cfg.Mode)
	assert.Equal(t, 7, cfg.Level)
	assert.True(t, cfg.Keep)
	assert.Equal(t, NamingSuffix, cfg.Naming)
	assert.Equal(t, VerbosityVerbose, cfg.Verbosity)
	assert.True(t, cfg.Force)
}

func TestResolvePresetOverlaysDefaults(t *testing.T) {
	r, _ := resolverWith(t, "fast:\n  level: 1\n")

	cfg, err := r.Resolve(Overrides{Preset: ptr("fast")})
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Level)
	assert.True(t, cfg.Keep, "unset preset fields keep their defaults")
	assert.Equal(t, NamingSuffix, cfg.Naming)
}

func TestResolveUnknownPreset(t *testing.T) {
	t.Run("with config file", func(t *testing.T) {
		r, src := resolverWith(t, "default:\n  level: 1\n")
		_, err := r.Resolve(Overrides{Preset: ptr("missing")})

		var upe *UnknownPresetError
		require.ErrorAs(t, err, &upe)
		assert.Equal(t, "missing", upe.Name)
		assert.Equal(t, src, upe.Source)
	})
	t.Run("without config file", func(t *testing.T) {
		r, _ := resolverWith(t, "")
		_, err := r.Resolve(Overrides{Preset: ptr("work")})

		var upe *UnknownPresetError
		require.ErrorAs(t, err, &upe)
		assert.Empty(t, upe.Source)
		assert.Contains(t, err.Error(), "no configuration file")
	})
}

func TestResolveMalformedConfigIsFatal(t *testing.T) {
	r, _ := resolverWith(t, "default: [oops\n")

	_, err := r.Resolve(Overrides{})
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
}

func TestResolveInvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		o      Overrides
		option string
	}{
		{"level above range", "", Overrides{Level: ptr(10)}, "level"},
		{"level below range", "", Overrides{Level: ptr(-1)}, "level"},
		{"preset level out of range", "default:\n  level: 12\n", Overrides{}, "level"},
		{"unknown naming", "default:\n  naming: random\n", Overrides{}, "naming"},
		{"unknown verbosity", "", Overrides{Verbosity: ptr(Verbosity("loud"))}, "verbosity"},
		{"unknown mode", "", Overrides{Mode: ptr(Mode("shred"))}, "mode"},
		{"output is only a directory", "", Overrides{Output: ptr("backups/")}, "output name"},
		{"output is dot-dot", "", Overrides{Output: ptr("../..")}, "output name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := resolverWith(t, tt.body)
			_, err := r.Resolve(tt.o)

			var ioe *InvalidOptionError
			require.ErrorAs(t, err, &ioe)
			assert.Equal(t, tt.option, ioe.Option)
		})
	}
}

func TestResolveBoundaryLevels(t *testing.T) {
	r, _ := resolverWith(t, "")
	for _, level := range []int{MinLevel, MaxLevel} {
		cfg, err := r.Resolve(Overrides{Level: ptr(level)})
		require.NoError(t, err)
		assert.Equal(t, level, cfg.Level)
	}
}

func TestResolveSanitizesOutputName(t *testing.T) {
	r, _ := resolverWith(t, "")
	for in, want := range map[string]string{
		"backup.obfus":           "backup.obfus",
		"  spaced.obfus ":        "spaced.obfus",
		"../../etc/passwd":       "passwd",
		`C:\Users\me\secret.obf`: "secret.obf",
		"mixed/sep\\final.obfus": "final.obfus",
	} {
		cfg, err := r.Resolve(Overrides{Output: ptr(in)})
		require.NoError(t, err, in)
		assert.Equal(t, want, cfg.Output, in)
	}
}

func TestResolveIsDeterministic(t *testing.T) {
	r, _ := resolverWith(t, "default:\n  recipients: [alice, dave]\n  level: 4\n")
	o := Overrides{Recipients: []string{"bob", "alice"}, Output: ptr("x.obfus")}

	first, err := r.Resolve(o)
	require.NoError(t, err)
	second, err := r.Resolve(o)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Resolve() not deterministic (-first +second):\n%s", diff)
	}
}

func TestUnion(t *testing.T) {
	tests := []struct {
		name                string
		explicit, inherited []string
		want                []string
	}{
		{"both empty", nil, nil, []string{}},
		{"explicit only", []string{"a"}, nil, []string{"a"}},
		{"inherited only", nil, []string{"a"}, []string{"a"}},
		{"explicit first", []string{"b"}, []string{"a"}, []string{"b", "a"}},
		{"overlap", []string{"b", "a"}, []string{"a", "c"}, []string{"b", "a", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Union(tt.explicit, tt.inherited))
		})
	}
}

func TestDeriveName(t *testing.T) {
	tests := []struct {
		naming Naming
		inputs []string
		want   string
	}{
		{NamingSuffix, []string{"a.txt"}, "a.txt.obfus"},
		{NamingSuffix, []string{"dir/notes/"}, "notes.obfus"},
		{NamingSuffix, []string{"a", "b"}, "Archive.obfus"},
		{NamingSuffix, []string{"/work/proj"}, "proj.obfus"},
		{NamingSuffix, []string{"."}, "Archive.obfus"},
		{NamingSuffix, []string{"/"}, "Archive.obfus"},
		{NamingStrip, []string{".."}, "Archive"},
		{NamingStrip, []string{"a.txt"}, "a"},
		{NamingStrip, []string{".bashrc"}, ".bashrc"},
		{NamingStrip, []string{"a", "b"}, "Archive"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.naming.DeriveName(tt.inputs), "%s %v", tt.naming, tt.inputs)
	}
}
