package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
default:
  level: 6
  keep: false
  recipients: [alice, bob]
work:
  recipients:
    - ops@example.com
  naming: strip
  notify: true
`)
	doc, err := Load(path)
	require.NoError(t, err)
	require.Len(t, doc, 2)

	def, ok := doc.Lookup("default")
	require.True(t, ok)
	require.NotNil(t, def.Level)
	assert.Equal(t, 6, *def.Level)
	require.NotNil(t, def.Keep)
	assert.False(t, *def.Keep)
	assert.Equal(t, []string{"alice", "bob"}, def.Recipients)

	work, ok := doc.Lookup("work")
	require.True(t, ok)
	assert.Nil(t, work.Level)
	require.NotNil(t, work.Naming)
	assert.Equal(t, NamingStrip, *work.Naming)
	require.NotNil(t, work.Notify)
	assert.True(t, *work.Notify)
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "config.toml", `
[default]
level = 3
recipients = ["alice"]
`)
	doc, err := Load(path)
	require.NoError(t, err)

	def, ok := doc.Lookup("default")
	require.True(t, ok)
	require.NotNil(t, def.Level)
	assert.Equal(t, 3, *def.Level)
	assert.Equal(t, []string{"alice"}, def.Recipients)
}

func TestLoadEmptyDocument(t *testing.T) {
	path := writeConfig(t, ".obfusrc", "# nothing configured yet\n")
	doc, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{"malformed yaml", "config.yaml", "default: [unclosed\n"},
		{"unknown yaml key", "config.yaml", "default:\n  colour: red\n"},
		{"custom tag", "config.yaml", "default:\n  recipients: !shell [\"rm -rf\"]\n"},
		{"language tag", "config.yaml", "default: !!python/object:os.system {}\n"},
		{"alias", "config.yaml", "base: &b\n  level: 1\nother: *b\n"},
		{"scalar where list expected", "config.yaml", "default:\n  recipients: alice\n"},
		{"top-level scalar", "config.yaml", "hello\n"},
		{"malformed toml", "config.toml", "[default\nlevel = 1\n"},
		{"unknown toml key", "config.toml", "[default]\ncolour = \"red\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.body)
			_, err := Load(path)
			require.Error(t, err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe), "want *ParseError, got %T", err)
			assert.Equal(t, path, pe.Path)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
