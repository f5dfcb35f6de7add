package pipeline

import (
	"path/filepath"
	"strconv"
	"strings"
)

// Stage is one external process in a pipeline.
type Stage struct {
	Name string // archive, compress, encrypt, ...
	Path string
	Args []string
	Dir  string // working directory, "" to inherit
}

// String renders the stage for diagnostics. It is never passed to a shell.
func (s Stage) String() string {
	parts := append([]string{filepath.Base(s.Path)}, s.Args...)
	for i, p := range parts {
		if p == "" || strings.ContainsAny(p, " \t\n'\"\\$`") {
			parts[i] = strconv.Quote(p)
		}
	}
	return strings.Join(parts, " ")
}

// Spec is an ordered list of stages; stage i's stdout feeds stage i+1's stdin.
type Spec []Stage

// Names returns the stage names in order.
func (s Spec) Names() []string {
	names := make([]string, len(s))
	for i, st := range s {
		names[i] = st.Name
	}
	return names
}

// CompressSpec builds archive -> compress -> encrypt for absolute inputs.
// Each input is archived under its base name, relative to its own directory.
// Entries whose name matches one of exclude are left out of the archive.
func CompressSpec(t Tools, inputs []string, level int, recipients []string, exclude ...string) Spec {
	t = t.withDefaults()

	tarArgs := []string{"-c", "-f", "-"}
	for _, pat := range exclude {
		tarArgs = append(tarArgs, "--exclude="+pat)
	}
	for _, in := range inputs {
		in = filepath.Clean(in)
		// "./" keeps names that start with '-' from being read as options
		tarArgs = append(tarArgs, "-C", filepath.Dir(in), "./"+filepath.Base(in))
	}

	gpgArgs := []string{"--encrypt", "--quiet"}
	for _, r := range recipients {
		gpgArgs = append(gpgArgs, "-r", r)
	}

	return Spec{
		{Name: "archive", Path: t.Archiver, Args: tarArgs},
		{Name: "compress", Path: t.Compressor, Args: []string{"-c", "-q", strconv.Itoa(level)}},
		{Name: "encrypt", Path: t.Encryptor, Args: gpgArgs},
	}
}

// DecompressSpec builds decrypt -> decompress -> extract. The archive is
// extracted into dir.
func DecompressSpec(t Tools, archive, dir string) Spec {
	t = t.withDefaults()
	return Spec{
		{Name: "decrypt", Path: t.Encryptor, Args: []string{"--decrypt", "--quiet", "--", archive}},
		{Name: "decompress", Path: t.Compressor, Args: []string{"-d", "-c"}},
		{Name: "extract", Path: t.Archiver, Args: []string{"-x", "-f", "-"}, Dir: dir},
	}
}
