package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Scalar tags a configuration document may contain. Anything else, including
// application-specific tags, binary blobs and merge keys, is refused.
var allowedTags = map[string]bool{
	"!!str":       true,
	"!!int":       true,
	"!!bool":      true,
	"!!float":     true,
	"!!null":      true,
	"!!timestamp": true,
	"!!seq":       true,
	"!!map":       true,
}

// Load parses the configuration document at path.
func (s *Store) Load(path string) (Document, error) {
	return Load(path)
}

// Load reads and parses the configuration document at path. Files ending in
// ".toml" are parsed as TOML, everything else as YAML. Unknown option keys
// are rejected.
func Load(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	var doc Document
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		doc, err = parseTOML(data)
	} else {
		doc, err = parseYAML(data)
	}
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

func parseYAML(data []byte) (Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		// empty file or comments only
		return Document{}, nil
	}
	if err := checkNode(&root); err != nil {
		return nil, err
	}

	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return doc, nil
}

// checkNode walks a YAML tree and rejects aliases and non-core tags.
func checkNode(n *yaml.Node) error {
	if n.Kind == yaml.AliasNode {
		return fmt.Errorf("line %d: aliases are not allowed", n.Line)
	}
	if n.Kind != yaml.DocumentNode {
		if tag := n.ShortTag(); !allowedTags[tag] {
			return fmt.Errorf("line %d: tag %s is not allowed", n.Line, tag)
		}
	}
	for _, child := range n.Content {
		if err := checkNode(child); err != nil {
			return err
		}
	}
	return nil
}

func parseTOML(data []byte) (Document, error) {
	var doc Document
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}
