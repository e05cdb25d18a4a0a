package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmptyKeyPath is returned for an empty key or a key with an empty
// segment such as "budget..max".
var ErrEmptyKeyPath = errors.New("empty key path")

// ParseKeyPath splits a dotted key such as "budget.warning" into segments.
func ParseKeyPath(path string) ([]string, error) {
	parts := strings.Split(path, ".")
	for _, p := range parts {
		if p == "" {
			return nil, ErrEmptyKeyPath
		}
	}
	return parts, nil
}

// mapping returns the top-level mapping of a document or mapping node.
func mapping(root *yaml.Node) (*yaml.Node, error) {
	switch {
	case root.Kind == 0:
		m := &yaml.Node{Kind: yaml.MappingNode}
		root.Kind = yaml.DocumentNode
		root.Content = []*yaml.Node{m}
		return m, nil
	case root.Kind == yaml.DocumentNode && len(root.Content) == 1 && root.Content[0].Kind == yaml.MappingNode:
		return root.Content[0], nil
	case root.Kind == yaml.DocumentNode && len(root.Content) == 0:
		m := &yaml.Node{Kind: yaml.MappingNode}
		root.Content = []*yaml.Node{m}
		return m, nil
	case root.Kind == yaml.MappingNode:
		return root, nil
	default:
		return nil, fmt.Errorf("config root must be a mapping, got node kind %v", root.Kind)
	}
}

// child returns the value node stored under key in mapping m, or nil.
func child(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// SetNestedValue stores value at keyPath, creating intermediate mappings.
// A scalar on the way is replaced by a mapping. Comments attached to a
// replaced value are kept. String slices are written as flow sequences.
func SetNestedValue(root *yaml.Node, keyPath []string, value interface{}) error {
	if len(keyPath) == 0 {
		return ErrEmptyKeyPath
	}
	m, err := mapping(root)
	if err != nil {
		return err
	}

	for _, key := range keyPath[:len(keyPath)-1] {
		next := child(m, key)
		if next == nil {
			next = &yaml.Node{Kind: yaml.MappingNode}
			m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: key}, next)
		} else if next.Kind != yaml.MappingNode {
			next.Kind, next.Tag, next.Value, next.Style, next.Content = yaml.MappingNode, "", "", 0, nil
		}
		m = next
	}

	encoded, err := encodeValue(value)
	if err != nil {
		return err
	}
	last := keyPath[len(keyPath)-1]
	if old := child(m, last); old != nil {
		encoded.HeadComment, encoded.LineComment, encoded.FootComment = old.HeadComment, old.LineComment, old.FootComment
		*old = *encoded
		return nil
	}
	m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: last}, encoded)
	return nil
}

func encodeValue(value interface{}) (*yaml.Node, error) {
	var n yaml.Node
	if err := n.Encode(value); err != nil {
		return nil, fmt.Errorf("encoding %v: %w", value, err)
	}
	if n.Kind == yaml.SequenceNode {
		n.Style = yaml.FlowStyle
	}
	return &n, nil
}

// GetNestedValue returns the node stored at keyPath, or nil when any
// segment is missing.
func GetNestedValue(root *yaml.Node, keyPath []string) *yaml.Node {
	if root == nil || len(keyPath) == 0 {
		return nil
	}
	node := root
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil
		}
		node = node.Content[0]
	}
	for _, key := range keyPath {
		if node.Kind != yaml.MappingNode {
			return nil
		}
		if node = child(node, key); node == nil {
			return nil
		}
	}
	return node
}

// SetConfigValue validates value for key and writes it into the YAML file
// at filePath, creating the file and its directory when needed. Existing
// keys, ordering and comments are preserved. A rejected value leaves the
// file untouched.
func SetConfigValue(filePath, key, value string) error {
	parsed, err := ValidateValue(key, value)
	if err != nil {
		return fmt.Errorf("validating value: %w", err)
	}
	keyPath, err := ParseKeyPath(key)
	if err != nil {
		return fmt.Errorf("parsing key path: %w", err)
	}

	var root yaml.Node
	data, err := os.ReadFile(filePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &root); err != nil {
			return fmt.Errorf("parsing %s: %w", filePath, err)
		}
	}

	if err := SetNestedValue(&root, keyPath, parsed.Parsed); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	out, err := yaml.Marshal(&root)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return writeAtomically(filePath, out)
}

// writeAtomically replaces path through a temp file in the same directory.
func writeAtomically(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	_, werr := tmp.Write(content)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing config file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
