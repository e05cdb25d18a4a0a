// Package frontmatter splits a Markdown document into its YAML header block and body.
//
// A header is recognised only when the very first line of the document is the
// delimiter "---" and a later line is exactly "---" again. The block between the
// delimiters is decoded with yaml.v3 into a node tree and flattened into Fields.
// Anything that does not fit (no delimiters, YAML syntax errors, a root that is not
// a mapping) is reported as absent rather than as an error.
package frontmatter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Delimiter opens and closes a frontmatter block.
const Delimiter = "---"

// Fields is a parsed frontmatter block. Values are strings, []any, numbers,
// booleans, nested maps, or nil, as produced by yaml.v3.
type Fields map[string]any

// String returns the value of key when it is a string.
func (f Fields) String(key string) (string, bool) {
	v, ok := f[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Has reports whether key is present, even with a null value.
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// block locates the header block. start/end are byte offsets of the YAML text,
// bodyStart is the offset of the first byte after the closing delimiter line.
type block struct {
	start, end, bodyStart int
}

// locate finds the delimiter lines. The closing delimiter may be the final line
// without a trailing newline.
func locate(text string) (block, bool) {
	first, rest, _ := cutLine(text)
	if first != Delimiter {
		return block{}, false
	}
	offset := len(text) - len(rest)
	start := offset
	for rest != "" {
		line, next, _ := cutLine(rest)
		if line == Delimiter {
			return block{start: start, end: offset, bodyStart: len(text) - len(next)}, true
		}
		offset = len(text) - len(next)
		rest = next
	}
	return block{}, false
}

// cutLine splits off the first line, dropping "\n" or "\r\n".
func cutLine(s string) (line, rest string, found bool) {
	line, rest, found = strings.Cut(s, "\n")
	return strings.TrimSuffix(line, "\r"), rest, found
}

// Parse extracts the frontmatter of text. ok is false when the document has no
// usable header; body is then the full text.
func Parse(text string) (fields Fields, body string, ok bool) {
	b, found := locate(text)
	if !found {
		return nil, text, false
	}

	root, err := decodeBlock(text[b.start:b.end])
	if err != nil {
		return nil, text, false
	}

	fields = Fields{}
	if root != nil {
		for i := 0; i+1 < len(root.Content); i += 2 {
			var v any
			if err := root.Content[i+1].Decode(&v); err != nil {
				return nil, text, false
			}
			fields[root.Content[i].Value] = normalize(v)
		}
	}
	return fields, text[b.bodyStart:], true
}

// decodeBlock parses the YAML block into its root mapping node. An empty or
// comment-only block yields a nil node and no error.
func decodeBlock(src string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		return nil, fmt.Errorf("decoding frontmatter: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return nil, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("frontmatter root is not a mapping")
	}
	return root, nil
}

// normalize converts decoded values into the shapes callers expect.
func normalize(v any) any {
	switch t := v.(type) {
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format(time.RFC3339)
	case []any:
		for i := range t {
			t[i] = normalize(t[i])
		}
		return t
	default:
		return v
	}
}

// SetField rewrites key to value inside the frontmatter of text, keeping the order
// and comments of the other keys. The key is appended when absent.
func SetField(text, key, value string) (string, error) {
	b, found := locate(text)
	if !found {
		return "", fmt.Errorf("setting %s: document has no frontmatter", key)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(text[b.start:b.end]), &doc); err != nil {
		return "", fmt.Errorf("setting %s: %w", key, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return "", fmt.Errorf("setting %s: frontmatter root is not a mapping", key)
	}

	replaced := false
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == key {
			root.Content[i+1] = scalar(value)
			replaced = true
		}
	}
	if !replaced {
		root.Content = append(root.Content, scalar(key), scalar(value))
	}

	out, err := encode(&doc)
	if err != nil {
		return "", fmt.Errorf("setting %s: %w", key, err)
	}
	return text[:b.start] + out + text[b.end:], nil
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func encode(v any) (string, error) {
	var sb strings.Builder
	enc := yaml.NewEncoder(&sb)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Render emits a complete document: the keys listed in order first, then the
// remaining keys sorted, then body.
func Render(fields Fields, order []string, body string) (string, error) {
	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	seen := make(map[string]bool, len(fields))
	add := func(k string) error {
		var val yaml.Node
		if err := val.Encode(fields[k]); err != nil {
			return fmt.Errorf("rendering %s: %w", k, err)
		}
		root.Content = append(root.Content, scalar(k), &val)
		seen[k] = true
		return nil
	}
	for _, k := range order {
		if _, ok := fields[k]; ok && !seen[k] {
			if err := add(k); err != nil {
				return "", err
			}
		}
	}
	for _, k := range sortedKeys(fields) {
		if !seen[k] {
			if err := add(k); err != nil {
				return "", err
			}
		}
	}

	out, err := encode(root)
	if err != nil {
		return "", fmt.Errorf("rendering frontmatter: %w", err)
	}
	return Delimiter + "\n" + out + Delimiter + "\n" + body, nil
}

func sortedKeys(fields Fields) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
