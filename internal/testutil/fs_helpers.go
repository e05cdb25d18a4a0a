// Package testutil provides fixture builders for docgov tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// DocOption customises a document written by WriteDoc.
type DocOption func(*docConfig)

type docConfig struct {
	fields map[string]string
	deps   []string
	drop   map[string]bool
	body   string
}

// WithField sets a scalar frontmatter field.
func WithField(key, value string) DocOption {
	return func(c *docConfig) { c.fields[key] = value }
}

// WithoutField removes a field from the generated frontmatter.
func WithoutField(key string) DocOption {
	return func(c *docConfig) { c.drop[key] = true }
}

// WithDependsOn sets depends_on to the given ids.
func WithDependsOn(ids ...string) DocOption {
	return func(c *docConfig) { c.deps = ids }
}

// WithBody sets the Markdown body.
func WithBody(body string) DocOption {
	return func(c *docConfig) { c.body = body }
}

// ValidFields returns the frontmatter of a document that passes the strict
// profile with the given id.
func ValidFields(docID string) map[string]string {
	return map[string]string{
		"doc_id":        docID,
		"slug":          docID,
		"title":         "Document " + docID,
		"type":          "standard",
		"tier":          "tier2",
		"version":       "1.0.0",
		"status":        "active",
		"authority":     "binding",
		"review_status": "reviewed",
		"created":       "2025-01-01",
		"updated":       "2025-01-01",
		"owner":         "human",
	}
}

// WriteDoc writes a governance document below root at rel and returns its
// absolute path. By default the document is strict-valid with an empty
// depends_on list.
func WriteDoc(t *testing.T, root, rel, docID string, opts ...DocOption) string {
	t.Helper()

	cfg := &docConfig{
		fields: ValidFields(docID),
		drop:   make(map[string]bool),
		body:   "# " + docID + "\n",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	keys := make([]string, 0, len(cfg.fields))
	for k := range cfg.fields {
		if !cfg.drop[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString("---\n")
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s: %q\n", k, cfg.fields[k])
	}
	if !cfg.drop["depends_on"] {
		if len(cfg.deps) == 0 {
			sb.WriteString("depends_on: []\n")
		} else {
			sb.WriteString("depends_on:\n")
			for _, d := range cfg.deps {
				fmt.Fprintf(&sb, "  - %s\n", d)
			}
		}
	}
	sb.WriteString("---\n")
	sb.WriteString(cfg.body)

	path := filepath.Join(root, filepath.FromSlash(rel))
	WriteFile(t, path, sb.String())
	return path
}

// WriteFile writes content to a file, creating parent directories if needed.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create directory %s: %v", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ReadFile reads file content, failing the test on error.
func ReadFile(t *testing.T, path string) string {
	t.Helper()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file %s: %v", path, err)
	}

	return string(content)
}
