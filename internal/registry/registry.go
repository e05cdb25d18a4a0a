package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/docgov/docgov/internal/schema"
)

// DefaultPath is where the registry snapshot lives, relative to the root.
const DefaultPath = "artifacts/ARTIFACT_REGISTRY.json"

// GeneratedBy tags snapshots written by this tool.
const GeneratedBy = "docgov validate"

// Entry is the projection of one document into the registry.
type Entry struct {
	DocID        string   `json:"doc_id"`
	Slug         string   `json:"slug"`
	Title        string   `json:"title"`
	Type         string   `json:"type"`
	Tier         string   `json:"tier"`
	Format       string   `json:"format"`
	Path         string   `json:"path"`
	Status       string   `json:"status"`
	Authority    string   `json:"authority"`
	Version      string   `json:"version"`
	ReviewStatus string   `json:"review_status"`
	DependsOn    []string `json:"depends_on"`
}

// Registry is the snapshot of one validation run.
type Registry struct {
	GeneratedBy string  `json:"generated_by"`
	Artifacts   []Entry `json:"artifacts"`
}

// Build projects every document with a doc_id, ordered by path.
func Build(docs []Document) Registry {
	entries := make([]Entry, 0, len(docs))
	for _, d := range docs {
		if d.Frontmatter == nil || !d.Frontmatter.Has("doc_id") {
			continue
		}
		fm := d.Frontmatter
		e := Entry{
			DocID:        schema.Text(fm["doc_id"]),
			Slug:         schema.Text(fm["slug"]),
			Title:        schema.Text(fm["title"]),
			Type:         schema.Text(fm["type"]),
			Tier:         schema.Text(fm["tier"]),
			Format:       strings.TrimPrefix(path.Ext(d.RelPath), "."),
			Path:         d.RelPath,
			Status:       schema.Text(fm["status"]),
			Authority:    schema.Text(fm["authority"]),
			Version:      schema.Text(fm["version"]),
			ReviewStatus: schema.Text(fm["review_status"]),
			DependsOn:    []string{},
		}
		if deps, ok := fm["depends_on"].([]any); ok {
			for _, dep := range deps {
				if s, ok := dep.(string); ok {
					e.DependsOn = append(e.DependsOn, s)
				}
			}
		}
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
	return Registry{GeneratedBy: GeneratedBy, Artifacts: entries}
}

// Marshal encodes the registry as indented JSON with a trailing newline.
func Marshal(r Registry) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding registry: %w", err)
	}
	return append(data, '\n'), nil
}

// Equal compares two JSON documents by value, ignoring key order and
// formatting. Invalid JSON on either side compares unequal.
func Equal(a, b []byte) bool {
	ca, err := canonical(a)
	if err != nil {
		return false
	}
	cb, err := canonical(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ca, cb)
}

// canonical re-encodes JSON through generic values; encoding/json sorts map keys.
func canonical(data []byte) ([]byte, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// Load reads a snapshot. A missing file returns an error satisfying
// errors.Is(err, fs.ErrNotExist).
func Load(file string) ([]byte, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("loading registry: %w", err)
	}
	return data, nil
}

// Write stores the snapshot, creating parent directories.
func Write(file string, r Registry) error {
	data, err := Marshal(r)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return fmt.Errorf("writing registry: %w", err)
	}
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return fmt.Errorf("writing registry: %w", err)
	}
	return nil
}

// TypeCount is one row of a per-type summary.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Summarize counts documents with frontmatter per type, inferring the type
// from the path when absent. Rows are sorted by type.
func Summarize(docs []Document) []TypeCount {
	counts := make(map[string]int)
	for _, d := range docs {
		if d.Frontmatter == nil {
			continue
		}
		t := schema.Text(d.Frontmatter["type"])
		if t == "" {
			t = InferType(d.RelPath)
		}
		counts[t]++
	}
	out := make([]TypeCount, 0, len(counts))
	for t, c := range counts {
		out = append(out, TypeCount{Type: t, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}
