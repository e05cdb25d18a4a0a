// Package registry discovers governance documents, checks doc_id uniqueness and
// references, allocates ids, and builds the artifact registry snapshot.
package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/docgov/docgov/internal/frontmatter"
)

// DefaultScanDirs are the directories scanned for the governance layout.
var DefaultScanDirs = []string{"docs", "schemas", "prompts"}

// RegistryScanDirs are the directories scanned for the agent-registry layout.
// Entries may be doublestar patterns.
var RegistryScanDirs = []string{
	"docs", "schemas", "prompts", "agents", "skills", "tools", "commands", "policies", "templates",
	"domains/*", "domains/*/agents", "domains/*/skills", "domains/*/tools", "domains/*/commands",
}

// Document is one scanned Markdown file.
type Document struct {
	// RelPath is slash separated and relative to the scan root.
	RelPath string
	// AbsPath is the file on disk.
	AbsPath string
	Raw     string
	// Frontmatter is nil when the document has no usable header.
	Frontmatter frontmatter.Fields
	Body        string
	// ReadErr is set when the file (or the directory holding it) could not
	// be read. Such documents carry no content.
	ReadErr error
}

// DocID returns the document's doc_id when it is a string.
func (d Document) DocID() (string, bool) {
	if d.Frontmatter == nil {
		return "", false
	}
	return d.Frontmatter.String("doc_id")
}

// Scan reads every *.md file below the given directories of root, in
// lexicographic path order. Missing directories are skipped. Directories given
// as patterns are expanded; a pattern's own files are read non-recursively when
// it ends in a single "*" segment (domains/*), recursively otherwise.
//
// Only an unreadable root is an error. A file or subdirectory that cannot be
// read is returned as a Document with ReadErr set.
func Scan(root string, dirs []string) ([]Document, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scanning %s: not a directory", root)
	}

	fsys := os.DirFS(root)
	seen := make(map[string]bool)
	var entries []entry

	for _, dir := range dirs {
		dir = strings.Trim(filepath.ToSlash(dir), "/")
		if dir == "" {
			continue
		}
		found, err := collect(fsys, dir)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", dir, err)
		}
		for _, e := range found {
			if !seen[e.path] {
				seen[e.path] = true
				entries = append(entries, e)
			}
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].path < entries[j].path })

	docs := make([]Document, 0, len(entries))
	for _, e := range entries {
		abs := filepath.Join(root, filepath.FromSlash(e.path))
		if e.err != nil {
			docs = append(docs, Document{RelPath: e.path, AbsPath: abs, ReadErr: e.err})
			continue
		}
		doc, err := Read(abs, e.path)
		if err != nil {
			doc = Document{RelPath: e.path, AbsPath: abs, ReadErr: err}
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Read loads and parses a single document.
func Read(abs, rel string) (Document, error) {
	raw, err := os.ReadFile(abs)
	if err != nil {
		return Document{}, fmt.Errorf("reading %s: %w", rel, err)
	}
	fields, body, ok := frontmatter.Parse(string(raw))
	if !ok {
		fields = nil
	}
	return Document{RelPath: rel, AbsPath: abs, Raw: string(raw), Frontmatter: fields, Body: body}, nil
}

// entry is a path found while collecting, or a subtree that failed to list.
type entry struct {
	path string
	err  error
}

func collect(fsys fs.FS, dir string) ([]entry, error) {
	if !doublestar.ValidatePattern(dir) {
		return nil, fmt.Errorf("invalid scan pattern %q", dir)
	}

	var bases []string
	shallow := false
	if strings.ContainsAny(dir, "*?[{") {
		dirs, err := doublestar.Glob(fsys, dir)
		if err != nil {
			return nil, err
		}
		bases = dirs
		shallow = path.Base(dir) == "*"
	} else {
		bases = []string{dir}
	}

	var out []entry
	for _, base := range bases {
		fi, err := fs.Stat(fsys, base)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			out = append(out, entry{path: base, err: err})
			continue
		}
		if !fi.IsDir() {
			continue
		}
		if shallow {
			des, err := fs.ReadDir(fsys, base)
			if err != nil {
				out = append(out, entry{path: base, err: err})
				continue
			}
			for _, e := range des {
				if !e.IsDir() && isMarkdown(e.Name()) {
					out = append(out, entry{path: path.Join(base, e.Name())})
				}
			}
			continue
		}
		err = fs.WalkDir(fsys, base, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				out = append(out, entry{path: p, err: err})
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if !d.IsDir() && isMarkdown(d.Name()) {
				out = append(out, entry{path: p})
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func isMarkdown(name string) bool {
	return strings.EqualFold(path.Ext(name), ".md")
}

// InferType guesses a registry document type from its path segments.
func InferType(relPath string) string {
	parts := strings.Split(relPath, "/")
	has := func(seg string) bool {
		for _, p := range parts[:len(parts)-1] {
			if p == seg {
				return true
			}
		}
		return false
	}
	switch {
	case has("agents"):
		return "agent"
	case has("skills"):
		return "skill"
	case has("tools"):
		return "tool"
	case has("commands"):
		return "command"
	case has("prompts"):
		return "prompt"
	case has("policies"):
		return "policy"
	case has("docs"):
		return "research_note"
	default:
		return "unknown"
	}
}
