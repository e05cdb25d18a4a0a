package registry

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/docgov/docgov/internal/frontmatter"
	"github.com/docgov/docgov/internal/schema"
)

// NextID returns the next free "<prefix>-NNN" id given the ids in use.
// Trailing dashes on prefix are ignored. Numbers are zero padded to three digits.
func NextID(existing []string, prefix string) string {
	prefix = strings.TrimRight(prefix, "-")
	pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `-(\d+)$`)

	highest := 0
	for _, id := range existing {
		m := pattern.FindStringSubmatch(id)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("%s-%03d", prefix, highest+1)
}

// InferPrefix maps a document path to the id prefix used for allocation.
func InferPrefix(relPath string) string {
	p := strings.ReplaceAll(relPath, `\`, "/")
	switch {
	case strings.HasPrefix(p, "docs/adrs/"):
		return "adr"
	case strings.HasPrefix(p, "docs/") && strings.Contains(strings.ToUpper(p), "GOVERNANCE"):
		return "gov"
	case strings.HasPrefix(p, "docs/"):
		return "doc"
	case strings.HasPrefix(p, "schemas/"):
		return "sch"
	case strings.HasPrefix(p, "prompts/"):
		return "prm"
	case strings.HasPrefix(p, "artifacts/"):
		return "art"
	default:
		return "doc"
	}
}

// IDs returns every string doc_id among docs.
func IDs(docs []Document) []string {
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		if id, ok := d.DocID(); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// Allocation records one rewritten placeholder id.
type Allocation struct {
	Path string
	ID   string
}

// AllocateTODOIDs replaces placeholder doc_ids on disk. Each allocated id is
// added to the in-use set before the next allocation. When a document carries
// an updated field it is set to today. Files are rewritten in place.
func AllocateTODOIDs(docs []Document, today time.Time) ([]Allocation, error) {
	ids := IDs(docs)
	var out []Allocation

	for _, d := range docs {
		id, ok := d.DocID()
		if !ok || !schema.IsPlaceholder(id) {
			continue
		}

		newID := NextID(ids, InferPrefix(d.RelPath))
		text, err := frontmatter.SetField(d.Raw, "doc_id", newID)
		if err != nil {
			return out, fmt.Errorf("allocating id for %s: %w", d.RelPath, err)
		}
		if d.Frontmatter.Has("updated") {
			text, err = frontmatter.SetField(text, "updated", today.Format("2006-01-02"))
			if err != nil {
				return out, fmt.Errorf("allocating id for %s: %w", d.RelPath, err)
			}
		}

		info, err := os.Stat(d.AbsPath)
		if err != nil {
			return out, fmt.Errorf("allocating id for %s: %w", d.RelPath, err)
		}
		if err := os.WriteFile(d.AbsPath, []byte(text), info.Mode().Perm()); err != nil {
			return out, fmt.Errorf("writing %s: %w", d.RelPath, err)
		}

		ids = append(ids, newID)
		out = append(out, Allocation{Path: d.RelPath, ID: newID})
	}
	return out, nil
}
