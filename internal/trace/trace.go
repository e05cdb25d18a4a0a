// Package trace follows requirements from discovery through solution design
// into implementation tasks.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/docgov/docgov/internal/config"
)

var (
	// requirementPattern matches "## R-001: Title"
	requirementPattern = regexp.MustCompile(`^##\s+(R-\d+):\s*(.+)$`)
	headerPattern      = regexp.MustCompile(`^#+\s+(.*)$`)
	taskHeaderPattern  = regexp.MustCompile(`^###\s+(TASK-\d+):(.*)$`)
	taskIDPattern      = regexp.MustCompile(`TASK-\d+`)
)

// ErrNoRequirements is returned when the requirements document is missing
// or declares no requirements.
var ErrNoRequirements = errors.New("no requirements found")

// Requirement is one "## R-NNN: Title" entry.
type Requirement struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// reference matches the requirement id in either its R- or REQ- form.
func (r Requirement) reference() *regexp.Regexp {
	num := strings.TrimPrefix(r.ID, "R-")
	return regexp.MustCompile(`\b(?:R|REQ)-` + regexp.QuoteMeta(num) + `\b`)
}

// DesignRef lists the sections of one design document that mention a
// requirement.
type DesignRef struct {
	File     string   `json:"file"`
	Label    string   `json:"label"`
	Sections []string `json:"sections"`
}

// Link is the trace of a single requirement.
type Link struct {
	RequirementID    string      `json:"requirement_id"`
	RequirementTitle string      `json:"requirement_title"`
	DesignRefs       []DesignRef `json:"design_refs"`
	TaskRefs         []string    `json:"task_refs"`
	// DesignMentioned is true when any design document mentions the
	// requirement, inside a section or not.
	DesignMentioned bool `json:"design_mentioned"`
	FullyTraced     bool `json:"fully_traced"`
}

// HasDesign reports whether any design section references the requirement.
func (l Link) HasDesign() bool {
	for _, ref := range l.DesignRefs {
		if len(ref.Sections) > 0 {
			return true
		}
	}
	return false
}

// Matrix is the traceability result for every requirement, sorted by id.
type Matrix struct {
	Links []Link
	// Missing lists configured design or task documents that do not exist.
	Missing []string
}

// LoadRequirements reads the "## R-NNN: Title" entries of path in document
// order. A later duplicate id replaces the earlier title.
func LoadRequirements(path string) ([]Requirement, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrNoRequirements, path)
		}
		return nil, fmt.Errorf("reading requirements: %w", err)
	}
	defer f.Close()

	var reqs []Requirement
	index := map[string]int{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		match := requirementPattern.FindStringSubmatch(strings.TrimRight(scanner.Text(), "\r"))
		if match == nil {
			continue
		}
		req := Requirement{ID: match[1], Title: strings.TrimSpace(match[2])}
		if i, ok := index[req.ID]; ok {
			reqs[i] = req
			continue
		}
		index[req.ID] = len(reqs)
		reqs = append(reqs, req)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading requirements: %w", err)
	}
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoRequirements, path)
	}
	return reqs, nil
}

// Build traces every requirement through the design and task documents
// configured in src. Paths are relative to root. Missing design or task
// documents are listed in Matrix.Missing and contribute no references.
func Build(root string, src config.TraceConfig) (*Matrix, error) {
	reqs, err := LoadRequirements(resolve(root, src.Requirements))
	if err != nil {
		return nil, err
	}

	m := &Matrix{}
	designs := make([]document, 0, len(src.Design))
	for _, rel := range src.Design {
		doc, err := readDocument(resolve(root, rel))
		if errors.Is(err, fs.ErrNotExist) {
			m.Missing = append(m.Missing, rel)
		} else if err != nil {
			return nil, err
		}
		doc.rel = rel
		designs = append(designs, doc)
	}

	tasks, err := readDocument(resolve(root, src.Tasks))
	if errors.Is(err, fs.ErrNotExist) {
		m.Missing = append(m.Missing, src.Tasks)
	} else if err != nil {
		return nil, err
	}

	sort.SliceStable(reqs, func(i, j int) bool { return reqs[i].ID < reqs[j].ID })
	for _, req := range reqs {
		ref := req.reference()
		link := Link{RequirementID: req.ID, RequirementTitle: req.Title, TaskRefs: []string{}}
		for _, doc := range designs {
			link.DesignRefs = append(link.DesignRefs, DesignRef{
				File:     doc.rel,
				Label:    Label(doc.rel),
				Sections: doc.sectionsMentioning(ref),
			})
			if ref.MatchString(doc.text) {
				link.DesignMentioned = true
			}
		}
		link.TaskRefs = append(link.TaskRefs, tasks.tasksMentioning(ref)...)
		link.FullyTraced = link.HasDesign() && len(link.TaskRefs) > 0
		m.Links = append(m.Links, link)
	}
	return m, nil
}

// Label turns a design document path into a display name, e.g.
// "data-model.md" becomes "Data Model".
func Label(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '-' || r == '_' || r == ' ' })
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, filepath.FromSlash(path))
}

// document is a Markdown file split into header sections.
type document struct {
	rel  string
	text string
}

func readDocument(path string) (document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return document{}, err
		}
		return document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return document{text: strings.ReplaceAll(string(data), "\r\n", "\n")}, nil
}

// sectionsMentioning returns the titles of header sections whose title or
// body matches ref. Text before the first header belongs to no section.
func (d document) sectionsMentioning(ref *regexp.Regexp) []string {
	sections := []string{}
	title, inSection, matched := "", false, false
	flush := func() {
		if inSection && matched {
			sections = append(sections, title)
		}
	}
	for _, line := range strings.Split(d.text, "\n") {
		if match := headerPattern.FindStringSubmatch(line); match != nil {
			flush()
			title, inSection, matched = strings.TrimSpace(match[1]), true, false
		}
		if inSection && ref.MatchString(line) {
			matched = true
		}
	}
	flush()
	return sections
}

// tasksMentioning returns task ids, in order of first appearance, whose
// section mentions ref or that share a line with a reference.
func (d document) tasksMentioning(ref *regexp.Regexp) []string {
	var tasks []string
	seen := map[string]bool{}
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			tasks = append(tasks, id)
		}
	}

	current := ""
	for _, line := range strings.Split(d.text, "\n") {
		if match := taskHeaderPattern.FindStringSubmatch(line); match != nil {
			current = match[1]
		}
		loc := ref.FindStringIndex(line)
		if loc == nil {
			continue
		}
		if current != "" {
			add(current)
		}
		for _, id := range taskIDPattern.FindAllString(line[:loc[0]], -1) {
			add(id)
		}
	}
	return tasks
}
