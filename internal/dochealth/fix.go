package dochealth

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/docgov/docgov/internal/frontmatter"
)

// DefaultVersion is written when a document has no version.
const DefaultVersion = "0.1.0"

const updatedLayout = "2006-01-02T15:04:05"

// fieldOrder is the preferred key order of rebuilt frontmatter.
var fieldOrder = []string{
	"type", "stage", "artifact", "description", "version", "updated",
	"status", "scope", "paths", "depends_on",
}

var skipDirs = map[string]bool{
	"_archive": true, "node_modules": true, ".venv": true, ".git": true, "__pycache__": true,
}

type typePattern struct {
	pattern *regexp.Regexp
	docType string
}

// typePatterns infer a document type from its path. The first match wins.
var typePatterns = []typePattern{
	{regexp.MustCompile(`/commands/`), "command"},
	{regexp.MustCompile(`/prompts/`), "prompt"},
	{regexp.MustCompile(`/agents/`), "agent"},
	{regexp.MustCompile(`/skills/`), "skill"},
	{regexp.MustCompile(`/tools/`), "tool"},
	{regexp.MustCompile(`/domains/`), "domain"},
	{regexp.MustCompile(`/schemas/`), "schema"},
	{regexp.MustCompile(`/rules/`), "rule"},
	{regexp.MustCompile(`/templates/`), "template"},
	{regexp.MustCompile(`/docs/`), "guide"},
	{regexp.MustCompile(`README\.md$`), "guide"},
	{regexp.MustCompile(`CLAUDE\.md$`), "memory_project"},
	{regexp.MustCompile(`-intent\.md$`), "intent"},
	{regexp.MustCompile(`-brief\.md$`), "project_brief"},
	{regexp.MustCompile(`-architecture\.md$`), "architecture"},
	{regexp.MustCompile(`-research\.md$`), "research"},
	{regexp.MustCompile(`-concept\.md$`), "project_brief"},
	{regexp.MustCompile(`-scope\.md$`), "project_brief"},
	{regexp.MustCompile(`-validation\.md$`), "review"},
	{regexp.MustCompile(`-stack\.md$`), "architecture"},
	{regexp.MustCompile(`-data-model\.md$`), "data_model"},
	{regexp.MustCompile(`-context-schema\.md$`), "schema"},
	{regexp.MustCompile(`-dependencies\.md$`), "architecture"},
	{regexp.MustCompile(`-repo-init\.md$`), "guide"},
	{regexp.MustCompile(`-scaffolding\.md$`), "guide"},
}

var (
	headingPattern     = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	placeholderPattern = regexp.MustCompile(`\[.*?\]`)
	titleCaser         = cases.Title(language.English)
)

// InferType guesses the type of the document at the slash separated path
// rel. Unmatched paths are guides.
func InferType(rel string) string {
	p := "/" + strings.TrimPrefix(rel, "/")
	for _, tp := range typePatterns {
		if tp.pattern.MatchString(p) {
			return tp.docType
		}
	}
	return "guide"
}

// InferDescription uses the first H1 heading without template placeholders,
// falling back to the file name in title case.
func InferDescription(rel, content string) string {
	if m := headingPattern.FindStringSubmatch(content); m != nil {
		title := strings.TrimSpace(m[1])
		title = strings.Trim(strings.TrimSpace(placeholderPattern.ReplaceAllString(title, "")), " -")
		if len(title) > 3 {
			return title
		}
	}
	stem := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
	stem = strings.NewReplacer("-", " ", "_", " ").Replace(stem)
	return titleCaser.String(stem)
}

// FixStatus is the compliance state of a file before fixing.
type FixStatus string

const (
	FixCompliant     FixStatus = "compliant"
	FixIncomplete    FixStatus = "incomplete"
	FixNoFrontmatter FixStatus = "no_frontmatter"
	FixError         FixStatus = "error"
)

// FixResult is the outcome for one file.
type FixResult struct {
	Path      string            `json:"path"`
	Status    FixStatus         `json:"status"`
	Missing   []string          `json:"missing,omitempty"`
	Suggested map[string]string `json:"suggested,omitempty"`
	Fixed     bool              `json:"fixed"`
	Error     string            `json:"error,omitempty"`
}

// FixOptions configures Fix.
type FixOptions struct {
	Root   string
	DryRun bool
	Now    func() time.Time
	// Workers bounds concurrent file processing. Zero uses GOMAXPROCS.
	Workers int
}

// FixReport collects per-file results in path order.
type FixReport struct {
	Files  []FixResult `json:"files"`
	DryRun bool        `json:"dry_run"`
}

// Count returns how many files have status.
func (r *FixReport) Count(status FixStatus) int {
	n := 0
	for _, f := range r.Files {
		if f.Status == status {
			n++
		}
	}
	return n
}

// FixedCount returns how many files were rewritten.
func (r *FixReport) FixedCount() int {
	n := 0
	for _, f := range r.Files {
		if f.Fixed {
			n++
		}
	}
	return n
}

// Status is 1 in dry-run mode when any file needs attention, 0 otherwise.
func (r *FixReport) Status() int {
	if r.DryRun && len(r.Files) > r.Count(FixCompliant) {
		return 1
	}
	return 0
}

// FindMarkdown lists Markdown files under root as sorted slash separated
// relative paths, skipping archive, dependency and cache directories.
func FindMarkdown(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && (skipDirs[d.Name()] || strings.HasSuffix(d.Name(), "dist-info")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("finding markdown under %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// Fix checks every Markdown file under opts.Root and, unless DryRun is set,
// writes inferred values for missing required fields. Existing values are
// never overwritten.
func Fix(ctx context.Context, opts FixOptions) (*FixReport, error) {
	files, err := FindMarkdown(opts.Root)
	if err != nil {
		return nil, err
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	updated := now().Format(updatedLayout)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	report := &FixReport{Files: make([]FixResult, len(files)), DryRun: opts.DryRun}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, rel := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			report.Files[i] = fixFile(opts.Root, rel, updated, opts.DryRun)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

func fixFile(root, rel, updated string, dryRun bool) FixResult {
	result := FixResult{Path: rel}
	full := filepath.Join(root, filepath.FromSlash(rel))

	data, err := os.ReadFile(full)
	if err != nil {
		result.Status = FixError
		result.Error = err.Error()
		return result
	}
	content := string(data)

	fields, body, ok := frontmatter.Parse(content)
	if !ok {
		result.Status = FixNoFrontmatter
		fields = frontmatter.Fields{}
		body = content
	}

	result.Suggested = map[string]string{}
	for _, field := range RequiredFields {
		if fieldString(fields, field) != "" {
			continue
		}
		result.Missing = append(result.Missing, field)
		switch field {
		case "type":
			result.Suggested[field] = InferType(rel)
		case "description":
			result.Suggested[field] = InferDescription(rel, body)
		case "version":
			result.Suggested[field] = DefaultVersion
		case "updated":
			result.Suggested[field] = updated
		}
	}

	if result.Status == "" {
		if len(result.Missing) == 0 {
			result.Status = FixCompliant
			result.Suggested = nil
			return result
		}
		result.Status = FixIncomplete
	}
	if dryRun {
		return result
	}

	merged := frontmatter.Fields{}
	for k, v := range result.Suggested {
		merged[k] = v
	}
	for k, v := range fields {
		if _, suggested := result.Suggested[k]; !suggested {
			merged[k] = v
		}
	}
	if result.Status == FixNoFrontmatter {
		body = "\n" + content
	}

	out, err := frontmatter.Render(merged, fieldOrder, body)
	if err == nil {
		err = os.WriteFile(full, []byte(out), 0o644)
	}
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Fixed = true
	return result
}
