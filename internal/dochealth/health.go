// Package dochealth checks documentation files for frontmatter compliance,
// required sections, broken links and staleness, and fills in missing
// frontmatter.
package dochealth

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/docgov/docgov/internal/frontmatter"
)

// RequiredFields must be present in every document's frontmatter.
var RequiredFields = []string{"type", "description", "version", "updated"}

// ValidTypes is the controlled vocabulary for the type field.
var ValidTypes = map[string]bool{
	"intent": true, "project_brief": true, "architecture": true, "data_model": true,
	"schema": true, "plan": true, "tasks": true,
	"memory_global": true, "memory_project": true,
	"rule_constitution": true, "rule_preferences": true, "rule_workflows": true,
	"rule_architecture": true, "rule_stack": true, "rule_domain": true,
	"adr": true, "research": true, "review": true, "guide": true, "command": true,
	"stage_guide": true, "artifact_registry": true,
}

// RequiredSections lists the headings each document type must contain.
var RequiredSections = map[string][]string{
	"architecture":  {"## Overview", "## Components", "## Data Flow"},
	"data_model":    {"## Entities", "## Relationships"},
	"plan":          {"## Phases", "## Milestones"},
	"tasks":         {"## Tasks"},
	"guide":         {"## Overview"},
	"project_brief": {"## Problem", "## Solution"},
}

// Category groups documents that share a staleness threshold.
type Category struct {
	Name string
	// Paths are slash separated prefixes, relative to the root.
	Paths []string
	// SourceOfTruth are directories whose changes should be reflected in the
	// category's documents.
	SourceOfTruth []string
}

// Categories in scan order.
var Categories = []Category{
	{Name: "tech", Paths: []string{"docs/design/"}, SourceOfTruth: []string{"src/", "schema/"}},
	{Name: "product", Paths: []string{"docs/discover/", "docs/setup/"}},
	{Name: "user", Paths: []string{"docs/guides/"}, SourceOfTruth: []string{"src/cli/", "src/api/"}},
}

// DefaultThresholds are the staleness thresholds in days per category.
var DefaultThresholds = map[string]int{"tech": 7, "product": 30, "user": 14}

const fallbackThreshold = 14

// rootDocs are product documents kept at the repository root.
var rootDocs = []string{"intent.md", "brief.md"}

// CategoryAll selects every category.
const CategoryAll = "all"

var (
	semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)
	linkPattern   = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
)

// Severity ranks an issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Issue is one problem found in a document.
type Issue struct {
	Kind       string   `json:"type"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	Field      string   `json:"field,omitempty"`
	Section    string   `json:"section,omitempty"`
	Link       string   `json:"link,omitempty"`
	DaysOld    int      `json:"days_old,omitempty"`
	SourcePath string   `json:"source_path,omitempty"`
}

// Status is the overall verdict for a document.
type Status string

const (
	StatusValid   Status = "valid"
	StatusError   Status = "error"
	StatusWarning Status = "warning"
	StatusInfo    Status = "info"
)

// Document is the health of one file.
type Document struct {
	Path     string  `json:"path"`
	Category string  `json:"category"`
	Issues   []Issue `json:"issues"`
	Status   Status  `json:"status"`
}

// Summary counts documents by status.
type Summary struct {
	TotalDocs int `json:"total_docs"`
	Valid     int `json:"valid"`
	Errors    int `json:"errors"`
	Warnings  int `json:"warnings"`
	Info      int `json:"info"`
}

// Result is a complete health scan.
type Result struct {
	ScanTime  time.Time  `json:"scan_time"`
	BaseDir   string     `json:"base_dir"`
	Summary   Summary    `json:"summary"`
	Documents []Document `json:"documents"`
}

// Status is 1 when any document has an error and 0 otherwise.
func (r *Result) Status() int {
	if r.Summary.Errors > 0 {
		return 1
	}
	return 0
}

// Options configures a scan.
type Options struct {
	Root string
	// Category limits the scan to one category name, or CategoryAll.
	Category string
	// Thresholds override DefaultThresholds per category.
	Thresholds map[string]int
	// Staleness, when positive, replaces every category threshold.
	Staleness int
	Now       func() time.Time
}

func (o Options) threshold(category string) int {
	if o.Staleness > 0 {
		return o.Staleness
	}
	if days, ok := o.Thresholds[category]; ok {
		return days
	}
	if days, ok := DefaultThresholds[category]; ok {
		return days
	}
	return fallbackThreshold
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// LookupCategory returns the category named name.
func LookupCategory(name string) (Category, bool) {
	for _, c := range Categories {
		if c.Name == name {
			return c, true
		}
	}
	return Category{}, false
}

// Scan checks the root documents and every Markdown file under the selected
// categories' directories.
func Scan(opts Options) (*Result, error) {
	info, err := os.Stat(opts.Root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("directory not found: %s", opts.Root)
		}
		return nil, fmt.Errorf("reading %s: %w", opts.Root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", opts.Root)
	}

	selected := Categories
	if opts.Category != "" && opts.Category != CategoryAll {
		c, ok := LookupCategory(opts.Category)
		if !ok {
			return nil, fmt.Errorf("unknown category %q", opts.Category)
		}
		selected = []Category{c}
	}

	now := opts.now()
	result := &Result{ScanTime: now, BaseDir: opts.Root, Documents: []Document{}}

	if opts.Category == "" || opts.Category == CategoryAll || opts.Category == "product" {
		for _, name := range rootDocs {
			if _, err := os.Stat(filepath.Join(opts.Root, name)); err == nil {
				result.add(CheckDocument(opts, name, "product", now))
			}
		}
	}

	for _, c := range selected {
		for _, prefix := range c.Paths {
			dir := filepath.Join(opts.Root, filepath.FromSlash(prefix))
			if _, err := os.Stat(dir); err != nil {
				continue
			}
			err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, walkErr error) error {
				if walkErr != nil {
					return walkErr
				}
				if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
					return nil
				}
				rel, err := filepath.Rel(opts.Root, p)
				if err != nil {
					return err
				}
				result.add(CheckDocument(opts, filepath.ToSlash(rel), c.Name, now))
				return nil
			})
			if err != nil {
				return nil, fmt.Errorf("scanning %s: %w", dir, err)
			}
		}
	}
	return result, nil
}

func (r *Result) add(doc Document) {
	r.Documents = append(r.Documents, doc)
	r.Summary.TotalDocs++
	switch doc.Status {
	case StatusValid:
		r.Summary.Valid++
	case StatusError:
		r.Summary.Errors++
	case StatusWarning:
		r.Summary.Warnings++
	case StatusInfo:
		r.Summary.Info++
	}
}

// CheckDocument runs every check against the document at the slash
// separated path rel. An empty category skips the staleness checks.
func CheckDocument(opts Options, rel, category string, now time.Time) Document {
	doc := Document{Path: rel, Category: category, Issues: []Issue{}, Status: StatusValid}
	full := filepath.Join(opts.Root, filepath.FromSlash(rel))

	data, err := os.ReadFile(full)
	if err != nil {
		doc.Issues = append(doc.Issues, Issue{
			Kind:     "read_error",
			Severity: SeverityError,
			Message:  fmt.Sprintf("Could not read file: %v", err),
		})
		doc.Status = StatusError
		return doc
	}

	fields, body, ok := frontmatter.Parse(string(data))
	if !ok {
		fields = frontmatter.Fields{}
	}

	doc.Issues = append(doc.Issues, checkFrontmatter(fields)...)
	if docType := fieldString(fields, "type"); docType != "" {
		doc.Issues = append(doc.Issues, checkSections(body, docType)...)
	}
	doc.Issues = append(doc.Issues, checkLinks(body, opts.Root, filepath.Dir(full))...)
	if category != "" {
		doc.Issues = append(doc.Issues, checkStaleness(fields, opts.Root, category, opts.threshold(category), now)...)
	}

	doc.Status = statusOf(doc.Issues)
	return doc
}

func statusOf(issues []Issue) Status {
	status := StatusValid
	for _, issue := range issues {
		switch issue.Severity {
		case SeverityError:
			return StatusError
		case SeverityWarning:
			status = StatusWarning
		case SeverityInfo:
			if status == StatusValid {
				status = StatusInfo
			}
		}
	}
	return status
}

// fieldString renders a scalar frontmatter value as text. Missing and null
// values are empty.
func fieldString(fields frontmatter.Fields, key string) string {
	v, ok := fields[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func checkFrontmatter(fields frontmatter.Fields) []Issue {
	var issues []Issue
	for _, field := range RequiredFields {
		if !fields.Has(field) {
			issues = append(issues, Issue{
				Kind:     "missing_field",
				Field:    field,
				Severity: SeverityError,
				Message:  "Missing required frontmatter field: " + field,
			})
		}
	}

	if fields.Has("type") {
		if docType := fieldString(fields, "type"); !ValidTypes[docType] {
			issues = append(issues, Issue{
				Kind:     "invalid_type",
				Field:    "type",
				Severity: SeverityWarning,
				Message:  "Unknown document type: " + docType,
			})
		}
	}

	if fields.Has("version") {
		if version := fieldString(fields, "version"); !semverPattern.MatchString(version) {
			issues = append(issues, Issue{
				Kind:     "invalid_version",
				Field:    "version",
				Severity: SeverityWarning,
				Message:  "Version not in semver format: " + version,
			})
		}
	}

	if fields.Has("updated") {
		updated := fieldString(fields, "updated")
		if _, ok := parseUpdated(updated); !ok {
			issues = append(issues, Issue{
				Kind:     "invalid_date",
				Field:    "updated",
				Severity: SeverityWarning,
				Message:  "Updated not in ISO 8601 format: " + updated,
			})
		}
	}
	return issues
}

var (
	dateTimeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04"}
	sectionPatterns = compileSections()
)

// parseUpdated accepts a plain date or an ISO 8601 date-time. Values without
// a zone are read in local time.
func parseUpdated(s string) (time.Time, bool) {
	if !strings.Contains(s, "T") {
		t, err := time.ParseInLocation("2006-01-02", s, time.Local)
		return t, err == nil
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func compileSections() map[string]*regexp.Regexp {
	patterns := map[string]*regexp.Regexp{}
	for _, sections := range RequiredSections {
		for _, section := range sections {
			expr := strings.ReplaceAll(regexp.QuoteMeta(section), " ", `\s+`)
			patterns[section] = regexp.MustCompile("(?i)" + expr)
		}
	}
	return patterns
}

func checkSections(body, docType string) []Issue {
	var issues []Issue
	for _, section := range RequiredSections[docType] {
		if !sectionPatterns[section].MatchString(body) {
			issues = append(issues, Issue{
				Kind:     "missing_section",
				Section:  section,
				Severity: SeverityWarning,
				Message:  "Missing required section: " + section,
			})
		}
	}
	return issues
}

// checkLinks flags relative Markdown links whose target does not exist.
// Links starting with "/" resolve against root, others against docDir.
func checkLinks(body, root, docDir string) []Issue {
	var issues []Issue
	for _, m := range linkPattern.FindAllStringSubmatch(body, -1) {
		link := m[2]
		if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") ||
			strings.HasPrefix(link, "#") || strings.HasPrefix(link, "mailto:") {
			continue
		}

		target, _, _ := strings.Cut(link, "#")
		if strings.HasPrefix(target, "/") {
			target = filepath.Join(root, filepath.FromSlash(target[1:]))
		} else {
			target = filepath.Join(docDir, filepath.FromSlash(target))
		}
		if _, err := os.Stat(target); err != nil {
			issues = append(issues, Issue{
				Kind:     "broken_link",
				Link:     link,
				Severity: SeverityWarning,
				Message:  "Broken link: " + link,
			})
		}
	}
	return issues
}

func checkStaleness(fields frontmatter.Fields, root, category string, threshold int, now time.Time) []Issue {
	raw := fieldString(fields, "updated")
	if raw == "" {
		return []Issue{{
			Kind:     "staleness",
			Severity: SeverityWarning,
			Message:  "No 'updated' date in frontmatter, cannot check staleness",
		}}
	}
	updated, ok := parseUpdated(raw)
	if !ok {
		return nil
	}

	var issues []Issue
	if days := int(now.Sub(updated).Hours() / 24); days > threshold {
		issues = append(issues, Issue{
			Kind:     "staleness",
			Severity: SeverityInfo,
			Message:  fmt.Sprintf("Document is %d days old (threshold: %d)", days, threshold),
			DaysOld:  days,
		})
	}

	c, _ := LookupCategory(category)
	for _, src := range c.SourceOfTruth {
		newest, ok := newestModTime(filepath.Join(root, filepath.FromSlash(strings.TrimSuffix(src, "/"))))
		if ok && newest.After(updated) {
			issues = append(issues, Issue{
				Kind:       "source_newer",
				Severity:   SeverityWarning,
				Message:    fmt.Sprintf("Source files in %s modified after last doc update", src),
				SourcePath: src,
			})
		}
	}
	return issues
}

// newestModTime returns the latest modification time of any file under dir.
func newestModTime(dir string) (time.Time, bool) {
	var newest time.Time
	found := false
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if !found || info.ModTime().After(newest) {
			newest, found = info.ModTime(), true
		}
		return nil
	})
	return newest, found
}
