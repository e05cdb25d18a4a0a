// Package structure checks that files sit where the repository layout
// expects them.
package structure

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// allowedRootFiles may sit at the repository root.
var allowedRootFiles = []string{
	"README.md", "intent.md", "brief.md",
	"LICENSE", ".gitignore", ".gitattributes",
	"package.json", "package-lock.json", "yarn.lock", "pnpm-lock.yaml",
	"pyproject.toml", "requirements.txt", "setup.py", "setup.cfg",
	"go.mod", "go.sum",
	"Makefile", "Dockerfile", "docker-compose.yml", "docker-compose.yaml", ".dockerignore",
	"tsconfig.json", "jest.config.js", "jest.config.ts",
	".eslintrc.js", ".eslintrc.json", ".prettierrc", ".prettierrc.json",
	"CHANGELOG.md", "CONTRIBUTING.md", "CODE_OF_CONDUCT.md",
}

// KnownDirectories maps top-level directories to their purpose.
var KnownDirectories = map[string]string{
	"docs":     "Documentation",
	"src":      "Source code",
	"tests":    "Test files",
	"scripts":  "Automation scripts",
	"inbox":    "Incoming files for review",
	"tmp":      "Temporary files",
	"_archive": "Archived work",
	".claude":  "Assistant configuration",
}

// DocsSubdirectories are the accepted directories under docs/.
var DocsSubdirectories = []string{"discover", "design", "setup", "develop", "guides"}

// ignoreDirs are skipped wherever they appear.
var ignoreDirs = []string{
	".git", ".github", "node_modules", ".venv", "venv", "__pycache__",
	".pytest_cache", ".mypy_cache", ".ruff_cache", "dist", "build",
	".next", ".nuxt", "coverage", ".DS_Store",
}

var sourceExtensions = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".jsx": true, ".tsx": true, ".go": true,
	".rs": true, ".rb": true, ".java": true, ".kt": true, ".swift": true,
	".c": true, ".cpp": true, ".h": true, ".hpp": true,
}

const visibleHiddenDir = ".claude"

// Status classifies one file.
type Status string

const (
	StatusValid   Status = "valid"
	StatusIgnored Status = "ignored"
	StatusError   Status = "error"
	StatusWarning Status = "warning"
)

// Classification is the verdict for one file.
type Classification struct {
	Path       string `json:"path"`
	Filename   string `json:"filename"`
	Location   string `json:"current_location"`
	Status     Status `json:"status"`
	Violation  string `json:"violation,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Summary counts classifications by status.
type Summary struct {
	TotalFiles int `json:"total_files"`
	Valid      int `json:"valid"`
	Errors     int `json:"errors"`
	Warnings   int `json:"warnings"`
	Ignored    int `json:"ignored"`
}

// Result is a full structure scan.
type Result struct {
	ScanTime   time.Time        `json:"scan_time"`
	BaseDir    string           `json:"base_dir"`
	Summary    Summary          `json:"summary"`
	Violations []Classification `json:"violations"`
	// Files holds every classification in verbose mode.
	Files []Classification `json:"files,omitempty"`
}

// Status is 1 when any error was found and 0 otherwise.
func (r *Result) Status() int {
	if r.Summary.Errors > 0 {
		return 1
	}
	return 0
}

// Options configures a scan.
type Options struct {
	Dir string
	// AllowedRoot adds file names accepted at the root.
	AllowedRoot []string
	// Ignore adds directory names, or doublestar patterns matched against
	// slash separated relative paths, to skip.
	Ignore  []string
	Verbose bool
	Now     func() time.Time
}

// Checker classifies files against the layout.
type Checker struct {
	allowedRoot map[string]bool
	ignoreNames map[string]bool
	ignoreGlobs []string
}

// NewChecker builds a checker with the built-in rules plus additions.
func NewChecker(allowedRoot, ignore []string) (*Checker, error) {
	c := &Checker{allowedRoot: map[string]bool{}, ignoreNames: map[string]bool{}}
	for _, name := range append(append([]string{}, allowedRootFiles...), allowedRoot...) {
		c.allowedRoot[name] = true
	}
	for _, name := range ignoreDirs {
		c.ignoreNames[name] = true
	}
	for _, entry := range ignore {
		entry = strings.TrimSuffix(filepath.ToSlash(entry), "/")
		if entry == "" {
			continue
		}
		if !strings.ContainsAny(entry, "*?[{") {
			c.ignoreNames[entry] = true
			continue
		}
		if !doublestar.ValidatePattern(entry) {
			return nil, fmt.Errorf("invalid ignore pattern %q", entry)
		}
		c.ignoreGlobs = append(c.ignoreGlobs, entry)
	}
	return c, nil
}

// ignored reports whether the slash separated relative path rel is covered
// by an ignore rule.
func (c *Checker) ignored(rel string) bool {
	if c.ignoreNames[path.Base(rel)] {
		return true
	}
	for _, pattern := range c.ignoreGlobs {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != visibleHiddenDir
}

// Classify decides where the file at the slash separated relative path rel
// belongs.
func (c *Checker) Classify(rel string) Classification {
	parts := strings.Split(rel, "/")
	name := parts[len(parts)-1]
	result := Classification{Path: rel, Filename: name, Location: "/"}
	if len(parts) > 1 {
		result.Location = path.Dir(rel)
	}

	if c.ignored(rel) {
		result.Status = StatusIgnored
		return result
	}

	if len(parts) == 1 {
		switch {
		case c.allowedRoot[name]:
			result.Status = StatusValid
		case sourceExtensions[strings.ToLower(path.Ext(name))]:
			result.Status = StatusError
			result.Violation = "Source code file at root"
			result.Suggestion = "Move to src/" + name
		case strings.EqualFold(path.Ext(name), ".md"):
			result.Status = StatusError
			result.Violation = "Markdown file at root (not in allowed list)"
			result.Suggestion = "Move to docs/ or inbox/" + name
		default:
			result.Status = StatusError
			result.Violation = "Unknown file at root"
			result.Suggestion = "Move to appropriate directory or inbox/" + name
		}
		return result
	}

	first := parts[0]
	if c.ignored(first) || hidden(first) {
		result.Status = StatusIgnored
		return result
	}

	if _, ok := KnownDirectories[first]; !ok {
		result.Status = StatusWarning
		result.Violation = "File in unknown directory: " + first
		result.Suggestion = fmt.Sprintf("Move to known directory or add %s/ to repo_structure.ignore", first)
		return result
	}

	result.Status = StatusValid
	if first == "docs" && len(parts) > 2 && !slices.Contains(DocsSubdirectories, parts[1]) {
		result.Status = StatusWarning
		result.Violation = "Unknown docs subdirectory: " + parts[1]
		result.Suggestion = "Move to docs/{" + strings.Join(DocsSubdirectories, "|") + "}/"
	}
	return result
}

// Scan walks opts.Dir and classifies every visible file. Ignored and hidden
// directories are not descended into; hidden files are skipped unless they
// sit directly in .claude/.
func Scan(opts Options) (*Result, error) {
	info, err := os.Stat(opts.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("directory not found: %s", opts.Dir)
		}
		return nil, fmt.Errorf("reading %s: %w", opts.Dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", opts.Dir)
	}

	checker, err := NewChecker(opts.AllowedRoot, opts.Ignore)
	if err != nil {
		return nil, err
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	result := &Result{ScanTime: now(), BaseDir: opts.Dir, Violations: []Classification{}}

	err = filepath.WalkDir(opts.Dir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(opts.Dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			if hidden(d.Name()) || checker.ignored(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path.Base(path.Dir(rel)) != visibleHiddenDir {
			return nil
		}

		result.add(checker.Classify(rel), opts.Verbose)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", opts.Dir, err)
	}
	return result, nil
}

func (r *Result) add(c Classification, verbose bool) {
	r.Summary.TotalFiles++
	switch c.Status {
	case StatusValid:
		r.Summary.Valid++
	case StatusIgnored:
		r.Summary.Ignored++
	case StatusError:
		r.Summary.Errors++
		r.Violations = append(r.Violations, c)
	case StatusWarning:
		r.Summary.Warnings++
		r.Violations = append(r.Violations, c)
	}
	if verbose {
		r.Files = append(r.Files, c)
	}
}
