// Package budget estimates the token cost of an assistant instruction file
// and the files it imports.
package budget

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

// CharsPerToken is the rough characters-per-token ratio for English text.
const CharsPerToken = 4

// ErrUnreadable wraps failures to read the analysed file itself.
var ErrUnreadable = errors.New("cannot read budget file")

// Limits are token thresholds. Totals up to Warning pass; anything above
// fails.
type Limits struct {
	Target  int
	Warning int
	Max     int
}

// EstimateTokens estimates the token count of text.
func EstimateTokens(text string) int {
	return utf8.RuneCountInString(text) / CharsPerToken
}

// Import is one "@path" line that resolved to a readable file.
type Import struct {
	Path   string
	Tokens int
}

// Analysis is the token breakdown of a file and its imports.
type Analysis struct {
	File       string
	CoreTokens int
	Imports    []Import
	// Problems lists imports that were missing or unreadable.
	Problems []string
}

// ImportTokens sums the tokens of every import.
func (a *Analysis) ImportTokens() int {
	total := 0
	for _, imp := range a.Imports {
		total += imp.Tokens
	}
	return total
}

// Total is the core file plus all imports.
func (a *Analysis) Total() int {
	return a.CoreTokens + a.ImportTokens()
}

// Largest returns up to n imports ordered by descending token count.
func (a *Analysis) Largest(n int) []Import {
	sorted := append([]Import(nil), a.Imports...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Tokens > sorted[j].Tokens })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Analyze reads path and every "@path" line in it. Relative imports resolve
// against the directory of path. Imports are not followed recursively.
func Analyze(path string) (*Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrUnreadable, path, err)
	}
	content := string(data)
	a := &Analysis{File: path, CoreTokens: EstimateTokens(content)}

	base := filepath.Dir(path)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "@") {
			continue
		}
		target := strings.TrimPrefix(line, "@")
		if !filepath.IsAbs(target) {
			target = filepath.Join(base, filepath.FromSlash(target))
		}

		info, err := os.Stat(target)
		if err != nil || info.IsDir() {
			a.Problems = append(a.Problems, fmt.Sprintf("Import file not found: %s", target))
			continue
		}
		body, err := os.ReadFile(target)
		if err != nil {
			a.Problems = append(a.Problems, fmt.Sprintf("Error reading import %s: %v", target, err))
			continue
		}
		a.Imports = append(a.Imports, Import{Path: target, Tokens: EstimateTokens(string(body))})
	}
	return a, nil
}

// Level grades a total against limits.
type Level int

const (
	// WithinTarget is at or under the target.
	WithinTarget Level = iota
	// WithinWarning is over the target but at or under the warning limit.
	WithinWarning
	// OverWarning is over the warning limit but at or under the maximum.
	OverWarning
	// OverMax is over the hard maximum.
	OverMax
)

// Grade places total against limits.
func (l Limits) Grade(total int) Level {
	switch {
	case total <= l.Target:
		return WithinTarget
	case total <= l.Warning:
		return WithinWarning
	case total <= l.Max:
		return OverWarning
	default:
		return OverMax
	}
}

// Status is 0 while total stays within the warning threshold and 1 above it.
func (l Limits) Status(total int) int {
	if l.Grade(total) >= OverWarning {
		return 1
	}
	return 0
}
