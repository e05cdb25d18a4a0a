package dochealth

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
)

func painter(useColor bool) func(color.Attribute, string) string {
	return func(attr color.Attribute, s string) string {
		if !useColor {
			return s
		}
		return color.New(attr).Sprint(s)
	}
}

// WriteText prints the human readable report: summary counts, then
// documents grouped by status with the issues of that severity.
func (r *Result) WriteText(w io.Writer, useColor bool) {
	paint := painter(useColor)
	heavy, light := strings.Repeat("=", 60), strings.Repeat("-", 60)

	fmt.Fprintf(w, "%s\nDocumentation Health Report\n%s\n", heavy, heavy)
	fmt.Fprintf(w, "Scanned: %s\n", r.BaseDir)
	fmt.Fprintf(w, "Time: %s\n", r.ScanTime.Format(time.RFC3339))
	fmt.Fprintln(w, light)
	fmt.Fprintf(w, "Total docs: %d\n", r.Summary.TotalDocs)
	fmt.Fprintf(w, "  Valid: %d\n", r.Summary.Valid)
	fmt.Fprintf(w, "  Errors: %d\n", r.Summary.Errors)
	fmt.Fprintf(w, "  Warnings: %d\n", r.Summary.Warnings)
	fmt.Fprintf(w, "  Info: %d\n", r.Summary.Info)

	groups := []struct {
		status   Status
		severity Severity
		heading  string
		marker   string
	}{
		{StatusError, SeverityError, paint(color.FgRed, "ERRORS (must fix):"), "✗"},
		{StatusWarning, SeverityWarning, paint(color.FgYellow, "WARNINGS (should fix):"), "⚠"},
		{StatusInfo, SeverityInfo, paint(color.FgCyan, "INFO:"), "ℹ"},
	}
	healthy := true
	for _, g := range groups {
		var docs []Document
		for _, d := range r.Documents {
			if d.Status == g.status {
				docs = append(docs, d)
			}
		}
		if len(docs) == 0 {
			continue
		}
		healthy = false
		fmt.Fprintf(w, "\n%s\n%s\n", light, g.heading)
		for _, d := range docs {
			fmt.Fprintf(w, "\n  %s [%s]\n", d.Path, d.Category)
			for _, issue := range d.Issues {
				if issue.Severity == g.severity {
					fmt.Fprintf(w, "    %s %s\n", g.marker, issue.Message)
				}
			}
		}
	}
	if healthy {
		fmt.Fprintf(w, "\n%s\n", paint(color.FgGreen, "✓ All documents are healthy!"))
	}
	fmt.Fprintf(w, "\n%s\n", heavy)
}

// WriteJSON encodes the result.
func (r *Result) WriteJSON(w io.Writer) error {
	return writeJSON(w, r, "health report")
}

// WriteText prints the compliance summary and every file that needed
// attention.
func (r *FixReport) WriteText(w io.Writer, useColor bool) {
	paint := painter(useColor)
	heavy, light := strings.Repeat("=", 60), strings.Repeat("-", 60)

	fmt.Fprintf(w, "%s\nFRONTMATTER COMPLIANCE REPORT\n%s\n", heavy, heavy)
	fmt.Fprintf(w, "\nTotal files scanned: %d\n", len(r.Files))
	fmt.Fprintf(w, "  Compliant:       %d\n", r.Count(FixCompliant))
	fmt.Fprintf(w, "  Incomplete:      %d\n", r.Count(FixIncomplete))
	fmt.Fprintf(w, "  No frontmatter:  %d\n", r.Count(FixNoFrontmatter))
	fmt.Fprintf(w, "  Errors:          %d\n", r.Count(FixError))
	if !r.DryRun {
		fmt.Fprintf(w, "  Fixed:           %d\n", r.FixedCount())
	}

	var attention, failed []FixResult
	for _, f := range r.Files {
		switch f.Status {
		case FixIncomplete, FixNoFrontmatter:
			attention = append(attention, f)
		case FixError:
			failed = append(failed, f)
		}
	}

	if len(attention) > 0 {
		fmt.Fprintf(w, "\n%s\nFILES NEEDING ATTENTION\n%s\n", light, light)
		for _, f := range attention {
			icon := paint(color.FgYellow, "!")
			if f.Fixed {
				icon = paint(color.FgGreen, "✓")
			} else if f.Status == FixNoFrontmatter {
				icon = paint(color.FgRed, "✗")
			}
			fmt.Fprintf(w, "\n[%s] %s\n", icon, f.Path)
			fmt.Fprintf(w, "    Status: %s\n", f.Status)
			fmt.Fprintf(w, "    Missing: %s\n", strings.Join(f.Missing, ", "))
			if f.Error != "" {
				fmt.Fprintf(w, "    Error: %s\n", f.Error)
			}
			fmt.Fprintln(w, "    Suggested:")
			keys := make([]string, 0, len(f.Suggested))
			for k := range f.Suggested {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(w, "      %s: %s\n", k, f.Suggested[k])
			}
		}
	}

	if len(failed) > 0 {
		fmt.Fprintf(w, "\n%s\nERRORS\n%s\n", light, light)
		for _, f := range failed {
			fmt.Fprintf(w, "  %s: %s\n", f.Path, f.Error)
		}
	}
	fmt.Fprintf(w, "\n%s\n", heavy)
}

// WriteJSON encodes the report.
func (r *FixReport) WriteJSON(w io.Writer) error {
	return writeJSON(w, r, "frontmatter report")
}

func writeJSON(w io.Writer, v any, what string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding %s: %w", what, err)
	}
	return nil
}
