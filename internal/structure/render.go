package structure

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
)

// WriteText prints the human readable report: summary counts, then
// violations grouped by severity.
func (r *Result) WriteText(w io.Writer, useColor bool) {
	paint := func(attr color.Attribute, s string) string {
		if !useColor {
			return s
		}
		return color.New(attr).Sprint(s)
	}
	heavy, light := strings.Repeat("=", 60), strings.Repeat("-", 60)

	fmt.Fprintf(w, "%s\nRepository Structure Report\n%s\n", heavy, heavy)
	fmt.Fprintf(w, "Scanned: %s\n", r.BaseDir)
	fmt.Fprintf(w, "Time: %s\n", r.ScanTime.Format(time.RFC3339))
	fmt.Fprintln(w, light)
	fmt.Fprintf(w, "Total files: %d\n", r.Summary.TotalFiles)
	fmt.Fprintf(w, "  Valid: %d\n", r.Summary.Valid)
	fmt.Fprintf(w, "  Errors: %d\n", r.Summary.Errors)
	fmt.Fprintf(w, "  Warnings: %d\n", r.Summary.Warnings)
	fmt.Fprintf(w, "  Ignored: %d\n", r.Summary.Ignored)

	if len(r.Violations) == 0 {
		fmt.Fprintf(w, "\n%s\n", paint(color.FgGreen, "✓ No violations found!"))
	} else {
		fmt.Fprintf(w, "\n%s\nVIOLATIONS:\n%s\n", light, light)
		r.writeGroup(w, StatusError, paint(color.FgRed, "ERRORS (must fix):"))
		r.writeGroup(w, StatusWarning, paint(color.FgYellow, "WARNINGS (should fix):"))
	}

	if len(r.Files) > 0 {
		fmt.Fprintf(w, "\n%s\nFILES:\n%s\n", light, light)
		for _, c := range r.Files {
			fmt.Fprintf(w, "  %-8s %s\n", c.Status, c.Path)
		}
	}
	fmt.Fprintf(w, "\n%s\n", heavy)
}

func (r *Result) writeGroup(w io.Writer, status Status, heading string) {
	var group []Classification
	for _, v := range r.Violations {
		if v.Status == status {
			group = append(group, v)
		}
	}
	if len(group) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", heading)
	for _, v := range group {
		fmt.Fprintf(w, "  • %s\n    %s\n    → %s\n", v.Path, v.Violation, v.Suggestion)
	}
}

// WriteJSON encodes the result.
func (r *Result) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding structure report: %w", err)
	}
	return nil
}
