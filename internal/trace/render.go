package trace

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Output formats accepted by WriteFormat.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

const rule = "═══════════════════════════════════════════════════════════════"

// Counts summarises a matrix.
type Counts struct {
	Total   int `json:"total_requirements"`
	Full    int `json:"fully_traced"`
	Partial int `json:"partially_traced"`
	None    int `json:"not_traced"`
}

// Percent is the share of fully traced requirements.
func (c Counts) Percent() float64 {
	if c.Total == 0 {
		return 0
	}
	return float64(c.Full) / float64(c.Total) * 100
}

// TraceCounts classifies links by section level design references and
// task references.
func (m *Matrix) TraceCounts() Counts {
	return m.count(func(l Link) (bool, bool) { return l.HasDesign(), len(l.TaskRefs) > 0 })
}

// CoverageCounts classifies links by any design mention and task
// references.
func (m *Matrix) CoverageCounts() Counts {
	return m.count(func(l Link) (bool, bool) { return l.DesignMentioned, len(l.TaskRefs) > 0 })
}

func (m *Matrix) count(covered func(Link) (bool, bool)) Counts {
	c := Counts{Total: len(m.Links)}
	for _, l := range m.Links {
		design, tasks := covered(l)
		switch {
		case design && tasks:
			c.Full++
		case design || tasks:
			c.Partial++
		default:
			c.None++
		}
	}
	return c
}

// TraceStatus is 0 when every requirement is fully traced and 1 otherwise.
func (m *Matrix) TraceStatus() int {
	if c := m.TraceCounts(); c.Full != c.Total {
		return 1
	}
	return 0
}

// CoverageStatus is 1 when any requirement has neither design nor task
// coverage, and 0 otherwise.
func (m *Matrix) CoverageStatus() int {
	if m.CoverageCounts().None > 0 {
		return 1
	}
	return 0
}

// WriteFormat writes the traceability matrix in format.
func (m *Matrix) WriteFormat(w io.Writer, format string, useColor bool) error {
	switch format {
	case "", FormatText:
		m.WriteText(w, useColor)
		return nil
	case FormatJSON:
		return m.WriteJSON(w)
	case FormatCSV:
		return m.WriteCSV(w)
	default:
		return fmt.Errorf("invalid format %q (must be text, json, or csv)", format)
	}
}

type painter struct{ enabled bool }

func (p painter) paint(attr color.Attribute, s string) string {
	if !p.enabled {
		return s
	}
	return color.New(attr).Sprint(s)
}

func writeBanner(w io.Writer, title string) {
	fmt.Fprintf(w, "%s\n  %s\n%s\n\n", rule, title, rule)
}

// WriteText prints the traceability matrix grouped by trace status.
func (m *Matrix) WriteText(w io.Writer, useColor bool) {
	p := painter{enabled: useColor}
	writeBanner(w, "Requirement Traceability Matrix")

	var full, partial, none []Link
	for _, l := range m.Links {
		switch {
		case l.FullyTraced:
			full = append(full, l)
		case l.HasDesign() || len(l.TaskRefs) > 0:
			partial = append(partial, l)
		default:
			none = append(none, l)
		}
	}

	if len(full) > 0 {
		fmt.Fprintf(w, "%s\n\n", p.paint(color.FgGreen, fmt.Sprintf("✅ Fully Traced (%d):", len(full))))
		for _, l := range full {
			fmt.Fprintf(w, "%s: %s\n", l.RequirementID, l.RequirementTitle)
			for _, ref := range l.DesignRefs {
				if len(ref.Sections) > 0 {
					fmt.Fprintf(w, "  → %s: %s\n", ref.Label, strings.Join(ref.Sections, ", "))
				}
			}
			fmt.Fprintf(w, "  → Tasks: %s\n\n", strings.Join(l.TaskRefs, ", "))
		}
	}

	if len(partial) > 0 {
		fmt.Fprintf(w, "%s\n\n", p.paint(color.FgYellow, fmt.Sprintf("⚠️  Partially Traced (%d):", len(partial))))
		for _, l := range partial {
			fmt.Fprintf(w, "%s: %s\n", l.RequirementID, l.RequirementTitle)
			for _, ref := range l.DesignRefs {
				if len(ref.Sections) > 0 {
					fmt.Fprintf(w, "  ✓ %s: %s\n", ref.Label, strings.Join(ref.Sections, ", "))
				}
			}
			if !l.HasDesign() {
				fmt.Fprintln(w, "  ✗ Design: Not referenced")
			}
			if len(l.TaskRefs) > 0 {
				fmt.Fprintf(w, "  ✓ Tasks: %s\n\n", strings.Join(l.TaskRefs, ", "))
			} else {
				fmt.Fprint(w, "  ✗ Tasks: Not implemented\n\n")
			}
		}
	}

	if len(none) > 0 {
		fmt.Fprintf(w, "%s\n\n", p.paint(color.FgRed, fmt.Sprintf("❌ Not Traced (%d):", len(none))))
		for _, l := range none {
			fmt.Fprintf(w, "%s: %s\n", l.RequirementID, l.RequirementTitle)
			fmt.Fprint(w, "  ✗ No references found in design or implementation\n\n")
		}
	}

	c := m.TraceCounts()
	writeBanner(w, "Summary")
	fmt.Fprintf(w, "Total Requirements:   %d\n", c.Total)
	fmt.Fprintf(w, "Fully Traced:         %d (%.1f%%)\n", c.Full, c.Percent())
	fmt.Fprintf(w, "Partially Traced:     %d\n", c.Partial)
	fmt.Fprintf(w, "Not Traced:           %d\n", c.None)
}

// WriteCoverage prints the coverage report: design coverage is any mention
// in a design document.
func (m *Matrix) WriteCoverage(w io.Writer, useColor bool) {
	p := painter{enabled: useColor}
	writeBanner(w, "Requirement Coverage Report")

	var full, partial, none []Link
	for _, l := range m.Links {
		hasTasks := len(l.TaskRefs) > 0
		switch {
		case l.DesignMentioned && hasTasks:
			full = append(full, l)
		case l.DesignMentioned || hasTasks:
			partial = append(partial, l)
		default:
			none = append(none, l)
		}
	}

	if len(full) > 0 {
		fmt.Fprintf(w, "%s\n\n", p.paint(color.FgGreen, fmt.Sprintf("✅ Fully Covered (%d requirements):", len(full))))
		for _, l := range full {
			fmt.Fprintf(w, "  %s: %s\n", l.RequirementID, l.RequirementTitle)
			fmt.Fprintf(w, "    → Tasks: %s\n", strings.Join(l.TaskRefs, ", "))
		}
		fmt.Fprintln(w)
	}

	if len(partial) > 0 {
		fmt.Fprintf(w, "%s\n\n", p.paint(color.FgYellow, fmt.Sprintf("⚠️  Partially Covered (%d requirements):", len(partial))))
		for _, l := range partial {
			fmt.Fprintf(w, "  %s: %s\n", l.RequirementID, l.RequirementTitle)
			if l.DesignMentioned {
				fmt.Fprintln(w, "    ✓ Design coverage")
			} else {
				fmt.Fprintln(w, "    ✗ Not referenced in design")
			}
			if len(l.TaskRefs) > 0 {
				fmt.Fprintf(w, "    ✓ Task coverage: %s\n", strings.Join(l.TaskRefs, ", "))
			} else {
				fmt.Fprintln(w, "    ✗ No tasks identified")
			}
		}
		fmt.Fprintln(w)
	}

	if len(none) > 0 {
		fmt.Fprintf(w, "%s\n\n", p.paint(color.FgRed, fmt.Sprintf("❌ Not Covered (%d requirements):", len(none))))
		for _, l := range none {
			fmt.Fprintf(w, "  %s: %s\n", l.RequirementID, l.RequirementTitle)
			fmt.Fprintln(w, "    ✗ Not referenced in design")
			fmt.Fprintln(w, "    ✗ No tasks identified")
		}
		fmt.Fprintln(w)
	}

	c := m.CoverageCounts()
	writeBanner(w, "Summary")
	fmt.Fprintf(w, "Total Requirements:   %d\n", c.Total)
	fmt.Fprintf(w, "Fully Covered:        %d (%.1f%%)\n", c.Full, c.Percent())
	fmt.Fprintf(w, "Partially Covered:    %d\n", c.Partial)
	fmt.Fprintf(w, "Not Covered:          %d\n", c.None)
}

type jsonMatrix struct {
	Counts
	Traces []Link `json:"traces"`
}

// WriteJSON encodes the trace counts and links.
func (m *Matrix) WriteJSON(w io.Writer) error {
	links := m.Links
	if links == nil {
		links = []Link{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(jsonMatrix{Counts: m.TraceCounts(), Traces: links}); err != nil {
		return fmt.Errorf("encoding trace matrix: %w", err)
	}
	return nil
}

// WriteCSV writes one row per requirement with a column per design
// document. Multiple references in a cell are joined with "; ".
func (m *Matrix) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	header := []string{"Requirement ID", "Title"}
	if len(m.Links) > 0 {
		for _, ref := range m.Links[0].DesignRefs {
			header = append(header, ref.Label)
		}
	}
	header = append(header, "Tasks", "Fully Traced")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}

	for _, l := range m.Links {
		row := []string{l.RequirementID, l.RequirementTitle}
		for _, ref := range l.DesignRefs {
			row = append(row, strings.Join(ref.Sections, "; "))
		}
		traced := "No"
		if l.FullyTraced {
			traced = "Yes"
		}
		row = append(row, strings.Join(l.TaskRefs, "; "), traced)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing csv: %w", err)
	}
	return nil
}
