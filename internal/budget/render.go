package budget

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

const (
	heavyRule = "═══════════════════════════════════════════════════════════════"
	lightRule = "─────────────────────────────────────────────────────────────────"
)

func formatSize(tokens int) string {
	return fmt.Sprintf("%.1f KB", float64(tokens*CharsPerToken)/1024)
}

// TextOptions controls WriteText.
type TextOptions struct {
	Limits Limits
	// RelTo shortens import paths relative to this directory when set.
	RelTo string
	Color bool
}

// WriteText prints the budget breakdown, thresholds, verdict and, when over
// target, the largest imports.
func (a *Analysis) WriteText(w io.Writer, opts TextOptions) {
	limits := opts.Limits
	tokens := func(n int) string {
		s := humanize.Comma(int64(n))
		if !opts.Color {
			return s
		}
		switch limits.Grade(n) {
		case WithinTarget:
			return color.GreenString(s)
		case WithinWarning:
			return color.YellowString(s)
		default:
			return color.RedString(s)
		}
	}
	rel := func(p string) string {
		if opts.RelTo == "" {
			return p
		}
		if r, err := filepath.Rel(opts.RelTo, p); err == nil {
			return r
		}
		return p
	}

	fmt.Fprintf(w, "%s\n  %s Token Budget Analysis\n%s\n\n", heavyRule, filepath.Base(a.File), heavyRule)
	fmt.Fprintf(w, "Core %-15s %s tokens (%s)\n\n", filepath.Base(a.File)+":", tokens(a.CoreTokens), formatSize(a.CoreTokens))

	if len(a.Imports) > 0 {
		fmt.Fprintf(w, "Imports (%d files):\n\n", len(a.Imports))
		for _, imp := range a.Largest(len(a.Imports)) {
			fmt.Fprintf(w, "  %s\n    %s tokens (%s)\n", rel(imp.Path), tokens(imp.Tokens), formatSize(imp.Tokens))
		}
		fmt.Fprintf(w, "\nTotal Imports:       %s tokens\n\n", tokens(a.ImportTokens()))
	} else {
		fmt.Fprint(w, "No imports found\n\n")
	}
	for _, p := range a.Problems {
		fmt.Fprintf(w, "⚠️  %s\n", p)
	}
	if len(a.Problems) > 0 {
		fmt.Fprintln(w)
	}

	total := a.Total()
	fmt.Fprintln(w, lightRule)
	fmt.Fprintf(w, "TOTAL:               %s tokens (%s)\n\n", tokens(total), formatSize(total))

	fmt.Fprintln(w, lightRule)
	fmt.Fprint(w, "Budget Targets:\n\n")
	fmt.Fprintf(w, "  Target:   %s tokens  (%s)\n", humanize.Comma(int64(limits.Target)), formatSize(limits.Target))
	fmt.Fprintf(w, "  Warning:  %s tokens  (%s)\n", humanize.Comma(int64(limits.Warning)), formatSize(limits.Warning))
	fmt.Fprintf(w, "  Maximum:  %s tokens  (%s)\n\n", humanize.Comma(int64(limits.Max)), formatSize(limits.Max))

	switch limits.Grade(total) {
	case WithinTarget:
		fmt.Fprintln(w, "✅ Within target budget")
		fmt.Fprintf(w, "   Using %.1f%% of target budget\n", percent(total, limits.Target))
	case WithinWarning:
		fmt.Fprintln(w, "⚠️  Exceeds target, within warning threshold")
		fmt.Fprintf(w, "   Using %.1f%% of warning budget\n\n", percent(total, limits.Warning))
		fmt.Fprintln(w, "   Recommendation: Consider pruning or moving content to optional imports")
	case OverWarning:
		fmt.Fprintln(w, "⚠️  Exceeds warning threshold")
		fmt.Fprintf(w, "   Using %.1f%% of maximum budget\n\n", percent(total, limits.Max))
		fmt.Fprintln(w, "   URGENT: Reduce token count before proceeding")
	case OverMax:
		over := total - limits.Max
		fmt.Fprintln(w, "❌ EXCEEDS MAXIMUM BUDGET")
		fmt.Fprintf(w, "   Over by %s tokens (%s)\n\n", humanize.Comma(int64(over)), formatSize(over))
		fmt.Fprintln(w, "   CRITICAL: Must reduce before implementation")
	}
	fmt.Fprintln(w)

	if total > limits.Target && len(a.Imports) > 0 {
		fmt.Fprintln(w, lightRule)
		fmt.Fprint(w, "Optimization Suggestions:\n\n")
		fmt.Fprintln(w, "  Largest imports to consider moving to optional:")
		for _, imp := range a.Largest(3) {
			fmt.Fprintf(w, "    - %s (%s tokens)\n", rel(imp.Path), humanize.Comma(int64(imp.Tokens)))
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "  To make an import optional, comment it out:")
		fmt.Fprintln(w, "    # @.ipe/verbose-artifact.md  # Optional, load on demand")
		fmt.Fprintln(w)
	}
}

func percent(n, of int) float64 {
	if of == 0 {
		return 0
	}
	return float64(n) / float64(of) * 100
}
