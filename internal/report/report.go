// Package report collects leveled findings from the linters and renders them.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

// Level is the severity of a finding.
type Level int

const (
	// LevelInfo is advisory output that never affects the exit status.
	LevelInfo Level = iota
	// LevelWarning fails a run only in strict mode.
	LevelWarning
	// LevelError always fails a run.
	LevelError
)

// String returns the label printed in front of a finding.
func (l Level) String() string {
	switch l {
	case LevelError:
		return "ERROR"
	case LevelWarning:
		return "WARN"
	case LevelInfo:
		return "INFO"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the level as its label.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(l.String())), nil
}

// ParseLevel accepts error, warning/warn, or info, case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return LevelError, nil
	case "warning", "warn":
		return LevelWarning, nil
	case "info":
		return LevelInfo, nil
	default:
		return LevelInfo, fmt.Errorf("invalid level %q: must be error, warning or info", s)
	}
}

// Finding is a single validation outcome.
type Finding struct {
	Level   Level  `json:"level"`
	Subject string `json:"subject"` // File path or logical name (e.g. "drift_rules", "git")
	Message string `json:"message"`
}

// Errorf builds an error-level finding.
func Errorf(subject, format string, args ...any) Finding {
	return Finding{Level: LevelError, Subject: subject, Message: fmt.Sprintf(format, args...)}
}

// Warnf builds a warning-level finding.
func Warnf(subject, format string, args ...any) Finding {
	return Finding{Level: LevelWarning, Subject: subject, Message: fmt.Sprintf(format, args...)}
}

// Infof builds an info-level finding.
func Infof(subject, format string, args ...any) Finding {
	return Finding{Level: LevelInfo, Subject: subject, Message: fmt.Sprintf(format, args...)}
}

// String renders the finding as "LEVEL: subject: message".
func (f Finding) String() string {
	return fmt.Sprintf("%s: %s: %s", f.Level, f.Subject, f.Message)
}

// Report accumulates findings across all stages of a run.
type Report struct {
	findings []Finding
	// Validated is the number of documents that reached schema validation.
	Validated int
	// Scanned is the number of files discovered.
	Scanned int
}

// New returns an empty report.
func New() *Report {
	return &Report{}
}

// Add appends findings in the order given.
func (r *Report) Add(fs ...Finding) {
	r.findings = append(r.findings, fs...)
}

// Findings returns every finding in insertion order.
func (r *Report) Findings() []Finding {
	return r.findings
}

// Errors returns the error-level findings.
func (r *Report) Errors() []Finding { return r.byLevel(LevelError) }

// Warnings returns the warning-level findings.
func (r *Report) Warnings() []Finding { return r.byLevel(LevelWarning) }

// Infos returns the info-level findings.
func (r *Report) Infos() []Finding { return r.byLevel(LevelInfo) }

func (r *Report) byLevel(l Level) []Finding {
	var out []Finding
	for _, f := range r.findings {
		if f.Level == l {
			out = append(out, f)
		}
	}
	return out
}

// Status is the process exit status for the report: 1 when any error was
// recorded, or when strict and any warning was recorded; otherwise 0.
func (r *Report) Status(strict bool) int {
	if len(r.Errors()) > 0 {
		return 1
	}
	if strict && len(r.Warnings()) > 0 {
		return 1
	}
	return 0
}

// TextOptions controls WriteText.
type TextOptions struct {
	Strict   bool
	WithInfo bool
	Color    bool
}

// WriteText prints errors, then warnings, then optionally info, followed by a
// summary line that always states the error and warning counts.
func (r *Report) WriteText(w io.Writer, opts TextOptions) {
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	paint := func(fn func(a ...any) string, s string) string {
		if !opts.Color {
			return s
		}
		return fn(s)
	}

	errs, warns := r.Errors(), r.Warnings()
	for _, f := range errs {
		fmt.Fprintf(w, "%s: %s: %s\n", paint(red, f.Level.String()), f.Subject, f.Message)
	}
	for _, f := range warns {
		fmt.Fprintf(w, "%s: %s: %s\n", paint(yellow, f.Level.String()), f.Subject, f.Message)
	}
	if opts.WithInfo {
		for _, f := range r.Infos() {
			fmt.Fprintf(w, "%s: %s: %s\n", paint(cyan, f.Level.String()), f.Subject, f.Message)
		}
	}

	switch {
	case len(errs) > 0:
		fmt.Fprintf(w, "\n%s: %d error(s), %d warning(s)\n", paint(red, "FAILED"), len(errs), len(warns))
	case opts.Strict && len(warns) > 0:
		fmt.Fprintf(w, "\n%s: %d error(s), %d warning(s)\n", paint(red, "FAILED (strict)"), len(errs), len(warns))
	default:
		fmt.Fprintf(w, "\n%s: %d file(s) validated. Errors: 0. Warnings: %d\n", paint(green, "OK"), r.Validated, len(warns))
	}
}

// jsonReport is the structured form of a report.
type jsonReport struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Scanned     int       `json:"scanned"`
	Validated   int       `json:"validated"`
	Errors      int       `json:"errors"`
	Warnings    int       `json:"warnings"`
	Infos       int       `json:"infos"`
	Status      int       `json:"status"`
	Findings    []Finding `json:"findings"`
}

// WriteJSON encodes the report with counts and the final status.
func (r *Report) WriteJSON(w io.Writer, strict bool) error {
	findings := r.findings
	if findings == nil {
		findings = []Finding{}
	}
	out := jsonReport{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Scanned:     r.Scanned,
		Validated:   r.Validated,
		Errors:      len(r.Errors()),
		Warnings:    len(r.Warnings()),
		Infos:       len(r.Infos()),
		Status:      r.Status(strict),
		Findings:    findings,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}
