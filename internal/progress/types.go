// Package progress renders stage progress for long validation runs: a spinner
// on interactive terminals and nothing at all otherwise, so that piped report
// output stays machine readable.
package progress

import "errors"

// StageInfo describes one pipeline stage for display.
type StageInfo struct {
	// Name is the human-readable stage name (e.g. "scan", "drift")
	Name string
	// Number is the 1-based stage index
	Number int
	// TotalStages is the number of stages in this run
	TotalStages int
}

// Validate checks that the stage can be rendered.
func (s StageInfo) Validate() error {
	switch {
	case s.Name == "":
		return errors.New("stage name cannot be empty")
	case s.Number <= 0:
		return errors.New("stage number must be > 0")
	case s.TotalStages <= 0:
		return errors.New("total stages must be > 0")
	case s.Number > s.TotalStages:
		return errors.New("stage number cannot exceed total stages")
	}
	return nil
}

// TerminalCapabilities encapsulates detected terminal features
type TerminalCapabilities struct {
	// IsTTY indicates whether the output stream is a terminal (vs pipe/redirect)
	IsTTY bool
	// SupportsColor indicates whether terminal supports ANSI color codes
	SupportsColor bool
	// SupportsUnicode indicates whether terminal supports Unicode characters
	SupportsUnicode bool
}

// ProgressSymbols defines the character set for visual indicators
type ProgressSymbols struct {
	// Checkmark is the success indicator ("✓" or "[OK]")
	Checkmark string
	// Failure is the failure indicator ("✗" or "[FAIL]")
	Failure string
	// SpinnerSet is the index into spinner.CharSets
	SpinnerSet int
}
