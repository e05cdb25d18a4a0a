package progress

import (
	"os"

	"golang.org/x/term"
)

// DetectTerminalCapabilities inspects f (normally os.Stderr, where progress
// is drawn). NO_COLOR disables color and DOCGOV_ASCII=1 selects the ASCII
// symbols; neither applies when f is not a terminal.
func DetectTerminalCapabilities(f *os.File) TerminalCapabilities {
	if f == nil || !term.IsTerminal(int(f.Fd())) {
		return TerminalCapabilities{}
	}
	return TerminalCapabilities{
		IsTTY:           true,
		SupportsColor:   os.Getenv("NO_COLOR") == "",
		SupportsUnicode: os.Getenv("DOCGOV_ASCII") != "1",
	}
}

// asciiSymbols are used on terminals without Unicode support and by the
// spinner's "| / - \" character set (spinner.CharSets[9]).
var asciiSymbols = ProgressSymbols{Checkmark: "[OK]", Failure: "[FAIL]", SpinnerSet: 9}

// unicodeSymbols use the braille spinner (spinner.CharSets[14]).
var unicodeSymbols = ProgressSymbols{Checkmark: "✓", Failure: "✗", SpinnerSet: 14}

// SelectSymbols picks the symbol set for caps.
func SelectSymbols(caps TerminalCapabilities) ProgressSymbols {
	if caps.SupportsUnicode {
		return unicodeSymbols
	}
	return asciiSymbols
}
