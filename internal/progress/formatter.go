package progress

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Marks are colored from TerminalCapabilities, not from fatih/color's own
// output detection, so the colors are enabled explicitly.
var (
	okColor   = enabled(color.New(color.FgGreen))
	failColor = enabled(color.New(color.FgRed))
)

func enabled(c *color.Color) *color.Color {
	c.EnableColor()
	return c
}

// stageLine renders "[n/total] <words...>".
func stageLine(stage StageInfo, words ...string) string {
	return fmt.Sprintf("[%d/%d] %s", stage.Number, stage.TotalStages, strings.Join(words, " "))
}

// titled upper-cases the first byte of a stage name.
func titled(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// paintMark colors the Unicode marks only; ASCII fallbacks stay plain.
func paintMark(mark string, c *color.Color, useColor bool) string {
	if !useColor || (mark != "✓" && mark != "✗") {
		return mark
	}
	return c.Sprint(mark)
}

func checkmark(symbols ProgressSymbols, supportsColor bool) string {
	return paintMark(symbols.Checkmark, okColor, supportsColor)
}

func failureMark(symbols ProgressSymbols, supportsColor bool) string {
	return paintMark(symbols.Failure, failColor, supportsColor)
}
