package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
)

// Display draws stage progress to a terminal.
type Display struct {
	mu           sync.Mutex
	out          io.Writer
	capabilities TerminalCapabilities
	spinner      *spinner.Spinner
	symbols      ProgressSymbols
}

// NewDisplay returns a display writing to out. When caps reports no TTY the
// display stays silent.
func NewDisplay(out io.Writer, caps TerminalCapabilities) *Display {
	return &Display{
		out:          out,
		capabilities: caps,
		symbols:      SelectSymbols(caps),
	}
}

// StartStage starts a spinner for stage.
func (d *Display) StartStage(stage StageInfo) error {
	if err := stage.Validate(); err != nil {
		return err
	}
	if !d.capabilities.IsTTY {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()

	d.spinner = spinner.New(spinner.CharSets[d.symbols.SpinnerSet], 100*time.Millisecond, spinner.WithWriter(d.out))
	d.spinner.Suffix = " " + stageLine(stage, "Running", stage.Name)
	d.spinner.Start()
	return nil
}

// CompleteStage stops the spinner and prints a success line.
func (d *Display) CompleteStage(stage StageInfo) error {
	return d.finish(stage, checkmark(d.symbols, d.capabilities.SupportsColor), "done")
}

// FailStage stops the spinner and prints a failure line.
func (d *Display) FailStage(stage StageInfo, err error) error {
	return d.finish(stage, failureMark(d.symbols, d.capabilities.SupportsColor), fmt.Sprintf("failed: %v", err))
}

func (d *Display) finish(stage StageInfo, mark, status string) error {
	if err := stage.Validate(); err != nil {
		return err
	}
	if !d.capabilities.IsTTY {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()

	_, err := fmt.Fprintf(d.out, "%s %s\n", mark, stageLine(stage, titled(stage.Name), status))
	return err
}

// Stop halts any running spinner without printing.
func (d *Display) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *Display) stopLocked() {
	if d.spinner != nil {
		d.spinner.Stop()
		d.spinner = nil
	}
}
