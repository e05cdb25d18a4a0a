package shared

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/docgov/docgov/internal/config"
	"github.com/docgov/docgov/internal/progress"
)

// Log formats accepted by --log-format.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// NewLogger builds the diagnostic logger for w. Debug lowers the level to
// debug; format selects the text or JSON handler.
func NewLogger(w io.Writer, debug bool, format string) (*slog.Logger, error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	switch format {
	case "", LogFormatText:
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case LogFormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("invalid --log-format %q (valid options: %s, %s)", format, LogFormatText, LogFormatJSON)
	}
}

type loggerKey struct{}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// Logger returns the logger the root command stored on the context. A
// command executed on its own, without the root, gets one built from its
// flags, falling back to the text format when --log-format is invalid.
func Logger(cmd *cobra.Command) *slog.Logger {
	if ctx := cmd.Context(); ctx != nil {
		if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return logger
		}
	}
	debug, _ := cmd.Flags().GetBool("debug")
	format, _ := cmd.Flags().GetString("log-format")
	logger, err := NewLogger(cmd.ErrOrStderr(), debug, format)
	if err != nil {
		logger, _ = NewLogger(cmd.ErrOrStderr(), debug, LogFormatText)
	}
	return logger
}

// LoadConfig loads the layered configuration for root, honouring --config.
func LoadConfig(cmd *cobra.Command, root string) (*config.Configuration, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(config.LoadOptions{Root: root, ConfigPath: path})
}

// Terminal reports the capabilities of w when it is a terminal file.
func Terminal(w io.Writer) progress.TerminalCapabilities {
	f, ok := w.(*os.File)
	if !ok {
		return progress.TerminalCapabilities{}
	}
	return progress.DetectTerminalCapabilities(f)
}

// ApplyColor enables fatih/color output only when w supports it.
func ApplyColor(w io.Writer) bool {
	enabled := Terminal(w).SupportsColor
	color.NoColor = !enabled
	return enabled
}
