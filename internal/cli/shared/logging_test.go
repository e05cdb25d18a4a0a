package shared

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoggingCmd(t *testing.T, args ...string) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	cmd := &cobra.Command{Use: "x", Run: func(*cobra.Command, []string) {}}
	cmd.Flags().Bool("debug", false, "")
	cmd.Flags().String("log-format", LogFormatText, "")
	var stderr bytes.Buffer
	cmd.SetErr(&stderr)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd, &stderr
}

func TestLogger_FromContext(t *testing.T) {
	t.Parallel()

	stored := slog.New(slog.DiscardHandler)
	cmd, _ := newLoggingCmd(t, "--log-format", "xml")
	cmd.SetContext(WithLogger(context.Background(), stored))

	assert.Same(t, stored, Logger(cmd))
}

func TestLogger_WithoutRoot(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		args []string
		want string
	}{
		"json": {
			args: []string{"--debug", "--log-format", "json"},
			want: `"msg":"hello"`,
		},
		"text": {
			args: []string{"--debug"},
			want: "msg=hello",
		},
		"invalid format falls back to text": {
			args: []string{"--debug", "--log-format", "xml"},
			want: "msg=hello",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cmd, stderr := newLoggingCmd(t, tt.args...)
			Logger(cmd).Debug("hello")
			assert.Contains(t, stderr.String(), tt.want)
		})
	}
}

func TestNewLogger_InvalidFormat(t *testing.T) {
	t.Parallel()

	_, err := NewLogger(&bytes.Buffer{}, false, "xml")
	assert.ErrorContains(t, err, "invalid --log-format")
}
