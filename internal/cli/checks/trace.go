package checks

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/docgov/docgov/internal/cli/shared"
	"github.com/docgov/docgov/internal/config"
	"github.com/docgov/docgov/internal/trace"
)

var coverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Report requirement coverage by design and task documents",
	Long: `Read the "## R-NNN: Title" requirements and report which ones are
mentioned by the design documents and by the task list.

Exits 1 when any requirement is covered by neither, and 2 when no
requirements are found. Paths come from the trace.* config keys.`,
	Example: `  docgov coverage
  docgov coverage --requirements docs/requirements.md`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runCoverage,
}

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Print the requirement traceability matrix",
	Long: `Trace every requirement to the design sections and tasks that reference
it. Exits 1 unless every requirement is fully traced.`,
	Example: `  docgov trace
  docgov trace --format csv > traceability.csv`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runTrace,
}

func init() {
	for _, cmd := range []*cobra.Command{coverageCmd, traceCmd} {
		cmd.GroupID = shared.GroupChecks
		cmd.Flags().String("root", ".", "Repository root")
		cmd.Flags().String("requirements", "", "Requirements document (default from config)")
		cmd.Flags().StringSlice("design", nil, "Design documents (default from config)")
		cmd.Flags().String("tasks", "", "Task list (default from config)")
	}
	traceCmd.Flags().String("format", trace.FormatText, "Output format: text, json or csv")
}

// traceSources applies the path flags over the configured trace sources.
func traceSources(cmd *cobra.Command, root string) (config.TraceConfig, error) {
	cfg, err := shared.LoadConfig(cmd, root)
	if err != nil {
		return config.TraceConfig{}, fmt.Errorf("loading config: %w", err)
	}
	src := cfg.Trace
	flags := cmd.Flags()
	if flags.Changed("requirements") {
		src.Requirements, _ = flags.GetString("requirements")
	}
	if flags.Changed("design") {
		src.Design, _ = flags.GetStringSlice("design")
	}
	if flags.Changed("tasks") {
		src.Tasks, _ = flags.GetString("tasks")
	}
	return src, nil
}

func buildMatrix(cmd *cobra.Command) (*trace.Matrix, error) {
	root := shared.Root(cmd)
	src, err := traceSources(cmd, root)
	if err != nil {
		return nil, err
	}
	m, err := trace.Build(root, src)
	if err != nil {
		return nil, err
	}
	shared.Logger(cmd).Debug("trace built",
		slog.String("requirements", src.Requirements),
		slog.Int("links", len(m.Links)),
		slog.Any("missing", m.Missing))
	return m, nil
}

func runCoverage(cmd *cobra.Command, args []string) error {
	m, err := buildMatrix(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	m.WriteCoverage(out, shared.ApplyColor(out))
	return exitStatus(m.CoverageStatus())
}

func runTrace(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case trace.FormatText, trace.FormatJSON, trace.FormatCSV:
	default:
		return fmt.Errorf("invalid --format %q (valid options: text, json, csv)", format)
	}

	m, err := buildMatrix(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if err := m.WriteFormat(out, format, shared.ApplyColor(out)); err != nil {
		return err
	}
	return exitStatus(m.TraceStatus())
}
