package governance

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/docgov/docgov/internal/cli/shared"
	"github.com/docgov/docgov/internal/config"
	"github.com/docgov/docgov/internal/git"
	"github.com/docgov/docgov/internal/progress"
	"github.com/docgov/docgov/internal/report"
	"github.com/docgov/docgov/internal/schema"
	"github.com/docgov/docgov/internal/workflow"
)

// Output formats accepted by --format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate document frontmatter, references, registry and drift rules",
	Long: `Scan the configured directories for Markdown documents and validate their
YAML frontmatter against the schema profile. Document ids must be unique and
every depends_on entry must name a known id.

Optional stages write or check the artifact registry, allocate ids for TODO
placeholders, write a change report and evaluate drift rules against a git
diff range.

Exit codes:
  0  all checks passed
  1  errors found (or warnings with --strict)
  2  unreadable root, no documents or invalid input`,
	Example: `  # Validate with the strict profile
  docgov validate

  # Refresh the registry after adding documents
  docgov validate --write-registry

  # CI gate against the base branch
  docgov validate --strict --check-registry --check-drift --diff-range origin/main...HEAD

  # Staged changes only
  docgov validate --check-drift --cached

  # Agent registry layout with per-type counts
  docgov validate --layout registry --profile minimal --summary

  # Machine-readable output
  docgov validate --format json`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runValidate,
}

func init() {
	validateCmd.GroupID = shared.GroupValidation
	addValidateFlags(validateCmd.Flags())
}

func addValidateFlags(fs *pflag.FlagSet) {
	fs.String("root", ".", "Repository root to scan")
	fs.String("profile", "", "Schema profile: strict or minimal (default from config)")
	fs.String("layout", "", "Directory layout: governance or registry (default from config)")
	fs.Bool("write-registry", false, "Write the artifact registry")
	fs.Bool("check-registry", false, "Compare the registry on disk with the current scan")
	fs.String("next-id", "", "Print the next free id for a prefix and exit")
	fs.Bool("check-drift", false, "Evaluate drift rules against the diff range")
	fs.String("diff-range", "", "Git diff range for drift checks, or --cached for staged changes (default from config)")
	fs.Bool("cached", false, "Use staged changes as the diff range (same as --diff-range=--cached)")
	fs.Bool("strict", false, "Treat warnings as failures")
	fs.Bool("fix-todo-ids", false, "Replace TODO doc_id placeholders with allocated ids")
	fs.Bool("change-report", false, "Write the change report from git log")
	fs.Bool("summary", false, "Print document counts per type")
	fs.String("format", FormatText, "Output format: text or json")
}

func runValidate(cmd *cobra.Command, args []string) error {
	root := shared.Root(cmd)
	logger := shared.Logger(cmd)
	out := cmd.OutOrStdout()

	format, _ := cmd.Flags().GetString("format")
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid --format %q (valid options: %s, %s)", format, FormatText, FormatJSON)
	}

	if cmd.Flags().Changed("next-id") {
		return printNextID(cmd, root, logger)
	}

	cfg, err := shared.LoadConfig(cmd, root)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	opts, err := buildOptions(cmd, root, cfg)
	if err != nil {
		return err
	}

	var runnerOpts []workflow.RunnerOption
	if caps := shared.Terminal(cmd.ErrOrStderr()); cfg.ShowProgress && caps.IsTTY && format == FormatText {
		display := progress.NewDisplay(cmd.ErrOrStderr(), caps)
		defer display.Stop()
		runnerOpts = append(runnerOpts, workflow.WithProgress(display))
	}
	runner := workflow.NewRunner(logger, runnerOpts...)

	res, err := runner.Run(cmd.Context(), opts)
	if err != nil {
		return err
	}

	strict, _ := cmd.Flags().GetBool("strict")
	rep := res.Report
	if format == FormatJSON {
		if err := rep.WriteJSON(out, strict); err != nil {
			return err
		}
	} else {
		writeResult(out, res, opts, strict, shared.ApplyColor(out))
	}

	logger.Debug("validate finished", slog.Int("status", rep.Status(strict)))
	if status := rep.Status(strict); status != shared.ExitSuccess {
		return shared.NewExitError(status)
	}
	return nil
}

// printNextID runs before any validation. A config that fails to load or
// validate is ignored so a broken project file never blocks id allocation;
// the default scan directories are used instead.
func printNextID(cmd *cobra.Command, root string, logger *slog.Logger) error {
	prefix, _ := cmd.Flags().GetString("next-id")
	if prefix == "" {
		return errors.New("--next-id requires a prefix")
	}

	opts := workflow.Options{Root: root}
	if cfg, err := shared.LoadConfig(cmd, root); err != nil {
		logger.Warn("ignoring config for --next-id", slog.Any("error", err))
	} else if built, err := buildOptions(cmd, root, cfg); err != nil {
		logger.Warn("ignoring config for --next-id", slog.Any("error", err))
	} else {
		opts = built
	}

	id, err := workflow.NewRunner(logger).NextID(opts, prefix)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), id)
	return nil
}

// buildOptions starts from the configuration and applies every flag the
// user set explicitly.
func buildOptions(cmd *cobra.Command, root string, cfg *config.Configuration) (workflow.Options, error) {
	opts, err := shared.ValidationOptions(root, cfg)
	if err != nil {
		return opts, fmt.Errorf("invalid config: %w", err)
	}
	flags := cmd.Flags()

	if flags.Changed("profile") {
		v, _ := flags.GetString("profile")
		if opts.Profile, err = schema.ParseProfile(v); err != nil {
			return opts, err
		}
	}
	if flags.Changed("layout") {
		v, _ := flags.GetString("layout")
		if opts.Layout, err = shared.ParseLayout(v); err != nil {
			return opts, err
		}
	}
	if flags.Changed("diff-range") {
		opts.DiffRange, _ = flags.GetString("diff-range")
	}
	if cached, _ := flags.GetBool("cached"); cached {
		opts.DiffRange = git.Cached
	}

	opts.WriteRegistry, _ = flags.GetBool("write-registry")
	opts.CheckRegistry, _ = flags.GetBool("check-registry")
	opts.CheckDrift, _ = flags.GetBool("check-drift")
	opts.FixTODOIDs, _ = flags.GetBool("fix-todo-ids")
	opts.ChangeReport, _ = flags.GetBool("change-report")
	opts.Summary, _ = flags.GetBool("summary")

	if opts.CheckDrift || opts.ChangeReport {
		diffRange := opts.DiffRange
		if diffRange == "" {
			diffRange = git.DefaultRange
		}
		if err := git.ValidateRange(diffRange); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

// writeResult prints the side effects of the run, then the findings and the
// summary line.
func writeResult(w io.Writer, res *workflow.Result, opts workflow.Options, strict, useColor bool) {
	green := color.New(color.FgGreen).SprintFunc()
	paint := func(s string) string {
		if !useColor {
			return s
		}
		return green(s)
	}

	for _, a := range res.Allocations {
		fmt.Fprintf(w, "%s %s: doc_id %s\n", paint("Allocated"), a.Path, a.ID)
	}
	if res.RegistryWritten != "" {
		fmt.Fprintf(w, "%s %s (%d artifacts)\n", paint("Wrote"), res.RegistryWritten, len(res.Registry.Artifacts))
	}
	if res.ChangeReportWritten != "" {
		fmt.Fprintf(w, "%s %s\n", paint("Wrote"), res.ChangeReportWritten)
	}
	if len(res.Summary) > 0 {
		fmt.Fprintln(w, "Documents by type:")
		for _, tc := range res.Summary {
			fmt.Fprintf(w, "  %-20s %d\n", tc.Type, tc.Count)
		}
		fmt.Fprintln(w)
	}

	res.Report.WriteText(w, report.TextOptions{
		Strict:   strict,
		WithInfo: opts.Layout == workflow.LayoutRegistry,
		Color:    useColor,
	})
}
