package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/docgov/docgov/internal/cli/shared"
	"github.com/docgov/docgov/internal/report"
	"github.com/docgov/docgov/internal/schema"
	"github.com/docgov/docgov/internal/watch"
	"github.com/docgov/docgov/internal/workflow"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-validate whenever Markdown files change",
	Long: `Validate once, then watch the root for Markdown changes and re-run the
validation after each burst of edits. Bursts are coalesced over the
watch_debounce quiet period (200ms by default). Stop with Ctrl+C.`,
	Example: `  docgov watch
  docgov watch --root ../handbook --strict`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runWatch,
}

func init() {
	watchCmd.GroupID = shared.GroupServices
	watchCmd.Flags().String("root", ".", "Repository root to watch")
	watchCmd.Flags().String("profile", "", "Schema profile: strict or minimal (default from config)")
	watchCmd.Flags().Bool("strict", false, "Treat warnings as failures")
	watchCmd.Flags().Duration("debounce", 0, "Quiet period before re-validating (default from config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	root := shared.Root(cmd)
	logger := shared.Logger(cmd)
	out := cmd.OutOrStdout()
	flags := cmd.Flags()

	cfg, err := shared.LoadConfig(cmd, root)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	opts, err := shared.ValidationOptions(root, cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if flags.Changed("profile") {
		v, _ := flags.GetString("profile")
		if opts.Profile, err = schema.ParseProfile(v); err != nil {
			return err
		}
	}
	debounce := cfg.WatchDebounce
	if flags.Changed("debounce") {
		debounce, _ = flags.GetDuration("debounce")
	}
	strict, _ := flags.GetBool("strict")

	h := &validateHandler{
		runner:   workflow.NewRunner(logger),
		opts:     opts,
		out:      out,
		strict:   strict,
		useColor: shared.ApplyColor(out),
		now:      time.Now,
	}
	fmt.Fprintf(out, "Watching %s for Markdown changes (Ctrl+C to stop)\n", root)
	return watch.Watch(cmd.Context(), watch.Options{
		Root:     root,
		Debounce: debounce,
		Initial:  true,
		Logger:   logger,
	}, h.handle)
}

// validateHandler runs one validation per batch of changes and prints the
// report. Only setup failures are returned; findings are printed.
type validateHandler struct {
	runner   *workflow.Runner
	opts     workflow.Options
	out      io.Writer
	strict   bool
	useColor bool
	now      func() time.Time
}

func (h *validateHandler) handle(ctx context.Context, changed []string) error {
	faint := color.New(color.Faint).SprintFunc()
	header := fmt.Sprintf("[%s] validating", h.now().Format(time.TimeOnly))
	if len(changed) > 0 {
		header += " after changes to " + strings.Join(changed, ", ")
	}
	if h.useColor {
		header = faint(header)
	}
	fmt.Fprintln(h.out, header)

	res, err := h.runner.Run(ctx, h.opts)
	if err != nil {
		fmt.Fprintf(h.out, "ERROR: %v\n\n", err)
		return err
	}
	res.Report.WriteText(h.out, report.TextOptions{Strict: h.strict, Color: h.useColor})
	fmt.Fprintln(h.out)
	return nil
}
