package checks

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/docgov/docgov/internal/budget"
	"github.com/docgov/docgov/internal/cli/shared"
)

var budgetCmd = &cobra.Command{
	Use:   "budget [path]",
	Short: "Check the token budget of an agent instruction file",
	Long: `Estimate the tokens of an instruction file and every "@path" file it
imports (four characters per token) and grade the total against the
budget.target, budget.warning and budget.max thresholds.

Exits 0 within the warning threshold, 1 above it and 2 when the file
cannot be read. The path defaults to budget.file under the root.`,
	Example: `  docgov budget
  docgov budget docs/AGENTS.md`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runBudget,
}

func init() {
	budgetCmd.GroupID = shared.GroupChecks
	budgetCmd.Flags().String("root", ".", "Repository root")
}

func runBudget(cmd *cobra.Command, args []string) error {
	root := shared.Root(cmd)
	out := cmd.OutOrStdout()

	cfg, err := shared.LoadConfig(cmd, root)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	path := filepath.Join(root, filepath.FromSlash(cfg.Budget.File))
	if len(args) == 1 {
		path = args[0]
	}

	a, err := budget.Analyze(path)
	if err != nil {
		return err
	}
	limits := budget.Limits{Target: cfg.Budget.Target, Warning: cfg.Budget.Warning, Max: cfg.Budget.Max}
	shared.Logger(cmd).Debug("budget analysed",
		slog.String("file", path),
		slog.Int("tokens", a.Total()),
		slog.Int("imports", len(a.Imports)))

	a.WriteText(out, budget.TextOptions{Limits: limits, RelTo: filepath.Dir(path), Color: shared.ApplyColor(out)})
	return exitStatus(limits.Status(a.Total()))
}
