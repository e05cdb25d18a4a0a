package checks

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/docgov/docgov/internal/cli/shared"
	"github.com/docgov/docgov/internal/dag"
)

var cyclesCmd = &cobra.Command{
	Use:   "cycles <dependencies.md>",
	Short: "Detect circular task dependencies",
	Long: `Build the task dependency graph of a Markdown document and report every
cycle. Edges come from dependency matrix rows ("| TASK-A | TASK-B, TASK-C |"),
arrow chains ("TASK-A → TASK-B") and "TASK-A depends on TASK-B" sentences.

With --waves an acyclic graph is also printed as execution waves: tasks in
the same wave have no dependencies on each other.`,
	Example: `  docgov cycles .ipe/implementation/dependencies.md
  docgov cycles docs/dependencies.md --waves`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runCycles,
}

func init() {
	cyclesCmd.GroupID = shared.GroupChecks
	cyclesCmd.Flags().Bool("waves", false, "Print execution waves when the graph is acyclic")
	cyclesCmd.Flags().Bool("compact", false, "Print waves on one line")
}

func runCycles(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	useColor := shared.ApplyColor(out)
	paint := func(attr color.Attribute, s string) string {
		if !useColor {
			return s
		}
		return color.New(attr).Sprint(s)
	}

	g, err := dag.ParseFile(args[0])
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Checking for circular dependencies...")
	fmt.Fprintln(out)
	if g.Size() == 0 {
		fmt.Fprintln(out, paint(color.FgYellow, "WARN: No task dependencies found in file"))
		return nil
	}
	fmt.Fprintf(out, "Found %d unique tasks\n\n", g.Size())

	if cycles := g.FindCycles(); len(cycles) > 0 {
		fmt.Fprintln(out, paint(color.FgRed, fmt.Sprintf("Found %d circular dependency cycle(s):", len(cycles))))
		fmt.Fprintln(out)
		for i, c := range cycles {
			fmt.Fprintf(out, "  Cycle %d:\n    %s\n\n", i+1, c)
		}
		fmt.Fprintln(out, "Circular dependencies must be resolved before implementation.")
		return shared.NewExitError(shared.ExitValidationFailed)
	}

	fmt.Fprintln(out, paint(color.FgGreen, "No circular dependencies detected"))

	if waves, _ := cmd.Flags().GetBool("waves"); waves {
		computed, err := g.ComputeWaves()
		if err != nil {
			return fmt.Errorf("computing execution waves: %w", err)
		}
		fmt.Fprintln(out)
		if compact, _ := cmd.Flags().GetBool("compact"); !compact {
			fmt.Fprint(out, dag.RenderASCII(computed))
			return nil
		}
		stats := dag.GetWaveStats(computed)
		fmt.Fprintln(out, dag.RenderCompact(computed))
		fmt.Fprintf(out, "%d task(s) in %d wave(s), widest wave %d\n", stats.TotalTasks, stats.TotalWaves, stats.MaxWaveSize)
	}
	return nil
}
