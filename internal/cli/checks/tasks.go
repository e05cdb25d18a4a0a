package checks

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/docgov/docgov/internal/cli/shared"
	"github.com/docgov/docgov/internal/dag"
	"github.com/docgov/docgov/internal/report"
	"github.com/docgov/docgov/internal/validation"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks <tasks.md>",
	Short: "Validate a Markdown task list",
	Long: `Validate the "### TASK-NNN: Title" sections of a task list.

Every task needs Phase, Milestone, Status, Complexity, Domain, Dependencies,
Assigned and Skills Required fields, a description and at least three
acceptance criteria. Dependencies must name tasks in the same file and must
not form a cycle. Duplicate ids are errors; numbering gaps are warnings.`,
	Example: `  docgov tasks .ipe/implementation/tasks.md
  docgov tasks docs/tasks.md --strict`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runTasks,
}

func init() {
	tasksCmd.GroupID = shared.GroupChecks
	tasksCmd.Flags().Bool("strict", false, "Treat warnings as failures")
}

func runTasks(cmd *cobra.Command, args []string) error {
	path := args[0]
	out := cmd.OutOrStdout()
	logger := shared.Logger(cmd)

	tasks, err := validation.ParseTasksFile(path)
	if err != nil {
		return err
	}
	rep := validation.ValidateTasks(path, tasks)
	for _, c := range dag.BuildFromTasks(tasks).FindCycles() {
		rep.Add(report.Errorf(path, "Circular dependency: %s", c))
	}
	logger.Debug("tasks validated", slog.String("path", path), slog.Int("tasks", len(tasks)))

	strict, _ := cmd.Flags().GetBool("strict")
	fmt.Fprintf(out, "Validating %d task(s) in %s\n\n", len(tasks), path)
	rep.WriteText(out, report.TextOptions{Strict: strict, Color: shared.ApplyColor(out)})
	return exitStatus(rep.Status(strict))
}
