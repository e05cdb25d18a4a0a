// Package checks provides the standalone docgov checks: task lists,
// dependency cycles, traceability, repository structure, token budget and
// doc health.
package checks

import (
	"github.com/spf13/cobra"

	"github.com/docgov/docgov/internal/cli/shared"
)

// Register adds all check commands to the root command.
// This function is called from the root CLI package during initialization.
func Register(rootCmd *cobra.Command) {
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(cyclesCmd)
	rootCmd.AddCommand(coverageCmd)
	rootCmd.AddCommand(traceCmd)
	rootCmd.AddCommand(structureCmd)
	rootCmd.AddCommand(budgetCmd)
	rootCmd.AddCommand(healthCmd)
}

// exitStatus turns a non-zero status into an exit error.
func exitStatus(status int) error {
	if status == 0 {
		return nil
	}
	return shared.NewExitError(status)
}
