package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docgov/docgov/internal/cli/shared"
	"github.com/docgov/docgov/internal/health"
)

var doctorCmd = &cobra.Command{
	Use:     "doctor",
	Aliases: []string{"doc"},
	Short:   "Run health checks for a docgov project (doc)",
	Long: `Run health checks to verify that the project can be validated.

This command checks for:
  - Git on PATH
  - A readable root directory
  - A valid configuration
  - A parseable drift rules file (optional)
  - A git repository at the root (optional)

Each check will display a checkmark if passed, ! for an optional check that
did not pass, or an X with an error message if failed.`,
	Example: `  # Check the current project
  docgov doctor

  # Run before wiring docgov into CI
  docgov doctor && docgov validate --strict`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		report := health.RunHealthChecks(health.Options{Root: shared.Root(cmd), ConfigPath: configPath})

		fmt.Fprint(cmd.OutOrStdout(), health.FormatReport(report))

		// Exit with non-zero status if any checks failed
		if !report.Passed {
			return shared.NewExitError(shared.ExitValidationFailed)
		}
		return nil
	},
}

func init() {
	doctorCmd.GroupID = shared.GroupConfiguration
	doctorCmd.Flags().String("root", ".", "Project root to check")
}
