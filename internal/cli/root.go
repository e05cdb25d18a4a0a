// Package cli provides the Cobra-based docgov command line. It wires the
// validation pipeline, the standalone checks, the long-running services and
// configuration management into one root command.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/docgov/docgov/internal/cli/checks"
	"github.com/docgov/docgov/internal/cli/config"
	"github.com/docgov/docgov/internal/cli/governance"
	"github.com/docgov/docgov/internal/cli/services"
	"github.com/docgov/docgov/internal/cli/shared"
	"github.com/docgov/docgov/internal/cli/util"
)

// Command group IDs for organizing help output (re-exported from shared)
const (
	GroupValidation    = shared.GroupValidation
	GroupChecks        = shared.GroupChecks
	GroupServices      = shared.GroupServices
	GroupConfiguration = shared.GroupConfiguration
)

var rootCmd = &cobra.Command{
	Use:   "docgov",
	Short: "docgov documentation governance",
	Long: `docgov documentation governance

Validates YAML frontmatter on Markdown documents against a schema, checks
identifier uniqueness and dependency references, keeps an artifact registry
in sync and enforces drift rules that tie code changes to documentation.`,
	Example: `  # Validate docs, schemas and prompts under the current directory
  docgov validate

  # CI gate: warnings fail, drift rules checked against the base branch
  docgov validate --strict --check-registry --check-drift --diff-range origin/main...HEAD

  # Next free id for a prefix
  docgov validate --next-id ADR

  # Standalone checks
  docgov tasks docs/tasks.md
  docgov structure --verbose
  docgov health --fix --dry-run`,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		debug, _ := cmd.Flags().GetBool("debug")
		format, _ := cmd.Flags().GetString("log-format")
		logger, err := shared.NewLogger(cmd.ErrOrStderr(), debug, format)
		if err != nil {
			return err
		}
		cmd.SetContext(shared.WithLogger(cmd.Context(), logger))
		return nil
	},
}

// Execute runs the root command. ctx is cancelled on interrupt by main.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Define command groups in display order
	rootCmd.AddGroup(&cobra.Group{ID: GroupValidation, Title: "Validation:"})
	rootCmd.AddGroup(&cobra.Group{ID: GroupChecks, Title: "Checks:"})
	rootCmd.AddGroup(&cobra.Group{ID: GroupServices, Title: "Services:"})
	rootCmd.AddGroup(&cobra.Group{ID: GroupConfiguration, Title: "Configuration:"})

	rootCmd.SetHelpCommandGroupID(GroupConfiguration)
	rootCmd.SetCompletionCommandGroupID(GroupConfiguration)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to config file (default .docgov/config.yml under the root)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("log-format", shared.LogFormatText, "Diagnostic log format: text or json")

	// Register commands from subpackages
	governance.Register(rootCmd)
	checks.Register(rootCmd)
	services.Register(rootCmd)
	config.Register(rootCmd)
	util.Register(rootCmd)
}
