// Package governance provides the docgov validate command.
package governance

import (
	"github.com/spf13/cobra"
)

// Register adds the validation commands to the root command.
// This function is called from the root CLI package during initialization.
func Register(rootCmd *cobra.Command) {
	rootCmd.AddCommand(validateCmd)
}
