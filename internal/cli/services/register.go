// Package services provides the long-running docgov commands: watch mode
// and the MCP server.
package services

import (
	"github.com/spf13/cobra"
)

// Register adds the service commands to the root command.
// This function is called from the root CLI package during initialization.
func Register(rootCmd *cobra.Command) {
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
}
