package services

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docgov/docgov/internal/cli/shared"
	"github.com/docgov/docgov/internal/cli/util"
	"github.com/docgov/docgov/internal/mcpserver"
	"github.com/docgov/docgov/internal/workflow"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve docgov tools over the Model Context Protocol",
	Long: `Run an MCP server on stdin and stdout for one repository root.

Tools:
  validate_docs  validate frontmatter, references and registry freshness
  next_doc_id    return the next free document id for a prefix
  check_drift    evaluate drift rules against a git diff range

The tools never write files. Diagnostic logs go to stderr.`,
	Example:      `  docgov serve --root /path/to/repo`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	serveCmd.GroupID = shared.GroupServices
	serveCmd.Flags().String("root", ".", "Repository root served by the tools")
}

func runServe(cmd *cobra.Command, args []string) error {
	root := shared.Root(cmd)
	logger := shared.Logger(cmd)

	cfg, err := shared.LoadConfig(cmd, root)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	opts, err := shared.ValidationOptions(root, cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	server, err := mcpserver.NewServer(workflow.NewRunner(logger), opts, util.Version, mcpserver.WithLogger(logger))
	if err != nil {
		return err
	}
	return server.Run(cmd.Context())
}
