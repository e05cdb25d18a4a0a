package checks

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docgov/docgov/internal/cli/shared"
	"github.com/docgov/docgov/internal/structure"
)

var structureCmd = &cobra.Command{
	Use:   "structure",
	Short: "Check files against the repository layout",
	Long: `Classify every visible file against the repository layout: allowed root
files, known top-level directories and the docs/ subdirectories.

Source code or unknown files at the root are errors; unknown directories
and docs subdirectories are warnings. Extra root files and ignore patterns
come from repo_structure.allowed_root and repo_structure.ignore (or the
legacy .claude/settings.yaml).`,
	Example: `  docgov structure
  docgov structure --dir ../other-repo --verbose
  docgov structure --json`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runStructure,
}

func init() {
	structureCmd.GroupID = shared.GroupChecks
	structureCmd.Flags().String("dir", ".", "Directory to check")
	structureCmd.Flags().Bool("json", false, "Output JSON")
	structureCmd.Flags().Bool("verbose", false, "List every file with its status")
}

func runStructure(cmd *cobra.Command, args []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	asJSON, _ := cmd.Flags().GetBool("json")
	verbose, _ := cmd.Flags().GetBool("verbose")
	out := cmd.OutOrStdout()

	cfg, err := shared.LoadConfig(cmd, dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	res, err := structure.Scan(structure.Options{
		Dir:         dir,
		AllowedRoot: cfg.RepoStructure.AllowedRoot,
		Ignore:      cfg.RepoStructure.Ignore,
		Verbose:     verbose,
	})
	if err != nil {
		return err
	}

	if asJSON {
		if err := res.WriteJSON(out); err != nil {
			return err
		}
	} else {
		res.WriteText(out, shared.ApplyColor(out))
	}
	return exitStatus(res.Status())
}
