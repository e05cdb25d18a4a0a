package checks

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docgov/docgov/internal/cli/shared"
	"github.com/docgov/docgov/internal/dochealth"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check documentation health and staleness",
	Long: `Check the Markdown documents under docs/ and the root intent.md and
brief.md: frontmatter fields (type, description, version, updated), the
sections each type requires, relative links and staleness.

Staleness thresholds are per category (tech, product, user) and come from
doc_maintenance.categories. A document is also flagged when the source code
it describes changed after its updated date.

With --fix, missing frontmatter fields are filled with inferred values in
every Markdown file under the root. --dry-run only reports what would
change.`,
	Example: `  docgov health
  docgov health --category tech --staleness 3
  docgov health --fix --dry-run
  docgov health --json`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runHealth,
}

func init() {
	healthCmd.GroupID = shared.GroupChecks
	healthCmd.Flags().String("root", ".", "Repository root")
	healthCmd.Flags().String("category", dochealth.CategoryAll, "Category to check: tech, product, user or all")
	healthCmd.Flags().Int("staleness", 0, "Staleness threshold in days for every category (default from config)")
	healthCmd.Flags().Bool("json", false, "Output JSON")
	healthCmd.Flags().Bool("fix", false, "Fill missing frontmatter fields")
	healthCmd.Flags().Bool("dry-run", false, "With --fix, report without writing")
}

func runHealth(cmd *cobra.Command, args []string) error {
	root := shared.Root(cmd)
	out := cmd.OutOrStdout()
	flags := cmd.Flags()
	asJSON, _ := flags.GetBool("json")

	if fix, _ := flags.GetBool("fix"); fix {
		dryRun, _ := flags.GetBool("dry-run")
		rep, err := dochealth.Fix(cmd.Context(), dochealth.FixOptions{Root: root, DryRun: dryRun})
		if err != nil {
			return err
		}
		if asJSON {
			if err := rep.WriteJSON(out); err != nil {
				return err
			}
		} else {
			rep.WriteText(out, shared.ApplyColor(out))
		}
		return exitStatus(rep.Status())
	}

	cfg, err := shared.LoadConfig(cmd, root)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	category, _ := flags.GetString("category")
	staleness, _ := flags.GetInt("staleness")
	if staleness < 0 {
		return fmt.Errorf("--staleness must be positive, got %d", staleness)
	}

	res, err := dochealth.Scan(dochealth.Options{
		Root:       root,
		Category:   category,
		Thresholds: cfg.DocMaintenance.Categories,
		Staleness:  staleness,
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
