package shared

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docgov/docgov/internal/config"
	"github.com/docgov/docgov/internal/report"
	"github.com/docgov/docgov/internal/schema"
	"github.com/docgov/docgov/internal/workflow"
)

// ValidationOptions maps the loaded configuration onto a validation run for
// root.
func ValidationOptions(root string, cfg *config.Configuration) (workflow.Options, error) {
	profile, err := schema.ParseProfile(cfg.Profile)
	if err != nil {
		return workflow.Options{}, err
	}
	layout, err := ParseLayout(cfg.Layout)
	if err != nil {
		return workflow.Options{}, err
	}
	refLevel, err := report.ParseLevel(cfg.RefLevel)
	if err != nil {
		return workflow.Options{}, fmt.Errorf("ref_level: %w", err)
	}
	sch := schema.Default().WithTypes(cfg.ExtraTypes...)

	return workflow.Options{
		Root:         root,
		Profile:      profile,
		Layout:       layout,
		ScanDirs:     cfg.ScanDirs,
		Schema:       &sch,
		RefLevel:     refLevel,
		RegistryPath: cfg.RegistryPath,
		RulesPath:    cfg.RulesPath,
		DiffRange:    cfg.DiffRange,
	}, nil
}

// ParseLayout parses a --layout value.
func ParseLayout(s string) (workflow.Layout, error) {
	switch l := workflow.Layout(s); l {
	case workflow.LayoutGovernance, workflow.LayoutRegistry:
		return l, nil
	case "":
		return workflow.LayoutGovernance, nil
	default:
		return "", fmt.Errorf("invalid layout %q (valid options: %s, %s)", s, workflow.LayoutGovernance, workflow.LayoutRegistry)
	}
}

// Root returns the --root flag, defaulting to the working directory.
func Root(cmd *cobra.Command) string {
	root, _ := cmd.Flags().GetString("root")
	if root == "" {
		return "."
	}
	return root
}
