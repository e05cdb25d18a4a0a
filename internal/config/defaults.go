package config

import "time"

// GetDefaults returns the default configuration values
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"profile":        "strict",
		"layout":         "governance",
		"scan_dirs":      []string{},
		"registry_path":  "artifacts/ARTIFACT_REGISTRY.json",
		"rules_path":     "artifacts/drift_rules.yaml",
		"diff_range":     "HEAD",
		"ref_level":      "error",
		"extra_types":    []string{},
		"show_progress":  true,
		"watch_debounce": 200 * time.Millisecond,

		"repo_structure.allowed_root": []string{},
		"repo_structure.ignore":       []string{},

		"doc_maintenance.categories.tech":    7,
		"doc_maintenance.categories.product": 30,
		"doc_maintenance.categories.user":    14,

		"budget.file":    ".claude/CLAUDE.md",
		"budget.target":  20000,
		"budget.warning": 30000,
		"budget.max":     50000,

		"trace.requirements": ".ipe/discovery/requirements.md",
		"trace.tasks":        ".ipe/implementation/tasks.md",

		"trace.design": []string{
			".ipe/solution-design/architecture.md",
			".ipe/solution-design/stack.md",
			".ipe/solution-design/data-model.md",
		},
	}
}
