// Package health runs the doctor checks for a docgov project.
package health

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/docgov/docgov/internal/config"
	"github.com/docgov/docgov/internal/drift"
	"github.com/docgov/docgov/internal/git"
)

// CheckResult represents the result of a single health check
type CheckResult struct {
	Name    string
	Passed  bool
	Message string
	// Optional checks never fail the report.
	Optional bool
}

// HealthReport contains all health check results
type HealthReport struct {
	Checks []CheckResult
	Passed bool
}

// Options locates the project under inspection.
type Options struct {
	Root       string
	ConfigPath string
}

// RunHealthChecks runs all health checks and returns a report
func RunHealthChecks(opts Options) *HealthReport {
	report := &HealthReport{Passed: true}
	add := func(c CheckResult) {
		report.Checks = append(report.Checks, c)
		if !c.Passed && !c.Optional {
			report.Passed = false
		}
	}

	add(CheckGit())
	add(CheckRoot(opts.Root))

	cfg, cfgCheck := CheckConfig(opts)
	add(cfgCheck)

	rulesPath := drift.DefaultPath
	if cfg != nil {
		rulesPath = cfg.RulesPath
	}
	add(CheckDriftRules(opts.Root, rulesPath))
	add(CheckRepository(opts.Root))

	return report
}

// CheckGit checks if Git is available
func CheckGit() CheckResult {
	if !git.Available() {
		return CheckResult{Name: "Git", Passed: false, Message: "Git not found in PATH"}
	}
	return CheckResult{Name: "Git", Passed: true, Message: "Git found"}
}

// CheckRoot checks that root is a readable directory.
func CheckRoot(root string) CheckResult {
	if _, err := os.ReadDir(root); err != nil {
		return CheckResult{Name: "Root", Passed: false, Message: fmt.Sprintf("Root %s is not readable: %v", root, err)}
	}
	return CheckResult{Name: "Root", Passed: true, Message: fmt.Sprintf("Root %s is readable", root)}
}

// CheckConfig loads the layered configuration.
func CheckConfig(opts Options) (*config.Configuration, CheckResult) {
	cfg, err := config.Load(config.LoadOptions{Root: opts.Root, ConfigPath: opts.ConfigPath})
	if err != nil {
		return nil, CheckResult{Name: "Config", Passed: false, Message: err.Error()}
	}
	return cfg, CheckResult{Name: "Config", Passed: true, Message: fmt.Sprintf("Config valid (profile %s)", cfg.Profile)}
}

// CheckDriftRules checks that the drift rule file parses. A missing file is
// reported but optional.
func CheckDriftRules(root, rulesPath string) CheckResult {
	path := rulesPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, filepath.FromSlash(path))
	}
	rules, invalid, err := drift.LoadRules(path)
	if err != nil {
		return CheckResult{Name: "Drift rules", Passed: false, Optional: true, Message: err.Error()}
	}
	if len(invalid) > 0 {
		return CheckResult{Name: "Drift rules", Passed: false, Optional: true,
			Message: fmt.Sprintf("%d drift rule(s) in %s, %d skipped (first: %v)", len(rules), rulesPath, len(invalid), invalid[0])}
	}
	return CheckResult{Name: "Drift rules", Passed: true, Message: fmt.Sprintf("%d drift rule(s) in %s", len(rules), rulesPath)}
}

// CheckRepository reports the checked-out commit. A root outside a git
// repository is reported but optional.
func CheckRepository(root string) CheckResult {
	state, err := git.CaptureState(root)
	if err != nil {
		return CheckResult{Name: "Repository", Passed: false, Optional: true, Message: "Not a git repository; drift checks will warn"}
	}
	return CheckResult{Name: "Repository", Passed: true, Message: fmt.Sprintf("On %s at %s", state.Branch, state.ShortSHA())}
}

// FormatReport formats the health report for console output
func FormatReport(report *HealthReport) string {
	var sb strings.Builder
	for _, check := range report.Checks {
		switch {
		case check.Passed:
			fmt.Fprintf(&sb, "✓ %s: %s\n", check.Name, check.Message)
		case check.Optional:
			fmt.Fprintf(&sb, "! %s: %s\n", check.Name, check.Message)
		default:
			fmt.Fprintf(&sb, "✗ Error: %s: %s\n", check.Name, check.Message)
		}
	}
	return sb.String()
}
