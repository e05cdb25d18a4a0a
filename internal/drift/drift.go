// Package drift evaluates drift rules: when a change touches a trigger path,
// at least one companion path must change in the same diff.
package drift

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/docgov/docgov/internal/report"
)

// DefaultPath is the rule file location relative to the root.
const DefaultPath = "artifacts/drift_rules.yaml"

// DefaultMessage is used for rules without a message.
const DefaultMessage = "Drift rule violated."

// Subject is the finding subject for rules without an id.
const Subject = "drift_rules"

// ErrNoRules is returned when the rule file is missing or declares no rules.
var ErrNoRules = errors.New("no drift rules")

// Rule ties trigger paths to the companion paths that must change with them.
//
// Entries ending in "/" match by prefix, entries with glob metacharacters
// match as doublestar patterns, and anything else must equal a changed path.
// A malformed pattern such as "docs/[draft.md" is compared literally.
// Entries in the prefix lists always match by prefix.
type Rule struct {
	ID            string   `yaml:"id"`
	TriggerAny    []string `yaml:"trigger_any_changed"`
	TriggerPrefix []string `yaml:"trigger_prefix_changed"`
	RequireAny    []string `yaml:"require_any_changed"`
	RequirePrefix []string `yaml:"require_prefix_changed"`
	Message       string   `yaml:"message"`
}

// ChangeSource lists the paths changed in a diff range.
type ChangeSource interface {
	ChangedFiles(ctx context.Context, diffRange string) ([]string, error)
}

// InvalidRule is a rules entry that could not be decoded. It is skipped and
// the remaining rules still apply.
type InvalidRule struct {
	Line int
	Err  error
}

func (e InvalidRule) Error() string {
	return fmt.Sprintf("drift rule at line %d: %v", e.Line, e.Err)
}

// LoadRules reads a rule file. A missing file or one without rules returns
// an error wrapping ErrNoRules.
func LoadRules(path string) ([]Rule, []InvalidRule, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("loading %s: %w", path, ErrNoRules)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading %s: %w", path, err)
	}
	rules, invalid, err := ParseRules(data)
	if err != nil {
		return nil, nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return rules, invalid, nil
}

// ParseRules decodes `rules:` from YAML. Entries that are not mappings and
// list items that are not strings are skipped silently; mappings whose
// fields have the wrong shape are skipped and returned as InvalidRule.
// Only a document that is not YAML at all is an error.
func ParseRules(data []byte) ([]Rule, []InvalidRule, error) {
	var doc struct {
		Rules []yaml.Node `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parsing drift rules: %w", err)
	}

	rules := make([]Rule, 0, len(doc.Rules))
	var invalid []InvalidRule
	for _, n := range doc.Rules {
		if n.Kind != yaml.MappingNode {
			continue
		}
		rule, err := decodeRule(&n)
		if err != nil {
			invalid = append(invalid, InvalidRule{Line: n.Line, Err: err})
			continue
		}
		rules = append(rules, rule)
	}
	if len(rules) == 0 && len(invalid) == 0 {
		return nil, nil, ErrNoRules
	}
	return rules, invalid, nil
}

func decodeRule(n *yaml.Node) (Rule, error) {
	var raw struct {
		ID            string `yaml:"id"`
		TriggerAny    []any  `yaml:"trigger_any_changed"`
		TriggerPrefix []any  `yaml:"trigger_prefix_changed"`
		RequireAny    []any  `yaml:"require_any_changed"`
		RequirePrefix []any  `yaml:"require_prefix_changed"`
		Message       string `yaml:"message"`
	}
	if err := n.Decode(&raw); err != nil {
		return Rule{}, err
	}
	return Rule{
		ID:            raw.ID,
		TriggerAny:    stringsOnly(raw.TriggerAny),
		TriggerPrefix: stringsOnly(raw.TriggerPrefix),
		RequireAny:    stringsOnly(raw.RequireAny),
		RequirePrefix: stringsOnly(raw.RequirePrefix),
		Message:       raw.Message,
	}, nil
}

func stringsOnly(in []any) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Evaluate returns one error finding per rule that fired without any
// companion change. Rules without require entries never fail.
func Evaluate(changed []string, rules []Rule) []report.Finding {
	var findings []report.Finding
	for _, r := range rules {
		if !r.Triggered(changed) {
			continue
		}
		if len(r.RequireAny) == 0 && len(r.RequirePrefix) == 0 {
			continue
		}
		if r.Satisfied(changed) {
			continue
		}
		subject := r.ID
		if subject == "" {
			subject = Subject
		}
		msg := r.Message
		if msg == "" {
			msg = DefaultMessage
		}
		findings = append(findings, report.Errorf(subject, "%s", msg))
	}
	return findings
}

// Triggered reports whether any trigger entry matches a changed path.
func (r Rule) Triggered(changed []string) bool {
	return anyMatch(r.TriggerAny, changed, false) || anyMatch(r.TriggerPrefix, changed, true)
}

// Satisfied reports whether any require entry matches a changed path.
func (r Rule) Satisfied(changed []string) bool {
	return anyMatch(r.RequireAny, changed, false) || anyMatch(r.RequirePrefix, changed, true)
}

func anyMatch(entries, changed []string, prefix bool) bool {
	for _, e := range entries {
		for _, c := range changed {
			if Match(e, c, prefix) {
				return true
			}
		}
	}
	return false
}

// Match applies one rule entry to one changed path.
func Match(entry, changed string, prefix bool) bool {
	switch {
	case prefix || strings.HasSuffix(entry, "/"):
		return strings.HasPrefix(changed, entry)
	case strings.ContainsAny(entry, "*?[{") && doublestar.ValidatePattern(entry):
		ok, _ := doublestar.Match(entry, changed)
		return ok
	default:
		return entry == changed
	}
}

// Check fetches the changed paths from src and evaluates the rules at
// rulesPath. Unavailable diff data or a missing rule file yield warnings.
func Check(ctx context.Context, src ChangeSource, diffRange, rulesPath string) []report.Finding {
	changed, err := src.ChangedFiles(ctx, diffRange)
	if err != nil {
		return []report.Finding{report.Warnf("git", "Drift checking enabled but git diff could not be computed.")}
	}

	rules, invalid, err := LoadRules(rulesPath)
	switch {
	case errors.Is(err, ErrNoRules):
		return []report.Finding{report.Warnf("drift_rules.yaml", "Drift checking enabled but drift_rules.yaml not found or empty.")}
	case err != nil:
		return []report.Finding{report.Warnf("drift_rules.yaml", "Drift rules could not be parsed: %v", err)}
	}

	findings := make([]report.Finding, 0, len(invalid))
	for _, bad := range invalid {
		findings = append(findings, report.Warnf("drift_rules.yaml", "Skipping drift rule at line %d: %v", bad.Line, bad.Err))
	}
	return append(findings, Evaluate(changed, rules)...)
}
