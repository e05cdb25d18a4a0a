// Package schema checks parsed frontmatter against the governance document schema.
//
// A Schema is a value: Default returns a fresh copy on every call and the
// With* methods return modified copies, so callers never share mutable tables.
package schema

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/docgov/docgov/internal/frontmatter"
	"github.com/docgov/docgov/internal/report"
)

// Profile selects how many keys are required.
type Profile string

const (
	// ProfileStrict requires every schema key.
	ProfileStrict Profile = "strict"
	// ProfileMinimal requires the core keys and back-fills defaults for the rest.
	ProfileMinimal Profile = "minimal"
)

// ParseProfile validates a profile name.
func ParseProfile(s string) (Profile, error) {
	switch Profile(s) {
	case ProfileStrict, ProfileMinimal:
		return Profile(s), nil
	default:
		return "", fmt.Errorf("invalid profile %q: must be strict or minimal", s)
	}
}

// Schema holds the key lists and value sets used by Validate.
type Schema struct {
	required []string
	optional []string
	core     []string
	defaults map[string]any
	enums    map[string][]string
	enumKeys []string
	lists    []string
	strings  []string
}

// Default returns the governance schema.
func Default() Schema {
	return Schema{
		required: []string{"doc_id", "slug", "title", "type", "tier", "version"},
		optional: []string{"status", "authority", "review_status", "created", "updated", "owner", "depends_on"},
		core:     []string{"doc_id", "type", "tier", "version"},
		defaults: map[string]any{
			"status":        "draft",
			"authority":     "binding",
			"review_status": "draft",
			"owner":         "human",
			"depends_on":    []any{},
		},
		enums: map[string][]string{
			"type": {
				"adr", "adr_index", "agent_run", "api_spec", "architecture", "artifact_registry",
				"build_artifact", "change_summary", "data_model", "drift_report", "drift_rules",
				"governance_policy", "observability_plan", "project_brief", "prompt", "release_notes",
				"research_note", "runbook", "schema", "security_baseline", "standard", "system_map",
				"tasks_plan", "test_strategy", "threat_model", "validation_plan", "validation_result",
			},
			"status":        {"active", "archived", "deprecated", "draft"},
			"authority":     {"binding", "guidance", "informational"},
			"review_status": {"accepted", "deprecated", "draft", "reviewed"},
			"tier":          {"tier1", "tier2", "tier3"},
		},
		enumKeys: []string{"type", "status", "authority", "review_status", "tier"},
		lists:    []string{"depends_on"},
		strings:  []string{"doc_id", "slug", "title", "owner"},
	}
}

// WithTypes returns a copy of s that also accepts the given document types.
func (s Schema) WithTypes(types ...string) Schema {
	out := s.clone()
	merged := slices.Clone(out.enums["type"])
	for _, t := range types {
		t = strings.TrimSpace(t)
		if t != "" && !slices.Contains(merged, t) {
			merged = append(merged, t)
		}
	}
	sort.Strings(merged)
	out.enums["type"] = merged
	return out
}

func (s Schema) clone() Schema {
	out := Schema{
		required: slices.Clone(s.required),
		optional: slices.Clone(s.optional),
		core:     slices.Clone(s.core),
		defaults: make(map[string]any, len(s.defaults)),
		enums:    make(map[string][]string, len(s.enums)),
		enumKeys: slices.Clone(s.enumKeys),
		lists:    slices.Clone(s.lists),
		strings:  slices.Clone(s.strings),
	}
	for k, v := range s.Defaults() {
		out.defaults[k] = v
	}
	for k, v := range s.enums {
		out.enums[k] = slices.Clone(v)
	}
	return out
}

// Required lists the keys a profile requires.
func (s Schema) Required(p Profile) []string {
	if p == ProfileMinimal {
		return slices.Clone(s.core)
	}
	return append(slices.Clone(s.required), s.optional...)
}

// Defaults returns a fresh map of the default values for optional keys.
func (s Schema) Defaults() map[string]any {
	out := make(map[string]any, len(s.defaults))
	for k, v := range s.defaults {
		if l, ok := v.([]any); ok {
			out[k] = slices.Clone(l)
			continue
		}
		out[k] = v
	}
	return out
}

// Allowed returns the accepted values for an enum key, or nil.
func (s Schema) Allowed(key string) []string {
	return slices.Clone(s.enums[key])
}

// Validate checks fields and returns one finding per violation, all at error
// level. Under the minimal profile missing optional keys are filled into
// fields from the schema defaults.
func Validate(subject string, fields frontmatter.Fields, p Profile, s Schema) []report.Finding {
	var findings []report.Finding

	for _, k := range s.Required(p) {
		if !fields.Has(k) {
			findings = append(findings, report.Errorf(subject, "Missing required frontmatter key: %s", k))
		}
	}

	if p == ProfileMinimal {
		for k, v := range s.Defaults() {
			if !fields.Has(k) {
				fields[k] = v
			}
		}
	}

	for _, k := range s.lists {
		if v, ok := fields[k]; ok {
			if _, isList := v.([]any); !isList {
				findings = append(findings, report.Errorf(subject, "%s must be a list (can be empty).", k))
			}
		}
	}

	for _, k := range s.enumKeys {
		v, ok := fields[k]
		if !ok || v == nil {
			continue
		}
		str, isStr := v.(string)
		allowed := s.enums[k]
		switch {
		case !isStr:
			findings = append(findings, report.Errorf(subject, "%s must be a string (got %s).", k, typeName(v)))
		case slices.Contains(allowed, str):
		case k == "tier":
			findings = append(findings, report.Errorf(subject, "tier must be one of %s (got: %s)", strings.Join(allowed, "|"), str))
		default:
			findings = append(findings, report.Errorf(subject, "Invalid %s: '%s'. Allowed: [%s]", k, str, strings.Join(allowed, ", ")))
		}
	}

	for _, k := range s.strings {
		if k == "doc_id" {
			continue
		}
		if v, ok := fields[k]; ok && v != nil {
			if _, isStr := v.(string); !isStr {
				findings = append(findings, report.Errorf(subject, "%s must be a string (got %s).", k, typeName(v)))
			}
		}
	}

	if v, ok := fields["version"]; ok {
		switch v.(type) {
		case []any, map[string]any:
			findings = append(findings, report.Errorf(subject, "version must be a scalar (got %s).", typeName(v)))
		}
	}

	if v, ok := fields["doc_id"]; ok {
		findings = append(findings, checkDocID(subject, v)...)
	}

	return findings
}

func checkDocID(subject string, v any) []report.Finding {
	id, ok := v.(string)
	if !ok {
		return []report.Finding{report.Errorf(subject, "doc_id must be a string.")}
	}
	switch trimmed := strings.TrimSpace(id); {
	case trimmed == "":
		return []report.Finding{report.Errorf(subject, "doc_id is empty.")}
	case IsPlaceholder(trimmed):
		return []report.Finding{report.Errorf(subject, "doc_id is TODO. Use --next-id <prefix> or --fix-todo-ids to allocate a new id.")}
	}
	return nil
}

// IsPlaceholder reports whether id is the reserved "TODO" placeholder.
func IsPlaceholder(id string) bool {
	return strings.EqualFold(strings.TrimSpace(id), "TODO")
}

// Text renders a scalar frontmatter value as text. Non-scalars yield "".
func Text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []any, map[string]any:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case int, int64, uint64:
		return "int"
	case float64:
		return "float"
	case []any:
		return "list"
	case map[string]any:
		return "mapping"
	default:
		return fmt.Sprintf("%T", v)
	}
}
