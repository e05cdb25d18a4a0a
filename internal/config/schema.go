package config

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ConfigValueType defines the expected type for a configuration value.
type ConfigValueType int

const (
	TypeBool ConfigValueType = iota
	TypeInt
	TypeDuration
	TypeString
	TypeEnum
	TypeList
)

// String returns the string representation of ConfigValueType.
func (t ConfigValueType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeDuration:
		return "duration"
	case TypeString:
		return "string"
	case TypeEnum:
		return "enum"
	case TypeList:
		return "list"
	default:
		return "unknown"
	}
}

// ConfigKeySchema defines a settable configuration key.
type ConfigKeySchema struct {
	Path          string
	Type          ConfigValueType
	AllowedValues []string
	Description   string
}

// KnownKeys lists the keys accepted by SetConfigValue.
var KnownKeys = map[string]ConfigKeySchema{
	"profile": {
		Path:          "profile",
		Type:          TypeEnum,
		AllowedValues: []string{"strict", "minimal"},
		Description:   "Validation profile",
	},
	"layout": {
		Path:          "layout",
		Type:          TypeEnum,
		AllowedValues: []string{"governance", "registry"},
		Description:   "Directory layout to scan",
	},
	"scan_dirs": {
		Path:        "scan_dirs",
		Type:        TypeList,
		Description: "Comma separated directories to scan (empty uses the layout's set)",
	},
	"registry_path": {
		Path:        "registry_path",
		Type:        TypeString,
		Description: "Registry file, relative to the root",
	},
	"rules_path": {
		Path:        "rules_path",
		Type:        TypeString,
		Description: "Drift rules file, relative to the root",
	},
	"diff_range": {
		Path:        "diff_range",
		Type:        TypeString,
		Description: "Default git range for drift checks",
	},
	"ref_level": {
		Path:          "ref_level",
		Type:          TypeEnum,
		AllowedValues: []string{"warning", "error"},
		Description:   "Severity of depends_on references to unknown ids",
	},
	"extra_types": {
		Path:        "extra_types",
		Type:        TypeList,
		Description: "Comma separated document types added to the type enum",
	},
	"show_progress": {
		Path:        "show_progress",
		Type:        TypeBool,
		Description: "Show stage spinners on a terminal",
	},
	"watch_debounce": {
		Path:        "watch_debounce",
		Type:        TypeDuration,
		Description: "Quiet period before watch mode re-validates",
	},
	"budget.file": {
		Path:        "budget.file",
		Type:        TypeString,
		Description: "Instruction file checked by the budget command",
	},
	"budget.target": {
		Path:        "budget.target",
		Type:        TypeInt,
		Description: "Target token budget",
	},
	"budget.warning": {
		Path:        "budget.warning",
		Type:        TypeInt,
		Description: "Token count above which budget fails",
	},
	"budget.max": {
		Path:        "budget.max",
		Type:        TypeInt,
		Description: "Maximum token budget",
	},
	"doc_maintenance.categories.tech": {
		Path:        "doc_maintenance.categories.tech",
		Type:        TypeInt,
		Description: "Staleness threshold in days for docs/design",
	},
	"doc_maintenance.categories.product": {
		Path:        "doc_maintenance.categories.product",
		Type:        TypeInt,
		Description: "Staleness threshold in days for docs/discover and docs/setup",
	},
	"doc_maintenance.categories.user": {
		Path:        "doc_maintenance.categories.user",
		Type:        TypeInt,
		Description: "Staleness threshold in days for docs/guides",
	},
	"trace.requirements": {
		Path:        "trace.requirements",
		Type:        TypeString,
		Description: "Requirements document for coverage and trace",
	},
	"trace.tasks": {
		Path:        "trace.tasks",
		Type:        TypeString,
		Description: "Task list for coverage and trace",
	},
}

// ErrUnknownKey is returned when trying to access an unknown configuration key.
type ErrUnknownKey struct {
	Key string
}

func (e ErrUnknownKey) Error() string {
	return "unknown configuration key: " + e.Key
}

// GetKeySchema returns the schema for a known configuration key.
// Returns ErrUnknownKey if the key is not in the registry.
func GetKeySchema(path string) (ConfigKeySchema, error) {
	schema, ok := KnownKeys[path]
	if !ok {
		return ConfigKeySchema{}, ErrUnknownKey{Key: path}
	}
	return schema, nil
}

// SortedKeys returns the known key paths in order.
func SortedKeys() []string {
	keys := make([]string, 0, len(KnownKeys))
	for k := range KnownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParsedValue is a command-line value converted to the type its key
// stores: bool, int, duration text, string, or []string for lists.
type ParsedValue struct {
	Raw    string
	Parsed interface{}
	Type   ConfigValueType
}

// ValidateValue parses value for key.
func ValidateValue(key, value string) (ParsedValue, error) {
	ks, err := GetKeySchema(key)
	if err != nil {
		return ParsedValue{}, err
	}
	return ks.Parse(value)
}

// Parse converts value to the key's type. Integers must be positive and
// durations non-negative; list items are split on commas and trimmed.
func (s ConfigKeySchema) Parse(value string) (ParsedValue, error) {
	pv := ParsedValue{Raw: value, Type: s.Type}
	switch s.Type {
	case TypeBool:
		switch strings.ToLower(value) {
		case "true":
			pv.Parsed = true
		case "false":
			pv.Parsed = false
		default:
			return ParsedValue{}, fmt.Errorf("invalid boolean: %q (expected true or false)", value)
		}
	case TypeInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return ParsedValue{}, fmt.Errorf("invalid positive integer: %q", value)
		}
		pv.Parsed = n
	case TypeDuration:
		d, err := time.ParseDuration(value)
		if err != nil || d < 0 {
			return ParsedValue{}, fmt.Errorf("invalid duration: %q (examples: 200ms, 1s)", value)
		}
		pv.Parsed = d.String()
	case TypeEnum:
		if !slices.Contains(s.AllowedValues, value) {
			return ParsedValue{}, fmt.Errorf("invalid value: %q (valid options: %s)", value, strings.Join(s.AllowedValues, ", "))
		}
		pv.Parsed = value
	case TypeList:
		items := []string{}
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		pv.Parsed = items
	case TypeString:
		pv.Parsed = value
	default:
		return ParsedValue{}, fmt.Errorf("unsupported type: %v", s.Type)
	}
	return pv, nil
}
