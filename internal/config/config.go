// Package config loads docgov settings from layered sources.
//
// Priority: environment variables > project config > legacy settings >
// user config > defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override. Nested keys use a double
// underscore: DOCGOV_BUDGET__WARNING sets budget.warning.
const EnvPrefix = "DOCGOV_"

// Configuration represents the docgov settings.
type Configuration struct {
	Profile       string        `koanf:"profile" validate:"oneof=strict minimal"`
	Layout        string        `koanf:"layout" validate:"oneof=governance registry"`
	ScanDirs      []string      `koanf:"scan_dirs" validate:"dive,required"`
	RegistryPath  string        `koanf:"registry_path" validate:"required"`
	RulesPath     string        `koanf:"rules_path" validate:"required"`
	DiffRange     string        `koanf:"diff_range" validate:"required"`
	RefLevel      string        `koanf:"ref_level" validate:"oneof=warning error"`
	ExtraTypes    []string      `koanf:"extra_types" validate:"dive,required"`
	ShowProgress  bool          `koanf:"show_progress"`
	WatchDebounce time.Duration `koanf:"watch_debounce" validate:"min=0"`

	RepoStructure  StructureConfig `koanf:"repo_structure"`
	DocMaintenance HealthConfig    `koanf:"doc_maintenance"`
	Budget         BudgetConfig    `koanf:"budget"`
	Trace          TraceConfig     `koanf:"trace"`

	values map[string]interface{}
}

// StructureConfig extends the repository layout rules.
type StructureConfig struct {
	AllowedRoot []string `koanf:"allowed_root"`
	Ignore      []string `koanf:"ignore"`
}

// HealthConfig holds staleness thresholds in days per doc category.
type HealthConfig struct {
	Categories map[string]int `koanf:"categories" validate:"dive,min=1"`
}

// BudgetConfig holds the token budget thresholds.
type BudgetConfig struct {
	File    string `koanf:"file" validate:"required"`
	Target  int    `koanf:"target" validate:"min=1"`
	Warning int    `koanf:"warning" validate:"gtefield=Target"`
	Max     int    `koanf:"max" validate:"gtefield=Warning"`
}

// TraceConfig locates the requirement, design and task documents.
type TraceConfig struct {
	Requirements string   `koanf:"requirements" validate:"required"`
	Design       []string `koanf:"design" validate:"min=1,dive,required"`
	Tasks        string   `koanf:"tasks" validate:"required"`
}

// LoadOptions selects the files Load reads.
type LoadOptions struct {
	// Root is the project root holding .docgov/ and .claude/.
	Root string
	// ConfigPath replaces the project config file when set. It must exist.
	ConfigPath string
	// SkipUser skips the user config file.
	SkipUser bool
}

// Load loads configuration from the user, legacy, project and environment
// sources on top of the defaults, then validates it.
func Load(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")

	for key, value := range GetDefaults() {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("setting default %s: %w", key, err)
		}
	}

	if !opts.SkipUser {
		if userPath, err := UserConfigPath(); err == nil {
			if err := loadFile(k, userPath, false); err != nil {
				return nil, fmt.Errorf("failed to load user config: %w", err)
			}
		}
	}

	if err := loadLegacySettings(k, LegacySettingsPath(opts.Root)); err != nil {
		return nil, fmt.Errorf("failed to load legacy settings: %w", err)
	}

	projectPath, required := ProjectConfigPath(opts.Root), false
	if opts.ConfigPath != "" {
		projectPath, required = opts.ConfigPath, true
	}
	if err := loadFile(k, projectPath, required); err != nil {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := ValidateConfigValues(&cfg, projectPath); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	cfg.values = k.All()

	return &cfg, nil
}

// Values returns the effective settings as flattened dotted keys.
func (c *Configuration) Values() map[string]interface{} {
	return c.values
}

// loadFile merges one config file, choosing the parser by extension.
// A missing optional file is skipped.
func loadFile(k *koanf.Koanf, path string, required bool) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return err
	}
	if !isJSON(path) {
		if err := ValidateYAMLSyntax(path); err != nil {
			return err
		}
	}
	return k.Load(file.Provider(path), parserFor(path))
}

// loadLegacySettings merges only the repo_structure and doc_maintenance
// sections of .claude/settings.yaml.
func loadLegacySettings(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	legacy := koanf.New(".")
	if err := legacy.Load(file.Provider(path), yaml.Parser()); err != nil {
		return err
	}
	for _, section := range []string{"repo_structure", "doc_maintenance"} {
		if !legacy.Exists(section) {
			continue
		}
		if err := k.MergeAt(legacy.Cut(section), section); err != nil {
			return fmt.Errorf("merging %s: %w", section, err)
		}
	}
	return nil
}

func parserFor(path string) koanf.Parser {
	if isJSON(path) {
		return json.Parser()
	}
	return yaml.Parser()
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// listKeys are split on commas when set from the environment.
var listKeys = map[string]bool{
	"scan_dirs":                   true,
	"extra_types":                 true,
	"repo_structure.allowed_root": true,
	"repo_structure.ignore":       true,
	"trace.design":                true,
}

// envTransform converts environment variable names to config keys.
// Example: DOCGOV_BUDGET__WARNING -> budget.warning
func envTransform(key, value string) (string, interface{}) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	key = strings.ReplaceAll(key, "__", ".")
	if listKeys[key] {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return key, out
	}
	return key, value
}
