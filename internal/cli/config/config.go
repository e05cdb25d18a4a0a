package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/docgov/docgov/internal/cli/shared"
	cfgpkg "github.com/docgov/docgov/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage docgov configuration",
	Long: `Manage docgov configuration settings.

Configuration is loaded with the following priority (highest to lowest):
  1. Environment variables (DOCGOV_*, nested keys joined with __)
  2. Project config (.docgov/config.yml)
  3. Legacy settings (.claude/settings.yaml)
  4. User config (~/.config/docgov/config.yml)
  5. Built-in defaults`,
	Example: `  # Show current configuration
  docgov config show

  # Show configuration as JSON
  docgov config show --json

  # Use the minimal profile in this project
  docgov config set profile minimal --project

  # List every key
  docgov config keys`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the merged configuration",
	Long: `Display the current effective configuration values after every source
has been applied.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one configuration value and its source",
	Long: `Print the value of one key. The project config is searched first, then
the user config; a key set in neither prints the merged value, which also
covers legacy settings, DOCGOV_* variables and defaults.`,
	Example: `  docgov config get profile
  docgov config get budget.warning`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write one configuration value",
	Long: `Write a value into the user or the project config file.

By default, sets the value in the user-level config (~/.config/docgov/config.yml).
Use --project to set in the project-level config (.docgov/config.yml).

The value type is inferred from the key and validated before writing.`,
	Example: `  # Warn instead of failing on unknown depends_on ids
  docgov config set ref_level warning

  # Project-wide registry layout
  docgov config set layout registry --project

  # Extra document types
  docgov config set extra_types playbook,runbook --project`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List the configuration keys",
	Long:  `List every key accepted by config set, with its type and meaning.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigKeys,
}

func init() {
	configCmd.GroupID = shared.GroupConfiguration
	configCmd.PersistentFlags().String("root", ".", "Project root holding .docgov/")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configKeysCmd)

	configShowCmd.Flags().Bool("json", false, "Print JSON instead of YAML")

	configGetCmd.Flags().Bool("user", false, "Only read the user config")
	configGetCmd.Flags().Bool("project", false, "Only read the project config")

	configSetCmd.Flags().Bool("user", false, "Write the user config (default)")
	configSetCmd.Flags().Bool("project", false, "Write the project config")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	root := shared.Root(cmd)
	useJSON, _ := cmd.Flags().GetBool("json")

	cfg, err := shared.LoadConfig(cmd, root)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if useJSON {
		data, err := json.MarshalIndent(cfg.Values(), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to serialize config: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	data, err := yaml.Marshal(cfg.Values())
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	userPath, _ := cfgpkg.UserConfigPath()
	fmt.Fprintf(out, "# Configuration Sources\n")
	fmt.Fprintf(out, "# User config:     %s\n", userPath)
	fmt.Fprintf(out, "# Legacy settings: %s\n", cfgpkg.LegacySettingsPath(root))
	fmt.Fprintf(out, "# Project config:  %s\n", projectPath(cmd, root))
	fmt.Fprintf(out, "\n")
	fmt.Fprint(out, string(data))
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	out := cmd.OutOrStdout()
	root := shared.Root(cmd)

	keyPath, err := knownKeyPath(key)
	if err != nil {
		return err
	}
	onlyUser, onlyProject, err := scopeFlags(cmd)
	if err != nil {
		return err
	}

	var scopes []configScope
	if !onlyUser {
		scopes = append(scopes, projectScope(cmd, root))
	}
	if !onlyProject {
		user, err := userScope()
		if err != nil {
			return err
		}
		scopes = append(scopes, user)
	}
	for _, sc := range scopes {
		if value, ok := lookupFile(sc.path, keyPath); ok {
			fmt.Fprintf(out, "%s: %s (from %s config)\n", key, value, sc.name)
			return nil
		}
	}
	if onlyUser || onlyProject {
		fmt.Fprintf(out, "%s: not set in %s config\n", key, scopes[0].name)
		return nil
	}

	// Legacy settings, environment overrides and defaults only show up in
	// the merged configuration.
	cfg, err := shared.LoadConfig(cmd, root)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	fmt.Fprintf(out, "%s: %v (effective)\n", key, cfg.Values()[key])
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := args[0], args[1]

	if _, err := knownKeyPath(key); err != nil {
		return err
	}
	_, onlyProject, err := scopeFlags(cmd)
	if err != nil {
		return err
	}

	var target configScope
	if onlyProject {
		root := shared.Root(cmd)
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			return fmt.Errorf("project root %s is not a directory", root)
		}
		target = projectScope(cmd, root)
	} else if target, err = userScope(); err != nil {
		return err
	}

	if err := cfgpkg.SetConfigValue(target.path, key, value); err != nil {
		return fmt.Errorf("setting config value: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s config (%s)\n", key, value, target.name, target.path)
	return nil
}

func runConfigKeys(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprint(out, "Available configuration keys:\n\n")
	for _, key := range cfgpkg.SortedKeys() {
		ks := cfgpkg.KnownKeys[key]
		kind := ks.Type.String()
		if ks.Type == cfgpkg.TypeEnum {
			kind = "enum (" + strings.Join(ks.AllowedValues, ", ") + ")"
		}
		fmt.Fprintf(out, "  %-40s %s\n    %s\n\n", key, kind, ks.Description)
	}
	return nil
}

// configScope is one config file addressed by get and set.
type configScope struct {
	name string
	path string
}

var errScopeConflict = errors.New("--user and --project are mutually exclusive")

func scopeFlags(cmd *cobra.Command) (onlyUser, onlyProject bool, err error) {
	onlyUser, _ = cmd.Flags().GetBool("user")
	onlyProject, _ = cmd.Flags().GetBool("project")
	if onlyUser && onlyProject {
		return false, false, errScopeConflict
	}
	return onlyUser, onlyProject, nil
}

func userScope() (configScope, error) {
	path, err := cfgpkg.UserConfigPath()
	if err != nil {
		return configScope{}, fmt.Errorf("getting user config path: %w", err)
	}
	return configScope{name: "user", path: path}, nil
}

// projectScope is the --config file when given, otherwise the project
// config below root.
func projectScope(cmd *cobra.Command, root string) configScope {
	return configScope{name: "project", path: projectPath(cmd, root)}
}

func projectPath(cmd *cobra.Command, root string) string {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path
	}
	return cfgpkg.ProjectConfigPath(root)
}

// knownKeyPath splits key after checking it against the key schema.
func knownKeyPath(key string) ([]string, error) {
	if _, err := cfgpkg.GetKeySchema(key); err != nil {
		return nil, fmt.Errorf("unknown configuration key: %q\n\nValid keys:\n  %s",
			key, strings.Join(cfgpkg.SortedKeys(), "\n  "))
	}
	return cfgpkg.ParseKeyPath(key)
}

// lookupFile returns the value stored at keyPath in a YAML file. Scalars are
// returned as written; lists and mappings in flow style.
func lookupFile(path string, keyPath []string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	var doc yaml.Node
	if yaml.Unmarshal(data, &doc) != nil {
		return "", false
	}
	node := cfgpkg.GetNestedValue(&doc, keyPath)
	if node == nil {
		return "", false
	}
	if node.Kind == yaml.ScalarNode {
		return node.Value, true
	}
	flow := *node
	flow.Style = yaml.FlowStyle
	rendered, err := yaml.Marshal(&flow)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(rendered)), true
}
