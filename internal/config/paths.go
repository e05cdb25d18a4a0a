package config

import (
	"os"
	"path/filepath"
)

const (
	appName        = "docgov"
	configFileName = "config.yml"
)

// UserConfigDir returns the per-user config directory, honouring
// XDG_CONFIG_HOME on Linux.
func UserConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appName), nil
}

// UserConfigPath returns the per-user config file path.
func UserConfigPath() (string, error) {
	dir, err := UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// ProjectConfigDir returns the project config directory below root.
func ProjectConfigDir(root string) string {
	return filepath.Join(root, "."+appName)
}

// ProjectConfigPath returns the project config file below root.
func ProjectConfigPath(root string) string {
	return filepath.Join(ProjectConfigDir(root), configFileName)
}

// LegacySettingsPath returns the .claude/settings.yaml file read for
// repo_structure and doc_maintenance.
func LegacySettingsPath(root string) string {
	return filepath.Join(root, ".claude", "settings.yaml")
}
