package config

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserConfigPath_XDGConfigHome(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME is only used on Linux")
	}

	custom := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", custom)

	dir, err := UserConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(custom, "docgov"), dir)

	path, err := UserConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(custom, "docgov", "config.yml"), path)
}

func TestProjectPaths(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		got  string
		want string
	}{
		"project dir":     {got: ProjectConfigDir("repo"), want: filepath.Join("repo", ".docgov")},
		"project config":  {got: ProjectConfigPath("repo"), want: filepath.Join("repo", ".docgov", "config.yml")},
		"legacy settings": {got: LegacySettingsPath("repo"), want: filepath.Join("repo", ".claude", "settings.yaml")},
		"relative root":   {got: ProjectConfigPath("."), want: filepath.Join(".docgov", "config.yml")},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.got)
		})
	}
}
