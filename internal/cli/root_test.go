package cli

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docgov/docgov/internal/testutil"
)

func TestExecute_ValidateEndToEnd(t *testing.T) {
	testutil.IsolateUserConfig(t)

	root := t.TempDir()
	testutil.WriteDoc(t, root, "docs/a.md", "doc-001")
	testutil.WriteDoc(t, root, "docs/b.md", "doc-002", testutil.WithoutField("tier"))

	out, err := testutil.ExecuteCommand(t, rootCmd, "validate", "--root", root, "--profile", "strict")
	assert.Equal(t, ExitValidationFailed, ExitCode(err))

	var errorLines []string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "ERROR") {
			errorLines = append(errorLines, line)
		}
	}
	assert.Equal(t, []string{"ERROR: docs/b.md: Missing required frontmatter key: tier"}, errorLines)
	assert.Contains(t, out, "FAILED: 1 error(s), 0 warning(s)")

	// Writing the registry does not fix the document, so the run still fails.
	_, err = testutil.ExecuteCommand(t, rootCmd, "validate", "--root", root, "--write-registry")
	assert.Equal(t, ExitValidationFailed, ExitCode(err))
	assert.True(t, testutil.FileExists(filepath.Join(root, "artifacts", "ARTIFACT_REGISTRY.json")))

	testutil.WriteDoc(t, root, "docs/b.md", "doc-002")
	out, err = testutil.ExecuteCommand(t, rootCmd, "validate", "--root", root, "--write-registry", "--check-registry")
	require.NoError(t, err, out)
	assert.Contains(t, out, "OK: 2 file(s) validated")
}

func TestExecute_UnreadableRoot(t *testing.T) {
	testutil.IsolateUserConfig(t)

	_, err := testutil.ExecuteCommand(t, rootCmd, "validate", "--root", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitInvalidInput, ExitCode(err))
	assert.False(t, IsExitError(err))
}

func TestExecute_InvalidLogFormat(t *testing.T) {
	testutil.IsolateUserConfig(t)

	_, err := testutil.ExecuteCommand(t, rootCmd, "--log-format", "xml", "version")
	assert.ErrorContains(t, err, "invalid --log-format")
	assert.Equal(t, ExitInvalidInput, ExitCode(err))
}

func TestExecute_LoggerFromRootFlags(t *testing.T) {
	testutil.IsolateUserConfig(t)

	root := t.TempDir()
	testutil.WriteDoc(t, root, "docs/a.md", "doc-001")

	var stderr bytes.Buffer
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"--debug", "--log-format", "json", "validate", "--root", root})
	defer testutil.ResetFlags(rootCmd)

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, stderr.String(), `"msg":"validate finished"`)
	assert.Contains(t, stderr.String(), `"msg":"validation finished"`)
}

func TestExecute_UnknownCommand(t *testing.T) {
	_, err := testutil.ExecuteCommand(t, rootCmd, "publish")
	assert.Equal(t, ExitInvalidInput, ExitCode(err))
}

func TestRootCmd_Commands(t *testing.T) {
	want := []string{
		"validate", "tasks", "cycles", "coverage", "trace", "structure",
		"budget", "health", "watch", "serve", "config", "doctor", "version",
	}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
		assert.NotEmpty(t, cmd.GroupID, name)
	}

	out, err := testutil.ExecuteCommand(t, rootCmd, "--help")
	require.NoError(t, err)
	for _, title := range []string{"Validation:", "Checks:", "Services:", "Configuration:"} {
		assert.Contains(t, out, title)
	}
}
