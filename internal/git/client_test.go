package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docgov/docgov/internal/testutil"
)

func TestValidateRange(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		in      string
		wantErr bool
	}{
		"head":            {in: "HEAD"},
		"cached":          {in: Cached},
		"ancestor":        {in: "HEAD~3"},
		"two dot range":   {in: "main..feature/x"},
		"three dot range": {in: "origin/main...HEAD"},
		"sha":             {in: "a1b2c3d"},
		"option":          {in: "--output=/tmp/x", wantErr: true},
		"space":           {in: "HEAD HEAD", wantErr: true},
		"control char":    {in: "HEAD\x00", wantErr: true},
		"empty":           {in: "", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			err := ValidateRange(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAvailable(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	assert.False(t, Available())
}

func TestClient_ChangedFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteFile(t, filepath.Join(root, "docs", "a.md"), "one\n")
	testutil.WriteFile(t, filepath.Join(root, "README.md"), "readme\n")
	testutil.InitGitRepo(t, root)

	ctx := context.Background()
	c := New(root, nil)

	files, err := c.ChangedFiles(ctx, DefaultRange)
	require.NoError(t, err)
	assert.Empty(t, files)

	testutil.WriteFile(t, filepath.Join(root, "docs", "a.md"), "two\n")
	files, err = c.ChangedFiles(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/a.md"}, files)

	staged, err := c.ChangedFiles(ctx, Cached)
	require.NoError(t, err)
	assert.Empty(t, staged)

	testutil.Git(t, root, "add", "docs/a.md")
	staged, err = c.ChangedFiles(ctx, Cached)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/a.md"}, staged)

	testutil.Commit(t, root, "update docs")
	log, err := c.Log(ctx, "HEAD~1..HEAD", ReportPaths...)
	require.NoError(t, err)
	assert.Contains(t, log, "update docs")
}

func TestClient_NotARepository(t *testing.T) {
	t.Parallel()
	testutil.RequireGit(t)

	ctx := context.Background()
	c := New(t.TempDir(), nil)

	_, err := c.ChangedFiles(ctx, DefaultRange)
	assert.Error(t, err)

	_, err = c.ChangedFiles(ctx, "--exec=evil")
	assert.Error(t, err)

	_, err = c.Log(ctx, Cached)
	assert.Error(t, err)
}

func TestCaptureState(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	repo, err := gogit.PlainInit(root, false)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte("a\n"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("a.md")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	sub := filepath.Join(root, "docs")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	state, err := CaptureState(sub)
	require.NoError(t, err)
	assert.Equal(t, hash.String(), state.CommitSHA)
	assert.Equal(t, "master", state.Branch)
	assert.Len(t, state.ShortSHA(), 7)
}

func TestCaptureState_NotARepository(t *testing.T) {
	t.Parallel()

	_, err := CaptureState(t.TempDir())
	assert.Error(t, err)
}
