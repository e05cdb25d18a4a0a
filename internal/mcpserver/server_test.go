package mcpserver

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docgov/docgov/internal/drift"
	"github.com/docgov/docgov/internal/testutil"
	"github.com/docgov/docgov/internal/workflow"
)

type fakeChanges struct {
	changed []string
	err     error
	ranges  []string
}

func (f *fakeChanges) ChangedFiles(_ context.Context, diffRange string) ([]string, error) {
	f.ranges = append(f.ranges, diffRange)
	return f.changed, f.err
}

func newTestServer(t *testing.T, root string, changes *fakeChanges) *Server {
	t.Helper()
	s, err := NewServer(workflow.NewRunner(nil), workflow.Options{Root: root}, "test",
		WithChangeSource(func(string) drift.ChangeSource { return changes }))
	require.NoError(t, err)
	return s
}

func TestNewServer(t *testing.T) {
	t.Parallel()

	_, err := NewServer(nil, workflow.Options{}, "test")
	assert.ErrorIs(t, err, ErrMissingRunner)

	s, err := NewServer(workflow.NewRunner(nil), workflow.Options{Root: t.TempDir()}, "test")
	require.NoError(t, err)
	assert.NotNil(t, s.server)
}

func TestServer_handleValidate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := t.TempDir()
	testutil.WriteDoc(t, root, "docs/a.md", "doc-001", testutil.WithoutField("tier"))
	testutil.WriteDoc(t, root, "docs/b.md", "doc-002", testutil.WithoutField("owner"))
	s := newTestServer(t, root, &fakeChanges{})

	t.Run("strict profile", func(t *testing.T) {
		_, out, err := s.handleValidate(ctx, nil, ValidateInput{})
		require.NoError(t, err)
		assert.Equal(t, 1, out.Status)
		assert.Equal(t, 2, out.Scanned)
		assert.Equal(t, 2, out.Errors)
		assert.Contains(t, out.Findings, FindingOutput{Level: "error", Subject: "docs/a.md", Message: "Missing required frontmatter key: tier"})
	})

	t.Run("minimal profile", func(t *testing.T) {
		_, out, err := s.handleValidate(ctx, nil, ValidateInput{Profile: "minimal"})
		require.NoError(t, err)
		assert.Equal(t, []FindingOutput{{Level: "error", Subject: "docs/a.md", Message: "Missing required frontmatter key: tier"}}, out.Findings)
	})

	t.Run("invalid profile", func(t *testing.T) {
		_, _, err := s.handleValidate(ctx, nil, ValidateInput{Profile: "lenient"})
		assert.Error(t, err)
	})

	t.Run("does not write the registry", func(t *testing.T) {
		_, _, err := s.handleValidate(ctx, nil, ValidateInput{})
		require.NoError(t, err)
		assert.False(t, testutil.FileExists(filepath.Join(root, "artifacts", "ARTIFACT_REGISTRY.json")))
	})
}

func TestServer_handleValidate_NoDocuments(t *testing.T) {
	t.Parallel()

	s := newTestServer(t, t.TempDir(), &fakeChanges{})
	_, _, err := s.handleValidate(context.Background(), nil, ValidateInput{})
	assert.ErrorIs(t, err, workflow.ErrNoDocuments)
}

func TestServer_handleNextID(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	testutil.WriteDoc(t, root, "docs/a.md", "doc-001")
	testutil.WriteDoc(t, root, "docs/b.md", "doc-007")
	s := newTestServer(t, root, &fakeChanges{})

	_, out, err := s.handleNextID(context.Background(), nil, NextIDInput{Prefix: " doc "})
	require.NoError(t, err)
	assert.Equal(t, "doc-008", out.ID)

	_, out, err = s.handleNextID(context.Background(), nil, NextIDInput{Prefix: "ADR"})
	require.NoError(t, err)
	assert.Equal(t, "ADR-001", out.ID)

	_, _, err = s.handleNextID(context.Background(), nil, NextIDInput{})
	assert.ErrorIs(t, err, ErrMissingPrefix)
}

func TestServer_handleDrift(t *testing.T) {
	t.Parallel()

	rules := `rules:
  - id: schema-docs
    trigger_prefix_changed: ["schemas/"]
    require_prefix_changed: ["docs/"]
    message: Schema changed without docs.
`
	tests := map[string]struct {
		input     DriftInput
		changes   *fakeChanges
		wantRange string
		wantMsgs  []string
		wantErr   bool
	}{
		"violation": {
			changes:   &fakeChanges{changed: []string{"schemas/a.json"}},
			wantRange: "HEAD",
			wantMsgs:  []string{"Schema changed without docs."},
		},
		"satisfied": {
			input:     DriftInput{DiffRange: "origin/main...HEAD"},
			changes:   &fakeChanges{changed: []string{"schemas/a.json", "docs/a.md"}},
			wantRange: "origin/main...HEAD",
		},
		"git failure": {
			changes:   &fakeChanges{err: errors.New("not a repository")},
			wantRange: "HEAD",
			wantMsgs:  []string{"Drift checking enabled but git diff could not be computed."},
		},
		"invalid range": {
			input:   DriftInput{DiffRange: "--output=/tmp/x"},
			changes: &fakeChanges{},
			wantErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			testutil.WriteFile(t, filepath.Join(root, filepath.FromSlash(drift.DefaultPath)), rules)
			s := newTestServer(t, root, tt.changes)

			_, out, err := s.handleDrift(context.Background(), nil, tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Empty(t, tt.changes.ranges)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRange, out.DiffRange)
			assert.Equal(t, len(tt.wantMsgs), out.Count)
			var msgs []string
			for _, f := range out.Findings {
				msgs = append(msgs, f.Message)
			}
			assert.Equal(t, tt.wantMsgs, msgs)
		})
	}
}
