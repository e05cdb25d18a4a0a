package dochealth

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docgov/docgov/internal/frontmatter"
	"github.com/docgov/docgov/internal/testutil"
)

func TestInferType(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"commands/build.md":          "command",
		".claude/agents/reviewer.md": "agent",
		"docs/design/arch.md":        "guide",
		"README.md":                  "guide",
		".claude/CLAUDE.md":          "memory_project",
		"project-intent.md":          "intent",
		"design/app-data-model.md":   "data_model",
		"notes.md":                   "guide",
	}

	for rel, want := range tests {
		t.Run(rel, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, want, InferType(rel))
		})
	}
}

func TestInferDescription(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		rel     string
		content string
		want    string
	}{
		"heading":              {rel: "a.md", content: "intro\n# Payment Service\n", want: "Payment Service"},
		"placeholder stripped": {rel: "a.md", content: "# [Project Name] - Architecture\n", want: "Architecture"},
		"short heading":        {rel: "data-model.md", content: "# Go\n", want: "Data Model"},
		"no heading":           {rel: "docs/my_notes.md", content: "text\n", want: "My Notes"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, InferDescription(tt.rel, tt.content))
		})
	}
}

func writeFixTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	testutil.WriteFile(t, filepath.Join(root, "alpha.md"), "# Alpha Doc\n")
	testutil.WriteFile(t, filepath.Join(root, "docs", "beta.md"), "---\ntype: guide\nowner: docs\n---\n# Beta\n\nBody text.\n")
	testutil.WriteFile(t, filepath.Join(root, "docs", "gamma.md"),
		"---\ntype: guide\ndescription: Gamma\nversion: 1.0.0\nupdated: 2026-01-01\n---\n")
	testutil.WriteFile(t, filepath.Join(root, "_archive", "old.md"), "# Old\n")
	testutil.WriteFile(t, filepath.Join(root, "node_modules", "pkg", "README.md"), "# Pkg\n")
	testutil.WriteFile(t, filepath.Join(root, "docs", "notes.txt"), "plain\n")
	return root
}

func TestFindMarkdown(t *testing.T) {
	t.Parallel()

	files, err := FindMarkdown(writeFixTree(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha.md", "docs/beta.md", "docs/gamma.md"}, files)
}

func TestFix_DryRun(t *testing.T) {
	t.Parallel()

	root := writeFixTree(t)
	report, err := Fix(context.Background(), FixOptions{Root: root, DryRun: true, Now: func() time.Time { return fixedNow }})
	require.NoError(t, err)

	require.Len(t, report.Files, 3)
	assert.Equal(t, FixNoFrontmatter, report.Files[0].Status)
	assert.Equal(t, RequiredFields, report.Files[0].Missing)
	assert.Equal(t, map[string]string{
		"type":        "guide",
		"description": "Alpha Doc",
		"version":     DefaultVersion,
		"updated":     "2026-03-01T12:00:00",
	}, report.Files[0].Suggested)
	assert.Equal(t, FixIncomplete, report.Files[1].Status)
	assert.Equal(t, []string{"description", "version", "updated"}, report.Files[1].Missing)
	assert.Equal(t, FixCompliant, report.Files[2].Status)
	assert.Equal(t, 0, report.FixedCount())
	assert.Equal(t, 1, report.Status())

	assert.Equal(t, "# Alpha Doc\n", testutil.ReadFile(t, filepath.Join(root, "alpha.md")))
}

func TestFix_Writes(t *testing.T) {
	t.Parallel()

	root := writeFixTree(t)
	opts := FixOptions{Root: root, Now: func() time.Time { return fixedNow }, Workers: 2}
	report, err := Fix(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 2, report.FixedCount())
	assert.Equal(t, 0, report.Status())

	alpha := testutil.ReadFile(t, filepath.Join(root, "alpha.md"))
	assert.True(t, strings.HasPrefix(alpha, "---\ntype: guide\ndescription: Alpha Doc\nversion: 0.1.0\nupdated: "), alpha)
	assert.True(t, strings.HasSuffix(alpha, "\n---\n\n# Alpha Doc\n"), alpha)
	assert.Contains(t, alpha, "2026-03-01T12:00:00")

	fields, body, ok := frontmatter.Parse(testutil.ReadFile(t, filepath.Join(root, "docs", "beta.md")))
	require.True(t, ok)
	assert.Equal(t, "guide", fields["type"])
	assert.Equal(t, "Beta", fields["description"])
	assert.Equal(t, "docs", fields["owner"])
	assert.Equal(t, "# Beta\n\nBody text.\n", body)

	opts.DryRun = true
	again, err := Fix(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, 3, again.Count(FixCompliant))
	assert.Equal(t, 0, again.Status())

	var buf bytes.Buffer
	report.WriteText(&buf, false)
	assert.Contains(t, buf.String(), "  Fixed:           2\n")
	assert.Contains(t, buf.String(), "[✓] alpha.md\n    Status: no_frontmatter\n")
}

func TestFix_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Fix(ctx, FixOptions{Root: writeFixTree(t)})
	assert.ErrorIs(t, err, context.Canceled)
}
