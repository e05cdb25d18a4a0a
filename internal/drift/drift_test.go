package drift

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docgov/docgov/internal/report"
	"github.com/docgov/docgov/internal/testutil"
)

type fakeSource struct {
	files []string
	err   error
	got   string
}

func (f *fakeSource) ChangedFiles(_ context.Context, diffRange string) ([]string, error) {
	f.got = diffRange
	return f.files, f.err
}

func TestMatch(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		entry   string
		changed string
		prefix  bool
		want    bool
	}{
		"exact":                   {entry: "docs/a.md", changed: "docs/a.md", want: true},
		"exact mismatch":          {entry: "docs/a.md", changed: "docs/a.mdx", want: false},
		"directory entry":         {entry: "docs/adrs/", changed: "docs/adrs/0001.md", want: true},
		"directory entry sibling": {entry: "docs/adrs/", changed: "docs/adrs.md", want: false},
		"prefix list":             {entry: "schemas", changed: "schemas-v2/x.json", prefix: true, want: true},
		"glob":                    {entry: "src/**/*.go", changed: "src/a/b/c.go", want: true},
		"glob mismatch":           {entry: "src/*.go", changed: "src/a/c.go", want: false},
		"malformed glob literal":  {entry: "docs/[draft.md", changed: "docs/[draft.md", want: true},
		"malformed glob no match": {entry: "docs/[draft.md", changed: "docs/d.md", want: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Match(tt.entry, tt.changed, tt.prefix))
		})
	}
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	apiRule := Rule{
		TriggerAny: []string{"schemas/api.yaml"},
		RequireAny: []string{"docs/api.md", "docs/adrs/"},
		Message:    "API schema changed without docs",
	}

	tests := map[string]struct {
		changed []string
		rules   []Rule
		want    []report.Finding
	}{
		"not triggered": {
			changed: []string{"README.md"},
			rules:   []Rule{apiRule},
		},
		"triggered and satisfied by file": {
			changed: []string{"schemas/api.yaml", "docs/api.md"},
			rules:   []Rule{apiRule},
		},
		"triggered and satisfied by directory": {
			changed: []string{"schemas/api.yaml", "docs/adrs/0007.md"},
			rules:   []Rule{apiRule},
		},
		"triggered and violated": {
			changed: []string{"schemas/api.yaml"},
			rules:   []Rule{apiRule},
			want:    []report.Finding{report.Errorf("drift_rules", "API schema changed without docs")},
		},
		"default message and id subject": {
			changed: []string{"src/main.go"},
			rules: []Rule{{
				ID:            "code-needs-changelog",
				TriggerPrefix: []string{"src/"},
				RequirePrefix: []string{"CHANGELOG"},
			}},
			want: []report.Finding{report.Errorf("code-needs-changelog", "Drift rule violated.")},
		},
		"no require entries never fails": {
			changed: []string{"schemas/api.yaml"},
			rules:   []Rule{{TriggerAny: []string{"schemas/api.yaml"}}},
		},
		"rules independent": {
			changed: []string{"schemas/api.yaml", "src/x.go"},
			rules: []Rule{
				apiRule,
				{TriggerAny: []string{"src/*.go"}, RequireAny: []string{"src/x.go"}},
				{TriggerAny: []string{"src/*.go"}, RequireAny: []string{"docs/code.md"}, Message: "code docs"},
			},
			want: []report.Finding{
				report.Errorf("drift_rules", "API schema changed without docs"),
				report.Errorf("drift_rules", "code docs"),
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Evaluate(tt.changed, tt.rules))
		})
	}
}

func TestParseRules(t *testing.T) {
	t.Parallel()

	t.Run("skips non mappings and non strings", func(t *testing.T) {
		t.Parallel()

		rules, invalid, err := ParseRules([]byte(`
rules:
  - "not a rule"
  - id: schema-docs
    trigger_any_changed: [schemas/api.yaml, 3]
    require_any_changed: [docs/api.md]
    message: Update the API docs
`))
		require.NoError(t, err)
		assert.Empty(t, invalid)
		require.Len(t, rules, 1)
		assert.Equal(t, Rule{
			ID:            "schema-docs",
			TriggerAny:    []string{"schemas/api.yaml"},
			TriggerPrefix: []string{},
			RequireAny:    []string{"docs/api.md"},
			RequirePrefix: []string{},
			Message:       "Update the API docs",
		}, rules[0])
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		_, _, err := ParseRules([]byte("rules: []\n"))
		assert.True(t, errors.Is(err, ErrNoRules))

		_, _, err = ParseRules([]byte(""))
		assert.True(t, errors.Is(err, ErrNoRules))
	})

	t.Run("invalid yaml", func(t *testing.T) {
		t.Parallel()

		_, _, err := ParseRules([]byte("rules: [\n"))
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrNoRules))
	})

	t.Run("bad rules do not disable the rest", func(t *testing.T) {
		t.Parallel()

		rules, invalid, err := ParseRules([]byte(`rules:
  - trigger_prefix_changed: [schemas/]
    require_prefix_changed: [docs/adrs/]
    message: Schema changes need an ADR
  - trigger_any_changed: ["docs/[draft.md"]
    require_any_changed: [docs/index.md]
  - trigger_any_changed: [src/main.go]
    message: [not, a, string]
`))
		require.NoError(t, err)
		require.Len(t, rules, 2)
		require.Len(t, invalid, 1)
		assert.Equal(t, 7, invalid[0].Line)

		assert.Equal(t, []report.Finding{report.Errorf("drift_rules", "Schema changes need an ADR")},
			Evaluate([]string{"schemas/api.yaml"}, rules))
		assert.Equal(t, []report.Finding{report.Errorf("drift_rules", DefaultMessage)},
			Evaluate([]string{"docs/[draft.md"}, rules))
	})

	t.Run("only bad rules", func(t *testing.T) {
		t.Parallel()

		rules, invalid, err := ParseRules([]byte("rules:\n  - id: [x]\n"))
		require.NoError(t, err)
		assert.Empty(t, rules)
		assert.Len(t, invalid, 1)
	})
}

func TestLoadRules_Missing(t *testing.T) {
	t.Parallel()

	_, _, err := LoadRules(filepath.Join(t.TempDir(), "drift_rules.yaml"))
	assert.True(t, errors.Is(err, ErrNoRules))
}

func TestCheck(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	rulesPath := filepath.Join(root, "artifacts", "drift_rules.yaml")
	testutil.WriteFile(t, rulesPath, `rules:
  - trigger_any_changed: [schemas/api.yaml]
    require_any_changed: [docs/api.md]
`)

	t.Run("git failure is a warning", func(t *testing.T) {
		t.Parallel()

		src := &fakeSource{err: errors.New("not a repository")}
		got := Check(context.Background(), src, "HEAD", rulesPath)
		assert.Equal(t, []report.Finding{
			report.Warnf("git", "Drift checking enabled but git diff could not be computed."),
		}, got)
	})

	t.Run("missing rules is a warning", func(t *testing.T) {
		t.Parallel()

		src := &fakeSource{files: []string{"schemas/api.yaml"}}
		got := Check(context.Background(), src, "HEAD", filepath.Join(root, "nope.yaml"))
		require.Len(t, got, 1)
		assert.Equal(t, report.LevelWarning, got[0].Level)
		assert.Equal(t, "Drift checking enabled but drift_rules.yaml not found or empty.", got[0].Message)
	})

	t.Run("skipped rule warns and the rest still fire", func(t *testing.T) {
		t.Parallel()

		mixed := filepath.Join(t.TempDir(), "drift_rules.yaml")
		testutil.WriteFile(t, mixed, `rules:
  - trigger_prefix_changed: [schemas/]
    require_prefix_changed: [docs/adrs/]
  - trigger_any_changed: [src/main.go]
    message: {text: nested}
`)
		src := &fakeSource{files: []string{"schemas/api.yaml"}}
		got := Check(context.Background(), src, "HEAD", mixed)
		require.Len(t, got, 2)
		assert.Equal(t, report.LevelWarning, got[0].Level)
		assert.Contains(t, got[0].Message, "Skipping drift rule at line 4")
		assert.Equal(t, report.Errorf("drift_rules", DefaultMessage), got[1])
	})

	t.Run("violation", func(t *testing.T) {
		t.Parallel()

		src := &fakeSource{files: []string{"schemas/api.yaml"}}
		got := Check(context.Background(), src, "--cached", rulesPath)
		assert.Equal(t, "--cached", src.got)
		assert.Equal(t, []report.Finding{report.Errorf("drift_rules", DefaultMessage)}, got)
	})
}
