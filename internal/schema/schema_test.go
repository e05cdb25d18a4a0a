package schema

import (
	"testing"

	"github.com/docgov/docgov/internal/frontmatter"
	"github.com/docgov/docgov/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFields() frontmatter.Fields {
	return frontmatter.Fields{
		"doc_id":        "gov-001",
		"slug":          "governance",
		"title":         "Governance",
		"type":          "governance_policy",
		"tier":          "tier1",
		"version":       "1.0.0",
		"status":        "active",
		"authority":     "binding",
		"review_status": "reviewed",
		"created":       "2025-01-01",
		"updated":       "2025-01-02",
		"owner":         "human",
		"depends_on":    []any{},
	}
}

func messages(fs []report.Finding) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Message)
	}
	return out
}

func TestParseProfile(t *testing.T) {
	t.Parallel()

	p, err := ParseProfile("minimal")
	require.NoError(t, err)
	assert.Equal(t, ProfileMinimal, p)

	_, err = ParseProfile("lenient")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		mutate  func(f frontmatter.Fields)
		profile Profile
		want    []string
	}{
		"valid strict": {
			profile: ProfileStrict,
		},
		"missing tier strict": {
			mutate:  func(f frontmatter.Fields) { delete(f, "tier") },
			profile: ProfileStrict,
			want:    []string{"Missing required frontmatter key: tier"},
		},
		"missing optional strict": {
			mutate: func(f frontmatter.Fields) {
				delete(f, "owner")
				delete(f, "depends_on")
			},
			profile: ProfileStrict,
			want: []string{
				"Missing required frontmatter key: owner",
				"Missing required frontmatter key: depends_on",
			},
		},
		"missing optional minimal uses defaults": {
			mutate: func(f frontmatter.Fields) {
				delete(f, "owner")
				delete(f, "depends_on")
				delete(f, "slug")
			},
			profile: ProfileMinimal,
		},
		"enum out of set in minimal": {
			mutate:  func(f frontmatter.Fields) { f["status"] = "wip" },
			profile: ProfileMinimal,
			want:    []string{"Invalid status: 'wip'. Allowed: [active, archived, deprecated, draft]"},
		},
		"tier out of set": {
			mutate:  func(f frontmatter.Fields) { f["tier"] = "tier9" },
			profile: ProfileStrict,
			want:    []string{"tier must be one of tier1|tier2|tier3 (got: tier9)"},
		},
		"enum not a string": {
			mutate:  func(f frontmatter.Fields) { f["authority"] = 3 },
			profile: ProfileStrict,
			want:    []string{"authority must be a string (got int)."},
		},
		"depends_on not a list": {
			mutate:  func(f frontmatter.Fields) { f["depends_on"] = "gov-002" },
			profile: ProfileStrict,
			want:    []string{"depends_on must be a list (can be empty)."},
		},
		"title not a string": {
			mutate:  func(f frontmatter.Fields) { f["title"] = []any{"a"} },
			profile: ProfileStrict,
			want:    []string{"title must be a string (got list)."},
		},
		"numeric version accepted": {
			mutate:  func(f frontmatter.Fields) { f["version"] = 1.0 },
			profile: ProfileStrict,
		},
		"list version rejected": {
			mutate:  func(f frontmatter.Fields) { f["version"] = []any{"1"} },
			profile: ProfileStrict,
			want:    []string{"version must be a scalar (got list)."},
		},
		"empty doc_id": {
			mutate:  func(f frontmatter.Fields) { f["doc_id"] = "  " },
			profile: ProfileStrict,
			want:    []string{"doc_id is empty."},
		},
		"placeholder doc_id": {
			mutate:  func(f frontmatter.Fields) { f["doc_id"] = "todo" },
			profile: ProfileStrict,
			want:    []string{"doc_id is TODO. Use --next-id <prefix> or --fix-todo-ids to allocate a new id."},
		},
		"numeric doc_id": {
			mutate:  func(f frontmatter.Fields) { f["doc_id"] = 12 },
			profile: ProfileStrict,
			want:    []string{"doc_id must be a string."},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			fields := validFields()
			if tt.mutate != nil {
				tt.mutate(fields)
			}

			got := Validate("docs/a.md", fields, tt.profile, Default())
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, messages(got))
			for _, f := range got {
				assert.Equal(t, report.LevelError, f.Level)
				assert.Equal(t, "docs/a.md", f.Subject)
			}
		})
	}
}

func TestValidate_StrictThenMinimal(t *testing.T) {
	t.Parallel()

	fields := validFields()
	delete(fields, "review_status")

	strict := Validate("x.md", fields, ProfileStrict, Default())
	require.Len(t, strict, 1)
	assert.Equal(t, "Missing required frontmatter key: review_status", strict[0].Message)

	minimal := Validate("x.md", fields, ProfileMinimal, Default())
	assert.Empty(t, minimal)
	assert.Equal(t, "draft", fields["review_status"])
}

func TestDefault_IsFreshCopy(t *testing.T) {
	t.Parallel()

	a := Default()
	d := a.Defaults()
	d["status"] = "mutated"
	d["depends_on"] = append(d["depends_on"].([]any), "x")

	assert.Equal(t, "draft", a.Defaults()["status"])
	assert.Empty(t, Default().Defaults()["depends_on"])

	req := a.Required(ProfileStrict)
	req[0] = "changed"
	assert.Equal(t, "doc_id", a.Required(ProfileStrict)[0])
}

func TestSchema_WithTypes(t *testing.T) {
	t.Parallel()

	base := Default()
	extended := base.WithTypes("playbook", " ", "adr")

	assert.Contains(t, extended.Allowed("type"), "playbook")
	assert.NotContains(t, base.Allowed("type"), "playbook")

	fields := validFields()
	fields["type"] = "playbook"
	assert.Empty(t, Validate("x.md", fields, ProfileStrict, extended))
	assert.Len(t, Validate("x.md", fields, ProfileStrict, base), 1)
}

func TestText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1.2.0", Text("1.2.0"))
	assert.Equal(t, "2", Text(2))
	assert.Equal(t, "1.5", Text(1.5))
	assert.Equal(t, "", Text(nil))
	assert.Equal(t, "", Text([]any{"a"}))
}
