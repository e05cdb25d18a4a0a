package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel_String(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		level Level
		want  string
	}{
		"error":   {level: LevelError, want: "ERROR"},
		"warning": {level: LevelWarning, want: "WARN"},
		"info":    {level: LevelInfo, want: "INFO"},
		"unknown": {level: Level(42), want: "UNKNOWN"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.level.String())
		})
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Level{"error": LevelError, "WARN": LevelWarning, "warning": LevelWarning, " info ": LevelInfo} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("fatal")
	assert.Error(t, err)
}

func TestReport_Status(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		findings []Finding
		strict   bool
		want     int
	}{
		"empty":                  {want: 0},
		"info only":              {findings: []Finding{Infof("a", "x")}, want: 0},
		"warning lenient":        {findings: []Finding{Warnf("a", "x")}, want: 0},
		"warning strict":         {findings: []Finding{Warnf("a", "x")}, strict: true, want: 1},
		"error":                  {findings: []Finding{Errorf("a", "x")}, want: 1},
		"info strict is success": {findings: []Finding{Infof("a", "x")}, strict: true, want: 0},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			r := New()
			r.Add(tt.findings...)
			assert.Equal(t, tt.want, r.Status(tt.strict))
		})
	}
}

func TestReport_WriteText(t *testing.T) {
	t.Parallel()

	t.Run("errors before warnings then summary", func(t *testing.T) {
		t.Parallel()

		r := New()
		r.Add(
			Warnf("git", "Drift checking enabled but git diff could not be computed."),
			Errorf("docs/a.md", "Missing required frontmatter key: tier"),
			Infof("docs/b.md", "note"),
		)

		var buf bytes.Buffer
		r.WriteText(&buf, TextOptions{})
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")

		require.Len(t, lines, 4)
		assert.Equal(t, "ERROR: docs/a.md: Missing required frontmatter key: tier", lines[0])
		assert.Equal(t, "WARN: git: Drift checking enabled but git diff could not be computed.", lines[1])
		assert.Equal(t, "", lines[2])
		assert.Equal(t, "FAILED: 1 error(s), 1 warning(s)", lines[3])
	})

	t.Run("info printed when requested", func(t *testing.T) {
		t.Parallel()

		r := New()
		r.Add(Infof("docs/b.md", "note"))
		var buf bytes.Buffer
		r.WriteText(&buf, TextOptions{WithInfo: true})
		assert.Contains(t, buf.String(), "INFO: docs/b.md: note")
	})

	t.Run("strict failure on warnings", func(t *testing.T) {
		t.Parallel()

		r := New()
		r.Add(Warnf("x", "y"))
		var buf bytes.Buffer
		r.WriteText(&buf, TextOptions{Strict: true})
		assert.Contains(t, buf.String(), "FAILED (strict): 0 error(s), 1 warning(s)")
	})

	t.Run("success summary", func(t *testing.T) {
		t.Parallel()

		r := New()
		r.Validated = 3
		r.Add(Warnf("x", "y"))
		var buf bytes.Buffer
		r.WriteText(&buf, TextOptions{})
		assert.Contains(t, buf.String(), "OK: 3 file(s) validated. Errors: 0. Warnings: 1")
	})
}

func TestReport_WriteJSON(t *testing.T) {
	t.Parallel()

	r := New()
	r.Scanned = 2
	r.Validated = 2
	r.Add(Errorf("docs/a.md", "bad"), Warnf("git", "missing"))

	var buf bytes.Buffer
	require.NoError(t, r.WriteJSON(&buf, false))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.NotEmpty(t, decoded["run_id"])
	assert.EqualValues(t, 1, decoded["errors"])
	assert.EqualValues(t, 1, decoded["warnings"])
	assert.EqualValues(t, 1, decoded["status"])

	findings := decoded["findings"].([]any)
	require.Len(t, findings, 2)
	assert.Equal(t, "error", findings[0].(map[string]any)["level"])
}
