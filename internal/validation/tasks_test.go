// Package validation_test tests tasks.md parsing and task validation.
// Related: internal/validation/tasks.go, internal/validation/validation.go
// Tags: validation, tasks, markdown, parsing
package validation

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docgov/docgov/internal/report"
	"github.com/docgov/docgov/internal/testutil"
)

// taskSection renders a complete, valid task section.
func taskSection(id, deps string) string {
	return `### ` + id + `: Build the thing
**Phase:** 1
**Milestone:** M1
**Status:** Not Started
**Complexity:** Medium
**Domain:** backend
**Dependencies:** ` + deps + `
**Assigned:** dev-agent
**Skills Required:** go, sql

**Description:**
Implement the thing end to end.

**Acceptance Criteria:**
- [ ] It builds
- [ ] It is tested
- [ ] It is documented

`
}

func TestParseTasks(t *testing.T) {
	t.Parallel()

	content := "# Tasks\n\nIntro paragraph.\n\n" + taskSection("TASK-001", "None") + taskSection("TASK-002", "TASK-001, ")

	tasks, err := ParseTasks(strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	first := tasks[0]
	assert.Equal(t, "TASK-001", first.ID)
	assert.Equal(t, "Build the thing", first.Title)
	assert.Equal(t, "1", first.Phase)
	assert.Equal(t, "M1", first.Milestone)
	assert.Equal(t, "Not Started", first.Status)
	assert.Equal(t, "Medium", first.Complexity)
	assert.Equal(t, "backend", first.Domain)
	assert.Equal(t, "dev-agent", first.Assigned)
	assert.Nil(t, first.Dependencies)
	assert.Equal(t, []string{"go", "sql"}, first.Skills)
	assert.Equal(t, "Implement the thing end to end.", first.Description)
	assert.Equal(t, []string{"It builds", "It is tested", "It is documented"}, first.AcceptanceCriteria)
	assert.Equal(t, 5, first.Line)
	assert.Equal(t, 1, first.Number())

	assert.Equal(t, []string{"TASK-001"}, tasks[1].Dependencies)
}

func TestParseTasks_CriteriaStopAtDescription(t *testing.T) {
	t.Parallel()

	content := `### TASK-001: Title
**Acceptance Criteria:**
- [ ] one
Not a description
**Description:**
- [ ] not a criterion
Real description
`
	tasks, err := ParseTasks(strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, []string{"one"}, tasks[0].AcceptanceCriteria)
	assert.Equal(t, "Real description", tasks[0].Description)
}

func TestParseTasks_LongLine(t *testing.T) {
	t.Parallel()

	long := "Long " + strings.Repeat("x", 200*1024)
	content := "### TASK-001: Title\n**Description:**\n" + long + "\n**Acceptance Criteria:**\n- [ ] done\n"

	tasks, err := ParseTasks(strings.NewReader(content))
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, long, tasks[0].Description)
	assert.Equal(t, []string{"done"}, tasks[0].AcceptanceCriteria)
}

func TestParseTasksFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := ParseTasksFile(filepath.Join(t.TempDir(), "tasks.md"))
	assert.ErrorContains(t, err, "failed to open tasks file")
}

func TestTaskValidate(t *testing.T) {
	t.Parallel()

	valid := func() Task {
		return Task{
			ID: "TASK-001", Title: "T", Phase: "1", Milestone: "M1", Status: "✅ Complete",
			Complexity: "Simple", Domain: "docs", Assigned: "writer", Description: "Do it.",
			AcceptanceCriteria: []string{"a", "b", "c"},
		}
	}

	tests := map[string]struct {
		mutate func(*Task)
		want   []string
	}{
		"valid": {mutate: func(*Task) {}},
		"missing fields": {
			mutate: func(task *Task) {
				task.Phase, task.Domain, task.Assigned = "", "", ""
			},
			want: []string{"Missing phase", "Missing domain", "Missing assigned agent"},
		},
		"invalid status and complexity": {
			mutate: func(task *Task) {
				task.Status, task.Complexity = "Done", "Huge"
			},
			want: []string{"Invalid status: Done", "Invalid complexity: Huge"},
		},
		"missing status": {
			mutate: func(task *Task) { task.Status = "" },
			want:   []string{"Missing status"},
		},
		"no criteria": {
			mutate: func(task *Task) { task.AcceptanceCriteria = nil },
			want:   []string{"Missing acceptance criteria"},
		},
		"too few criteria": {
			mutate: func(task *Task) { task.AcceptanceCriteria = []string{"a"} },
			want:   []string{"Only 1 acceptance criteria (recommend 3+)"},
		},
		"dependencies": {
			mutate: func(task *Task) { task.Dependencies = []string{"TASK-001", "TASK-009", "setup"} },
			want: []string{
				"Invalid dependency: TASK-009 (task does not exist)",
				"Malformed dependency: setup",
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			task := valid()
			tt.mutate(&task)
			assert.Equal(t, tt.want, task.Validate(map[string]bool{"TASK-001": true}))
		})
	}
}

func findingStrings(rep *report.Report) []string {
	var out []string
	for _, f := range rep.Findings() {
		out = append(out, f.String())
	}
	return out
}

func TestValidateTasks(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		content    string
		want       []string
		wantStatus int
	}{
		"all valid": {
			content: taskSection("TASK-001", "None") + taskSection("TASK-002", "TASK-001"),
		},
		"no tasks": {
			content:    "# Tasks\n\nNothing yet.\n",
			want:       []string{"ERROR: tasks.md: No tasks found in file"},
			wantStatus: 1,
		},
		"sequence warnings only": {
			content: taskSection("TASK-002", "-") + taskSection("TASK-005", "TASK-002"),
			want: []string{
				"WARN: tasks.md: Gap in task sequence: TASK-002 → TASK-005 (missing 2 task(s))",
				"WARN: tasks.md: Task numbering should start at 001, starts at 002",
			},
		},
		"duplicate id": {
			content: taskSection("TASK-001", "") + taskSection("TASK-001", ""),
			want: []string{
				"ERROR: tasks.md: Duplicate task ID: TASK-001 (lines 1 and 19)",
			},
			wantStatus: 1,
		},
		"unknown dependency": {
			content:    taskSection("TASK-001", "TASK-004"),
			want:       []string{"ERROR: TASK-001: Invalid dependency: TASK-004 (task does not exist)"},
			wantStatus: 1,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "tasks.md")
			testutil.WriteFile(t, path, tt.content)

			tasks, err := ParseTasksFile(path)
			require.NoError(t, err)

			rep := ValidateTasks("tasks.md", tasks)
			assert.Equal(t, tt.want, findingStrings(rep))
			assert.Equal(t, tt.wantStatus, rep.Status(false))
		})
	}
}
