package validation

import (
	"fmt"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/docgov/docgov/internal/report"
)

// MinAcceptanceCriteria is the recommended number of criteria per task.
const MinAcceptanceCriteria = 3

// ValidStatuses lists the accepted task statuses, plain and emoji forms.
var ValidStatuses = []string{
	"Not Started", "In Progress", "Blocked", "Complete",
	"🔄 In Progress", "✅ Complete", "🚫 Blocked",
}

// ValidComplexities lists the accepted complexity ratings.
var ValidComplexities = []string{"Simple", "Medium", "Complex", "Very Complex"}

// Validate checks a single task. known holds every task id in the file and
// resolves dependency references. Messages are returned in a fixed order.
func (t Task) Validate(known map[string]bool) []string {
	checks := []struct {
		value any
		rules []validation.Rule
	}{
		{t.Title, []validation.Rule{validation.Required.Error("Missing title")}},
		{t.Phase, []validation.Rule{validation.Required.Error("Missing phase")}},
		{t.Milestone, []validation.Rule{validation.Required.Error("Missing milestone")}},
		{t.Status, []validation.Rule{
			validation.Required.Error("Missing status"),
			validation.In(toAny(ValidStatuses)...).Error("Invalid status: " + t.Status),
		}},
		{t.Complexity, []validation.Rule{
			validation.Required.Error("Missing complexity"),
			validation.In(toAny(ValidComplexities)...).Error("Invalid complexity: " + t.Complexity),
		}},
		{t.Domain, []validation.Rule{validation.Required.Error("Missing domain")}},
		{t.Assigned, []validation.Rule{validation.Required.Error("Missing assigned agent")}},
		{t.Description, []validation.Rule{validation.Required.Error("Missing description")}},
		{t.AcceptanceCriteria, []validation.Rule{
			validation.Required.Error("Missing acceptance criteria"),
			validation.Length(MinAcceptanceCriteria, 0).Error(fmt.Sprintf(
				"Only %d acceptance criteria (recommend %d+)", len(t.AcceptanceCriteria), MinAcceptanceCriteria)),
		}},
	}

	var msgs []string
	for _, c := range checks {
		if err := validation.Validate(c.value, c.rules...); err != nil {
			msgs = append(msgs, err.Error())
		}
	}

	for _, dep := range t.Dependencies {
		id := taskIDPattern.FindString(dep)
		err := validation.Validate(dep,
			validation.Match(taskIDPattern).Error("Malformed dependency: "+dep),
			validation.By(func(any) error {
				if !known[id] {
					return validation.NewError("invalid_dependency",
						fmt.Sprintf("Invalid dependency: %s (task does not exist)", id))
				}
				return nil
			}),
		)
		if err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	return msgs
}

// ValidateTasks checks every task in a file and the file as a whole.
// Duplicate ids and per-task problems are errors; numbering gaps and a
// sequence not starting at 001 are warnings. subject names the file in
// file-level findings.
func ValidateTasks(subject string, tasks []Task) *report.Report {
	rep := report.New()
	rep.Scanned = len(tasks)
	rep.Validated = 1

	if len(tasks) == 0 {
		rep.Add(report.Errorf(subject, "No tasks found in file"))
		return rep
	}

	rep.Add(duplicateFindings(subject, tasks)...)
	rep.Add(sequenceFindings(subject, tasks)...)

	known := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		known[t.ID] = true
	}
	for _, t := range tasks {
		for _, msg := range t.Validate(known) {
			rep.Add(report.Errorf(t.ID, "%s", msg))
		}
	}
	return rep
}

func duplicateFindings(subject string, tasks []Task) []report.Finding {
	var out []report.Finding
	seen := make(map[string]int, len(tasks))
	for _, t := range tasks {
		if first, ok := seen[t.ID]; ok {
			out = append(out, report.Errorf(subject, "Duplicate task ID: %s (lines %d and %d)", t.ID, first, t.Line))
			continue
		}
		seen[t.ID] = t.Line
	}
	return out
}

func sequenceFindings(subject string, tasks []Task) []report.Finding {
	numbers := make([]int, 0, len(tasks))
	for _, t := range tasks {
		if n := t.Number(); n >= 0 {
			numbers = append(numbers, n)
		}
	}
	if len(numbers) == 0 {
		return nil
	}
	sort.Ints(numbers)

	var out []report.Finding
	for i := 0; i+1 < len(numbers); i++ {
		if gap := numbers[i+1] - numbers[i] - 1; gap > 0 {
			out = append(out, report.Warnf(subject, "Gap in task sequence: TASK-%03d → TASK-%03d (missing %d task(s))",
				numbers[i], numbers[i+1], gap))
		}
	}
	if numbers[0] != 1 {
		out = append(out, report.Warnf(subject, "Task numbering should start at 001, starts at %03d", numbers[0]))
	}
	return out
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
