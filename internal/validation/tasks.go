// Package validation checks implementation task lists written as Markdown.
//
// A task list is a sequence of "### TASK-NNN: Title" sections. Each section
// carries "**Field:** value" lines, a plain description line, and an
// "**Acceptance Criteria:**" block of "- [ ]" items.
package validation

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var (
	// taskHeaderPattern matches "### TASK-001: Title"
	taskHeaderPattern = regexp.MustCompile(`^###\s+(TASK-\d+):\s*(.+)$`)
	// fieldPattern matches "**Field:** value"
	fieldPattern = regexp.MustCompile(`^\*\*([^:]+):\*\*\s*(.*)$`)
	// descriptionPattern matches a plain line starting with a capital letter
	descriptionPattern = regexp.MustCompile(`^[A-Z]`)
	taskIDPattern      = regexp.MustCompile(`TASK-(\d+)`)
)

const (
	criteriaHeader = "**Acceptance Criteria:**"
	criterionItem  = "- [ ]"

	// maxLineSize bounds a single tasks.md line.
	maxLineSize = 16 << 20
)

// Task is one parsed task section.
type Task struct {
	ID                 string
	Title              string
	Phase              string
	Milestone          string
	Status             string
	Complexity         string
	Domain             string
	Assigned           string
	Dependencies       []string
	Skills             []string
	Description        string
	AcceptanceCriteria []string
	// Line is the 1-based line of the task header.
	Line int
}

// ParseTasksFile reads and parses the task list at path.
func ParseTasksFile(path string) ([]Task, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks file: %w", err)
	}
	defer file.Close()

	return ParseTasks(file)
}

// ParseTasks parses task sections from r in document order. Lines before
// the first task header are ignored.
func ParseTasks(r io.Reader) ([]Task, error) {
	var tasks []Task
	var current *Task
	inCriteria := false
	lineNum := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		lineNum++

		if match := taskHeaderPattern.FindStringSubmatch(line); match != nil {
			if current != nil {
				tasks = append(tasks, *current)
			}
			current = &Task{ID: match[1], Title: match[2], Line: lineNum}
			inCriteria = false
			continue
		}
		if current == nil {
			continue
		}

		if match := fieldPattern.FindStringSubmatch(line); match != nil {
			current.setField(strings.TrimSpace(match[1]), strings.TrimSpace(match[2]))
		}

		switch {
		case strings.HasPrefix(line, "**Description:**"):
			inCriteria = false
		case descriptionPattern.MatchString(line) && !strings.HasPrefix(line, "**"):
			if !inCriteria && current.Description == "" {
				current.Description = line
			}
		}

		switch {
		case strings.HasPrefix(line, criteriaHeader):
			inCriteria = true
		case inCriteria && strings.HasPrefix(line, criterionItem):
			current.AcceptanceCriteria = append(current.AcceptanceCriteria,
				strings.TrimSpace(strings.TrimPrefix(line, criterionItem)))
		}
	}

	if current != nil {
		tasks = append(tasks, *current)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading tasks file: %w", err)
	}

	return tasks, nil
}

func (t *Task) setField(name, value string) {
	switch name {
	case "Phase":
		t.Phase = value
	case "Milestone":
		t.Milestone = value
	case "Status":
		t.Status = value
	case "Complexity":
		t.Complexity = value
	case "Domain":
		t.Domain = value
	case "Assigned":
		t.Assigned = value
	case "Dependencies":
		t.Dependencies = splitList(value)
	case "Skills Required":
		t.Skills = splitList(value)
	}
}

// splitList splits a comma separated field. "none" and "-" mean empty.
func splitList(value string) []string {
	if value == "" || strings.EqualFold(value, "none") || value == "-" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Number returns the numeric part of the task id, or -1 when it has none.
func (t Task) Number() int {
	match := taskIDPattern.FindStringSubmatch(t.ID)
	if match == nil {
		return -1
	}
	n, err := strconv.Atoi(match[1])
	if err != nil {
		return -1
	}
	return n
}
