package dag

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

var (
	taskIDPattern = regexp.MustCompile(`TASK-\d+`)
	// matrixPattern matches a table row "| TASK-001 | TASK-002, TASK-003 |"
	matrixPattern = regexp.MustCompile(`\|\s*(TASK-\d+)\s*\|([^|]*)\|`)
	// arrowPattern matches chains such as "TASK-001 → TASK-002 → TASK-003"
	arrowPattern = regexp.MustCompile(`TASK-\d+(?:\s*(?:→|->)\s*TASK-\d+)+`)
	// dependsPattern matches "TASK-001 depends on TASK-002, TASK-003"
	dependsPattern = regexp.MustCompile(`(TASK-\d+)\s+(?i:depends\s+on)\s+(TASK-\d+(?:\s*,\s*TASK-\d+)*)`)
)

// ParseFile reads a dependency document and builds its graph.
func ParseFile(path string) (*DependencyGraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dependencies file: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse builds a dependency graph from a Markdown document. Edges come from
// dependency matrix rows, arrow chains, and "depends on" sentences.
func Parse(r io.Reader) (*DependencyGraph, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading dependencies file: %w", err)
	}
	content := string(data)
	g := NewDependencyGraph()

	for _, match := range matrixPattern.FindAllStringSubmatch(content, -1) {
		cell := strings.TrimSpace(match[2])
		if cell == "" || cell == "-" || strings.EqualFold(cell, "none") {
			continue
		}
		for _, dep := range strings.Split(cell, ",") {
			if id := taskIDPattern.FindString(dep); id != "" {
				g.AddEdge(match[1], id)
			}
		}
	}

	for _, chain := range arrowPattern.FindAllString(content, -1) {
		ids := taskIDPattern.FindAllString(chain, -1)
		for i := 0; i+1 < len(ids); i++ {
			g.AddEdge(ids[i], ids[i+1])
		}
	}

	for _, match := range dependsPattern.FindAllStringSubmatch(content, -1) {
		for _, id := range taskIDPattern.FindAllString(match[2], -1) {
			g.AddEdge(match[1], id)
		}
	}

	return g, nil
}
