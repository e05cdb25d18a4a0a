// Package dag builds task dependency graphs, detects circular dependencies
// and groups acyclic graphs into implementation waves.
package dag

import (
	"sort"
	"strings"

	"github.com/docgov/docgov/internal/validation"
)

// TaskNode represents a node in the dependency graph.
type TaskNode struct {
	ID           string          // Task identifier (TASK-001, TASK-002, etc.)
	Dependencies map[string]bool // IDs of tasks this depends on
	Dependents   map[string]bool // IDs of tasks that depend on this
	Depth        int             // Longest dependency chain below the task (determines wave)
}

// DependencyGraph is a directed graph of task dependencies. An edge from A
// to B means A depends on B.
type DependencyGraph struct {
	nodes map[string]*TaskNode
}

// NewDependencyGraph creates an empty dependency graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{nodes: make(map[string]*TaskNode)}
}

// BuildFromTasks constructs a dependency graph from parsed tasks. Every task
// becomes a node; dependency strings contribute an edge for the task id
// they mention.
func BuildFromTasks(tasks []validation.Task) *DependencyGraph {
	g := NewDependencyGraph()
	for _, task := range tasks {
		g.node(task.ID)
		for _, dep := range task.Dependencies {
			if id := taskIDPattern.FindString(dep); id != "" {
				g.AddEdge(task.ID, id)
			}
		}
	}
	return g
}

func (g *DependencyGraph) node(id string) *TaskNode {
	n, ok := g.nodes[id]
	if !ok {
		n = &TaskNode{ID: id, Dependencies: map[string]bool{}, Dependents: map[string]bool{}}
		g.nodes[id] = n
	}
	return n
}

// AddEdge records that from depends on to, adding both tasks.
func (g *DependencyGraph) AddEdge(from, to string) {
	g.node(from).Dependencies[to] = true
	g.node(to).Dependents[from] = true
}

// IDs returns every task id in sorted order.
func (g *DependencyGraph) IDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// GetNode returns a task node by ID, or nil if not found.
func (g *DependencyGraph) GetNode(id string) *TaskNode {
	return g.nodes[id]
}

// Size returns the number of tasks in the graph.
func (g *DependencyGraph) Size() int {
	return len(g.nodes)
}

// Cycle is a dependency path that returns to its first task, e.g.
// [TASK-001 TASK-002 TASK-001].
type Cycle []string

// String joins the cycle with arrows.
func (c Cycle) String() string {
	return strings.Join(c, " → ")
}

// FindCycles runs a depth-first search from every unvisited task in sorted
// order and reports at most one cycle per search root. Neighbours are
// visited in sorted order so the result is deterministic.
func (g *DependencyGraph) FindCycles() []Cycle {
	var cycles []Cycle
	visited := make(map[string]bool)

	for _, id := range g.IDs() {
		if visited[id] {
			continue
		}
		if cycle := g.detectCycleDFS(id, visited, map[string]bool{}, nil); cycle != nil {
			cycles = append(cycles, cycle)
		}
	}
	return cycles
}

// detectCycleDFS performs depth-first search for cycle detection.
// Returns the cycle path if found, nil otherwise.
func (g *DependencyGraph) detectCycleDFS(id string, visited, onPath map[string]bool, path []string) Cycle {
	visited[id] = true
	onPath[id] = true
	path = append(path, id)

	for _, depID := range sortedKeys(g.nodes[id].Dependencies) {
		if !visited[depID] {
			if cycle := g.detectCycleDFS(depID, visited, onPath, path); cycle != nil {
				return cycle
			}
		} else if onPath[depID] {
			return buildCyclePath(path, depID)
		}
	}

	onPath[id] = false
	return nil
}

// buildCyclePath constructs the cycle path from the DFS path.
func buildCyclePath(path []string, cycleStart string) Cycle {
	for i, id := range path {
		if id == cycleStart {
			cycle := make(Cycle, 0, len(path)-i+1)
			cycle = append(cycle, path[i:]...)
			return append(cycle, cycleStart)
		}
	}
	return append(Cycle(append([]string(nil), path...)), cycleStart)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
