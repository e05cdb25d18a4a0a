package dag

import (
	"fmt"
	"sort"
)

// Wave is a group of tasks whose dependencies are all satisfied by earlier
// waves, so they can be implemented in parallel.
type Wave struct {
	Number  int      // Wave number (1, 2, 3...)
	TaskIDs []string // Tasks in this wave, sorted
}

// Size returns the number of tasks in the wave.
func (w Wave) Size() int {
	return len(w.TaskIDs)
}

// ComputeWaves groups tasks by their longest dependency chain: wave N holds
// the tasks whose longest chain has length N-1. A graph with a cycle has no
// wave order and returns an error naming the first cycle.
func (g *DependencyGraph) ComputeWaves() ([]Wave, error) {
	if cycles := g.FindCycles(); len(cycles) > 0 {
		return nil, fmt.Errorf("computing waves: circular dependency detected: %s", cycles[0])
	}
	if len(g.nodes) == 0 {
		return []Wave{}, nil
	}

	g.computeDepths()

	groups := make(map[int][]string)
	for id, node := range g.nodes {
		groups[node.Depth] = append(groups[node.Depth], id)
	}

	depths := make([]int, 0, len(groups))
	for depth := range groups {
		depths = append(depths, depth)
	}
	sort.Ints(depths)

	waves := make([]Wave, 0, len(depths))
	for i, depth := range depths {
		ids := groups[depth]
		sort.Strings(ids)
		waves = append(waves, Wave{Number: i + 1, TaskIDs: ids})
	}
	return waves, nil
}

// computeDepths calculates the maximum depth for each node using Kahn's
// algorithm from the tasks without dependencies. The graph must be acyclic.
func (g *DependencyGraph) computeDepths() {
	inDegree := make(map[string]int, len(g.nodes))
	var queue []string
	for _, id := range g.IDs() {
		node := g.nodes[id]
		node.Depth = 0
		inDegree[id] = len(node.Dependencies)
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		node := g.nodes[id]

		for _, depID := range sortedKeys(node.Dependents) {
			depNode := g.nodes[depID]
			if node.Depth+1 > depNode.Depth {
				depNode.Depth = node.Depth + 1
			}
			inDegree[depID]--
			if inDegree[depID] == 0 {
				queue = append(queue, depID)
			}
		}
	}
}

// WaveStats summarises computed waves.
type WaveStats struct {
	TotalWaves  int // Number of waves
	TotalTasks  int // Total tasks across all waves
	MaxWaveSize int // Size of the largest wave
}

// GetWaveStats returns statistics about waves.
func GetWaveStats(waves []Wave) WaveStats {
	stats := WaveStats{TotalWaves: len(waves)}
	for _, wave := range waves {
		stats.TotalTasks += wave.Size()
		if wave.Size() > stats.MaxWaveSize {
			stats.MaxWaveSize = wave.Size()
		}
	}
	return stats
}
