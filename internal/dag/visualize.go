package dag

import (
	"fmt"
	"strings"
)

// RenderASCII renders waves in implementation order using portable ASCII
// characters only.
func RenderASCII(waves []Wave) string {
	if len(waves) == 0 {
		return "No waves to render.\n"
	}

	var sb strings.Builder
	sb.WriteString("Implementation Waves\n")
	sb.WriteString("====================\n\n")

	for i, wave := range waves {
		sb.WriteString(renderWaveHeader(wave.Number, wave.Size()))
		sb.WriteString(renderWaveTasks(wave.TaskIDs))

		if i < len(waves)-1 {
			sb.WriteString("    |\n    v\n")
		}
	}

	stats := GetWaveStats(waves)
	sb.WriteString("\nSummary:\n")
	fmt.Fprintf(&sb, "  Total Waves: %d\n", stats.TotalWaves)
	fmt.Fprintf(&sb, "  Total Tasks: %d\n", stats.TotalTasks)
	fmt.Fprintf(&sb, "  Max Parallel: %d\n", stats.MaxWaveSize)
	return sb.String()
}

func renderWaveHeader(waveNum, taskCount int) string {
	plural := "s"
	if taskCount == 1 {
		plural = ""
	}
	return fmt.Sprintf("Wave %d (%d task%s)\n", waveNum, taskCount, plural)
}

func renderWaveTasks(taskIDs []string) string {
	var sb strings.Builder
	for i, id := range taskIDs {
		prefix := "  |-"
		if i == len(taskIDs)-1 {
			prefix = "  +-"
		}
		fmt.Fprintf(&sb, "%s [%s]\n", prefix, id)
	}
	return sb.String()
}

// RenderCompact renders waves on a single line.
// Format: Wave 1: [TASK-001] -> Wave 2: [TASK-002, TASK-003]
func RenderCompact(waves []Wave) string {
	parts := make([]string, len(waves))
	for i, wave := range waves {
		parts[i] = fmt.Sprintf("Wave %d: [%s]", wave.Number, strings.Join(wave.TaskIDs, ", "))
	}
	return strings.Join(parts, " -> ")
}
