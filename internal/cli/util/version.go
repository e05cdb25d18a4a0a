package util

import (
	"fmt"
	"io"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/docgov/docgov/internal/cli/shared"
)

var (
	// Version information - set via ldflags during build
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Display version information (v)",
	Long:    "Display version, commit, build date, and Go version information for docgov",
	Example: `  # Show version info
  docgov version

  # Plain output (for scripts)
  docgov version --plain`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		plain, _ := cmd.Flags().GetBool("plain")
		out := cmd.OutOrStdout()
		if plain || !shared.ApplyColor(out) {
			printPlainVersion(out)
			return
		}
		printPrettyVersion(out)
	},
}

func init() {
	versionCmd.GroupID = shared.GroupConfiguration
	versionCmd.Flags().Bool("plain", false, "Plain output without formatting")
}

type versionLine struct {
	label string
	value string
}

func versionInfo() []versionLine {
	return []versionLine{
		{"version", Version},
		{"commit", truncateCommit(Commit)},
		{"built", BuildDate},
		{"go", runtime.Version()},
		{"platform", fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)},
	}
}

// printPlainVersion prints a simple version output for scripting
func printPlainVersion(w io.Writer) {
	fmt.Fprintf(w, "docgov %s\n", Version)
	for _, item := range versionInfo()[1:] {
		fmt.Fprintf(w, "%s: %s\n", item.label, item.value)
	}
}

// printPrettyVersion prints aligned, colored labels
func printPrettyVersion(w io.Writer) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	white := color.New(color.FgWhite, color.Bold).SprintFunc()

	fmt.Fprintf(w, "\n  %s  documentation governance\n\n", cyan("docgov"))
	for _, item := range versionInfo() {
		fmt.Fprintf(w, "  %s  %s\n", yellow(fmt.Sprintf("%10s", item.label)), white(item.value))
	}
	fmt.Fprintln(w)
}

// truncateCommit shortens commit hash if it's too long
func truncateCommit(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}
