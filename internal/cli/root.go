// Package cli implements the cfa command tree. Service instances are wired
// into package-level variables by the App during startup.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "cfa",
	Short: "Confluence Assistant - natural language interface to Confluence",
	Long: `Confluence Assistant (cfa) answers natural-language questions about a
Confluence instance. Requests are classified by an LLM into structured
tool calls, executed against Confluence through a bridge subprocess, and
the results are formatted for terminal display.

Run "cfa ask" for a single question or "cfa chat" for an interactive
session.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cfa %s\ncommit: %s\nbuilt:  %s\n", appVersion, appCommit, appDate)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with the given context, which is
// propagated to every command's cmd.Context().
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
