package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools advertised by the bridge",
	Long: `Tools starts the bridge subprocess, performs the protocol handshake and
prints every tool the bridge advertises. Useful for verifying that the
bridge container and Confluence credentials are working.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := OpenBridge(ctx); err != nil {
			return fmt.Errorf("starting bridge: %w", err)
		}
		if !Bridge.Healthy(ctx) {
			return fmt.Errorf("bridge health check failed")
		}

		out := cmd.OutOrStdout()
		tools := Bridge.Tools()
		fmt.Fprintf(out, "Bridge is healthy. %d tool(s) advertised:\n", len(tools))
		for _, name := range tools {
			fmt.Fprintf(out, "  - %s\n", name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
