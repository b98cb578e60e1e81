package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question about your Confluence content",
	Long: `Ask sends one natural-language question through the assistant and prints
the formatted answer.

Examples:
  cfa ask "find pages about deployment"
  cfa ask "summarize the Release Checklist page"
  cfa ask "give me an overview of the DOCS space"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := OpenBridge(ctx); err != nil {
			return fmt.Errorf("starting bridge: %w", err)
		}

		question := strings.Join(args, " ")
		fmt.Fprintln(cmd.OutOrStdout(), Handler.HandleRequest(ctx, question))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
