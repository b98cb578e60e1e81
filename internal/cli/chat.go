package cli

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/valter-silva-au/confluence-assistant/pkg/models"
)

var (
	chatBannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	chatPromptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	chatHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

var chatNoSave bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive question-and-answer session",
	Long: `Chat runs a read-eval-print loop: each line you type is handled as one
question and the answer is printed before the next prompt. Type "quit",
"exit" or "q" (or press Ctrl-D) to leave. The transcript is saved unless
--no-save is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := OpenBridge(ctx); err != nil {
			return fmt.Errorf("starting bridge: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, chatBannerStyle.Render("Confluence Assistant"))
		fmt.Fprintln(out, chatHintStyle.Render("Ask about your Confluence content. Type 'quit' to exit."))
		fmt.Fprintln(out)

		startedAt := time.Now().UTC()
		var turns []models.ChatTurn

		scanner := bufio.NewScanner(cmd.InOrStdin())
		for {
			if ctx.Err() != nil {
				break
			}

			fmt.Fprint(out, chatPromptStyle.Render("you> "))
			if !scanner.Scan() {
				fmt.Fprintln(out)
				break
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if isQuit(line) {
				break
			}

			askedAt := time.Now().UTC()
			answer := Handler.HandleRequest(ctx, line)
			fmt.Fprintln(out, answer)
			fmt.Fprintln(out)

			turns = append(turns, models.ChatTurn{
				Index:    len(turns) + 1,
				AskedAt:  askedAt,
				Question: line,
				Answer:   answer,
			})
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		if chatNoSave || Transcripts == nil || len(turns) == 0 {
			return nil
		}
		id, err := saveTranscript(startedAt, turns)
		if err != nil {
			return fmt.Errorf("saving transcript: %w", err)
		}
		fmt.Fprintln(out, chatHintStyle.Render(fmt.Sprintf("Transcript saved as %s.", id)))
		return nil
	},
}

// saveTranscript persists the session and its turns to the transcript store.
func saveTranscript(startedAt time.Time, turns []models.ChatTurn) (string, error) {
	id, err := Transcripts.GenerateID()
	if err != nil {
		return "", err
	}
	session := models.ChatSession{
		ID:        id,
		StartedAt: startedAt,
		EndedAt:   time.Now().UTC(),
		Turns:     len(turns),
	}
	if _, err := Transcripts.AddSession(session, turns); err != nil {
		return "", err
	}
	if err := Transcripts.Save(); err != nil {
		return "", err
	}
	return id, nil
}

func isQuit(line string) bool {
	switch strings.ToLower(line) {
	case "quit", "exit", "q":
		return true
	}
	return false
}

func init() {
	chatCmd.Flags().BoolVar(&chatNoSave, "no-save", false, "do not save the session transcript")
	rootCmd.AddCommand(chatCmd)
}
