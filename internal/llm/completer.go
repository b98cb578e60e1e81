// Package llm provides the completion interface used by the intent parser
// and the summarizer, plus the Gemini-backed implementation.
package llm

import "context"

// Completer is the single operation the assistant needs from a language
// model: prompt text in, free text out. No streaming and no function-calling
// mode; callers are responsible for instructing the model to emit JSON and
// for unwrapping whatever decoration comes back.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
