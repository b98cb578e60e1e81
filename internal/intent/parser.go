// Package intent translates free-text user requests into structured intents
// by prompting a language model and validating its JSON reply.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/valter-silva-au/confluence-assistant/internal/llm"
	"github.com/valter-silva-au/confluence-assistant/pkg/models"
)

// Stats reports parser usage for the stats command.
type Stats struct {
	APICalls int64  `json:"api_calls_this_session"`
	Model    string `json:"model"`
}

// Parser turns user text into a models.Intent. It never returns an error:
// every failure mode (empty input, completion failure, malformed JSON) is
// folded into the Intent's Err field.
type Parser struct {
	completer llm.Completer
	model     string
	logger    *zap.Logger
	apiCalls  atomic.Int64
}

// NewParser creates a Parser. model is reported by Stats only; logger may be
// zap.NewNop() to disable debug output.
func NewParser(completer llm.Completer, model string, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{completer: completer, model: model, logger: logger}
}

// Parse sends the user text to the model wrapped in the instruction rulebook
// and parses the reply. The returned Intent has exactly one of Err or Tool
// set and always carries OriginalQuery on success.
func (p *Parser) Parse(ctx context.Context, text string) models.Intent {
	if strings.TrimSpace(text) == "" {
		return models.Intent{Err: "empty query provided"}
	}

	p.apiCalls.Add(1)
	raw, err := p.completer.Complete(ctx, buildPrompt(text))
	if err != nil {
		p.logger.Debug("completion failed", zap.Error(err))
		return models.Intent{Err: fmt.Sprintf("failed to parse intent: %v", err)}
	}

	cleaned, err := unwrapJSON(raw)
	if err != nil {
		p.logger.Debug("model reply was not JSON", zap.String("reply", raw))
		return models.Intent{Err: err.Error()}
	}

	var wire struct {
		Tool       string         `json:"tool"`
		Parameters map[string]any `json:"parameters"`
		Action     string         `json:"action"`
		SearchTerm string         `json:"search_term"`
		Error      string         `json:"error"`
	}
	if err := json.Unmarshal([]byte(cleaned), &wire); err != nil {
		p.logger.Debug("model reply failed to decode", zap.String("reply", cleaned), zap.Error(err))
		return models.Intent{Err: fmt.Sprintf("invalid JSON response from model: %v", err)}
	}

	if wire.Error != "" {
		return models.Intent{Err: wire.Error}
	}
	if wire.Tool == "" {
		return models.Intent{Err: "no tool identified in model response"}
	}

	it := models.Intent{
		Tool:          models.ToolName(wire.Tool),
		Parameters:    coerceParameters(wire.Parameters),
		Action:        models.Action(wire.Action),
		SearchTerm:    wire.SearchTerm,
		OriginalQuery: text,
	}

	p.logger.Debug("intent parsed",
		zap.String("tool", wire.Tool),
		zap.Int("params", len(it.Parameters)),
		zap.String("action", wire.Action))
	return it
}

// Stats returns usage counters for this parser instance.
func (p *Parser) Stats() Stats {
	return Stats{APICalls: p.apiCalls.Load(), Model: p.model}
}

// unwrapJSON strips markdown code fences (with or without a language tag)
// and verifies the remainder is delimited as a JSON object.
func unwrapJSON(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("empty response text")
	}

	if strings.HasPrefix(text, "```json") {
		text = text[len("```json"):]
	} else if strings.HasPrefix(text, "```") {
		text = text[len("```"):]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	text = strings.TrimSpace(text)

	if !strings.HasPrefix(text, "{") || !strings.HasSuffix(text, "}") {
		snippet := text
		if len(snippet) > 100 {
			snippet = snippet[:100] + "..."
		}
		return "", fmt.Errorf("response doesn't appear to be JSON: %s", snippet)
	}
	return text, nil
}

// coerceParameters flattens the model's parameter values to strings. Models
// occasionally emit numbers (page IDs, limits) where strings are expected.
func coerceParameters(raw map[string]any) map[string]string {
	if len(raw) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			out[k] = val
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(val)
		case nil:
			// Skip explicit nulls.
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
