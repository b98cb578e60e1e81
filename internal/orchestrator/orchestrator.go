// Package orchestrator decides, for each parsed intent, which tool calls to
// issue and in what order, including the fallback chains used when a
// required identifier is missing and has to be discovered via search.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/valter-silva-au/confluence-assistant/internal/bridge"
	"github.com/valter-silva-au/confluence-assistant/internal/observability"
	"github.com/valter-silva-au/confluence-assistant/internal/render"
	"github.com/valter-silva-au/confluence-assistant/pkg/models"
)

// Processing limits for multi-page chains.
const (
	spaceListingLimit = 50
	bulkSummaryLimit  = 5
	overviewPageLimit = 15
	titleProbeLimit   = 5
)

// ToolCaller is the transport seam: one named, parameterized call through
// the bridge, with the reply already classified at the boundary.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (bridge.Payload, error)
}

// IntentParser produces a structured intent from raw user text.
type IntentParser interface {
	Parse(ctx context.Context, text string) models.Intent
}

// Summarizer produces page and space summaries. Implementations fold their
// own failures into the returned text.
type Summarizer interface {
	SummarizePage(ctx context.Context, title, content string) string
	SummarizeSpace(ctx context.Context, spaceKey, overview string, total, analyzed int) string
}

// Orchestrator routes parsed intents to tool-call chains and renders the
// final display string. All dependencies are injected at construction.
type Orchestrator struct {
	parser     IntentParser
	tools      ToolCaller
	summarizer Summarizer
	logger     *zap.Logger
	events     observability.EventLog
}

// New creates an Orchestrator. events may be nil to disable request events;
// logger may be nil to disable debug output.
func New(parser IntentParser, tools ToolCaller, summarizer Summarizer, logger *zap.Logger, events observability.EventLog) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		parser:     parser,
		tools:      tools,
		summarizer: summarizer,
		logger:     logger,
		events:     events,
	}
}

// HandleRequest processes one user request end to end and always returns
// display text: every failure path resolves to a formatted string, with full
// detail going only to the debug log. No retries are performed anywhere.
func (o *Orchestrator) HandleRequest(ctx context.Context, text string) (out string) {
	start := time.Now()
	o.recordEvent(observability.EventRequestReceived, map[string]any{"chars": len(text)})

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("request handling panicked", zap.Any("panic", r))
			out = fmt.Sprintf("❌ Unexpected error: %v", r)
		}
		o.recordEvent(observability.EventRequestCompleted, map[string]any{
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}()

	it := o.parser.Parse(ctx, text)
	o.recordEvent(observability.EventIntentParsed, map[string]any{
		"tool":   string(it.Tool),
		"action": string(it.Action),
		"error":  it.Err != "",
	})

	if it.Err != "" {
		return fmt.Sprintf("❌ Could not understand request: %s", it.Err)
	}
	if it.Tool == "" {
		return "❌ No valid tool identified for your request."
	}

	o.logger.Debug("dispatching intent",
		zap.String("tool", string(it.Tool)),
		zap.String("action", string(it.Action)),
		zap.String("query", it.Param("query")))

	return o.dispatch(ctx, text, it)
}

// dispatch applies the routing rules in priority order; the first matching
// rule wins. The tool and action fields from the model are advisory, so the
// same execution chains are reachable through the tool name, the action
// field, and the raw-text promotion heuristic, in that order.
func (o *Orchestrator) dispatch(ctx context.Context, text string, it models.Intent) string {
	switch it.Tool {
	case models.ToolSpaceSummary:
		return o.handleSpaceSummary(ctx, spaceKeyOrDefault(it))
	case models.ToolSearchAndSummarize:
		return o.handleSearchAndSummarize(ctx, it)
	case models.ToolGetAndSummarize:
		return o.handleGetAndSummarize(ctx, it)
	case models.ToolGetPage:
		return o.handleGetPage(ctx, it)
	case models.ToolListPages:
		return o.handleListPages(ctx, it)
	}

	switch it.Action {
	case models.ActionSummarizeSearchResults:
		return o.handleSearchAndSummarize(ctx, it)
	case models.ActionSummarizePage:
		payload, err := o.callTool(ctx, string(models.ToolGetPage), paramArgs(it.Parameters))
		if err != nil {
			return errorLine(err)
		}
		return o.formatToolResponse(ctx, models.ToolGetPage, payload, it.OriginalQuery, it.Action)
	case models.ActionSummarizeSpace:
		return o.handleSpaceSummary(ctx, spaceKeyOrDefault(it))
	}

	if PromoteSearchToGet(text, it) {
		return o.handlePromotedSearch(ctx, it)
	}

	payload, err := o.callTool(ctx, string(it.Tool), paramArgs(it.Parameters))
	if err != nil {
		return errorLine(err)
	}
	return o.formatToolResponse(ctx, it.Tool, payload, it.OriginalQuery, it.Action)
}

// handleSpaceSummary lists every page in a space and synthesizes an
// executive summary from their excerpts.
func (o *Orchestrator) handleSpaceSummary(ctx context.Context, spaceKey string) string {
	payload, err := o.callTool(ctx, string(models.ToolSearch), map[string]any{
		"query": fmt.Sprintf("space = %q AND type = page", spaceKey),
		"limit": spaceListingLimit,
	})
	if err != nil {
		return errorLine(err)
	}

	pages := payload.AsResults()
	if len(pages) == 0 {
		return fmt.Sprintf("❌ No pages found in space '%s' or space does not exist.", spaceKey)
	}

	analyzed := len(pages)
	if analyzed > overviewPageLimit {
		analyzed = overviewPageLimit
	}
	summary := o.summarizer.SummarizeSpace(ctx, spaceKey, spaceOverview(pages), len(pages), analyzed)

	return fmt.Sprintf("📊 **Executive Summary for Space '%s'**\n*Based on analysis of %d pages*\n\n%s",
		spaceKey, len(pages), summary)
}

// spaceOverview builds the numbered title/excerpt digest fed to the space
// summarizer.
func spaceOverview(pages []models.SearchResultItem) string {
	var b strings.Builder
	for i, page := range pages {
		if i == overviewPageLimit {
			break
		}
		title := page.Title
		if title == "" {
			title = "Unknown"
		}
		excerpt := render.StripMarkup(page.Excerpt)
		if excerpt == "" {
			excerpt = fmt.Sprintf("Page about %s", strings.ToLower(title))
		}
		fmt.Fprintf(&b, "%d. **%s**\n   %s...\n\n", i+1, title, render.Truncate(excerpt, render.OverviewExcerpts))
	}
	return b.String()
}

// handleSearchAndSummarize searches, then fetches and summarizes the top
// results individually. A zero-result search never invokes the summarizer.
func (o *Orchestrator) handleSearchAndSummarize(ctx context.Context, it models.Intent) string {
	payload, err := o.callTool(ctx, string(models.ToolSearch), paramArgs(it.Parameters))
	if err != nil {
		return errorLine(err)
	}

	results := payload.AsResults()
	if len(results) == 0 {
		if it.SearchTerm != "" {
			return fmt.Sprintf("🔍 No pages found for %s to summarize.", it.SearchTerm)
		}
		return "🔍 No pages found to summarize."
	}

	return o.summarizeResults(ctx, results, it.SearchTerm)
}

// summarizeResults fetches up to bulkSummaryLimit pages and joins their
// individual summaries.
func (o *Orchestrator) summarizeResults(ctx context.Context, results []models.SearchResultItem, searchTerm string) string {
	var contextLabel string
	if searchTerm != "" {
		contextLabel = fmt.Sprintf(" related to '%s'", searchTerm)
	}

	var sections []string
	for i, result := range results {
		if i == bulkSummaryLimit {
			break
		}
		if result.ID == "" {
			continue
		}

		title := result.Title
		if title == "" {
			title = "Unknown Title"
		}

		payload, err := o.callTool(ctx, string(models.ToolGetPage), map[string]any{"page_id": result.ID})
		if err != nil || payload.Page == nil {
			sections = append(sections, fmt.Sprintf("**%d. %s**\n(Could not retrieve content)", i+1, title))
			continue
		}

		body := render.StripMarkup(payload.Page.BodyHTML)
		if body == "" {
			sections = append(sections, fmt.Sprintf("**%d. %s**\n(No content available for summarization)", i+1, title))
			continue
		}

		summary := o.summarizer.SummarizePage(ctx, title, body)
		sections = append(sections, fmt.Sprintf("**%d. %s**\n%s", i+1, title, summary))
	}

	if len(sections) == 0 {
		return fmt.Sprintf("❌ Could not retrieve content from any pages%s for summarization.", contextLabel)
	}

	header := fmt.Sprintf("📋 **Summary of %d page(s)%s:**\n\n", len(sections), contextLabel)
	footer := fmt.Sprintf("\n\n💡 Summarized top %d of %d found pages.", len(sections), len(results))
	return header + strings.Join(sections, "\n\n---\n\n") + footer
}

// handleGetAndSummarize fetches one page for summarization, resolving the
// space key via a title search first when only a title was given.
func (o *Orchestrator) handleGetAndSummarize(ctx context.Context, it models.Intent) string {
	params := paramArgs(it.Parameters)

	if it.HasParam("title") && !it.HasParam("space_key") {
		title := it.Param("title")
		spaceKey, msg := o.resolveSpaceByTitle(ctx, title)
		if msg != "" {
			return msg
		}
		params["space_key"] = spaceKey
	}

	payload, err := o.callTool(ctx, string(models.ToolGetPage), params)
	if err != nil {
		return errorLine(err)
	}
	return o.formatToolResponse(ctx, models.ToolGetPage, payload, it.OriginalQuery, models.ActionSummarizePage)
}

// handleGetPage fetches a page. With only a title available it probes the
// backend directly first, since some backends resolve by title alone, and
// inspects the reply shape: a page is formatted as-is, a candidate list is
// resolved to the best title match and re-fetched with the discovered space
// key, and anything else falls back to an explicit search-then-fetch chain.
func (o *Orchestrator) handleGetPage(ctx context.Context, it models.Intent) string {
	titleOnly := it.HasParam("title") && !it.HasParam("space_key") && !it.HasParam("page_id")
	if !titleOnly {
		payload, err := o.callTool(ctx, string(models.ToolGetPage), paramArgs(it.Parameters))
		if err != nil {
			return errorLine(err)
		}
		return o.formatToolResponse(ctx, models.ToolGetPage, payload, it.OriginalQuery, it.Action)
	}

	title := it.Param("title")
	payload, err := o.callTool(ctx, string(models.ToolGetPage), paramArgs(it.Parameters))
	if err == nil {
		switch payload.Kind {
		case bridge.PayloadPage:
			return o.formatToolResponse(ctx, models.ToolGetPage, payload, it.OriginalQuery, it.Action)
		case bridge.PayloadResults:
			if len(payload.Results) > 0 {
				best := bestTitleMatch(payload.Results, title)
				if best.Space.Key == "" {
					return fmt.Sprintf("❌ No page found with title '%s'", title)
				}
				o.logger.Debug("resolved page space from probe results",
					zap.String("title", title), zap.String("space", best.Space.Key))
				return o.fetchWithSpace(ctx, it, best.Space.Key)
			}
		}
	}

	// Last resort: explicit search to resolve the space, then fetch.
	spaceKey, msg := o.resolveSpaceByTitle(ctx, title)
	if msg != "" {
		return msg
	}
	return o.fetchWithSpace(ctx, it, spaceKey)
}

// fetchWithSpace re-issues a get-page call with the resolved space key.
func (o *Orchestrator) fetchWithSpace(ctx context.Context, it models.Intent, spaceKey string) string {
	params := paramArgs(it.Parameters)
	params["space_key"] = spaceKey
	payload, err := o.callTool(ctx, string(models.ToolGetPage), params)
	if err != nil {
		return errorLine(err)
	}
	return o.formatToolResponse(ctx, models.ToolGetPage, payload, it.OriginalQuery, it.Action)
}

// resolveSpaceByTitle searches for the page by title and extracts the space
// key of the best match. A non-empty message means resolution failed and the
// message is the user-facing answer.
func (o *Orchestrator) resolveSpaceByTitle(ctx context.Context, title string) (spaceKey, msg string) {
	payload, err := o.callTool(ctx, string(models.ToolSearch), map[string]any{
		"query": fmt.Sprintf("type = page AND title ~ %q", title),
		"limit": titleProbeLimit,
	})
	if err != nil {
		return "", errorLine(err)
	}

	results := payload.AsResults()
	if len(results) == 0 {
		return "", fmt.Sprintf("❌ No page found with title '%s'", title)
	}

	best := bestTitleMatch(results, title)
	if best.Space.Key == "" {
		return "", fmt.Sprintf("❌ Found page '%s' but couldn't determine its space", title)
	}
	return best.Space.Key, ""
}

// bestTitleMatch prefers an exact case-insensitive title match and falls
// back to the first result, which is assumed most relevant.
func bestTitleMatch(results []models.SearchResultItem, title string) models.SearchResultItem {
	for _, r := range results {
		if strings.EqualFold(r.Title, title) {
			return r
		}
	}
	return results[0]
}

// handleListPages rewrites a list request as a space-filtered search.
func (o *Orchestrator) handleListPages(ctx context.Context, it models.Intent) string {
	spaceKey := spaceKeyOrDefault(it)
	payload, err := o.callTool(ctx, string(models.ToolSearch), map[string]any{
		"query": fmt.Sprintf("space = %q AND type = page", spaceKey),
		"limit": spaceListingLimit,
	})
	if err != nil {
		return errorLine(err)
	}
	return o.formatToolResponse(ctx, models.ToolSearch, payload, it.OriginalQuery, "")
}

// handlePromotedSearch runs the search, then fetches the top result's full
// content instead of showing the list.
func (o *Orchestrator) handlePromotedSearch(ctx context.Context, it models.Intent) string {
	payload, err := o.callTool(ctx, string(models.ToolSearch), paramArgs(it.Parameters))
	if err != nil {
		return errorLine(err)
	}

	results := payload.AsResults()
	if len(results) == 0 {
		return "🔍 No pages found matching your search criteria."
	}

	best := results[0]
	if best.ID == "" {
		return "❌ Found page but couldn't retrieve its ID for content fetching."
	}

	o.logger.Debug("promoting search intent to page fetch", zap.String("page_id", best.ID))
	pagePayload, err := o.callTool(ctx, string(models.ToolGetPage), map[string]any{"page_id": best.ID})
	if err != nil {
		return errorLine(err)
	}
	return o.formatToolResponse(ctx, models.ToolGetPage, pagePayload, it.OriginalQuery, "")
}

// formatToolResponse renders a classified payload for display according to
// which tool produced it and the requested action.
func (o *Orchestrator) formatToolResponse(ctx context.Context, tool models.ToolName, payload bridge.Payload, originalQuery string, action models.Action) string {
	if payload.Kind == bridge.PayloadEmpty {
		return "✅ Operation completed successfully"
	}

	switch tool {
	case models.ToolSearch:
		return render.FormatSearchResults(payload.AsResults(), originalQuery)
	case models.ToolGetPage:
		if payload.Page == nil {
			return rawToolOutput(tool, payload)
		}
		return o.renderPage(ctx, *payload.Page, action, originalQuery)
	default:
		return rawToolOutput(tool, payload)
	}
}

// renderPage formats one fetched page, summarizing when requested.
func (o *Orchestrator) renderPage(ctx context.Context, page models.PageContent, action models.Action, originalQuery string) string {
	if action == models.ActionSummarizePage && page.BodyHTML != "" {
		body := render.StripMarkup(page.BodyHTML)
		if body == "" {
			return fmt.Sprintf("❌ Could not extract content from page '%s' for summarization.", page.Title)
		}
		summary := o.summarizer.SummarizePage(ctx, page.Title, body)
		return render.FormatPageSummary(page, summary)
	}
	return render.FormatPageContent(page, originalQuery)
}

// rawToolOutput renders payloads from tools without a dedicated formatter.
func rawToolOutput(tool models.ToolName, payload bridge.Payload) string {
	text := payload.Text
	if text == "" {
		if data, err := json.MarshalIndent(payloadValue(payload), "", "  "); err == nil {
			text = string(data)
		}
	}
	if pretty := prettyJSON(text); pretty != "" {
		return fmt.Sprintf("✅ %s completed:\n```json\n%s\n```", tool, pretty)
	}
	return fmt.Sprintf("✅ %s completed:\n%s", tool, text)
}

// payloadValue exposes the typed payload content for generic rendering.
func payloadValue(payload bridge.Payload) any {
	switch payload.Kind {
	case bridge.PayloadPage:
		return payload.Page
	case bridge.PayloadResults:
		return payload.Results
	default:
		return payload.Text
	}
}

// prettyJSON reindents valid JSON text, returning "" when text is not JSON.
func prettyJSON(text string) string {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return ""
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}

// callTool invokes the bridge and records the call as a request event.
func (o *Orchestrator) callTool(ctx context.Context, name string, args map[string]any) (bridge.Payload, error) {
	start := time.Now()
	payload, err := o.tools.CallTool(ctx, name, args)
	o.recordEvent(observability.EventToolCalled, map[string]any{
		"tool":        name,
		"duration_ms": time.Since(start).Milliseconds(),
		"error":       err != nil,
	})
	if err != nil {
		o.logger.Debug("tool call failed", zap.String("tool", name), zap.Error(err))
	}
	return payload, err
}

func (o *Orchestrator) recordEvent(eventType string, data map[string]any) {
	if o.events == nil {
		return
	}
	_ = o.events.Write(observability.Event{
		Time: time.Now().UTC(),
		Type: eventType,
		Data: data,
	})
}

// spaceKeyOrDefault returns the space_key parameter, or the conventional
// default key when the model did not supply one.
func spaceKeyOrDefault(it models.Intent) string {
	if key := it.Param("space_key"); key != "" {
		return key
	}
	return "test"
}

// paramArgs copies intent parameters into tool-call arguments, converting
// numeric limits back to integers for the bridge.
func paramArgs(params map[string]string) map[string]any {
	args := make(map[string]any, len(params))
	for k, v := range params {
		if k == "limit" {
			var n int
			if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
				args[k] = n
				continue
			}
		}
		args[k] = v
	}
	return args
}

// errorLine formats a transport or bridge failure for display.
func errorLine(err error) string {
	return fmt.Sprintf("❌ Error: %v", err)
}
