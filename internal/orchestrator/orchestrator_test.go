package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/valter-silva-au/confluence-assistant/internal/bridge"
	"github.com/valter-silva-au/confluence-assistant/pkg/models"
)

// fakeParser returns a fixed intent for any input.
type fakeParser struct {
	it models.Intent
}

func (f *fakeParser) Parse(ctx context.Context, text string) models.Intent {
	return f.it
}

type toolCall struct {
	name string
	args map[string]any
}

type toolResponse struct {
	payload bridge.Payload
	err     error
}

// fakeTools pops scripted responses in call order and records every call.
type fakeTools struct {
	responses []toolResponse
	calls     []toolCall
	panicMsg  string
}

func (f *fakeTools) CallTool(ctx context.Context, name string, args map[string]any) (bridge.Payload, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	f.calls = append(f.calls, toolCall{name: name, args: args})
	if len(f.responses) == 0 {
		return bridge.Payload{}, fmt.Errorf("unscripted call to %s", name)
	}
	r := f.responses[0]
	f.responses = f.responses[1:]
	return r.payload, r.err
}

// fakeSummarizer returns canned summaries and records how it was driven.
type fakeSummarizer struct {
	pageSummary  string
	spaceSummary string
	pageCalls    int
	spaceCalls   int
	lastTitle    string
	lastOverview string
	lastTotal    int
	lastAnalyzed int
}

func (f *fakeSummarizer) SummarizePage(ctx context.Context, title, content string) string {
	f.pageCalls++
	f.lastTitle = title
	return f.pageSummary
}

func (f *fakeSummarizer) SummarizeSpace(ctx context.Context, spaceKey, overview string, total, analyzed int) string {
	f.spaceCalls++
	f.lastOverview = overview
	f.lastTotal = total
	f.lastAnalyzed = analyzed
	return f.spaceSummary
}

func resultsPayload(items ...models.SearchResultItem) bridge.Payload {
	return bridge.Payload{Kind: bridge.PayloadResults, Results: items}
}

func pagePayload(page models.PageContent) bridge.Payload {
	return bridge.Payload{Kind: bridge.PayloadPage, Page: &page}
}

func newTestOrchestrator(it models.Intent, tools *fakeTools, summarizer *fakeSummarizer) *Orchestrator {
	if summarizer == nil {
		summarizer = &fakeSummarizer{}
	}
	return New(&fakeParser{it: it}, tools, summarizer, nil, nil)
}

func TestHandleRequest_SearchListsResults(t *testing.T) {
	tools := &fakeTools{responses: []toolResponse{
		{payload: resultsPayload(
			models.SearchResultItem{ID: "1", Title: "Test Page 1", Space: models.SpaceRef{Key: "TS", Name: "Test Space"}},
			models.SearchResultItem{ID: "2", Title: "Another Test Page", Space: models.SpaceRef{Key: "TS", Name: "Test Space"}},
		)},
	}}
	it := models.Intent{
		Tool:          models.ToolSearch,
		Parameters:    map[string]string{"query": `siteSearch ~ "testing"`},
		OriginalQuery: "find pages about testing",
	}
	o := newTestOrchestrator(it, tools, nil)

	out := o.HandleRequest(context.Background(), "find pages about testing")

	if !strings.HasPrefix(out, "🔍 Found 2 page(s) by topic, showing 2:") {
		t.Errorf("unexpected header: %q", firstLine(out))
	}
	if !strings.Contains(out, "**Test Page 1** (Space: Test Space, ID: 1)") {
		t.Error("missing first result line")
	}
	if !strings.Contains(out, "**Another Test Page**") {
		t.Error("missing second result line")
	}
	if len(tools.calls) != 1 || tools.calls[0].name != "confluence_search" {
		t.Errorf("unexpected calls: %+v", tools.calls)
	}
}

func TestHandleRequest_SummarizePageAction(t *testing.T) {
	tools := &fakeTools{responses: []toolResponse{
		{payload: pagePayload(models.PageContent{
			ID:       "42",
			Title:    "Release Checklist",
			Space:    models.SpaceRef{Key: "ENG", Name: "Engineering"},
			BodyHTML: "<h1>Steps</h1><p>Tag the release.</p>",
		})},
	}}
	summarizer := &fakeSummarizer{pageSummary: "Covers tagging and notifying."}
	it := models.Intent{
		Tool:       models.ToolGetPage,
		Parameters: map[string]string{"page_id": "42"},
		Action:     models.ActionSummarizePage,
	}
	o := newTestOrchestrator(it, tools, summarizer)

	out := o.HandleRequest(context.Background(), "summarize the release checklist")

	want := "📋 **Summary of Release Checklist** (Space: Engineering)\n\nCovers tagging and notifying."
	if out != want {
		t.Errorf("unexpected output:\ngot:  %q\nwant: %q", out, want)
	}
	if strings.Contains(out, "<p>") || strings.Contains(out, "<h1>") {
		t.Error("raw markup leaked into summary output")
	}
	if summarizer.pageCalls != 1 {
		t.Errorf("expected 1 page summary call, got %d", summarizer.pageCalls)
	}
}

func TestHandleRequest_IntentErrorMakesNoToolCalls(t *testing.T) {
	tools := &fakeTools{}
	it := models.Intent{Err: "empty query provided"}
	o := newTestOrchestrator(it, tools, nil)

	out := o.HandleRequest(context.Background(), "")

	if out != "❌ Could not understand request: empty query provided" {
		t.Errorf("unexpected output: %q", out)
	}
	if len(tools.calls) != 0 {
		t.Errorf("expected zero tool calls, got %d", len(tools.calls))
	}
}

func TestHandleRequest_SpaceSummaryEmptySpace(t *testing.T) {
	tools := &fakeTools{responses: []toolResponse{
		{payload: resultsPayload()},
	}}
	summarizer := &fakeSummarizer{}
	it := models.Intent{
		Tool:       models.ToolSpaceSummary,
		Parameters: map[string]string{"space_key": "EMPTY"},
	}
	o := newTestOrchestrator(it, tools, summarizer)

	out := o.HandleRequest(context.Background(), "summarize the EMPTY space")

	if out != "❌ No pages found in space 'EMPTY' or space does not exist." {
		t.Errorf("unexpected output: %q", out)
	}
	if summarizer.spaceCalls != 0 {
		t.Error("summarizer must not run for an empty space")
	}
	if got := tools.calls[0].args["query"]; got != `space = "EMPTY" AND type = page` {
		t.Errorf("unexpected listing query: %v", got)
	}
}

func TestHandleRequest_SpaceSummary(t *testing.T) {
	tools := &fakeTools{responses: []toolResponse{
		{payload: resultsPayload(
			models.SearchResultItem{ID: "1", Title: "Runbook", Excerpt: "<p>On-call steps</p>"},
			models.SearchResultItem{ID: "2", Title: "Postmortems"},
		)},
	}}
	summarizer := &fakeSummarizer{spaceSummary: "The space documents operations."}
	it := models.Intent{
		Tool:       models.ToolSpaceSummary,
		Parameters: map[string]string{"space_key": "OPS"},
	}
	o := newTestOrchestrator(it, tools, summarizer)

	out := o.HandleRequest(context.Background(), "overview of the OPS space")

	wantHeader := "📊 **Executive Summary for Space 'OPS'**\n*Based on analysis of 2 pages*\n\n"
	if !strings.HasPrefix(out, wantHeader) {
		t.Errorf("unexpected header:\ngot:  %q\nwant prefix: %q", out, wantHeader)
	}
	if !strings.HasSuffix(out, "The space documents operations.") {
		t.Errorf("summary text missing: %q", out)
	}
	if summarizer.lastTotal != 2 || summarizer.lastAnalyzed != 2 {
		t.Errorf("expected totals 2/2, got %d/%d", summarizer.lastTotal, summarizer.lastAnalyzed)
	}
	if !strings.Contains(summarizer.lastOverview, "1. **Runbook**") {
		t.Errorf("overview missing numbered title: %q", summarizer.lastOverview)
	}
	if !strings.Contains(summarizer.lastOverview, "On-call steps") {
		t.Error("overview should carry stripped excerpts")
	}
	if !strings.Contains(summarizer.lastOverview, "Page about postmortems") {
		t.Error("missing excerpt should fall back to a title-derived line")
	}
}

func TestHandleRequest_SpaceSummaryDefaultKey(t *testing.T) {
	tools := &fakeTools{responses: []toolResponse{{payload: resultsPayload()}}}
	it := models.Intent{Tool: models.ToolSpaceSummary}
	o := newTestOrchestrator(it, tools, nil)

	o.HandleRequest(context.Background(), "summarize the space")

	if got := tools.calls[0].args["query"]; got != `space = "test" AND type = page` {
		t.Errorf("expected default space key, got query %v", got)
	}
}

func TestHandleRequest_SearchAndSummarize(t *testing.T) {
	tools := &fakeTools{responses: []toolResponse{
		{payload: resultsPayload(
			models.SearchResultItem{ID: "1", Title: "Kafka Setup"},
			models.SearchResultItem{ID: "2", Title: "Kafka Tuning"},
		)},
		{payload: pagePayload(models.PageContent{ID: "1", Title: "Kafka Setup", BodyHTML: "<p>brokers</p>"})},
		{payload: pagePayload(models.PageContent{ID: "2", Title: "Kafka Tuning", BodyHTML: "<p>partitions</p>"})},
	}}
	summarizer := &fakeSummarizer{pageSummary: "A summary."}
	it := models.Intent{
		Tool:       models.ToolSearchAndSummarize,
		Parameters: map[string]string{"query": `siteSearch ~ "kafka"`},
		SearchTerm: "kafka",
	}
	o := newTestOrchestrator(it, tools, summarizer)

	out := o.HandleRequest(context.Background(), "summarize pages about kafka")

	if !strings.HasPrefix(out, "📋 **Summary of 2 page(s) related to 'kafka':**\n\n") {
		t.Errorf("unexpected header: %q", firstLine(out))
	}
	if !strings.Contains(out, "**1. Kafka Setup**\nA summary.") {
		t.Error("missing first summary section")
	}
	if !strings.Contains(out, "\n\n---\n\n") {
		t.Error("sections should be joined with separators")
	}
	if !strings.HasSuffix(out, "💡 Summarized top 2 of 2 found pages.") {
		t.Errorf("unexpected footer: %q", out)
	}
	if summarizer.pageCalls != 2 {
		t.Errorf("expected 2 page summaries, got %d", summarizer.pageCalls)
	}
}

func TestHandleRequest_SearchAndSummarizeZeroResults(t *testing.T) {
	tools := &fakeTools{responses: []toolResponse{{payload: resultsPayload()}}}
	summarizer := &fakeSummarizer{}
	it := models.Intent{
		Tool:       models.ToolSearchAndSummarize,
		Parameters: map[string]string{"query": `siteSearch ~ "nothing"`},
		SearchTerm: "nothing",
	}
	o := newTestOrchestrator(it, tools, summarizer)

	out := o.HandleRequest(context.Background(), "summarize pages about nothing")

	if out != "🔍 No pages found for nothing to summarize." {
		t.Errorf("unexpected output: %q", out)
	}
	if summarizer.pageCalls != 0 {
		t.Error("summarizer must not run on zero results")
	}
	if len(tools.calls) != 1 {
		t.Errorf("expected only the search call, got %d calls", len(tools.calls))
	}
}

func TestHandleRequest_SearchAndSummarizeCapsAtFive(t *testing.T) {
	var items []models.SearchResultItem
	responses := []toolResponse{{}}
	for i := 1; i <= 8; i++ {
		items = append(items, models.SearchResultItem{ID: fmt.Sprintf("%d", i), Title: fmt.Sprintf("P%d", i)})
	}
	responses[0] = toolResponse{payload: resultsPayload(items...)}
	for i := 1; i <= 5; i++ {
		responses = append(responses, toolResponse{
			payload: pagePayload(models.PageContent{ID: fmt.Sprintf("%d", i), Title: fmt.Sprintf("P%d", i), BodyHTML: "<p>x</p>"}),
		})
	}
	tools := &fakeTools{responses: responses}
	summarizer := &fakeSummarizer{pageSummary: "S"}
	it := models.Intent{Tool: models.ToolSearchAndSummarize, Parameters: map[string]string{"query": "q"}}
	o := newTestOrchestrator(it, tools, summarizer)

	out := o.HandleRequest(context.Background(), "summarize everything")

	if summarizer.pageCalls != 5 {
		t.Errorf("expected 5 summaries, got %d", summarizer.pageCalls)
	}
	if !strings.HasSuffix(out, "💡 Summarized top 5 of 8 found pages.") {
		t.Errorf("unexpected footer: %q", out)
	}
	// 1 search + 5 fetches, nothing for items 6-8.
	if len(tools.calls) != 6 {
		t.Errorf("expected 6 tool calls, got %d", len(tools.calls))
	}
}

func TestHandleRequest_GetAndSummarizeResolvesSpace(t *testing.T) {
	tools := &fakeTools{responses: []toolResponse{
		{payload: resultsPayload(
			models.SearchResultItem{ID: "9", Title: "other runbook", Space: models.SpaceRef{Key: "MISC"}},
			models.SearchResultItem{ID: "7", Title: "Incident Runbook", Space: models.SpaceRef{Key: "OPS"}},
		)},
		{payload: pagePayload(models.PageContent{
			ID: "7", Title: "Incident Runbook", Space: models.SpaceRef{Key: "OPS"}, BodyHTML: "<p>triage</p>",
		})},
	}}
	summarizer := &fakeSummarizer{pageSummary: "Triage steps."}
	it := models.Intent{
		Tool:       models.ToolGetAndSummarize,
		Parameters: map[string]string{"title": "incident runbook"},
	}
	o := newTestOrchestrator(it, tools, summarizer)

	out := o.HandleRequest(context.Background(), "summarize the incident runbook page")

	if !strings.HasPrefix(out, "📋 **Summary of Incident Runbook**") {
		t.Errorf("unexpected output: %q", out)
	}
	if got := tools.calls[0].args["query"]; got != `type = page AND title ~ "incident runbook"` {
		t.Errorf("unexpected probe query: %v", got)
	}
	// Exact case-insensitive match wins over the first result.
	if got := tools.calls[1].args["space_key"]; got != "OPS" {
		t.Errorf("expected resolved space OPS, got %v", got)
	}
}

func TestHandleRequest_GetAndSummarizeNoMatch(t *testing.T) {
	tools := &fakeTools{responses: []toolResponse{{payload: resultsPayload()}}}
	it := models.Intent{
		Tool:       models.ToolGetAndSummarize,
		Parameters: map[string]string{"title": "Ghost Page"},
	}
	o := newTestOrchestrator(it, tools, nil)

	out := o.HandleRequest(context.Background(), "summarize the ghost page")

	if out != "❌ No page found with title 'Ghost Page'" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestHandleRequest_GetPageTitleProbeReturnsPage(t *testing.T) {
	tools := &fakeTools{responses: []toolResponse{
		{payload: pagePayload(models.PageContent{
			ID: "7", Title: "Deploy Guide", Space: models.SpaceRef{Key: "OPS"}, BodyHTML: "<p>steps</p>",
		})},
	}}
	it := models.Intent{
		Tool:       models.ToolGetPage,
		Parameters: map[string]string{"title": "Deploy Guide"},
	}
	o := newTestOrchestrator(it, tools, nil)

	out := o.HandleRequest(context.Background(), "fetch the deploy guide")

	if !strings.HasPrefix(out, "📄 **Deploy Guide** (Space: OPS)") {
		t.Errorf("unexpected output: %q", out)
	}
	if len(tools.calls) != 1 {
		t.Errorf("direct probe should suffice, got %d calls", len(tools.calls))
	}
}

func TestHandleRequest_GetPageTitleProbeReturnsList(t *testing.T) {
	tools := &fakeTools{responses: []toolResponse{
		{payload: resultsPayload(
			models.SearchResultItem{ID: "7", Title: "Deploy Guide", Space: models.SpaceRef{Key: "OPS"}},
		)},
		{payload: pagePayload(models.PageContent{
			ID: "7", Title: "Deploy Guide", Space: models.SpaceRef{Key: "OPS"}, BodyHTML: "<p>steps</p>",
		})},
	}}
	it := models.Intent{
		Tool:       models.ToolGetPage,
		Parameters: map[string]string{"title": "Deploy Guide"},
	}
	o := newTestOrchestrator(it, tools, nil)

	out := o.HandleRequest(context.Background(), "fetch the deploy guide")

	if !strings.HasPrefix(out, "📄 **Deploy Guide**") {
		t.Errorf("unexpected output: %q", out)
	}
	if len(tools.calls) != 2 {
		t.Fatalf("expected probe then refetch, got %d calls", len(tools.calls))
	}
	if got := tools.calls[1].args["space_key"]; got != "OPS" {
		t.Errorf("refetch should carry resolved space, got %v", got)
	}
}

func TestHandleRequest_GetPageFallbackSearchChainNoMatch(t *testing.T) {
	tools := &fakeTools{responses: []toolResponse{
		{payload: bridge.Payload{Kind: bridge.PayloadText, Text: "not found"}},
		{payload: resultsPayload()},
	}}
	it := models.Intent{
		Tool:       models.ToolGetPage,
		Parameters: map[string]string{"title": "Ghost Page"},
	}
	o := newTestOrchestrator(it, tools, nil)

	out := o.HandleRequest(context.Background(), "fetch the ghost page")

	if out != "❌ No page found with title 'Ghost Page'" {
		t.Errorf("unexpected output: %q", out)
	}
	if len(tools.calls) != 2 {
		t.Fatalf("expected probe then search, got %d calls", len(tools.calls))
	}
	if got := tools.calls[1].args["query"]; got != `type = page AND title ~ "Ghost Page"` {
		t.Errorf("unexpected fallback query: %v", got)
	}
}

func TestHandleRequest_GetPageSummarizeEmptyBody(t *testing.T) {
	tools := &fakeTools{responses: []toolResponse{
		{payload: pagePayload(models.PageContent{
			ID: "7", Title: "Blank Page", Space: models.SpaceRef{Key: "OPS"}, BodyHTML: "<br/><hr>",
		})},
	}}
	it := models.Intent{
		Tool:       models.ToolGetPage,
		Parameters: map[string]string{"page_id": "7"},
		Action:     models.ActionSummarizePage,
	}
	o := newTestOrchestrator(it, tools, nil)

	out := o.HandleRequest(context.Background(), "summarize the blank page")

	if out != "❌ Could not extract content from page 'Blank Page' for summarization." {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestHandleRequest_ListPagesRewritesToSearch(t *testing.T) {
	tools := &fakeTools{responses: []toolResponse{
		{payload: resultsPayload(models.SearchResultItem{ID: "1", Title: "Index", Space: models.SpaceRef{Key: "DOCS"}})},
	}}
	it := models.Intent{
		Tool:       models.ToolListPages,
		Parameters: map[string]string{"space_key": "DOCS"},
	}
	o := newTestOrchestrator(it, tools, nil)

	out := o.HandleRequest(context.Background(), "list pages in DOCS")

	if tools.calls[0].name != "confluence_search" {
		t.Errorf("list should rewrite to search, called %s", tools.calls[0].name)
	}
	if got := tools.calls[0].args["query"]; got != `space = "DOCS" AND type = page` {
		t.Errorf("unexpected query: %v", got)
	}
	if got := tools.calls[0].args["limit"]; got != 50 {
		t.Errorf("unexpected limit: %v", got)
	}
	if !strings.HasPrefix(out, "🔍 Found 1 page(s)") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestHandleRequest_ActionSummarizeSearchResults(t *testing.T) {
	// The action field routes to the bulk-summarize chain even when the tool
	// name is plain search.
	tools := &fakeTools{responses: []toolResponse{
		{payload: resultsPayload(models.SearchResultItem{ID: "1", Title: "Only Hit"})},
		{payload: pagePayload(models.PageContent{ID: "1", Title: "Only Hit", BodyHTML: "<p>text</p>"})},
	}}
	summarizer := &fakeSummarizer{pageSummary: "The only summary."}
	it := models.Intent{
		Tool:       models.ToolSearch,
		Parameters: map[string]string{"query": "q"},
		Action:     models.ActionSummarizeSearchResults,
	}
	o := newTestOrchestrator(it, tools, summarizer)

	out := o.HandleRequest(context.Background(), "pull up and digest matching docs")

	if !strings.Contains(out, "**1. Only Hit**\nThe only summary.") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestHandleRequest_PromotedSearchFetchesTopResult(t *testing.T) {
	tools := &fakeTools{responses: []toolResponse{
		{payload: resultsPayload(
			models.SearchResultItem{ID: "7", Title: "Style Guide", Space: models.SpaceRef{Key: "ENG"}},
			models.SearchResultItem{ID: "8", Title: "Other Guide", Space: models.SpaceRef{Key: "ENG"}},
		)},
		{payload: pagePayload(models.PageContent{
			ID: "7", Title: "Style Guide", Space: models.SpaceRef{Key: "ENG"}, BodyHTML: "<p>rules</p>",
		})},
	}}
	it := models.Intent{
		Tool:       models.ToolSearch,
		Parameters: map[string]string{"query": `title ~ "guide"`},
	}
	o := newTestOrchestrator(it, tools, nil)

	out := o.HandleRequest(context.Background(), "show me the page with title guide")

	if !strings.HasPrefix(out, "📄 **Style Guide** (Space: ENG)") {
		t.Errorf("promotion should render the top page, got %q", out)
	}
	if len(tools.calls) != 2 {
		t.Fatalf("expected search then fetch, got %d calls", len(tools.calls))
	}
	if got := tools.calls[1].args["page_id"]; got != "7" {
		t.Errorf("expected fetch of top result, got %v", got)
	}
}

func TestHandleRequest_PromotedSearchZeroResults(t *testing.T) {
	tools := &fakeTools{responses: []toolResponse{{payload: resultsPayload()}}}
	it := models.Intent{
		Tool:       models.ToolSearch,
		Parameters: map[string]string{"query": `title ~ "ghost"`},
	}
	o := newTestOrchestrator(it, tools, nil)

	out := o.HandleRequest(context.Background(), "show me the page with title ghost")

	if out != "🔍 No pages found matching your search criteria." {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestHandleRequest_EmptyPayload(t *testing.T) {
	tools := &fakeTools{responses: []toolResponse{{payload: bridge.Payload{Kind: bridge.PayloadEmpty}}}}
	it := models.Intent{
		Tool:       models.ToolGetPage,
		Parameters: map[string]string{"page_id": "1"},
	}
	o := newTestOrchestrator(it, tools, nil)

	out := o.HandleRequest(context.Background(), "fetch page 1")

	if out != "✅ Operation completed successfully" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestHandleRequest_ToolFailureBecomesErrorLine(t *testing.T) {
	tools := &fakeTools{responses: []toolResponse{
		{err: fmt.Errorf("operation failed: space not found")},
	}}
	it := models.Intent{
		Tool:       models.ToolSearch,
		Parameters: map[string]string{"query": "q"},
	}
	o := newTestOrchestrator(it, tools, nil)

	out := o.HandleRequest(context.Background(), "find something")

	if out != "❌ Error: operation failed: space not found" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestHandleRequest_PanicRecovered(t *testing.T) {
	tools := &fakeTools{panicMsg: "broken pipe"}
	it := models.Intent{
		Tool:       models.ToolSearch,
		Parameters: map[string]string{"query": "q"},
	}
	o := newTestOrchestrator(it, tools, nil)

	out := o.HandleRequest(context.Background(), "find something")

	if out != "❌ Unexpected error: broken pipe" {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestHandleRequest_NoToolIdentified(t *testing.T) {
	o := newTestOrchestrator(models.Intent{}, &fakeTools{}, nil)

	out := o.HandleRequest(context.Background(), "something")

	if out != "❌ No valid tool identified for your request." {
		t.Errorf("unexpected output: %q", out)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
