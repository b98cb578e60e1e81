package bridge

import (
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/confluence-assistant/pkg/models"
)

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func TestClassify_Error(t *testing.T) {
	result := textResult("space DOCS not found")
	result.IsError = true

	_, err := classify(result)
	if err == nil {
		t.Fatal("expected error for IsError result")
	}
	if !strings.Contains(err.Error(), "operation failed: space DOCS not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestClassify_ErrorWithoutText(t *testing.T) {
	result := &mcp.CallToolResult{IsError: true}

	_, err := classify(result)
	if err == nil || !strings.Contains(err.Error(), "unknown error") {
		t.Errorf("expected unknown error placeholder, got %v", err)
	}
}

func TestClassify_Empty(t *testing.T) {
	for _, text := range []string{"", "   ", "\n"} {
		payload, err := classify(textResult(text))
		if err != nil {
			t.Fatalf("classify(%q): %v", text, err)
		}
		if payload.Kind != PayloadEmpty {
			t.Errorf("classify(%q): expected PayloadEmpty, got %v", text, payload.Kind)
		}
	}
}

func TestClassify_ResultList(t *testing.T) {
	raw := `[
		{"id": 111, "title": "Test Page 1", "space": {"key": "TS", "name": "Test Space"}, "excerpt": "<p>one</p>", "url": "https://w/1"},
		{"id": "222", "title": "Another Test Page", "space": "Test Space"}
	]`

	payload, err := classify(textResult(raw))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if payload.Kind != PayloadResults {
		t.Fatalf("expected PayloadResults, got %v", payload.Kind)
	}
	if len(payload.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(payload.Results))
	}

	first := payload.Results[0]
	if first.ID != "111" {
		t.Errorf("numeric ID should normalize to string, got %q", first.ID)
	}
	if first.Space.Key != "TS" || first.Space.Name != "Test Space" {
		t.Errorf("unexpected space: %+v", first.Space)
	}

	second := payload.Results[1]
	if second.Space.Raw != "Test Space" {
		t.Errorf("bare string space should land in Raw, got %+v", second.Space)
	}
	if second.Space.DisplayName() != "Test Space" {
		t.Errorf("unexpected display name %q", second.Space.DisplayName())
	}
}

func TestClassify_FlatPage(t *testing.T) {
	raw := `{"id": "42", "title": "Runbook", "space": {"key": "OPS"}, "content": "<p>body</p>", "url": "https://w/42"}`

	payload, err := classify(textResult(raw))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if payload.Kind != PayloadPage {
		t.Fatalf("expected PayloadPage, got %v", payload.Kind)
	}
	page := payload.Page
	if page.ID != "42" || page.Title != "Runbook" || page.BodyHTML != "<p>body</p>" {
		t.Errorf("unexpected page: %+v", page)
	}
	if page.WebURL != "https://w/42" {
		t.Errorf("unexpected web URL %q", page.WebURL)
	}
}

func TestClassify_NestedMetadataPage(t *testing.T) {
	raw := `{
		"metadata": {
			"id": 42,
			"title": "Runbook",
			"space": {"key": "OPS", "name": "Operations"},
			"content": {"value": "<p>nested body</p>"}
		},
		"_links": {"webui": "/spaces/OPS/pages/42"}
	}`

	payload, err := classify(textResult(raw))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if payload.Kind != PayloadPage {
		t.Fatalf("expected PayloadPage, got %v", payload.Kind)
	}
	page := payload.Page
	if page.ID != "42" {
		t.Errorf("expected ID 42, got %q", page.ID)
	}
	if page.BodyHTML != "<p>nested body</p>" {
		t.Errorf("expected nested body, got %q", page.BodyHTML)
	}
	if page.WebURL != "/spaces/OPS/pages/42" {
		t.Errorf("expected _links.webui fallback, got %q", page.WebURL)
	}
}

func TestClassify_NonPageObjectFallsThroughToText(t *testing.T) {
	raw := `{"status": "ok", "count": 3}`

	payload, err := classify(textResult(raw))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if payload.Kind != PayloadText {
		t.Fatalf("expected PayloadText for non-page object, got %v", payload.Kind)
	}
	if payload.Text != raw {
		t.Errorf("text should be kept verbatim")
	}
}

func TestClassify_PlainText(t *testing.T) {
	payload, err := classify(textResult("Page updated successfully."))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if payload.Kind != PayloadText || payload.Text != "Page updated successfully." {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestAsResults_CoercesLonePage(t *testing.T) {
	payload := Payload{
		Kind: PayloadPage,
		Page: &models.PageContent{
			ID:     "7",
			Title:  "Deploy Guide",
			Space:  models.SpaceRef{Key: "OPS"},
			WebURL: "https://w/7",
		},
	}

	results := payload.AsResults()
	if len(results) != 1 {
		t.Fatalf("expected 1 coerced result, got %d", len(results))
	}
	if results[0].ID != "7" || results[0].Title != "Deploy Guide" || results[0].URL != "https://w/7" {
		t.Errorf("unexpected coerced result: %+v", results[0])
	}
}

func TestAsResults_TextAndEmptyYieldNil(t *testing.T) {
	if got := (Payload{Kind: PayloadText, Text: "x"}).AsResults(); got != nil {
		t.Errorf("expected nil for text payload, got %v", got)
	}
	if got := (Payload{Kind: PayloadEmpty}).AsResults(); got != nil {
		t.Errorf("expected nil for empty payload, got %v", got)
	}
}
