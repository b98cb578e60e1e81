package bridge

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/confluence-assistant/pkg/models"
)

// PayloadKind discriminates the shapes a tool reply can take. The store's
// text payloads are themselves JSON-encoded and duck-typed: a get-page call
// may answer with a page object (flat or nested under metadata) or, for some
// backends, with a list of candidates. Classification happens once here so
// everything downstream works with typed values.
type PayloadKind int

const (
	// PayloadEmpty means the call succeeded with no content.
	PayloadEmpty PayloadKind = iota
	// PayloadPage is a single page object.
	PayloadPage
	// PayloadResults is a list of search result items.
	PayloadResults
	// PayloadText is content that fits neither shape, kept verbatim.
	PayloadText
)

// Payload is the classified result of one tool call.
type Payload struct {
	Kind    PayloadKind
	Page    *models.PageContent
	Results []models.SearchResultItem
	Text    string
}

// AsResults coerces the payload into a result list: lists pass through, a
// lone page object becomes a single-item list, anything else is empty.
func (p Payload) AsResults() []models.SearchResultItem {
	switch p.Kind {
	case PayloadResults:
		return p.Results
	case PayloadPage:
		if p.Page == nil {
			return nil
		}
		return []models.SearchResultItem{{
			ID:    p.Page.ID,
			Title: p.Page.Title,
			Space: p.Page.Space,
			URL:   p.Page.WebURL,
		}}
	default:
		return nil
	}
}

// classify decodes the first text content of a tool result into a Payload.
// Bridge-reported tool errors become Go errors.
func classify(result *mcp.CallToolResult) (Payload, error) {
	text := extractText(result)
	if result.IsError {
		if text == "" {
			text = "unknown error"
		}
		return Payload{}, fmt.Errorf("operation failed: %s", text)
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Payload{Kind: PayloadEmpty}, nil
	}

	switch {
	case strings.HasPrefix(trimmed, "["):
		if items, ok := decodeResults(trimmed); ok {
			return Payload{Kind: PayloadResults, Results: items}, nil
		}
	case strings.HasPrefix(trimmed, "{"):
		if page, ok := decodePage(trimmed); ok {
			return Payload{Kind: PayloadPage, Page: page}, nil
		}
	}
	return Payload{Kind: PayloadText, Text: text}, nil
}

// extractText returns the text of the first TextContent block.
func extractText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// decodeResults parses a JSON array of search result items. IDs may arrive
// as numbers; they are normalized to strings.
func decodeResults(raw string) ([]models.SearchResultItem, bool) {
	var entries []map[string]any
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, false
	}

	items := make([]models.SearchResultItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, models.SearchResultItem{
			ID:      stringField(e, "id"),
			Title:   stringField(e, "title"),
			Space:   spaceField(e["space"]),
			Excerpt: stringField(e, "excerpt"),
			URL:     stringField(e, "url"),
		})
	}
	return items, true
}

// decodePage parses a JSON object into a PageContent, accepting both the
// flat shape and the nested metadata shape. Objects carrying none of the
// page-identifying keys are not pages.
func decodePage(raw string) (*models.PageContent, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, false
	}

	if meta, ok := obj["metadata"].(map[string]any); ok {
		page := &models.PageContent{
			ID:    stringField(meta, "id"),
			Title: stringField(meta, "title"),
			Space: spaceField(meta["space"]),
		}
		if page.ID == "" {
			page.ID = stringField(obj, "id")
		}
		if content, ok := meta["content"].(map[string]any); ok {
			page.BodyHTML = stringField(content, "value")
		}
		page.WebURL = webURL(obj)
		return page, true
	}

	if _, hasContent := obj["content"]; !hasContent {
		if _, hasTitle := obj["title"]; !hasTitle {
			return nil, false
		}
	}

	return &models.PageContent{
		ID:       stringField(obj, "id"),
		Title:    stringField(obj, "title"),
		Space:    spaceField(obj["space"]),
		BodyHTML: stringField(obj, "content"),
		WebURL:   webURL(obj),
	}, true
}

// webURL extracts the page link from either a plain url field or the
// _links.webui shape.
func webURL(obj map[string]any) string {
	if u := stringField(obj, "url"); u != "" {
		return u
	}
	if links, ok := obj["_links"].(map[string]any); ok {
		return stringField(links, "webui")
	}
	return ""
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		// JSON numbers decode as float64; IDs are integral.
		return fmt.Sprintf("%.0f", v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func spaceField(v any) models.SpaceRef {
	switch s := v.(type) {
	case map[string]any:
		return models.SpaceRef{Key: stringField(s, "key"), Name: stringField(s, "name")}
	case string:
		return models.SpaceRef{Raw: s}
	case nil:
		return models.SpaceRef{}
	default:
		return models.SpaceRef{Raw: fmt.Sprint(s)}
	}
}
