package render

import (
	"fmt"
	"strings"

	"github.com/valter-silva-au/confluence-assistant/pkg/models"
)

// Display limits for rendered output.
const (
	MaxResultsShown  = 15
	ExcerptLength    = 120
	PageBodyLength   = 1500
	OverviewExcerpts = 150
)

// FormatSearchResults renders a numbered list of up to MaxResultsShown items.
// An empty slice yields a "no pages found" message annotated with a coarse
// context label derived from the query wording.
func FormatSearchResults(items []models.SearchResultItem, originalQuery string) string {
	if len(items) == 0 {
		return fmt.Sprintf("🔍 No pages found%s.\n💡 Try different keywords or broader search terms.",
			searchContext(originalQuery))
	}

	shown := items
	if len(shown) > MaxResultsShown {
		shown = shown[:MaxResultsShown]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🔍 Found %d page(s)%s, showing %d:\n\n",
		len(items), searchContext(originalQuery), len(shown))

	for i, item := range shown {
		title := item.Title
		if title == "" {
			title = "Unknown Title"
		}
		fmt.Fprintf(&b, "%d. **%s** (Space: %s, ID: %s)", i+1, title, item.Space.DisplayName(), item.ID)

		if item.Excerpt != "" {
			excerpt := Truncate(StripMarkup(item.Excerpt), ExcerptLength)
			fmt.Fprintf(&b, "\n   📄 %s", excerpt)
		}
		b.WriteString("\n")
		if item.URL != "" {
			fmt.Fprintf(&b, "   🔗 %s\n", item.URL)
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// FormatPageContent renders a fetched page for display. When the original
// query reads like a list request the full body is withheld in favor of a
// short card, since the user wanted to locate the page, not read it.
func FormatPageContent(page models.PageContent, originalQuery string) string {
	title := page.Title
	if title == "" {
		title = "Unknown"
	}

	if wantsListShape(originalQuery) {
		return fmt.Sprintf("📄 **%s** (Space: %s, ID: %s)\n🔗 %s",
			title, page.Space.DisplayName(), idOrUnknown(page.ID), page.WebURL)
	}

	body := StripMarkup(page.BodyHTML)
	switch {
	case body == "":
		body = "No content available"
	case len([]rune(body)) > PageBodyLength:
		body = string([]rune(body)[:PageBodyLength]) +
			"\n\n... [Content truncated - use summarization for full overview]"
	}

	return fmt.Sprintf("📄 **%s** (Space: %s)\n\n%s", title, page.Space.DisplayName(), body)
}

// FormatPageSummary renders the single-page summary card.
func FormatPageSummary(page models.PageContent, summary string) string {
	title := page.Title
	if title == "" {
		title = "Unknown"
	}
	return fmt.Sprintf("📋 **Summary of %s** (Space: %s)\n\n%s", title, page.Space.DisplayName(), summary)
}

// searchContext derives a coarse label from the query wording. The first
// matching keyword wins; keywords are matched as substrings.
func searchContext(originalQuery string) string {
	if originalQuery == "" {
		return ""
	}
	q := strings.ToLower(originalQuery)

	switch {
	case strings.Contains(q, "titled"), strings.Contains(q, "title"):
		return " in title"
	case strings.Contains(q, "containing"), strings.Contains(q, "mentioning"):
		return " in content"
	case strings.Contains(q, "about"), strings.Contains(q, "on"), strings.Contains(q, "regarding"):
		return " by topic"
	default:
		return ""
	}
}

// wantsListShape reports whether the query wording indicates the user wanted
// a page listing even though a single page was fetched.
func wantsListShape(originalQuery string) bool {
	if originalQuery == "" {
		return false
	}
	q := strings.ToLower(originalQuery)
	for _, phrase := range []string{"show pages", "pages containing", "find pages"} {
		if strings.Contains(q, phrase) {
			return true
		}
	}
	return false
}

func idOrUnknown(id string) string {
	if id == "" {
		return "Unknown"
	}
	return id
}
