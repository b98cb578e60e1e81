package orchestrator

import (
	"strings"

	"github.com/valter-silva-au/confluence-assistant/pkg/models"
)

// promotionRule is one named text predicate. All rules in promotionRules
// must hold, in order, for a search intent to be promoted to a page fetch.
type promotionRule struct {
	name  string
	match func(text string) bool
}

// promotionRules detect wording that asks for a single page's content even
// though the model classified the request as a search. Rule order is part
// of observable behavior and must not be reordered.
var promotionRules = []promotionRule{
	{
		name: "content-retrieval-verb",
		match: func(text string) bool {
			return containsAny(text, "get", "show", "content", "read", "view")
		},
	},
	{
		name: "title-scoped-search",
		match: func(text string) bool {
			return strings.Contains(text, "title") && containsAny(text, "with", "containing", "in")
		},
	},
}

// PromoteSearchToGet reports whether a search intent should instead fetch
// the top result's full content, based on the raw request wording.
func PromoteSearchToGet(text string, it models.Intent) bool {
	if it.Tool != models.ToolSearch {
		return false
	}
	lower := strings.ToLower(text)
	for _, rule := range promotionRules {
		if !rule.match(lower) {
			return false
		}
	}
	return true
}

func containsAny(text string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
