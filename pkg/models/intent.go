// Package models defines the data types shared between the intent parser,
// the orchestrator, the bridge client, and the rendering layer.
package models

// ToolName identifies one of the closed set of tools the orchestrator can
// route. The *_and_summarize and space_summary names are routing pseudo-tools:
// they are never sent over the bridge and always expand into one or more
// confluence_search / confluence_get_page calls.
type ToolName string

const (
	ToolSearch             ToolName = "confluence_search"
	ToolGetPage            ToolName = "confluence_get_page"
	ToolListPages          ToolName = "confluence_list_pages"
	ToolSearchAndSummarize ToolName = "confluence_search_and_summarize"
	ToolGetAndSummarize    ToolName = "confluence_get_and_summarize"
	ToolSpaceSummary       ToolName = "confluence_space_summary"
)

// Action refines what should happen with fetched content, independently of
// which tool the model chose.
type Action string

const (
	ActionSummarizePage          Action = "summarize_page"
	ActionSummarizeSearchResults Action = "summarize_search_results"
	ActionSummarizeSpace         Action = "summarize_space"
)

// Intent is the structured description of one user request, produced once by
// the intent parser and consumed by the orchestrator. It is immutable after
// construction. Exactly one of Err or Tool is set: a non-empty Err means the
// request could not be understood and carries no routable tool.
type Intent struct {
	Tool          ToolName          `json:"tool,omitempty"`
	Parameters    map[string]string `json:"parameters,omitempty"`
	Action        Action            `json:"action,omitempty"`
	SearchTerm    string            `json:"search_term,omitempty"`
	OriginalQuery string            `json:"original_query,omitempty"`
	Err           string            `json:"error,omitempty"`
}

// Param returns the named parameter, or "" when absent.
func (i Intent) Param(name string) string {
	if i.Parameters == nil {
		return ""
	}
	return i.Parameters[name]
}

// HasParam reports whether the named parameter is present.
func (i Intent) HasParam(name string) bool {
	_, ok := i.Parameters[name]
	return ok
}
