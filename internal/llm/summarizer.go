package llm

import (
	"context"
	"fmt"
	"strings"
)

// Summarizer produces page and space summaries through a Completer. Failures
// are folded into the returned text rather than propagated: a summary slot in
// a larger response degrades to an error line instead of aborting the whole
// request.
type Summarizer struct {
	completer        Completer
	maxContentLength int
}

// NewSummarizer creates a Summarizer. maxContentLength bounds how much page
// content is sent to the model; non-positive values fall back to 8000.
func NewSummarizer(completer Completer, maxContentLength int) *Summarizer {
	if maxContentLength <= 0 {
		maxContentLength = 8000
	}
	return &Summarizer{completer: completer, maxContentLength: maxContentLength}
}

// SummarizePage returns a concise summary of one page's cleaned content.
func (s *Summarizer) SummarizePage(ctx context.Context, title, content string) string {
	if len(content) > s.maxContentLength {
		content = content[:s.maxContentLength] + "\n\n[Content truncated for summarization...]"
	}

	prompt := fmt.Sprintf(`Please provide a concise summary of the following Confluence page content.
Focus on the key points, main ideas, and important information.
Keep the summary clear and well-structured.

Page Title: %s

Content:
%s

Summary:`, title, content)

	out, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return fmt.Sprintf("Error generating summary: %v", err)
	}
	return strings.TrimSpace(out)
}

// SummarizeSpace returns an executive summary synthesized from a pages
// overview (numbered titles with short excerpts). total and analyzed report
// how many pages exist versus how many fed the overview.
func (s *Summarizer) SummarizeSpace(ctx context.Context, spaceKey, overview string, total, analyzed int) string {
	prompt := fmt.Sprintf(`You are creating an executive summary for a Confluence space. Analyze the following pages and create a comprehensive, one-paragraph executive summary that captures the main themes, purposes, and key topics covered across all pages.

Space: %s
Total Pages: %d
Analyzed Pages: %d

Pages Overview:
%s

Please provide:
1. A comprehensive one-paragraph executive summary that synthesizes the main themes and purposes
2. Key topics/themes identified (as bullet points)
3. Overall assessment of the space's focus and utility

Executive Summary:`, spaceKey, total, analyzed, overview)

	out, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		return fmt.Sprintf("Error generating space summary: %v", err)
	}
	return strings.TrimSpace(out)
}
