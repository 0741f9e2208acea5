package summarize

import (
	"context"
	"fmt"
	"strings"

	"newsdigest/internal/feed"
)

// maxPromptContent bounds how much article body goes into a prompt.
const maxPromptContent = 2000

// Backend is one interchangeable AI summarization provider. Summarize either
// returns a structured summary or an error; the orchestrator walks an ordered
// chain of backends and never cares which concrete provider it is talking to.
type Backend interface {
	Name() string
	Summarize(ctx context.Context, article *feed.Article, length string) (*ArticleSummary, error)
}

// targetLength maps the summary length tier to prompt wording.
func targetLength(length string) string {
	switch length {
	case "short":
		return "1-2 sentences"
	case "long":
		return "3-4 sentences"
	default:
		return "2-3 sentences"
	}
}

// buildPrompt renders the shared summarization prompt. Every backend uses the
// same labeled-section format so one parser handles all of them.
func buildPrompt(article *feed.Article, length string) string {
	var b strings.Builder

	b.WriteString("Title: " + article.Title + "\n")
	b.WriteString("Description: " + article.Description + "\n")
	if article.Content != "" {
		b.WriteString("Content: " + cutAtRuneBoundary(article.Content, maxPromptContent) + "\n")
	}
	b.WriteString("Source: " + article.Source)

	return fmt.Sprintf(`Please analyze this news article and provide:
1. A brief summary in %s
2. 3-5 key points as bullet points
3. A category (Technology, Politics, Science, Business, Health, Sports, Entertainment, or General)
4. An importance score from 0.0 to 1.0 (0.0 = not important, 1.0 = extremely important)

Article:
%s

Please format your response exactly as:
SUMMARY: [brief summary]
KEY_POINTS:
- [point 1]
- [point 2]
- [point 3]
CATEGORY: [category]
IMPORTANCE: [score]
`, targetLength(length), b.String())
}
