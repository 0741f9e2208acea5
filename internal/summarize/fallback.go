package summarize

import (
	"strings"
	"time"

	"newsdigest/internal/feed"
)

// CategoryRule maps a category label to the keywords that select it. Rules
// are checked in order; the first category with any keyword hit wins.
type CategoryRule struct {
	Category string
	Keywords []string
}

// DefaultCategoryRules is the stock keyword-to-category table used by the
// deterministic fallback. Callers may inject their own table instead.
var DefaultCategoryRules = []CategoryRule{
	{"Technology", []string{"tech", "ai", "software", "digital", "computer", "internet", "app"}},
	{"Science", []string{"research", "study", "scientist", "discovery", "climate", "space"}},
	{"Business", []string{"company", "business", "market", "economy", "financial", "stock"}},
	{"Health", []string{"health", "medical", "hospital", "disease", "treatment", "vaccine"}},
	{"Politics", []string{"government", "political", "election", "president", "congress", "policy"}},
	{"Sports", []string{"sport", "game", "team", "player", "championship", "olympic"}},
}

// FallbackSummary builds a summary without any AI backend: truncated
// description, key points from source and date, keyword-table category and
// the article's relevance score as importance. It cannot fail.
func FallbackSummary(article *feed.Article, rules []CategoryRule) *ArticleSummary {
	keyPoints := []string{
		"Source: " + article.Source,
		"Published: " + article.PublishedUTC().Format("2006-01-02 15:04"),
		"Full article available at source link",
	}

	return &ArticleSummary{
		Article:         article,
		BriefSummary:    truncateDescription(article.Description),
		KeyPoints:       keyPoints,
		Category:        categorize(article, rules),
		ImportanceScore: clampImportance(article.RelevanceScore),
		CreatedAt:       time.Now(),
	}
}

func categorize(article *feed.Article, rules []CategoryRule) string {
	if len(rules) == 0 {
		rules = DefaultCategoryRules
	}

	text := strings.ToLower(article.Title + " " + article.Description)
	for _, rule := range rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(text, keyword) {
				return rule.Category
			}
		}
	}
	return "General"
}
