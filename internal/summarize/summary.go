package summarize

import (
	"time"

	"newsdigest/internal/feed"
)

// ArticleSummary is the AI-derived (or fallback) analysis of one article.
// ImportanceScore is always within [0,1] no matter what a backend returned.
// A summary is immutable once created.
type ArticleSummary struct {
	Article         *feed.Article
	BriefSummary    string
	KeyPoints       []string
	Category        string
	ImportanceScore float64
	CreatedAt       time.Time
}
