package feed

import (
	"strings"
	"time"
)

// Article is one ingested news item in the uniform representation shared by
// every source adapter. URL is the dedup identity: two articles with the same
// URL are the same item. RelevanceScore starts at zero and is set exactly once
// by the curation filter.
type Article struct {
	Title          string
	Description    string
	URL            string
	Source         string
	PublishedAt    time.Time
	Content        string
	RelevanceScore float64
}

// Usable reports whether a parsed record carries enough to be an article.
// Records without a title, URL or timestamp are dropped at the adapter.
func (a *Article) Usable() bool {
	if strings.TrimSpace(a.Title) == "" {
		return false
	}
	if strings.TrimSpace(a.URL) == "" {
		return false
	}
	return !a.PublishedAt.IsZero()
}

// PublishedUTC returns the publication time normalized to UTC. Feed timestamps
// arrive in whatever zone the source used; comparisons always go through here.
func (a *Article) PublishedUTC() time.Time {
	return a.PublishedAt.UTC()
}

// SearchText concatenates title, description and content lowercased, the form
// the relevance scorer matches against.
func (a *Article) SearchText() string {
	return strings.ToLower(a.Title + " " + a.Description + " " + a.Content)
}
