package fetch

import (
	"context"
	"strings"
	"time"
	"unicode"

	"github.com/mmcdole/gofeed"

	"newsdigest/internal/feed"
	"newsdigest/internal/logger"
)

// DefaultFeeds maps source identifiers to feed URLs. Preferences may override
// or extend this table; nothing else mutates it.
var DefaultFeeds = map[string]string{
	// General news
	"bbc":           "http://feeds.bbci.co.uk/news/rss.xml",
	"bbc-world":     "http://feeds.bbci.co.uk/news/world/rss.xml",
	"reuters":       "http://feeds.reuters.com/reuters/topNews",
	"aljazeera":     "https://www.aljazeera.com/xml/rss/all.xml",
	"nyt-world":     "https://rss.nytimes.com/services/xml/rss/nyt/World.xml",
	"economist":     "https://www.economist.com/international/rss.xml",
	// Tech
	"techcrunch":      "http://feeds.feedburner.com/TechCrunch",
	"ars-technica":    "http://feeds.arstechnica.com/arstechnica/index",
	"wired":           "https://www.wired.com/feed/rss",
	"the-verge":       "https://www.theverge.com/rss/index.xml",
	"mit-tech-review": "https://www.technologyreview.com/feed/",
	// Developer communities
	"hacker-news": "https://hnrss.org/frontpage",
	"dev-to":      "https://dev.to/feed",
	"lobsters":    "https://lobste.rs/rss",
}

// RSSAdapter pulls articles from a fixed table of RSS/Atom feeds.
type RSSAdapter struct {
	feeds  map[string]string
	parser *gofeed.Parser
}

// NewRSS creates the adapter. A nil feeds map selects DefaultFeeds.
func NewRSS(feeds map[string]string) *RSSAdapter {
	if len(feeds) == 0 {
		feeds = DefaultFeeds
	}
	return &RSSAdapter{
		feeds:  feeds,
		parser: gofeed.NewParser(),
	}
}

func (r *RSSAdapter) Name() string { return "rss" }

// Enabled is always true: feeds need no credential.
func (r *RSSAdapter) Enabled() bool { return true }

// Fetch parses the requested feeds (all known feeds when sources is empty) and
// keeps entries published after since. A feed that fails to parse is logged
// and skipped, never fatal.
func (r *RSSAdapter) Fetch(ctx context.Context, _, sources []string, since time.Time) ([]*feed.Article, error) {
	if len(sources) == 0 {
		sources = make([]string, 0, len(r.feeds))
		for name := range r.feeds {
			sources = append(sources, name)
		}
	}

	var articles []*feed.Article
	successCount := 0

	for _, source := range sources {
		url, ok := r.feeds[source]
		if !ok {
			continue
		}

		parsed, err := r.parser.ParseURLWithContext(url, ctx)
		if err != nil {
			logger.Warn("error parsing feed", "source", source, "url", url, "error", err)
			continue
		}
		successCount++

		for _, item := range parsed.Items {
			article := r.parseItem(item, source, since)
			if article != nil {
				articles = append(articles, article)
			}
		}
	}

	logger.Info("processed feeds", "ok", successCount, "requested", len(sources))
	return articles, nil
}

// parseItem converts one feed entry, or returns nil when the entry is too old
// or missing title/link/timestamp.
func (r *RSSAdapter) parseItem(item *gofeed.Item, source string, since time.Time) *feed.Article {
	published := time.Time{}
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = *item.UpdatedParsed
	}

	article := &feed.Article{
		Title:       item.Title,
		Description: item.Description,
		URL:         item.Link,
		Source:      prettySourceName(source),
		PublishedAt: published,
		Content:     item.Content,
	}
	if !article.Usable() {
		return nil
	}
	if article.PublishedUTC().Before(since.UTC()) {
		return nil
	}
	return article
}

// prettySourceName turns "ars-technica" into "Ars Technica".
func prettySourceName(source string) string {
	words := strings.Split(source, "-")
	for i, w := range words {
		if w == "" {
			continue
		}
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
