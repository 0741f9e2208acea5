package enrich

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"newsdigest/internal/feed"
	"newsdigest/internal/logger"
)

const (
	minUsefulContent = 200
	maxContentChars  = 6000
)

// Extractor fetches full article text for the top survivors before
// summarization, so backends see more than feed snippets. It never fails a
// run: an article whose page cannot be read keeps its feed description.
type Extractor struct {
	client      *http.Client
	concurrency int
	maxArticles int
}

func New(client *http.Client, concurrency, maxArticles int) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Extractor{
		client:      client,
		concurrency: concurrency,
		maxArticles: maxArticles,
	}
}

// EnrichAll replaces the content of up to maxArticles articles with the full
// page text, bounded by the configured concurrency.
func (e *Extractor) EnrichAll(ctx context.Context, articles []*feed.Article) {
	limit := len(articles)
	if e.maxArticles > 0 && e.maxArticles < limit {
		limit = e.maxArticles
	}

	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup

	for _, article := range articles[:limit] {
		wg.Add(1)
		go func(a *feed.Article) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			content, err := e.extract(ctx, a.URL)
			if err != nil {
				logger.Debug("could not extract full content", "url", a.URL, "error", err)
				return
			}
			if len(content) > minUsefulContent {
				a.Content = content
				logger.Debug("enriched article content", "url", a.URL, "chars", len(content))
			}
		}(article)
	}
	wg.Wait()
}

// extract pulls paragraph text from the page using a cascade of common
// content selectors.
func (e *Extractor) extract(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error loading page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error parsing HTML: %w", err)
	}

	selectors := []string{
		"article p",
		".article p",
		".content p",
		".post-content p",
		".entry-content p",
		"main p",
		"p",
	}

	var paragraphs []string
	for _, selector := range selectors {
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) > 20 {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) >= 3 {
			break
		}
	}

	content := strings.Join(paragraphs, "\n\n")
	if len(content) > maxContentChars {
		// Cut on a rune boundary so truncation never corrupts the text.
		cut := maxContentChars
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut]
	}
	return content, nil
}
