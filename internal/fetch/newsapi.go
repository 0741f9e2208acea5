package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"newsdigest/internal/feed"
	"newsdigest/internal/logger"
	"newsdigest/internal/ratelimit"
)

const newsAPIBaseURL = "https://newsapi.org/v2"

// NewsAPIAdapter searches the NewsAPI "everything" endpoint per topic.
type NewsAPIAdapter struct {
	apiKey  string
	client  *http.Client
	limiter *ratelimit.Limiter

	// BaseURL is overridable in tests.
	BaseURL string
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
		Content     string `json:"content"`
	} `json:"articles"`
}

// NewNewsAPI creates the adapter. An empty apiKey leaves it disabled. The
// limiter budgets requests under the "newsapi" name; nil means unlimited.
func NewNewsAPI(apiKey string, client *http.Client, limiter *ratelimit.Limiter) *NewsAPIAdapter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &NewsAPIAdapter{
		apiKey:  apiKey,
		client:  client,
		limiter: limiter,
		BaseURL: newsAPIBaseURL,
	}
}

func (n *NewsAPIAdapter) Name() string  { return "newsapi" }
func (n *NewsAPIAdapter) Enabled() bool { return n.apiKey != "" }

func (n *NewsAPIAdapter) Fetch(ctx context.Context, topics, _ []string, since time.Time) ([]*feed.Article, error) {
	if !n.Enabled() {
		return nil, nil
	}

	var articles []*feed.Article

	for _, topic := range topics {
		if n.limiter != nil && !n.limiter.Allow("newsapi") {
			logger.Warn("newsapi budget exhausted, stopping", "topic", topic)
			break
		}
		if n.limiter != nil {
			if err := n.limiter.Use("newsapi"); err != nil {
				break
			}
		}

		topicArticles, err := n.fetchTopic(ctx, topic, since)
		if err != nil {
			logger.Error("error fetching from newsapi", "topic", topic, "error", err)
			continue
		}
		articles = append(articles, topicArticles...)
	}

	return articles, nil
}

func (n *NewsAPIAdapter) fetchTopic(ctx context.Context, topic string, since time.Time) ([]*feed.Article, error) {
	params := url.Values{}
	params.Set("q", topic)
	params.Set("from", since.UTC().Format("2006-01-02"))
	params.Set("sortBy", "relevancy")
	params.Set("pageSize", "20")
	params.Set("apiKey", n.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.BaseURL+"/everything?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsapi returned status %d", resp.StatusCode)
	}

	var parsed newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding newsapi response: %w", err)
	}

	articles := make([]*feed.Article, 0, len(parsed.Articles))
	for _, raw := range parsed.Articles {
		published, err := time.Parse(time.RFC3339, raw.PublishedAt)
		if err != nil {
			logger.Debug("skipping newsapi record with bad timestamp", "title", raw.Title, "error", err)
			continue
		}

		source := raw.Source.Name
		if source == "" {
			source = "Unknown"
		}
		article := &feed.Article{
			Title:       raw.Title,
			Description: raw.Description,
			URL:         raw.URL,
			Source:      source,
			PublishedAt: published,
			Content:     raw.Content,
		}
		if !article.Usable() {
			continue
		}
		articles = append(articles, article)
	}
	return articles, nil
}
