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
)

const guardianBaseURL = "https://content.guardianapis.com"

// GuardianAdapter searches the Guardian content API per topic.
type GuardianAdapter struct {
	apiKey string
	client *http.Client

	// BaseURL is overridable in tests.
	BaseURL string
}

type guardianResponse struct {
	Response struct {
		Results []struct {
			WebTitle           string `json:"webTitle"`
			WebURL             string `json:"webUrl"`
			WebPublicationDate string `json:"webPublicationDate"`
			Fields             struct {
				Headline  string `json:"headline"`
				TrailText string `json:"trailText"`
				BodyText  string `json:"bodyText"`
			} `json:"fields"`
		} `json:"results"`
	} `json:"response"`
}

func NewGuardian(apiKey string, client *http.Client) *GuardianAdapter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &GuardianAdapter{
		apiKey:  apiKey,
		client:  client,
		BaseURL: guardianBaseURL,
	}
}

func (g *GuardianAdapter) Name() string  { return "guardian" }
func (g *GuardianAdapter) Enabled() bool { return g.apiKey != "" }

func (g *GuardianAdapter) Fetch(ctx context.Context, topics, _ []string, since time.Time) ([]*feed.Article, error) {
	if !g.Enabled() {
		return nil, nil
	}

	var articles []*feed.Article

	for _, topic := range topics {
		topicArticles, err := g.fetchTopic(ctx, topic, since)
		if err != nil {
			logger.Error("error fetching from guardian", "topic", topic, "error", err)
			continue
		}
		articles = append(articles, topicArticles...)
	}

	return articles, nil
}

func (g *GuardianAdapter) fetchTopic(ctx context.Context, topic string, since time.Time) ([]*feed.Article, error) {
	params := url.Values{}
	params.Set("q", topic)
	params.Set("from-date", since.UTC().Format("2006-01-02"))
	params.Set("show-fields", "headline,trailText,bodyText")
	params.Set("order-by", "relevance")
	params.Set("page-size", "20")
	params.Set("api-key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("guardian returned status %d", resp.StatusCode)
	}

	var parsed guardianResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding guardian response: %w", err)
	}

	articles := make([]*feed.Article, 0, len(parsed.Response.Results))
	for _, raw := range parsed.Response.Results {
		published, err := time.Parse(time.RFC3339, raw.WebPublicationDate)
		if err != nil {
			logger.Debug("skipping guardian record with bad timestamp", "title", raw.WebTitle, "error", err)
			continue
		}

		title := raw.Fields.Headline
		if title == "" {
			title = raw.WebTitle
		}
		article := &feed.Article{
			Title:       title,
			Description: raw.Fields.TrailText,
			URL:         raw.WebURL,
			Source:      "The Guardian",
			PublishedAt: published,
			Content:     raw.Fields.BodyText,
		}
		if !article.Usable() {
			continue
		}
		articles = append(articles, article)
	}
	return articles, nil
}
