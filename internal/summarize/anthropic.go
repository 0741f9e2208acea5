package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"newsdigest/internal/feed"
)

const anthropicBaseURL = "https://api.anthropic.com"

// AnthropicBackend summarizes through the Anthropic messages API over plain
// HTTP; there is no SDK dependency for it.
type AnthropicBackend struct {
	apiKey string
	model  string
	client *http.Client

	// BaseURL is overridable in tests.
	BaseURL string
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func NewAnthropic(apiKey string, client *http.Client) *AnthropicBackend {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &AnthropicBackend{
		apiKey:  apiKey,
		model:   "claude-3-haiku-20240307",
		client:  client,
		BaseURL: anthropicBaseURL,
	}
}

func (a *AnthropicBackend) Name() string { return "anthropic" }

func (a *AnthropicBackend) Summarize(ctx context.Context, article *feed.Article, length string) (*ArticleSummary, error) {
	body, err := json.Marshal(anthropicRequest{
		Model:     a.model,
		MaxTokens: 500,
		Messages: []anthropicMessage{
			{Role: "user", Content: buildPrompt(article, length)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling anthropic request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("anthropic request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("anthropic API error: status %d", resp.StatusCode)
	}

	var parsed anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding anthropic response: %w", err)
	}

	if len(parsed.Content) == 0 || parsed.Content[0].Text == "" {
		return nil, fmt.Errorf("no response from Anthropic")
	}

	return ParseResponse(article, parsed.Content[0].Text), nil
}
