package summarize

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"newsdigest/internal/feed"
)

// OpenAIBackend summarizes through the OpenAI chat completions API.
type OpenAIBackend struct {
	client *openai.Client
	model  string
}

func NewOpenAI(apiKey string) *OpenAIBackend {
	return &OpenAIBackend{
		client: openai.NewClient(apiKey),
		model:  openai.GPT3Dot5Turbo,
	}
}

func (o *OpenAIBackend) Name() string { return "openai" }

func (o *OpenAIBackend) Summarize(ctx context.Context, article *feed.Article, length string) (*ArticleSummary, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a professional news summarizer. Provide concise, accurate summaries and analysis.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(article, length),
			},
		},
		MaxTokens:   500,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, fmt.Errorf("openai completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return ParseResponse(article, resp.Choices[0].Message.Content), nil
}
