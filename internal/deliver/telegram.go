package deliver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"newsdigest/internal/logger"
	"newsdigest/internal/metrics"
	"newsdigest/internal/retry"
)

const telegramAPIBase = "https://api.telegram.org"

// Telegram message bodies cap out around 4096 characters.
const messageLimit = 4000

// TelegramSender posts the rendered digest to a Telegram chat or channel.
type TelegramSender struct {
	token  string
	chatID string
	client *http.Client

	// BaseURL is overridable in tests.
	BaseURL string
}

func NewTelegram(token, chatID string, client *http.Client) (*TelegramSender, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}
	if chatID == "" {
		return nil, fmt.Errorf("telegram chat id is required")
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &TelegramSender{
		token:   token,
		chatID:  chatID,
		client:  client,
		BaseURL: telegramAPIBase,
	}, nil
}

// SendMessage delivers one HTML message with exponential-backoff retries.
func (t *TelegramSender) SendMessage(ctx context.Context, text string) error {
	cfg := retry.Config{
		MaxAttempts: 3,
		Delay:       2 * time.Second,
		Backoff:     true,
	}

	err := retry.WithRetry(ctx, cfg, func() error {
		return t.sendOnce(ctx, text)
	})
	if err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}

	metrics.Global.IncrementDigestsDelivered()
	logger.Info("digest sent to telegram", "chars", len(text))
	return nil
}

func (t *TelegramSender) sendOnce(ctx context.Context, text string) error {
	payload := map[string]interface{}{
		"chat_id":                  t.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshaling payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.BaseURL, t.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("error HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API error: status %d", resp.StatusCode)
	}
	return nil
}
