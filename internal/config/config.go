package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Preferences is the YAML file describing what the user wants in the digest.
// Credentials never live here; they come from the environment.
type Preferences struct {
	Topics  []string          `yaml:"topics"`
	Sources []string          `yaml:"sources"`
	Feeds   map[string]string `yaml:"feeds"` // optional: overrides the built-in feed table
	Content ContentConfig     `yaml:"content"`
}

type ContentConfig struct {
	MaxArticles       int     `yaml:"max_articles"`
	MinArticles       int     `yaml:"min_articles"`
	SummaryLength     string  `yaml:"summary_length"` // short | medium | long
	MinRelevanceScore float64 `yaml:"min_relevance_score"`
}

type Config struct {
	// Digest content
	Topics            []string
	Sources           []string
	Feeds             map[string]string
	MaxArticles       int
	MinArticles       int
	SummaryLength     string
	MinRelevanceScore float64

	// Pipeline tuning
	PerSourceCap           int
	MaxConcurrentSummaries int
	MaxAIRequests          int // per run, 0 = unlimited
	EnrichConcurrency      int
	EnrichMaxArticles      int

	// Credentials (absence disables the adapter/backend)
	NewsAPIKey   string
	GuardianKey  string
	GeminiKey    string
	OpenAIKey    string
	AnthropicKey string

	// Delivery
	TelegramToken  string
	TelegramChatID string

	// History of sent articles
	HistoryFilePath string
	HistoryTTLHours int

	// App settings
	PreferencesPath string
	RequestTimeout  time.Duration
	RetryAttempts   int
	RetryDelay      time.Duration
	Debug           bool
}

// Load builds the config from defaults, the preferences file and environment
// overrides, in that order.
func Load() (*Config, error) {
	cfg := &Config{
		// Default values
		PreferencesPath:        "configs/preferences.yaml",
		MaxArticles:            10,
		MinArticles:            2,
		SummaryLength:          "medium",
		MinRelevanceScore:      0.6,
		PerSourceCap:           3,
		MaxConcurrentSummaries: 5,
		EnrichConcurrency:      4,
		EnrichMaxArticles:      5,
		RequestTimeout:         30 * time.Second,
		RetryAttempts:          3,
		RetryDelay:             5 * time.Second,
	}

	if path := os.Getenv("PREFERENCES_PATH"); path != "" {
		cfg.PreferencesPath = path
	}

	prefs, err := LoadPreferences(cfg.PreferencesPath)
	if err != nil {
		return nil, fmt.Errorf("loading preferences: %w", err)
	}
	cfg.applyPreferences(prefs)

	// Credentials from environment only
	cfg.NewsAPIKey = os.Getenv("NEWSAPI_KEY")
	cfg.GuardianKey = os.Getenv("GUARDIAN_API_KEY")
	cfg.GeminiKey = os.Getenv("GEMINI_API_KEY")
	cfg.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	cfg.AnthropicKey = os.Getenv("ANTHROPIC_API_KEY")
	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	cfg.TelegramChatID = os.Getenv("TELEGRAM_CHAT_ID")

	cfg.HistoryFilePath = getEnvOrDefault("HISTORY_FILE_PATH", "sent_articles.json")
	cfg.HistoryTTLHours = getEnvIntOrDefault("HISTORY_TTL_HOURS", 168)

	if v := os.Getenv("MAX_ARTICLES"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.MaxArticles = val
		}
	}
	if v := os.Getenv("MAX_CONCURRENT_SUMMARIES"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.MaxConcurrentSummaries = val
		}
	}
	if v := os.Getenv("MAX_AI_REQUESTS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.MaxAIRequests = val
		}
	}
	if v := os.Getenv("PER_SOURCE_CAP"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.PerSourceCap = val
		}
	}
	if v := os.Getenv("ENRICH_CONCURRENCY"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.EnrichConcurrency = val
		}
	}
	if v := os.Getenv("ENRICH_MAX_ARTICLES"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val >= 0 {
			cfg.EnrichMaxArticles = val
		}
	}
	if v := os.Getenv("REQUEST_TIMEOUT_SECONDS"); v != "" {
		if val, err := strconv.Atoi(v); err == nil && val > 0 {
			cfg.RequestTimeout = time.Duration(val) * time.Second
		}
	}
	if os.Getenv("DEBUG") == "true" {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

// LoadPreferences reads the user preferences YAML file.
func LoadPreferences(path string) (*Preferences, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var prefs Preferences
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&prefs); err != nil {
		return nil, err
	}
	return &prefs, nil
}

func (c *Config) applyPreferences(prefs *Preferences) {
	c.Topics = prefs.Topics
	c.Sources = prefs.Sources
	c.Feeds = prefs.Feeds

	if prefs.Content.MaxArticles > 0 {
		c.MaxArticles = prefs.Content.MaxArticles
	}
	if prefs.Content.MinArticles > 0 {
		c.MinArticles = prefs.Content.MinArticles
	}
	if prefs.Content.SummaryLength != "" {
		c.SummaryLength = prefs.Content.SummaryLength
	}
	if prefs.Content.MinRelevanceScore > 0 {
		c.MinRelevanceScore = prefs.Content.MinRelevanceScore
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func (c *Config) Validate() error {
	if len(c.Topics) == 0 {
		return fmt.Errorf("at least one topic is required")
	}
	if !c.HasAnyAIKey() {
		return fmt.Errorf("at least one AI backend key is required (GEMINI_API_KEY, OPENAI_API_KEY or ANTHROPIC_API_KEY)")
	}
	switch c.SummaryLength {
	case "short", "medium", "long":
	default:
		return fmt.Errorf("summary_length must be 'short', 'medium' or 'long', got %q", c.SummaryLength)
	}
	if c.MinRelevanceScore < 0 || c.MinRelevanceScore > 1 {
		return fmt.Errorf("min_relevance_score must be in [0,1], got %v", c.MinRelevanceScore)
	}
	return nil
}

// HasAnyAIKey reports whether at least one summarization backend is configured.
func (c *Config) HasAnyAIKey() bool {
	return c.GeminiKey != "" || c.OpenAIKey != "" || c.AnthropicKey != ""
}
