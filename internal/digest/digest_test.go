package digest

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdigest/internal/config"
	"newsdigest/internal/enrich"
	"newsdigest/internal/feed"
	"newsdigest/internal/fetch"
	"newsdigest/internal/history"
	"newsdigest/internal/summarize"
)

type stubAdapter struct {
	articles []*feed.Article
}

func (s *stubAdapter) Name() string  { return "stub" }
func (s *stubAdapter) Enabled() bool { return true }
func (s *stubAdapter) Fetch(context.Context, []string, []string, time.Time) ([]*feed.Article, error) {
	return s.articles, nil
}

type stubBackend struct{}

func (stubBackend) Name() string { return "stub" }
func (stubBackend) Summarize(_ context.Context, article *feed.Article, _ string) (*summarize.ArticleSummary, error) {
	return &summarize.ArticleSummary{
		Article:         article,
		BriefSummary:    "summary of " + article.Title,
		KeyPoints:       []string{"point"},
		Category:        "Technology",
		ImportanceScore: article.RelevanceScore,
		CreatedAt:       time.Now(),
	}, nil
}

type captureDeliverer struct {
	result *Result
	err    error
}

func (c *captureDeliverer) Deliver(_ context.Context, result *Result) error {
	c.result = result
	return c.err
}

func relevantArticle(i int) *feed.Article {
	titles := []string{
		"Artificial intelligence speeds up drug trials",
		"New chips built for artificial intelligence work",
		"Artificial intelligence tools reach rural schools",
		"Museums use artificial intelligence to restore art",
		"Farms adopt artificial intelligence for irrigation",
	}
	descriptions := []string{
		"Pharma companies report shorter trial timelines after adopting artificial intelligence screening.",
		"Semiconductor makers unveiled processors designed around artificial intelligence workloads.",
		"A pilot program brings artificial intelligence tutoring software to remote classrooms.",
		"Conservators pair artificial intelligence imaging with manual restoration techniques.",
		"Growers cut water use sharply with artificial intelligence driven irrigation scheduling.",
	}
	return &feed.Article{
		Title:       titles[i%len(titles)],
		Description: descriptions[i%len(descriptions)],
		// Unroutable host, so enrichment fails fast and keeps the description.
		URL:         fmt.Sprintf("http://127.0.0.1:1/story-%d", i),
		Source:      fmt.Sprintf("Source %d", i),
		PublishedAt: time.Now().Add(-time.Duration(i+1) * time.Hour),
	}
}

func testPipeline(t *testing.T, cfg *config.Config, articles []*feed.Article) *Pipeline {
	t.Helper()

	summarizer, err := summarize.NewSummarizer([]summarize.Backend{stubBackend{}})
	require.NoError(t, err)

	return &Pipeline{
		cfg:        cfg,
		aggregator: fetch.NewAggregator([]fetch.Adapter{&stubAdapter{articles: articles}}, cfg.PerSourceCap),
		summarizer: summarizer,
		enricher:   enrich.New(&http.Client{Timeout: 100 * time.Millisecond}, 2, 2),
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Topics:            []string{"artificial intelligence"},
		MaxArticles:       10,
		MinArticles:       2,
		SummaryLength:     "medium",
		MinRelevanceScore: 0.6,
		PerSourceCap:      3,
	}
}

func TestRunProducesResult(t *testing.T) {
	articles := make([]*feed.Article, 0, 5)
	for i := 0; i < 5; i++ {
		articles = append(articles, relevantArticle(i))
	}

	p := testPipeline(t, testConfig(), articles)
	delivered := &captureDeliverer{}
	p.SetDeliverer(delivered)

	result, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 5, result.TotalArticles)
	assert.False(t, result.InsufficientArticles)
	assert.Len(t, result.Categories["Technology"], 5)
	assert.Same(t, result, delivered.result)
}

func TestRunEmptySourcesStillYieldsResult(t *testing.T) {
	p := testPipeline(t, testConfig(), nil)

	result, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.Zero(t, result.TotalArticles)
	assert.True(t, result.InsufficientArticles)
	assert.Empty(t, result.Summaries)
}

func TestRunRespectsMaxArticles(t *testing.T) {
	articles := make([]*feed.Article, 0, 5)
	for i := 0; i < 5; i++ {
		articles = append(articles, relevantArticle(i))
	}

	cfg := testConfig()
	cfg.MaxArticles = 2
	p := testPipeline(t, cfg, articles)

	result, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalArticles)
}

func TestRunDeliveryFailureIsReported(t *testing.T) {
	p := testPipeline(t, testConfig(), []*feed.Article{relevantArticle(0), relevantArticle(1)})
	p.SetDeliverer(&captureDeliverer{err: fmt.Errorf("telegram unreachable")})

	result, err := p.Run(context.Background())

	require.Error(t, err)
	assert.NotNil(t, result)
}

func TestRunSkipsAlreadySentArticles(t *testing.T) {
	articles := []*feed.Article{relevantArticle(0), relevantArticle(1), relevantArticle(2)}

	h := history.NewFileHistory(filepath.Join(t.TempDir(), "sent.json"), 168)
	sent := articles[0]
	h.MarkSent(h.Hash(sent.Title, sent.URL), sent.Title, sent.URL, "Technology", sent.Source)

	p := testPipeline(t, testConfig(), articles)
	p.history = h

	result, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalArticles)
	for _, summary := range result.Summaries {
		assert.NotEqual(t, sent.URL, summary.Article.URL)
	}
}

func TestRunRecordsSentAfterDelivery(t *testing.T) {
	articles := []*feed.Article{relevantArticle(0), relevantArticle(1)}

	p := testPipeline(t, testConfig(), articles)
	p.history = history.NewFileHistory(filepath.Join(t.TempDir(), "sent.json"), 168)
	p.SetDeliverer(&captureDeliverer{})

	_, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, p.history.Len())
}

func TestFilterWithFallbackLowersThreshold(t *testing.T) {
	// Only one topic word appears, so the score stays below a strict
	// threshold but above the lowered one.
	article := &feed.Article{
		Title:       "Quantum sensors leave the laboratory",
		Description: "Field tests put quantum devices into bridges and pipelines.",
		URL:         "https://example.com/quantum-sensors",
		Source:      "Wire",
		PublishedAt: time.Now().Add(-1 * time.Hour),
	}

	cfg := testConfig()
	cfg.Topics = []string{"quantum computing"}
	cfg.MinRelevanceScore = 0.9
	cfg.MinArticles = 1
	p := testPipeline(t, cfg, nil)

	filtered := p.filterWithFallback([]*feed.Article{article})

	require.Len(t, filtered, 1)
	assert.Less(t, filtered[0].RelevanceScore, 0.9)
}

func TestNewRequiresABackend(t *testing.T) {
	cfg := testConfig()
	cfg.HistoryFilePath = filepath.Join(t.TempDir(), "sent.json")

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewBuildsPipeline(t *testing.T) {
	cfg := testConfig()
	cfg.AnthropicKey = "test-key"
	cfg.HistoryFilePath = filepath.Join(t.TempDir(), "sent.json")
	cfg.RequestTimeout = 5 * time.Second

	p, err := New(context.Background(), cfg)

	require.NoError(t, err)
	assert.NotNil(t, p.summarizer)
	assert.NotNil(t, p.aggregator)
	p.Close()
}
