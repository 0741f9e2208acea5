package digest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"newsdigest/internal/cache"
	"newsdigest/internal/categorize"
	"newsdigest/internal/config"
	"newsdigest/internal/curate"
	"newsdigest/internal/enrich"
	"newsdigest/internal/feed"
	"newsdigest/internal/fetch"
	"newsdigest/internal/history"
	"newsdigest/internal/logger"
	"newsdigest/internal/metrics"
	"newsdigest/internal/ratelimit"
	"newsdigest/internal/summarize"
)

// How far back a run looks for articles.
const lookbackWindow = 24 * time.Hour

// When the first filter pass comes up short, the threshold drops by this much
// (down to a floor) and the pass reruns on the raw aggregate.
const (
	thresholdStep  = 0.2
	thresholdFloor = 0.3
)

// Result is what the pipeline hands to the delivery collaborator. It is
// always valid: zero survivors yield empty summaries and categories with the
// insufficient flag set, never an error.
type Result struct {
	Summaries            []*summarize.ArticleSummary
	Categories           map[string][]*summarize.ArticleSummary
	TotalArticles        int
	InsufficientArticles bool
	MinArticles          int
	GeneratedAt          time.Time
}

// Deliverer is the outbound collaborator that renders and transports the
// final digest. The pipeline never depends on a concrete transport.
type Deliverer interface {
	Deliver(ctx context.Context, result *Result) error
}

// Pipeline wires the full curation-and-summarization flow: concurrent fetch,
// dedup and scoring, enrichment, backend-chain summarization and grouping.
type Pipeline struct {
	cfg        *config.Config
	aggregator *fetch.Aggregator
	summarizer *summarize.Summarizer
	enricher   *enrich.Extractor
	history    *history.FileHistory
	deliverer  Deliverer
	gemini     *summarize.GeminiBackend
}

// New assembles the pipeline from configuration. The only fatal error here is
// having no summarization backend at all; everything else degrades at run
// time instead.
func New(ctx context.Context, cfg *config.Config) (*Pipeline, error) {
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}

	limiter := ratelimit.New(map[string]int{
		"newsapi":   100,
		"gemini":    cfg.MaxAIRequests,
		"openai":    cfg.MaxAIRequests,
		"anthropic": cfg.MaxAIRequests,
	}, 0, 24*time.Hour)

	adapters := []fetch.Adapter{
		fetch.NewNewsAPI(cfg.NewsAPIKey, httpClient, limiter),
		fetch.NewGuardian(cfg.GuardianKey, httpClient),
		fetch.NewRSS(cfg.Feeds),
	}

	p := &Pipeline{
		cfg:        cfg,
		aggregator: fetch.NewAggregator(adapters, cfg.PerSourceCap),
		enricher:   enrich.New(httpClient, cfg.EnrichConcurrency, cfg.EnrichMaxArticles),
	}

	var backends []summarize.Backend
	if cfg.GeminiKey != "" {
		gemini, err := summarize.NewGemini(ctx, cfg.GeminiKey)
		if err != nil {
			logger.Error("failed to create gemini backend", "error", err)
		} else {
			p.gemini = gemini
			backends = append(backends, gemini)
		}
	}
	if cfg.OpenAIKey != "" {
		backends = append(backends, summarize.NewOpenAI(cfg.OpenAIKey))
	}
	if cfg.AnthropicKey != "" {
		backends = append(backends, summarize.NewAnthropic(cfg.AnthropicKey, httpClient))
	}

	summarizer, err := summarize.NewSummarizer(backends,
		summarize.WithLimiter(limiter),
		summarize.WithCache(cache.New()),
		summarize.WithMaxConcurrent(cfg.MaxConcurrentSummaries),
	)
	if err != nil {
		return nil, fmt.Errorf("configuring summarizer: %w", err)
	}
	p.summarizer = summarizer

	if cfg.HistoryFilePath != "" {
		p.history = history.NewFileHistory(cfg.HistoryFilePath, cfg.HistoryTTLHours)
		if err := p.history.Load(); err != nil {
			logger.Warn("could not load sent-article history", "error", err)
		}
	}

	return p, nil
}

// SetDeliverer attaches the outbound collaborator. Without one the pipeline
// still runs and returns the result, it just goes nowhere.
func (p *Pipeline) SetDeliverer(d Deliverer) { p.deliverer = d }

// Close releases backend resources.
func (p *Pipeline) Close() {
	if p.gemini != nil {
		p.gemini.Close()
	}
}

// Run executes one full digest generation.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	started := time.Now()
	defer func() {
		metrics.Global.RecordProcessingTime(time.Since(started))
		metrics.Global.SetLastRun()
	}()

	since := time.Now().Add(-lookbackWindow)

	logger.Info("fetching articles", "topics", len(p.cfg.Topics), "sources", len(p.cfg.Sources))
	articles := p.aggregator.FetchAll(ctx, p.cfg.Topics, p.cfg.Sources, since)

	filtered := p.filterWithFallback(articles)
	filtered = curate.DeduplicateByContent(filtered)
	filtered = p.dropAlreadySent(filtered)

	if len(filtered) > p.cfg.MaxArticles {
		filtered = filtered[:p.cfg.MaxArticles]
	}
	logger.Info("articles after curation", "count", len(filtered))

	p.enricher.EnrichAll(ctx, filtered)

	summaries := p.summarizer.SummarizeAll(ctx, filtered, p.cfg.SummaryLength)

	result := &Result{
		Summaries:            summaries,
		Categories:           categorize.Group(summaries),
		TotalArticles:        len(summaries),
		InsufficientArticles: len(summaries) < p.cfg.MinArticles,
		MinArticles:          p.cfg.MinArticles,
		GeneratedAt:          time.Now(),
	}
	p.logStats(result)

	if p.deliverer != nil {
		if err := p.deliverer.Deliver(ctx, result); err != nil {
			metrics.Global.SetError(err.Error())
			return result, fmt.Errorf("delivering digest: %w", err)
		}
		p.recordSent(result)
	}

	return result, nil
}

// filterWithFallback runs the curation filter; when too few articles survive
// it retries once with a lowered relevance threshold on the raw aggregate.
func (p *Pipeline) filterWithFallback(articles []*feed.Article) []*feed.Article {
	filtered := curate.NewFilter(p.cfg.MinRelevanceScore).Filter(articles, p.cfg.Topics)
	if len(filtered) >= p.cfg.MinArticles {
		return filtered
	}

	lowered := p.cfg.MinRelevanceScore - thresholdStep
	if lowered < thresholdFloor {
		lowered = thresholdFloor
	}
	logger.Warn("too few articles, lowering relevance threshold",
		"found", len(filtered), "min", p.cfg.MinArticles, "threshold", lowered)

	return curate.NewFilter(lowered).Filter(articles, p.cfg.Topics)
}

// dropAlreadySent consults the cross-run history collaborator so the same
// story is not delivered twice.
func (p *Pipeline) dropAlreadySent(articles []*feed.Article) []*feed.Article {
	if p.history == nil {
		return articles
	}

	kept := articles[:0]
	for _, article := range articles {
		if p.history.WasSent(p.history.Hash(article.Title, article.URL)) {
			logger.Debug("already sent, skipping", "title", article.Title)
			continue
		}
		kept = append(kept, article)
	}
	return kept
}

func (p *Pipeline) recordSent(result *Result) {
	if p.history == nil {
		return
	}

	for _, summary := range result.Summaries {
		a := summary.Article
		p.history.MarkSent(p.history.Hash(a.Title, a.URL), a.Title, a.URL, summary.Category, a.Source)
	}
	if err := p.history.Save(); err != nil {
		logger.Warn("could not save sent-article history", "error", err)
	}
}

func (p *Pipeline) logStats(result *Result) {
	logger.Info("digest generated",
		"articles", result.TotalArticles,
		"categories", len(result.Categories),
		"insufficient", result.InsufficientArticles)

	for _, label := range categorize.Labels(result.Categories) {
		bucket := result.Categories[label]
		total := 0.0
		for _, s := range bucket {
			total += s.ImportanceScore
		}
		logger.Info("category", "label", label, "articles", len(bucket),
			"avg_importance", fmt.Sprintf("%.2f", total/float64(len(bucket))))
	}
}
