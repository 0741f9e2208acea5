package summarize

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"newsdigest/internal/cache"
	"newsdigest/internal/feed"
	"newsdigest/internal/logger"
	"newsdigest/internal/metrics"
	"newsdigest/internal/ratelimit"
)

const defaultMaxConcurrent = 5

const summaryCacheTTL = 24 * time.Hour

// Summarizer walks an ordered backend chain for each article under a bounded
// concurrency limit. The chain order encodes preference (cheapest first); when
// every backend fails the deterministic fallback still produces a summary, so
// a batch never comes back short.
type Summarizer struct {
	backends      []Backend
	categoryRules []CategoryRule
	limiter       *ratelimit.Limiter
	cache         *cache.Cache
	maxConcurrent int
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithLimiter budgets backend calls per provider name.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(s *Summarizer) { s.limiter = l }
}

// WithCache reuses summaries for articles with identical title+content.
func WithCache(c *cache.Cache) Option {
	return func(s *Summarizer) { s.cache = c }
}

// WithCategoryRules overrides the fallback categorization table.
func WithCategoryRules(rules []CategoryRule) Option {
	return func(s *Summarizer) { s.categoryRules = rules }
}

// WithMaxConcurrent bounds in-flight summarization calls.
func WithMaxConcurrent(n int) Option {
	return func(s *Summarizer) {
		if n > 0 {
			s.maxConcurrent = n
		}
	}
}

// NewSummarizer requires at least one backend; having none is the single
// configuration error the pipeline does not self-heal.
func NewSummarizer(backends []Backend, opts ...Option) (*Summarizer, error) {
	if len(backends) == 0 {
		return nil, fmt.Errorf("at least one summarization backend must be configured")
	}

	s := &Summarizer{
		backends:      backends,
		categoryRules: DefaultCategoryRules,
		maxConcurrent: defaultMaxConcurrent,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SummarizeAll summarizes every article, at most maxConcurrent in flight, and
// returns the summaries sorted by importance descending. Individual task
// failures are logged and excluded rather than aborting the batch.
func (s *Summarizer) SummarizeAll(ctx context.Context, articles []*feed.Article, length string) []*ArticleSummary {
	if len(articles) == 0 {
		return nil
	}

	results := make([]*ArticleSummary, len(articles))
	sem := make(chan struct{}, s.maxConcurrent)
	var wg sync.WaitGroup

	for i, article := range articles {
		wg.Add(1)
		go func(idx int, a *feed.Article) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx] = s.summarizeOne(ctx, a, length)
		}(i, article)
	}
	wg.Wait()

	summaries := make([]*ArticleSummary, 0, len(results))
	for _, summary := range results {
		if summary != nil {
			summaries = append(summaries, summary)
		}
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].ImportanceScore > summaries[j].ImportanceScore
	})

	return summaries
}

// summarizeOne tries each backend in order and falls back deterministically.
func (s *Summarizer) summarizeOne(ctx context.Context, article *feed.Article, length string) *ArticleSummary {
	if cached := s.cachedSummary(article); cached != nil {
		logger.Debug("summary cache hit", "title", article.Title)
		return cached
	}

	for _, backend := range s.backends {
		if s.limiter != nil && !s.limiter.Allow(backend.Name()) {
			continue
		}
		if s.limiter != nil {
			if err := s.limiter.Use(backend.Name()); err != nil {
				continue
			}
		}

		summary, err := backend.Summarize(ctx, article, length)
		if err != nil {
			logger.Warn("backend summarization failed", "backend", backend.Name(), "title", article.Title, "error", err)
			metrics.Global.IncrementBackendFailures()
			continue
		}

		metrics.Global.IncrementSummariesGenerated()
		s.storeSummary(article, summary)
		return summary
	}

	logger.Warn("all backends failed, using fallback summary", "title", article.Title)
	metrics.Global.IncrementFallbackSummaries()
	return FallbackSummary(article, s.categoryRules)
}

func (s *Summarizer) cachedSummary(article *feed.Article) *ArticleSummary {
	if s.cache == nil {
		return nil
	}

	value, ok := s.cache.Get(s.cache.GenerateKey(article.Title, article.Content))
	if !ok {
		return nil
	}
	cached, ok := value.(*ArticleSummary)
	if !ok {
		return nil
	}

	// Rebind to the article from this run; the analysis fields carry over.
	clone := *cached
	clone.Article = article
	return &clone
}

func (s *Summarizer) storeSummary(article *feed.Article, summary *ArticleSummary) {
	if s.cache == nil {
		return
	}
	s.cache.Set(s.cache.GenerateKey(article.Title, article.Content), summary, summaryCacheTTL)
}
