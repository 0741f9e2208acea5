package fetch

import (
	"context"
	"sort"
	"sync"
	"time"

	"newsdigest/internal/feed"
	"newsdigest/internal/logger"
	"newsdigest/internal/metrics"
)

// Adapter translates one external source's records into Articles. Fetch never
// fails the run for a single malformed record; adapters skip and log those.
// A disabled adapter (missing credential) returns no articles and no error.
type Adapter interface {
	Name() string
	Enabled() bool
	Fetch(ctx context.Context, topics, sources []string, since time.Time) ([]*feed.Article, error)
}

// Aggregator fans out to all enabled adapters concurrently and merges their
// results, then caps how many articles a single source name may contribute.
type Aggregator struct {
	adapters     []Adapter
	perSourceCap int
}

func NewAggregator(adapters []Adapter, perSourceCap int) *Aggregator {
	if perSourceCap <= 0 {
		perSourceCap = 3
	}
	return &Aggregator{adapters: adapters, perSourceCap: perSourceCap}
}

// FetchAll runs every enabled adapter concurrently. One adapter failing is
// logged and contributes nothing; the rest still count.
func (a *Aggregator) FetchAll(ctx context.Context, topics, sources []string, since time.Time) []*feed.Article {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		all []*feed.Article
	)

	for _, adapter := range a.adapters {
		if !adapter.Enabled() {
			logger.Debug("adapter disabled, skipping", "adapter", adapter.Name())
			continue
		}

		wg.Add(1)
		go func(ad Adapter) {
			defer wg.Done()

			articles, err := ad.Fetch(ctx, topics, sources, since)
			if err != nil {
				logger.Error("adapter fetch failed", "adapter", ad.Name(), "error", err)
				return
			}
			logger.Info("adapter fetched", "adapter", ad.Name(), "articles", len(articles))

			mu.Lock()
			all = append(all, articles...)
			mu.Unlock()
		}(adapter)
	}

	wg.Wait()

	metrics.Global.AddArticlesFetched(len(all))
	capped := capPerSource(all, a.perSourceCap)
	logger.Info("aggregated articles", "fetched", len(all), "after_cap", len(capped))
	return capped
}

// capPerSource keeps at most maxPerSource articles per source name, preferring
// the most recent ones. Naive timestamps compare as UTC.
func capPerSource(articles []*feed.Article, maxPerSource int) []*feed.Article {
	sorted := make([]*feed.Article, len(articles))
	copy(sorted, articles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PublishedUTC().After(sorted[j].PublishedUTC())
	})

	counts := make(map[string]int)
	kept := make([]*feed.Article, 0, len(sorted))
	for _, article := range sorted {
		if counts[article.Source] >= maxPerSource {
			continue
		}
		kept = append(kept, article)
		counts[article.Source]++
	}
	return kept
}
