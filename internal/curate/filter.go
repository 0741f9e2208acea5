package curate

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"newsdigest/internal/feed"
	"newsdigest/internal/logger"
	"newsdigest/internal/metrics"
)

const (
	titleSimilarityThreshold = 0.85

	minTitleLen       = 10
	minDescriptionLen = 20

	recencyBoostWindow = 12 * time.Hour
)

// lowQualityMarkers reject an article outright when found in title+description.
var lowQualityMarkers = []string{
	"[removed]",
	"[deleted]",
	"sign up",
	"subscribe now",
	"paywall",
}

// Filter deduplicates, scores and quality-checks articles against a topic
// list. Seen-URL/title state lives inside a single Filter call; a fresh call
// starts clean, so concurrent pipelines each use their own pass.
type Filter struct {
	minScore float64
	now      func() time.Time
}

func NewFilter(minScore float64) *Filter {
	return &Filter{
		minScore: minScore,
		now:      time.Now,
	}
}

// Filter returns the surviving articles sorted by (relevance desc, recency
// desc). Each survivor's RelevanceScore has been set.
func (f *Filter) Filter(articles []*feed.Article, topics []string) []*feed.Article {
	seenURLs := make(map[string]struct{})
	var seenTitles []string

	var filtered []*feed.Article

	for _, article := range articles {
		if f.isDuplicate(article, seenURLs, seenTitles) {
			logger.Debug("duplicate article", "title", article.Title)
			metrics.Global.IncrementDuplicatesFiltered()
			continue
		}

		article.RelevanceScore = f.relevance(article, topics)

		if article.RelevanceScore < f.minScore {
			metrics.Global.IncrementArticlesRejected()
			continue
		}

		if !goodQuality(article) {
			logger.Debug("low quality article", "title", article.Title)
			metrics.Global.IncrementArticlesRejected()
			continue
		}

		filtered = append(filtered, article)
		seenURLs[article.URL] = struct{}{}
		seenTitles = append(seenTitles, normalizeTitle(article.Title))
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].RelevanceScore != filtered[j].RelevanceScore {
			return filtered[i].RelevanceScore > filtered[j].RelevanceScore
		}
		return filtered[i].PublishedUTC().After(filtered[j].PublishedUTC())
	})

	return filtered
}

func (f *Filter) isDuplicate(article *feed.Article, seenURLs map[string]struct{}, seenTitles []string) bool {
	if _, dup := seenURLs[article.URL]; dup {
		return true
	}

	title := normalizeTitle(article.Title)
	for _, seen := range seenTitles {
		if Ratio(title, seen) > titleSimilarityThreshold {
			return true
		}
	}
	return false
}

// relevance scores an article against the full topic list. Per topic word:
// +1 for a verbatim occurrence anywhere in title+description+content, +0.5
// for a word-boundary-prefixed variant (plurals, compounds). The topic score
// is capped at 1, the overall score is the mean across topics, then boosted
// for verbatim topic mentions in the title and for recency.
func (f *Filter) relevance(article *feed.Article, topics []string) float64 {
	if len(topics) == 0 {
		return 0
	}

	text := article.SearchText()
	score := 0.0

	for _, topic := range topics {
		words := strings.Fields(strings.ToLower(topic))
		if len(words) == 0 {
			continue
		}

		matches := 0.0
		for _, word := range words {
			if strings.Contains(text, word) {
				matches += 1.0
			}
			re := regexp.MustCompile(`\b` + regexp.QuoteMeta(word) + `\w*`)
			if re.MatchString(text) {
				matches += 0.5
			}
		}

		topicScore := matches / float64(len(words))
		if topicScore > 1.0 {
			topicScore = 1.0
		}
		score += topicScore
	}
	score /= float64(len(topics))

	titleLower := strings.ToLower(article.Title)
	for _, topic := range topics {
		if strings.Contains(titleLower, strings.ToLower(topic)) {
			score = clamp01(score + 0.2)
		}
	}

	// Recency boost; a broken timestamp just skips it.
	published := article.PublishedUTC()
	if !published.IsZero() && f.now().UTC().Sub(published) < recencyBoostWindow {
		score = clamp01(score + 0.1)
	}

	return clamp01(score)
}

func goodQuality(article *feed.Article) bool {
	if len(strings.TrimSpace(article.Title)) < minTitleLen {
		return false
	}
	if len(strings.TrimSpace(article.Description)) < minDescriptionLen {
		return false
	}

	fullText := strings.ToLower(article.Title + " " + article.Description)
	for _, marker := range lowQualityMarkers {
		if strings.Contains(fullText, marker) {
			return false
		}
	}
	return true
}

func normalizeTitle(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
