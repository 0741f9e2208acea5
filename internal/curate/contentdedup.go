package curate

import (
	"net/url"
	"strings"

	"newsdigest/internal/feed"
	"newsdigest/internal/metrics"
)

const descriptionSimilarityThreshold = 0.80

// DeduplicateByContent collapses articles that tell the same story. Two
// articles match when their titles are near-identical, their descriptions are
// near-identical, or they look like the same story republished by a different
// host. The article with the lower relevance score loses.
func DeduplicateByContent(articles []*feed.Article) []*feed.Article {
	if len(articles) <= 1 {
		return articles
	}

	var unique []*feed.Article

	for _, current := range articles {
		duplicate := false

		for i, existing := range unique {
			if !similarArticles(current, existing) {
				continue
			}
			if current.RelevanceScore > existing.RelevanceScore {
				unique = append(unique[:i], unique[i+1:]...)
				unique = append(unique, current)
			}
			metrics.Global.IncrementDuplicatesFiltered()
			duplicate = true
			break
		}

		if !duplicate {
			unique = append(unique, current)
		}
	}

	return unique
}

func similarArticles(a, b *feed.Article) bool {
	if Ratio(strings.ToLower(a.Title), strings.ToLower(b.Title)) > titleSimilarityThreshold {
		return true
	}

	if a.Description != "" && b.Description != "" {
		if Ratio(strings.ToLower(a.Description), strings.ToLower(b.Description)) > descriptionSimilarityThreshold {
			return true
		}
	}

	return sameStoryDifferentSource(a.URL, b.URL)
}

// sameStoryDifferentSource guesses that two URLs carry the same story when the
// hosts differ but the paths share at least two meaningful segments.
func sameStoryDifferentSource(rawURL1, rawURL2 string) bool {
	u1, err := url.Parse(rawURL1)
	if err != nil {
		return false
	}
	u2, err := url.Parse(rawURL2)
	if err != nil {
		return false
	}
	if u1.Host == u2.Host {
		return false
	}

	segments1 := pathSegments(u1.Path)
	common := 0
	for segment := range pathSegments(u2.Path) {
		if _, ok := segments1[segment]; ok {
			common++
		}
	}
	return common >= 2
}

// pathSegments keeps path components longer than 3 characters; short ones are
// too generic to signal a shared story.
func pathSegments(path string) map[string]struct{} {
	segments := make(map[string]struct{})
	for _, part := range strings.Split(path, "/") {
		if len(part) > 3 {
			segments[part] = struct{}{}
		}
	}
	return segments
}
