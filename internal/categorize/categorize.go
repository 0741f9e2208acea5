package categorize

import (
	"sort"

	"newsdigest/internal/summarize"
)

// Group buckets summaries by their category label and orders each bucket by
// importance descending, keeping insertion order for ties. Labels come from
// the summaries themselves; nothing is predeclared, and every summary lands
// in exactly one bucket.
func Group(summaries []*summarize.ArticleSummary) map[string][]*summarize.ArticleSummary {
	grouped := make(map[string][]*summarize.ArticleSummary)

	for _, summary := range summaries {
		grouped[summary.Category] = append(grouped[summary.Category], summary)
	}

	for _, bucket := range grouped {
		sort.SliceStable(bucket, func(i, j int) bool {
			return bucket[i].ImportanceScore > bucket[j].ImportanceScore
		})
	}

	return grouped
}

// Labels returns the category labels sorted alphabetically, for deterministic
// rendering of the grouped digest.
func Labels(grouped map[string][]*summarize.ArticleSummary) []string {
	labels := make([]string, 0, len(grouped))
	for label := range grouped {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
