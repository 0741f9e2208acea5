package summarize

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"newsdigest/internal/feed"
)

// Section labels the backends are prompted to emit.
const (
	summaryLabel    = "SUMMARY:"
	keyPointsLabel  = "KEY_POINTS:"
	categoryLabel   = "CATEGORY:"
	importanceLabel = "IMPORTANCE:"
)

// ParseResponse turns a backend's free-text reply into a structured summary.
// It never fails: a missing summary falls back to the article description, a
// missing key-point list to source+date, an unparsable importance to 0.5, and
// the importance score is clamped to [0,1] whatever the model wrote. Key
// points are picked up from bullet lines or from bare lines inside the
// KEY_POINTS section.
func ParseResponse(article *feed.Article, responseText string) *ArticleSummary {
	var (
		summary    string
		keyPoints  []string
		category   = "General"
		importance = 0.5
	)

	currentSection := ""

	for _, raw := range strings.Split(responseText, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, summaryLabel):
			summary = strings.TrimSpace(strings.TrimPrefix(line, summaryLabel))
			currentSection = "summary"

		case strings.HasPrefix(line, keyPointsLabel):
			currentSection = "key_points"
			if rest := strings.TrimSpace(strings.TrimPrefix(line, keyPointsLabel)); rest != "" {
				keyPoints = append(keyPoints, rest)
			}

		case strings.HasPrefix(line, categoryLabel):
			if c := strings.TrimSpace(strings.TrimPrefix(line, categoryLabel)); c != "" {
				category = c
			}
			currentSection = ""

		case strings.HasPrefix(line, importanceLabel):
			raw := strings.TrimSpace(strings.TrimPrefix(line, importanceLabel))
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				importance = v
			} else {
				importance = 0.5
			}
			currentSection = ""

		case isBulletLine(line):
			if currentSection == "key_points" || currentSection == "" {
				keyPoints = append(keyPoints, trimBullet(line))
			}

		case currentSection == "key_points":
			keyPoints = append(keyPoints, line)

		case currentSection == "summary":
			summary = strings.TrimSpace(summary + " " + line)
		}
	}

	if summary == "" {
		summary = truncateDescription(article.Description)
	}
	if len(keyPoints) == 0 {
		keyPoints = defaultKeyPoints(article)
	}

	return &ArticleSummary{
		Article:         article,
		BriefSummary:    summary,
		KeyPoints:       keyPoints,
		Category:        category,
		ImportanceScore: clampImportance(importance),
		CreatedAt:       time.Now(),
	}
}

func isBulletLine(line string) bool {
	return strings.HasPrefix(line, "•") ||
		strings.HasPrefix(line, "-") ||
		strings.HasPrefix(line, "*")
}

func trimBullet(line string) string {
	return strings.TrimSpace(strings.TrimLeft(line, "•-* "))
}

func truncateDescription(description string) string {
	if len(description) > 200 {
		return cutAtRuneBoundary(description, 200) + "..."
	}
	return description
}

// cutAtRuneBoundary cuts s to at most limit bytes without splitting a rune.
func cutAtRuneBoundary(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}

func defaultKeyPoints(article *feed.Article) []string {
	return []string{
		"Source: " + article.Source,
		"Published: " + article.PublishedUTC().Format("2006-01-02"),
	}
}

func clampImportance(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
