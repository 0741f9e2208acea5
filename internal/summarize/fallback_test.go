package summarize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsdigest/internal/feed"
)

func TestFallbackSummary(t *testing.T) {
	article := &feed.Article{
		Title:          "New AI software ships to developers",
		Description:    "A widely used development platform added machine learning features.",
		URL:            "https://example.com/ai-ship",
		Source:         "Dev Weekly",
		PublishedAt:    time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC),
		RelevanceScore: 0.72,
	}

	summary := FallbackSummary(article, nil)

	assert.Equal(t, article.Description, summary.BriefSummary)
	require.Len(t, summary.KeyPoints, 3)
	assert.Equal(t, "Source: Dev Weekly", summary.KeyPoints[0])
	assert.Equal(t, "Published: 2025-06-15 14:30", summary.KeyPoints[1])
	assert.Equal(t, "Technology", summary.Category)
	assert.Equal(t, 0.72, summary.ImportanceScore)
}

func TestFallbackImportanceClamped(t *testing.T) {
	article := &feed.Article{
		Title:          "Headline with an out of range score",
		Description:    "Description text for the clamping check.",
		Source:         "Wire",
		PublishedAt:    time.Now(),
		RelevanceScore: 1.7,
	}

	summary := FallbackSummary(article, nil)

	assert.Equal(t, 1.0, summary.ImportanceScore)
}

func TestCategorize(t *testing.T) {
	cases := []struct {
		name  string
		title string
		desc  string
		want  string
	}{
		{"technology", "New software platform launches", "The app targets internet companies.", "Technology"},
		{"science", "Climate study published", "Scientists present new research on warming.", "Science"},
		{"health", "Hospital trial shows promise", "The treatment reduced symptoms in patients.", "Health"},
		{"sports", "Championship final set", "The team advanced after a dramatic game.", "Sports"},
		{"no match", "Quiet day in the village", "Nothing notable occurred anywhere nearby.", "General"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			article := &feed.Article{Title: tc.title, Description: tc.desc}
			assert.Equal(t, tc.want, categorize(article, nil))
		})
	}
}

func TestCategorizeFirstRuleWins(t *testing.T) {
	// Matches both Technology ("ai") and Business ("market"); rule order decides.
	article := &feed.Article{
		Title:       "AI trading tools reshape the stock market",
		Description: "Financial firms adopt machine learning for trades.",
	}

	assert.Equal(t, "Technology", categorize(article, nil))
}

func TestCategorizeCustomRules(t *testing.T) {
	rules := []CategoryRule{
		{"Gardening", []string{"tomato", "soil"}},
	}
	article := &feed.Article{Title: "Best soil mixes for raised beds", Description: "Compost ratios compared."}

	assert.Equal(t, "Gardening", categorize(article, rules))
}
