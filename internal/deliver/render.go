package deliver

import (
	"context"
	"fmt"
	"html"
	"strings"

	"newsdigest/internal/categorize"
	"newsdigest/internal/digest"
	"newsdigest/internal/summarize"
)

// DigestDeliverer renders a digest result to Telegram HTML and sends it.
type DigestDeliverer struct {
	Sender *TelegramSender
}

func (d *DigestDeliverer) Deliver(ctx context.Context, result *digest.Result) error {
	msg := RenderDigest(result, 0)

	// Telegram rejects over-long messages; retry the render with fewer
	// articles per category until it fits.
	for perCategory := 3; len(msg) > messageLimit && perCategory >= 1; perCategory-- {
		msg = RenderDigest(result, perCategory)
	}

	return d.Sender.SendMessage(ctx, msg)
}

// RenderDigest formats the grouped summaries as a Telegram HTML message.
// perCategory limits articles per category; 0 means no limit.
func RenderDigest(result *digest.Result, perCategory int) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📰 <b>Daily News Digest</b> — %s\n", result.GeneratedAt.Format("January 2, 2006")))
	b.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	if len(result.Summaries) == 0 {
		b.WriteString("No articles matched your interests today.\n")
		b.WriteString(fmt.Sprintf("We aim for at least %d articles, but sources were limited.\n", result.MinArticles))
		return b.String()
	}

	if result.InsufficientArticles {
		b.WriteString(fmt.Sprintf("<i>Only %d of the usual %d articles today — sources were quiet.</i>\n\n",
			result.TotalArticles, result.MinArticles))
	}

	for _, label := range categorize.Labels(result.Categories) {
		bucket := result.Categories[label]
		b.WriteString(fmt.Sprintf("%s <b>%s</b>\n\n", categoryEmoji(label), html.EscapeString(strings.ToUpper(label))))

		for i, summary := range bucket {
			if perCategory > 0 && i >= perCategory {
				break
			}
			b.WriteString(renderSummary(summary))
		}
	}

	b.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	b.WriteString(fmt.Sprintf("📊 %d articles across %d categories", result.TotalArticles, len(result.Categories)))

	return b.String()
}

func renderSummary(summary *summarize.ArticleSummary) string {
	var b strings.Builder

	a := summary.Article
	b.WriteString(fmt.Sprintf("• <a href=\"%s\">%s</a> <i>(%s)</i>\n",
		a.URL, html.EscapeString(a.Title), html.EscapeString(a.Source)))

	if summary.BriefSummary != "" {
		b.WriteString(html.EscapeString(summary.BriefSummary))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	return b.String()
}

func categoryEmoji(label string) string {
	switch label {
	case "Technology":
		return "💻"
	case "Science":
		return "🔬"
	case "Business":
		return "💼"
	case "Health":
		return "🏥"
	case "Politics":
		return "🏛"
	case "Sports":
		return "🏅"
	case "Entertainment":
		return "🎬"
	default:
		return "📰"
	}
}
