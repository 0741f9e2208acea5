package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"newsdigest/internal/feed"
)

const articlePage = `<!DOCTYPE html>
<html>
<body>
<article>
<p>This is the first paragraph of the article body with plenty of detail about the story being covered here.</p>
<p>The second paragraph continues the story and adds several supporting facts that readers would care about.</p>
<p>A third paragraph closes out the piece with reactions, context and a note on what might happen next week.</p>
</article>
</body>
</html>`

func TestEnrichAllReplacesContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(articlePage))
	}))
	defer server.Close()

	article := &feed.Article{
		Title:   "Story with a full page available",
		URL:     server.URL,
		Content: "short feed snippet",
	}

	New(server.Client(), 2, 5).EnrichAll(context.Background(), []*feed.Article{article})

	assert.Contains(t, article.Content, "first paragraph of the article body")
	assert.Greater(t, len(article.Content), minUsefulContent)
}

func TestEnrichAllKeepsContentOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	article := &feed.Article{
		Title:   "Story behind a broken link",
		URL:     server.URL,
		Content: "original feed snippet",
	}

	New(server.Client(), 2, 5).EnrichAll(context.Background(), []*feed.Article{article})

	assert.Equal(t, "original feed snippet", article.Content)
}

func TestEnrichAllIgnoresThinPages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><p>Just one short line here.</p></body></html>"))
	}))
	defer server.Close()

	article := &feed.Article{
		Title:   "Story with an empty page",
		URL:     server.URL,
		Content: "feed snippet stays",
	}

	New(server.Client(), 2, 5).EnrichAll(context.Background(), []*feed.Article{article})

	assert.Equal(t, "feed snippet stays", article.Content)
}

func TestEnrichAllHonorsMaxArticles(t *testing.T) {
	hits := make(map[string]bool)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits[r.URL.Path] = true
		w.Write([]byte(articlePage))
	}))
	defer server.Close()

	articles := []*feed.Article{
		{Title: "First story for extraction", URL: server.URL + "/one"},
		{Title: "Second story for extraction", URL: server.URL + "/two"},
		{Title: "Third story left untouched", URL: server.URL + "/three"},
	}

	New(server.Client(), 1, 2).EnrichAll(context.Background(), articles)

	assert.True(t, hits["/one"])
	assert.True(t, hits["/two"])
	assert.False(t, hits["/three"])
	assert.Empty(t, articles[2].Content)
}

func TestExtractTruncatesLongPages(t *testing.T) {
	// Three-byte runes guarantee the byte limit falls inside a rune.
	paragraph := strings.Repeat("€", 40)
	var b strings.Builder
	b.WriteString("<html><body><article>")
	for i := 0; i < 200; i++ {
		b.WriteString("<p>" + paragraph + "</p>")
	}
	b.WriteString("</article></body></html>")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(b.String()))
	}))
	defer server.Close()

	content, err := New(server.Client(), 1, 0).extract(context.Background(), server.URL)

	assert.NoError(t, err)
	assert.LessOrEqual(t, len(content), maxContentChars)
	assert.True(t, utf8.ValidString(content))
}
