package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashNormalizesTitleAndDomain(t *testing.T) {
	h := NewFileHistory("unused.json", 168)

	a := h.Hash("Fed Raises Rates", "https://www.example.com/fed-rates?utm_source=feed")
	b := h.Hash("  fed   raises rates ", "http://example.com/fed-rates-republished")

	assert.Equal(t, a, b)
	assert.Len(t, a, 16)
}

func TestHashDiffersAcrossDomains(t *testing.T) {
	h := NewFileHistory("unused.json", 168)

	a := h.Hash("Fed Raises Rates", "https://site-a.com/story")
	b := h.Hash("Fed Raises Rates", "https://site-b.com/story")

	assert.NotEqual(t, a, b)
}

func TestMarkSentAndWasSent(t *testing.T) {
	h := NewFileHistory(filepath.Join(t.TempDir(), "sent.json"), 168)

	hash := h.Hash("Some headline", "https://example.com/story")
	assert.False(t, h.WasSent(hash))

	h.MarkSent(hash, "Some headline", "https://example.com/story", "Technology", "Wire")
	assert.True(t, h.WasSent(hash))
	assert.Equal(t, 1, h.Len())
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sent.json")

	h := NewFileHistory(path, 168)
	hash := h.Hash("Persisted headline", "https://example.com/persisted")
	h.MarkSent(hash, "Persisted headline", "https://example.com/persisted", "Science", "Wire")
	require.NoError(t, h.Save())

	reloaded := NewFileHistory(path, 168)
	require.NoError(t, reloaded.Load())

	assert.True(t, reloaded.WasSent(hash))
	assert.Equal(t, 1, reloaded.Len())
}

func TestLoadDropsExpiredRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sent.json")

	data := `[
		{"hash": "expired0expired0", "title": "Old story", "url": "https://example.com/old", "category": "General", "sent_at": "` + time.Now().Add(-200*time.Hour).Format(time.RFC3339) + `", "source": "Wire"},
		{"hash": "fresh000fresh000", "title": "New story", "url": "https://example.com/new", "category": "General", "sent_at": "` + time.Now().Add(-1*time.Hour).Format(time.RFC3339) + `", "source": "Wire"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	h := NewFileHistory(path, 168)
	require.NoError(t, h.Load())

	assert.Equal(t, 1, h.Len())
	assert.True(t, h.WasSent("fresh000fresh000"))
	assert.False(t, h.WasSent("expired0expired0"))
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	h := NewFileHistory(filepath.Join(t.TempDir(), "does-not-exist.json"), 168)
	assert.NoError(t, h.Load())
	assert.Equal(t, 0, h.Len())
}

func TestCleanup(t *testing.T) {
	h := NewFileHistory("unused.json", 1)

	h.MarkSent("somehash12345678", "Headline", "https://example.com/x", "General", "Wire")
	h.Cleanup()
	assert.Equal(t, 1, h.Len())

	// Backdate the record past the TTL, then cleanup drops it.
	h.mu.Lock()
	item := h.items["somehash12345678"]
	item.SentAt = time.Now().Add(-2 * time.Hour)
	h.items["somehash12345678"] = item
	h.mu.Unlock()

	h.Cleanup()
	assert.Equal(t, 0, h.Len())
}
