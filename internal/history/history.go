package history

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// SentArticle records one article that already went out in a digest.
type SentArticle struct {
	Hash     string    `json:"hash"`
	Title    string    `json:"title"`
	URL      string    `json:"url"`
	Category string    `json:"category"`
	SentAt   time.Time `json:"sent_at"`
	Source   string    `json:"source"`
}

// FileHistory keeps sent-article records in a JSON file with a TTL, so the
// same story is not delivered twice across runs. The pipeline itself stays
// stateless; this is the persistence collaborator consulted around it.
type FileHistory struct {
	filePath string
	ttlHours int
	items    map[string]SentArticle
	mu       sync.RWMutex
}

func NewFileHistory(filePath string, ttlHours int) *FileHistory {
	return &FileHistory{
		filePath: filePath,
		ttlHours: ttlHours,
		items:    make(map[string]SentArticle),
	}
}

// Load reads existing history from disk, dropping expired records.
func (h *FileHistory) Load() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := os.Stat(h.filePath); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(h.filePath)
	if err != nil {
		return fmt.Errorf("failed to read history file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var items []SentArticle
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to unmarshal history: %w", err)
	}

	cutoff := time.Now().Add(-time.Duration(h.ttlHours) * time.Hour)
	for _, item := range items {
		if item.SentAt.After(cutoff) {
			h.items[item.Hash] = item
		}
	}
	return nil
}

// Save writes the current history to disk.
func (h *FileHistory) Save() error {
	h.mu.RLock()
	items := make([]SentArticle, 0, len(h.items))
	for _, item := range h.items {
		items = append(items, item)
	}
	h.mu.RUnlock()

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := os.WriteFile(h.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return nil
}

// Hash builds a stable key from the normalized title and the URL's domain, so
// republished links with tracking parameters still match.
func (h *FileHistory) Hash(title, url string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(title))), " ")
	sum := sha256.Sum256([]byte(normalized + "|" + extractDomain(url)))
	return hex.EncodeToString(sum[:])[:16]
}

// WasSent reports whether an article with this hash went out within the TTL.
func (h *FileHistory) WasSent(hash string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	item, exists := h.items[hash]
	if !exists {
		return false
	}
	cutoff := time.Now().Add(-time.Duration(h.ttlHours) * time.Hour)
	return item.SentAt.After(cutoff)
}

// MarkSent records an article as delivered.
func (h *FileHistory) MarkSent(hash, title, url, category, source string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items[hash] = SentArticle{
		Hash:     hash,
		Title:    title,
		URL:      url,
		Category: category,
		SentAt:   time.Now(),
		Source:   source,
	}
}

// Cleanup drops expired records from memory.
func (h *FileHistory) Cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := time.Now().Add(-time.Duration(h.ttlHours) * time.Hour)
	for hash, item := range h.items {
		if item.SentAt.Before(cutoff) {
			delete(h.items, hash)
		}
	}
}

func (h *FileHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.items)
}

func extractDomain(url string) string {
	if url == "" {
		return "unknown"
	}

	url = strings.TrimPrefix(url, "http://")
	url = strings.TrimPrefix(url, "https://")

	parts := strings.Split(url, "/")
	domain := strings.TrimPrefix(parts[0], "www.")
	if domain == "" {
		return "unknown"
	}
	return strings.ToLower(domain)
}
