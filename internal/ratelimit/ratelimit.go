package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"newsdigest/internal/logger"
)

// Limiter tracks per-name request budgets over a rolling reset window.
// A limit of 0 means unlimited for that name; maxTotal 0 means no shared cap.
type Limiter struct {
	mu        sync.Mutex
	counts    map[string]int
	limits    map[string]int
	total     int
	maxTotal  int
	window    time.Duration
	resetTime time.Time
}

// New creates a limiter with per-name limits and an optional shared total cap.
func New(limits map[string]int, maxTotal int, window time.Duration) *Limiter {
	l := &Limiter{
		counts:   make(map[string]int),
		limits:   make(map[string]int, len(limits)),
		maxTotal: maxTotal,
		window:   window,
	}
	for name, limit := range limits {
		l.limits[name] = limit
	}
	l.resetTime = time.Now().Add(window)
	return l
}

// Allow reports whether a request under the given name would stay in budget.
func (l *Limiter) Allow(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.checkReset()

	if limit := l.limits[name]; limit > 0 && l.counts[name] >= limit {
		logger.Warn("rate limit reached", "name", name, "used", l.counts[name], "limit", limit)
		return false
	}
	if l.maxTotal > 0 && l.total >= l.maxTotal {
		logger.Warn("total rate limit reached", "used", l.total, "limit", l.maxTotal)
		return false
	}
	return true
}

// Use consumes one request from the budget for name.
func (l *Limiter) Use(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.checkReset()

	if limit := l.limits[name]; limit > 0 && l.counts[name] >= limit {
		return fmt.Errorf("%s rate limit exceeded (%d/%d)", name, l.counts[name], limit)
	}
	if l.maxTotal > 0 && l.total >= l.maxTotal {
		return fmt.Errorf("total rate limit exceeded (%d/%d)", l.total, l.maxTotal)
	}

	l.counts[name]++
	l.total++
	return nil
}

// Stats returns current usage per name plus the shared total.
func (l *Limiter) Stats() map[string]interface{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := make(map[string]interface{}, len(l.counts)+3)
	for name, count := range l.counts {
		stats[name+"_used"] = count
		stats[name+"_limit"] = l.limits[name]
	}
	stats["total_used"] = l.total
	stats["total_limit"] = l.maxTotal
	stats["reset_time"] = l.resetTime
	return stats
}

// checkReset clears counters once the window has passed. Caller holds the lock.
func (l *Limiter) checkReset() {
	if time.Now().After(l.resetTime) {
		logger.Debug("resetting rate limiter counters")
		l.counts = make(map[string]int)
		l.total = 0
		l.resetTime = time.Now().Add(l.window)
	}
}
