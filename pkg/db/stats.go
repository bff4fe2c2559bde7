package db

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/FreePeak/inventory-dashboard/internal/logger"
)

// DefaultSlowThreshold is the execution time above which a statement is logged as slow
const DefaultSlowThreshold = 500 * time.Millisecond

// StatementStats holds timing figures for one normalised statement
type StatementStats struct {
	Query         string        `json:"query"`
	Count         int           `json:"count"`
	Errors        int           `json:"errors"`
	TotalDuration time.Duration `json:"totalDuration"`
	MinDuration   time.Duration `json:"minDuration"`
	MaxDuration   time.Duration `json:"maxDuration"`
	AvgDuration   time.Duration `json:"avgDuration"`
	LastExecuted  time.Time     `json:"lastExecuted"`
}

// Tracker collects execution times of the statements run through Run and Fetch
type Tracker struct {
	mu            sync.RWMutex
	stats         map[string]*StatementStats
	slowThreshold time.Duration
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{
		stats:         make(map[string]*StatementStats),
		slowThreshold: DefaultSlowThreshold,
	}
}

// DefaultTracker records every statement executed by Run and Fetch
var DefaultTracker = NewTracker()

// Record adds one execution of query. Statements slower than the threshold
// are logged as warnings.
func (t *Tracker) Record(query string, args []interface{}, duration time.Duration, err error) {
	key := normalizeQuery(query)

	t.mu.Lock()
	slow := duration >= t.slowThreshold
	t.add(key, duration, err)
	t.mu.Unlock()

	if slow {
		logger.Warn("Slow statement (%dms): %s [args: %v]", duration.Milliseconds(), query, args)
	}
}

// add updates the figures for key. t.mu must be held.
func (t *Tracker) add(key string, duration time.Duration, err error) {
	s, ok := t.stats[key]
	if !ok {
		s = &StatementStats{Query: key, MinDuration: duration, MaxDuration: duration}
		t.stats[key] = s
	}

	s.Count++
	if err != nil {
		s.Errors++
	}
	s.TotalDuration += duration
	s.AvgDuration = s.TotalDuration / time.Duration(s.Count)
	s.LastExecuted = time.Now()
	if duration < s.MinDuration {
		s.MinDuration = duration
	}
	if duration > s.MaxDuration {
		s.MaxDuration = duration
	}
}

// SetSlowThreshold changes the slow statement threshold
func (t *Tracker) SetSlowThreshold(threshold time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.slowThreshold = threshold
}

// Stats returns a copy of the collected figures, slowest average first
func (t *Tracker) Stats() []StatementStats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]StatementStats, 0, len(t.stats))
	for _, s := range t.stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgDuration != out[j].AvgDuration {
			return out[i].AvgDuration > out[j].AvgDuration
		}
		return out[i].Query < out[j].Query
	})
	return out
}

// Slow returns the statements whose average time reaches the threshold
func (t *Tracker) Slow() []StatementStats {
	t.mu.RLock()
	threshold := t.slowThreshold
	t.mu.RUnlock()

	var slow []StatementStats
	for _, s := range t.Stats() {
		if s.AvgDuration >= threshold {
			slow = append(slow, s)
		}
	}
	return slow
}

// Reset drops all collected figures
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stats = make(map[string]*StatementStats)
}

var (
	quotedLiteral = regexp.MustCompile(`'[^']*'`)
	numberLiteral = regexp.MustCompile(`\b\d+\b`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// normalizeQuery replaces literals so that statements differing only in the
// values written into raw fragments are grouped together
func normalizeQuery(query string) string {
	normalized := quotedLiteral.ReplaceAllString(query, "'?'")
	normalized = numberLiteral.ReplaceAllString(normalized, "?")
	normalized = whitespace.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}
