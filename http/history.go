package http

import (
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// HistoryEntry is one form prediction shown in the recent-predictions panel.
// RequestID is for display only and may repeat across entries.
type HistoryEntry struct {
	RequestID   string
	Time        time.Time
	Input       string
	Label       int
	Probability *float64
}

// History keeps the most recent form predictions, bounded by size.
// It is display-only; the dispatcher never reads it.
type History struct {
	cache *lru.Cache[string, HistoryEntry]
}

func NewHistory(size int) *History {
	if size <= 0 {
		size = 10
	}
	cache, err := lru.New[string, HistoryEntry](size)
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return &History{cache: cache}
}

// Add stores entry under a fresh key so entries never replace each other.
func (h *History) Add(entry HistoryEntry) {
	h.cache.Add(uuid.NewString(), entry)
}

// Recent returns entries newest first.
func (h *History) Recent() []HistoryEntry {
	keys := h.cache.Keys()
	out := make([]HistoryEntry, 0, len(keys))
	for i := len(keys) - 1; i >= 0; i-- {
		if entry, ok := h.cache.Peek(keys[i]); ok {
			out = append(out, entry)
		}
	}
	return out
}

func (h *History) Len() int {
	return h.cache.Len()
}
