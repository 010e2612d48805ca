package service

import (
	"sync"
	"time"

	"github.com/iliyamo/cafeteria-pos/internal/model"
)

// DefaultHistorySize is the number of scan entries retained in memory.
const DefaultHistorySize = 100

// ScanHistory is the bounded in-memory ring of recent scans, newest first.
// It is owned jointly by the reader manager (which exposes it) and the scan
// pipeline (which writes it); nothing else mutates it.
type ScanHistory struct {
	mu      sync.Mutex
	max     int
	entries []model.ScanEntry
}

// NewScanHistory returns an empty history retaining at most max entries.
func NewScanHistory(max int) *ScanHistory {
	if max <= 0 {
		max = DefaultHistorySize
	}
	return &ScanHistory{max: max}
}

// Add prepends an unprocessed entry, evicting the oldest beyond the bound.
func (h *ScanHistory) Add(uid string, at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append([]model.ScanEntry{{UID: uid, Timestamp: at}}, h.entries...)
	if len(h.entries) > h.max {
		h.entries = h.entries[:h.max]
	}
}

// MarkProcessed flags the most recent entry for uid as processed.
func (h *ScanHistory) MarkProcessed(uid string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.entries {
		if h.entries[i].UID == uid {
			h.entries[i].Processed = true
			return
		}
	}
}

// Recent returns up to n entries, newest first.
func (h *ScanHistory) Recent(n int) []model.ScanEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n <= 0 || n > len(h.entries) {
		n = len(h.entries)
	}
	out := make([]model.ScanEntry, n)
	copy(out, h.entries[:n])
	return out
}

// Last returns the newest entry, if any.
func (h *ScanHistory) Last() (model.ScanEntry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) == 0 {
		return model.ScanEntry{}, false
	}
	return h.entries[0], true
}

// Len returns the current number of retained entries.
func (h *ScanHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
