package service

import (
	"fmt"
	"testing"
	"time"
)

func TestScanHistoryOrderAndBound(t *testing.T) {
	h := NewScanHistory(3)
	base := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		h.Add(fmt.Sprintf("UID%d", i), base.Add(time.Duration(i)*time.Minute))
	}
	if h.Len() != 3 {
		t.Fatalf("Len = %d, want 3", h.Len())
	}
	got := h.Recent(0)
	if got[0].UID != "UID4" || got[1].UID != "UID3" || got[2].UID != "UID2" {
		t.Fatalf("Recent = %v, want newest first with oldest evicted", got)
	}
}

func TestScanHistoryRecentLimit(t *testing.T) {
	h := NewScanHistory(10)
	h.Add("A", time.Now())
	h.Add("B", time.Now())

	if got := h.Recent(1); len(got) != 1 || got[0].UID != "B" {
		t.Fatalf("Recent(1) = %v", got)
	}
	if got := h.Recent(50); len(got) != 2 {
		t.Fatalf("Recent(50) = %v, want both entries", got)
	}
}

func TestScanHistoryMarkProcessed(t *testing.T) {
	h := NewScanHistory(10)
	h.Add("A", time.Now())
	h.Add("A", time.Now())

	h.MarkProcessed("A")
	entries := h.Recent(0)
	if !entries[0].Processed {
		t.Error("newest entry for uid not marked")
	}
	if entries[1].Processed {
		t.Error("older entry must stay unprocessed")
	}
}

func TestScanHistoryLast(t *testing.T) {
	h := NewScanHistory(10)
	if _, ok := h.Last(); ok {
		t.Fatal("Last on empty history reported an entry")
	}
	h.Add("A", time.Now())
	h.Add("B", time.Now())
	last, ok := h.Last()
	if !ok || last.UID != "B" {
		t.Fatalf("Last = %v ok=%v", last, ok)
	}
}

func TestScanHistoryDefaultBound(t *testing.T) {
	h := NewScanHistory(0)
	for i := 0; i < DefaultHistorySize+20; i++ {
		h.Add(fmt.Sprintf("U%d", i), time.Now())
	}
	if h.Len() != DefaultHistorySize {
		t.Fatalf("Len = %d, want %d", h.Len(), DefaultHistorySize)
	}
}
