package model

import "time"

// ScanEntry is one in-memory scan history record. Entries are never
// persisted; the ring is rebuilt empty on restart.
type ScanEntry struct {
	UID       string    `json:"uid"`
	Timestamp time.Time `json:"timestamp"`
	Processed bool      `json:"processed"`
}
