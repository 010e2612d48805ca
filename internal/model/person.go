package model

import "time"

// Person categories accepted by the `persons.category` column.
const (
	CategoryStudent = "student"
	CategoryStaff   = "staff"
)

// BlockInfo carries the administrative block state embedded in a person
// record. A person with IsBlocked set is refused at the terminal until the
// block is lifted or ExpiresAt passes, at which point the first access check
// after expiry clears these fields and persists the change.
//
// Fields:
//  Reason               – short operator-facing reason for the block.
//  Notes                – free-text notes left by the blocking admin.
//  BlockedAt            – when the block was applied (nullable).
//  BlockedBy            – username of the admin who applied it.
//  ExpiresAt            – automatic expiry; nil means indefinite.
//  AutoUnblockProcessed – set when a lazy auto-unblock has run.
type BlockInfo struct {
	Reason               string     `json:"reason"`
	Notes                string     `json:"notes"`
	BlockedAt            *time.Time `json:"blocked_at"`
	BlockedBy            string     `json:"blocked_by"`
	ExpiresAt            *time.Time `json:"expires_at"`
	AutoUnblockProcessed bool       `json:"auto_unblock_processed"`
}

// Person is a cardholder (student or staff member) as stored in the
// `persons` table. UID and Email are globally unique. LastScanAt and
// ScanCount are bumped on every successful scan and on completed purchases.
//
// Fields:
//  ID          – primary key identifier.
//  UID         – card identifier, uppercase hex, unique.
//  Name        – display name shown on the terminal.
//  ClassOrYear – class/year label (e.g. "7B", "staff").
//  Category    – "student" or "staff".
//  Email       – unique contact address, stored lowercase.
//  IsActive    – cleared instead of deleting the record.
//  IsBlocked   – administrative block flag; see BlockInfo.
//  Block       – embedded block state.
//  LastScanAt  – last successful scan (nullable).
//  ScanCount   – cumulative successful scans.
type Person struct {
	ID          uint64     `json:"id"`
	UID         string     `json:"uid"`
	Name        string     `json:"name"`
	ClassOrYear string     `json:"class_or_year"`
	Category    string     `json:"category"`
	Email       string     `json:"email"`
	IsActive    bool       `json:"is_active"`
	IsBlocked   bool       `json:"is_blocked"`
	Block       BlockInfo  `json:"block_info"`
	LastScanAt  *time.Time `json:"last_scan_at"`
	ScanCount   uint32     `json:"scan_count"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
