package model

import "time"

// Operator is a terminal operator account from the `operators` table. Only
// login is handled here; account management lives in the admin system.
type Operator struct {
	ID           uint64
	Username     string
	Name         string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
