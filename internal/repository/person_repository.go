package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/cafeteria-pos/internal/model"
)

// PersonRepo provides access to the `persons` table.
type PersonRepo struct{ DB *sql.DB }

func NewPersonRepo(db *sql.DB) *PersonRepo { return &PersonRepo{DB: db} }

const personCols = `id, uid, name, class_or_year, category, email, is_active,
	is_blocked, block_reason, block_notes, blocked_at, blocked_by,
	block_expires_at, auto_unblock_processed, last_scan_at, scan_count,
	created_at, updated_at`

func scanPerson(row *sql.Row) (*model.Person, error) {
	var p model.Person
	var blockedAt, expiresAt, lastScan sql.NullTime
	var blockedBy sql.NullString
	err := row.Scan(
		&p.ID, &p.UID, &p.Name, &p.ClassOrYear, &p.Category, &p.Email,
		&p.IsActive, &p.IsBlocked, &p.Block.Reason, &p.Block.Notes,
		&blockedAt, &blockedBy, &expiresAt, &p.Block.AutoUnblockProcessed,
		&lastScan, &p.ScanCount, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPersonNotFound
		}
		return nil, err
	}
	if blockedAt.Valid {
		t := blockedAt.Time
		p.Block.BlockedAt = &t
	}
	if blockedBy.Valid {
		p.Block.BlockedBy = blockedBy.String
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		p.Block.ExpiresAt = &t
	}
	if lastScan.Valid {
		t := lastScan.Time
		p.LastScanAt = &t
	}
	return &p, nil
}

// GetByUID fetches an active person by card UID.
func (r *PersonRepo) GetByUID(ctx context.Context, uid string) (*model.Person, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+personCols+" FROM persons WHERE uid=? AND is_active=1 LIMIT 1", uid)
	return scanPerson(row)
}

// GetByID fetches a person by primary key regardless of activity flag.
func (r *PersonRepo) GetByID(ctx context.Context, id uint64) (*model.Person, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+personCols+" FROM persons WHERE id=? LIMIT 1", id)
	return scanPerson(row)
}

// Create inserts a person and returns the stored record. Duplicate UID or
// email violations are mapped to their sentinel errors.
func (r *PersonRepo) Create(ctx context.Context, p *model.Person) (*model.Person, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO persons (uid, name, class_or_year, category, email) VALUES (?,?,?,?,?)`,
		p.UID, p.Name, p.ClassOrYear, p.Category, p.Email)
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "1062") {
			if strings.Contains(msg, "uid") {
				return nil, ErrUIDExists
			}
			return nil, ErrEmailExists
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, uint64(id))
}

// Search matches active persons by name, UID or email substring, capped at
// limit rows.
func (r *PersonRepo) Search(ctx context.Context, query string, limit int) ([]model.Person, error) {
	like := "%" + query + "%"
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+personCols+` FROM persons
		 WHERE is_active=1 AND (name LIKE ? OR uid LIKE ? OR email LIKE ?)
		 ORDER BY name LIMIT ?`, like, like, like, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Person
	for rows.Next() {
		var p model.Person
		var blockedAt, expiresAt, lastScan sql.NullTime
		var blockedBy sql.NullString
		if err := rows.Scan(
			&p.ID, &p.UID, &p.Name, &p.ClassOrYear, &p.Category, &p.Email,
			&p.IsActive, &p.IsBlocked, &p.Block.Reason, &p.Block.Notes,
			&blockedAt, &blockedBy, &expiresAt, &p.Block.AutoUnblockProcessed,
			&lastScan, &p.ScanCount, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if blockedAt.Valid {
			t := blockedAt.Time
			p.Block.BlockedAt = &t
		}
		if blockedBy.Valid {
			p.Block.BlockedBy = blockedBy.String
		}
		if expiresAt.Valid {
			t := expiresAt.Time
			p.Block.ExpiresAt = &t
		}
		if lastScan.Valid {
			t := lastScan.Time
			p.LastScanAt = &t
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// RecordScan bumps the scan counter and last-scan timestamp in one atomic
// statement.
func (r *PersonRepo) RecordScan(ctx context.Context, id uint64, at time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE persons SET scan_count = scan_count + 1, last_scan_at=?, updated_at=? WHERE id=?`,
		at.UTC(), at.UTC(), id)
	return err
}

// ClearBlock resets every block field after a block expiry.
func (r *PersonRepo) ClearBlock(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE persons SET is_blocked=0, block_reason='', block_notes='',
		 blocked_at=NULL, blocked_by=NULL, block_expires_at=NULL,
		 auto_unblock_processed=0, updated_at=? WHERE id=?`,
		time.Now().UTC(), id)
	return err
}
