package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/cafeteria-pos/internal/model"
)

// OperatorRepo reads terminal operator accounts for login.
type OperatorRepo struct{ DB *sql.DB }

func NewOperatorRepo(db *sql.DB) *OperatorRepo { return &OperatorRepo{DB: db} }

// GetByUsername fetches an active operator by normalized username.
func (r *OperatorRepo) GetByUsername(ctx context.Context, username string) (*model.Operator, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	var o model.Operator
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, username, name, password_hash, role, is_active, created_at, updated_at
		 FROM operators WHERE username=? AND is_active=1 LIMIT 1`, username).
		Scan(&o.ID, &o.Username, &o.Name, &o.PasswordHash, &o.Role, &o.IsActive,
			&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOperatorNotFound
		}
		return nil, err
	}
	return &o, nil
}
