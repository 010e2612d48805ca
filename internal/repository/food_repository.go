package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/cafeteria-pos/internal/model"
)

// FoodRepo provides read access to the `foods` table. The terminal never
// writes food records; catalog management belongs to the admin system.
type FoodRepo struct{ DB *sql.DB }

func NewFoodRepo(db *sql.DB) *FoodRepo { return &FoodRepo{DB: db} }

const foodCols = `id, name, description, price, category, is_available, is_active, created_at, updated_at`

// GetByID fetches a food item by id.
func (r *FoodRepo) GetByID(ctx context.Context, id uint64) (*model.Food, error) {
	var f model.Food
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+foodCols+" FROM foods WHERE id=? LIMIT 1", id).
		Scan(&f.ID, &f.Name, &f.Description, &f.Price, &f.Category,
			&f.IsAvailable, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFoodNotFound
		}
		return nil, err
	}
	return &f, nil
}

// ListAvailable returns active, available foods ordered by category then
// name, ready for category grouping.
func (r *FoodRepo) ListAvailable(ctx context.Context) ([]model.Food, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+foodCols+" FROM foods WHERE is_active=1 AND is_available=1 ORDER BY category, name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Food
	for rows.Next() {
		var f model.Food
		if err := rows.Scan(&f.ID, &f.Name, &f.Description, &f.Price, &f.Category,
			&f.IsAvailable, &f.IsActive, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
