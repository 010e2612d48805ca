package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/cafeteria-pos/internal/model"
)

// PurchaseRepo persists purchases and their line items. A purchase and its
// items are written in one transaction; purchases are immutable afterwards
// except for payment-status updates made by the billing reconciliation
// process, which is not part of this terminal.
type PurchaseRepo struct{ DB *sql.DB }

func NewPurchaseRepo(db *sql.DB) *PurchaseRepo { return &PurchaseRepo{DB: db} }

// PurchaseStats aggregates counters for the dashboard.
type PurchaseStats struct {
	TotalPurchases int64   `json:"total_purchases"`
	TotalRevenue   float64 `json:"total_revenue"`
	TodayPurchases int64   `json:"today_purchases"`
	TodayRevenue   float64 `json:"today_revenue"`
}

// Create inserts the purchase header and all line items, populating the
// generated ID on the provided record.
func (r *PurchaseRepo) Create(ctx context.Context, p *model.Purchase) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO purchases (person_id, uid, person_name, category, total_amount,
		  payment_method, payment_status, paid_at, cash_amount, change_amount,
		  notes, station, processed_by, purchased_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.PersonID, p.UID, p.PersonName, p.Category, p.TotalAmount,
		p.PaymentMethod, p.PaymentStatus, nullTime(p.PaidAt), p.CashAmount, p.Change,
		p.Notes, p.Station, p.ProcessedBy, p.PurchasedAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)

	for i := range p.Items {
		it := &p.Items[i]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO purchase_items (purchase_id, food_id, name, price, quantity, subtotal)
			 VALUES (?,?,?,?,?,?)`,
			p.ID, it.FoodID, it.Name, it.Price, it.Quantity, it.Subtotal); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ListByPerson returns the most recent purchases for a person, items
// included, newest first.
func (r *PurchaseRepo) ListByPerson(ctx context.Context, personID uint64, limit int) ([]model.Purchase, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, person_id, uid, person_name, category, total_amount,
		  payment_method, payment_status, paid_at, cash_amount, change_amount,
		  notes, station, processed_by, purchased_at
		 FROM purchases WHERE person_id=? ORDER BY purchased_at DESC LIMIT ?`,
		personID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Purchase
	for rows.Next() {
		var p model.Purchase
		var paidAt sql.NullTime
		var cash, change sql.NullFloat64
		if err := rows.Scan(&p.ID, &p.PersonID, &p.UID, &p.PersonName, &p.Category,
			&p.TotalAmount, &p.PaymentMethod, &p.PaymentStatus, &paidAt,
			&cash, &change, &p.Notes, &p.Station, &p.ProcessedBy, &p.PurchasedAt); err != nil {
			return nil, err
		}
		if paidAt.Valid {
			t := paidAt.Time
			p.PaidAt = &t
		}
		if cash.Valid {
			v := cash.Float64
			p.CashAmount = &v
		}
		if change.Valid {
			v := change.Float64
			p.Change = &v
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		items, err := r.itemsFor(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

func (r *PurchaseRepo) itemsFor(ctx context.Context, purchaseID uint64) ([]model.PurchaseItem, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT food_id, name, price, quantity, subtotal FROM purchase_items WHERE purchase_id=? ORDER BY id`,
		purchaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.PurchaseItem
	for rows.Next() {
		var it model.PurchaseItem
		if err := rows.Scan(&it.FoodID, &it.Name, &it.Price, &it.Quantity, &it.Subtotal); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Stats aggregates lifetime and same-day purchase counters. dayStart bounds
// "today" in the station's local time.
func (r *PurchaseRepo) Stats(ctx context.Context, dayStart time.Time) (PurchaseStats, error) {
	var s PurchaseStats
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total_amount),0) FROM purchases`).
		Scan(&s.TotalPurchases, &s.TotalRevenue)
	if err != nil {
		return s, err
	}
	err = r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(total_amount),0) FROM purchases WHERE purchased_at >= ?`,
		dayStart.UTC()).
		Scan(&s.TodayPurchases, &s.TodayRevenue)
	return s, err
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
