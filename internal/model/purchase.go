package model

import "time"

// Payment methods accepted by the `purchases.payment_method` column.
const (
	PaymentCash           = "cash"
	PaymentMonthlyBilling = "monthly_billing"
)

// Payment statuses for the `purchases.payment_status` column. Status
// transitions after creation belong to the external billing reconciliation
// process, not to this terminal.
const (
	PaymentStatusPending   = "pending"
	PaymentStatusPaid      = "paid"
	PaymentStatusCancelled = "cancelled"
)

// PurchaseItem is one line of a purchase: a food reference with the unit
// price and quantity as sold. Subtotal is computed, never trusted from the
// client.
type PurchaseItem struct {
	FoodID   uint64  `json:"food_id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Subtotal float64 `json:"subtotal"`
}

// Purchase is a completed or pending transaction from the `purchases` table.
// The person's UID, name and category are denormalized so a receipt stays
// readable even if the person record changes later. TotalAmount always equals
// the sum of line subtotals within 0.01.
//
// Fields:
//  PersonID      – owning person.
//  UID/Name/Category – snapshot of the person at purchase time.
//  Items         – ordered line items.
//  TotalAmount   – sum of subtotals.
//  PaymentMethod – "cash" or "monthly_billing".
//  PaymentStatus – cash is "paid" immediately, billing starts "pending".
//  CashAmount    – tendered cash (cash payments only, nullable).
//  Change        – tendered minus total (nullable).
//  Station       – terminal that recorded the purchase.
//  ProcessedBy   – actor tag ("pos_terminal", "pos_reservation", …).
type Purchase struct {
	ID            uint64         `json:"id"`
	PersonID      uint64         `json:"person_id"`
	UID           string         `json:"uid"`
	PersonName    string         `json:"person_name"`
	Category      string         `json:"category"`
	Items         []PurchaseItem `json:"items"`
	TotalAmount   float64        `json:"total_amount"`
	PaymentMethod string         `json:"payment_method"`
	PaymentStatus string         `json:"payment_status"`
	PaidAt        *time.Time     `json:"paid_at"`
	CashAmount    *float64       `json:"cash_amount"`
	Change        *float64       `json:"change"`
	Notes         string         `json:"notes"`
	Station       string         `json:"station"`
	ProcessedBy   string         `json:"processed_by"`
	PurchasedAt   time.Time      `json:"purchased_at"`
}
