package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/iliyamo/cafeteria-pos/internal/model"
	"github.com/iliyamo/cafeteria-pos/internal/queue"
	"github.com/iliyamo/cafeteria-pos/internal/repository"
)

// PurchaseLedger validates and persists purchase transactions. Cash
// purchases settle immediately; monthly-billing purchases are recorded
// pending and handed to the reconciliation queue.
type PurchaseLedger struct {
	persons   PersonStore
	foods     FoodStore
	purchases PurchaseStore
	billing   BillingPublisher // optional; nil disables billing events
	station   Station
	now       func() time.Time
}

func NewPurchaseLedger(persons PersonStore, foods FoodStore, purchases PurchaseStore, billing BillingPublisher, station Station) *PurchaseLedger {
	return &PurchaseLedger{
		persons:   persons,
		foods:     foods,
		purchases: purchases,
		billing:   billing,
		station:   station,
		now:       time.Now,
	}
}

// CalculateTotal sums price × quantity over all items. Pure function.
func (l *PurchaseLedger) CalculateTotal(items []model.PurchaseItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// ValidateItems checks every line against the food catalog: the food must
// exist, be active and available, and the submitted unit price must match
// the catalog price within Epsilon.
func (l *PurchaseLedger) ValidateItems(ctx context.Context, items []model.PurchaseItem) error {
	for _, it := range items {
		food, err := l.foods.GetByID(ctx, it.FoodID)
		if err != nil {
			return Validationf("food item not found: %s", it.Name)
		}
		if !food.IsAvailable || !food.IsActive {
			return Validationf("food item not available: %s", food.Name)
		}
		if math.Abs(it.Price-food.Price) > Epsilon {
			return Validationf("price mismatch for %s. Expected: %.2f, Got: %.2f",
				food.Name, food.Price, it.Price)
		}
	}
	return nil
}

// CompletePurchaseInput is the payload for Complete, accepted identically
// from the HTTP and websocket surfaces.
type CompletePurchaseInput struct {
	PersonID      uint64               `json:"user_id"`
	Items         []model.PurchaseItem `json:"items"`
	TotalAmount   float64              `json:"total_amount"`
	PaymentMethod string               `json:"payment_method"`
	PaidAmount    float64              `json:"paid_amount"`
	Notes         string               `json:"notes"`
	ProcessedBy   string               `json:"processed_by"`
}

// PurchaseResult is the outcome of a completed purchase.
type PurchaseResult struct {
	Purchase *model.Purchase `json:"purchase"`
	Message  string          `json:"message"`
	Change   float64         `json:"change"`
}

// Complete validates and persists one purchase. The submitted total must
// match the computed total within Epsilon. Cash payments require tendered ≥
// total, settle immediately and compute change; monthly billing stays
// pending and emits a billing event (best effort). The person's scan
// bookkeeping is updated after the write; a bookkeeping failure does not
// fail the purchase.
func (l *PurchaseLedger) Complete(ctx context.Context, in CompletePurchaseInput) (*PurchaseResult, error) {
	if in.PersonID == 0 || len(in.Items) == 0 {
		return nil, Validationf("invalid purchase data: person and items are required")
	}

	person, err := l.persons.GetByID(ctx, in.PersonID)
	if err != nil {
		return nil, err
	}

	total := l.CalculateTotal(in.Items)
	if math.Abs(total-in.TotalAmount) > Epsilon {
		return nil, Validationf("total mismatch: submitted %.2f, computed %.2f", in.TotalAmount, total)
	}

	now := l.now().UTC()
	items := make([]model.PurchaseItem, len(in.Items))
	for i, it := range in.Items {
		it.Subtotal = it.Price * float64(it.Quantity)
		items[i] = it
	}

	processedBy := in.ProcessedBy
	if processedBy == "" {
		processedBy = "pos_terminal"
	}

	p := &model.Purchase{
		PersonID:      person.ID,
		UID:           person.UID,
		PersonName:    person.Name,
		Category:      person.Category,
		Items:         items,
		TotalAmount:   total,
		PaymentMethod: in.PaymentMethod,
		Notes:         in.Notes,
		Station:       l.station.ID,
		ProcessedBy:   processedBy,
		PurchasedAt:   now,
	}

	var message string
	var change float64
	switch in.PaymentMethod {
	case model.PaymentCash:
		if in.PaidAmount < total-Epsilon {
			return nil, Validationf("insufficient cash: tendered %.2f for total %.2f", in.PaidAmount, total)
		}
		change = in.PaidAmount - total
		if change < 0 {
			change = 0
		}
		p.PaymentStatus = model.PaymentStatusPaid
		p.PaidAt = &now
		paid := in.PaidAmount
		p.CashAmount = &paid
		p.Notes += fmt.Sprintf(" | Cash payment: €%.2f", in.PaidAmount)
		if change > Epsilon {
			c := change
			p.Change = &c
			p.Notes += fmt.Sprintf(" | Change: €%.2f", change)
		}
		message = "Cash payment completed successfully"
	case model.PaymentMonthlyBilling:
		p.PaymentStatus = model.PaymentStatusPending
		p.Notes += " | Added to monthly bill - guardian will be charged"
		message = "Purchase added to monthly bill"
	default:
		return nil, Validationf("unsupported payment method: %q", in.PaymentMethod)
	}

	if err := l.purchases.Create(ctx, p); err != nil {
		return nil, err
	}

	if err := l.persons.RecordScan(ctx, person.ID, now); err != nil {
		log.Printf("ledger: scan bookkeeping failed for person %d: %v", person.ID, err)
	}

	if p.PaymentStatus == model.PaymentStatusPending && l.billing != nil {
		ev := queue.PurchaseRecordedEvent{
			PurchaseID:    p.ID,
			PersonID:      p.PersonID,
			UID:           p.UID,
			PersonName:    p.PersonName,
			Category:      p.Category,
			TotalAmount:   p.TotalAmount,
			PaymentMethod: p.PaymentMethod,
			Station:       p.Station,
			ProcessedBy:   p.ProcessedBy,
			PurchasedAt:   p.PurchasedAt.Format(time.RFC3339),
		}
		if err := l.billing.PublishPurchaseRecorded(ctx, ev); err != nil {
			log.Printf("ledger: billing event publish failed for purchase %d: %v", p.ID, err)
		}
	}

	return &PurchaseResult{Purchase: p, Message: message, Change: change}, nil
}

// History returns a person's recent purchases, newest first.
func (l *PurchaseLedger) History(ctx context.Context, personID uint64, limit int) ([]model.Purchase, error) {
	if limit <= 0 {
		limit = 10
	}
	return l.purchases.ListByPerson(ctx, personID, limit)
}

// Stats returns the ledger counters for the dashboard, with today bounded
// at local midnight.
func (l *PurchaseLedger) Stats(ctx context.Context) (repository.PurchaseStats, error) {
	dayStart, _ := dayBounds(l.now())
	return l.purchases.Stats(ctx, dayStart)
}

// AvailableFoods returns purchasable foods grouped by category.
func (l *PurchaseLedger) AvailableFoods(ctx context.Context) (map[string][]model.Food, error) {
	foods, err := l.foods.ListAvailable(ctx)
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]model.Food)
	for _, f := range foods {
		grouped[f.Category] = append(grouped[f.Category], f)
	}
	return grouped, nil
}
