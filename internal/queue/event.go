// Package queue defines message payloads exchanged over the message broker
// and the publisher that emits them. The billing reconciliation system
// consumes these messages; nothing in this process does.
package queue

// PurchaseRecordedEvent is published when a purchase is recorded with a
// pending payment status (monthly billing). It carries enough information
// for the billing system to charge the guardian account without querying
// the terminal database.
type PurchaseRecordedEvent struct {
	PurchaseID    uint64  `json:"purchase_id"`
	PersonID      uint64  `json:"person_id"`
	UID           string  `json:"uid"`
	PersonName    string  `json:"person_name"`
	Category      string  `json:"category"`
	TotalAmount   float64 `json:"total_amount"`
	PaymentMethod string  `json:"payment_method"`
	Station       string  `json:"station"`
	ProcessedBy   string  `json:"processed_by"`
	PurchasedAt   string  `json:"purchased_at"`
}
