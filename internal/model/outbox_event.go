package model

import "time"

type OutboxEvent struct {
	ID          int64     `db:"id"`
	Aggregate   string    `db:"aggregate"`    // e.g. "invoice"
	AggregateID string    `db:"aggregate_id"` // invoice.ID
	Topic       string    `db:"topic"`
	Payload     []byte    `db:"payload"`
	Attempts    int       `db:"attempts"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// InvoiceEvent is the payload written to the outbox on invoice creation
// (Debezium Outbox SMT relays it to Kafka) and delivered to webhook sinks.
type InvoiceEvent struct {
	Type       string    `json:"type"` // "invoice.created"
	InvoiceID  string    `json:"invoice_id"`
	MerchantID string    `json:"merchant_id"`
	Number     string    `json:"number"`
	Currency   string    `json:"currency"`
	Totals     Totals    `json:"totals"`
	OccurredAt time.Time `json:"occurred_at"`
}
