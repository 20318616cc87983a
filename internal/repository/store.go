package repository

import (
	"context"
	"errors"
	"time"

	"github.com/aulins/invoice-api/internal/model"
)

// Kafka topic the outbox relay publishes invoice lifecycle events to.
const InvoiceEventsTopic = "invoice.events"

var (
	ErrQuotaExceeded  = errors.New("monthly quota exceeded")
	ErrDuplicateEmail = errors.New("email already registered")
	ErrNotFound       = errors.New("not found")
	ErrAlreadyRevoked = errors.New("api key already revoked")
)

// Store is the persistence handle the invoicing service runs on. Every
// method is atomic: multi-row writes either fully commit or leave no
// partial state. Two implementations exist, SQLStore (MySQL) and
// MemoryStore (process-local), selected by config.
type Store interface {
	// RegisterMerchant persists the merchant and its first API key in one
	// transaction. Fails with ErrDuplicateEmail on an email clash.
	RegisterMerchant(ctx context.Context, m *model.Merchant, key *model.APIKey) error

	GetMerchant(ctx context.Context, id string) (*model.Merchant, error)

	// FindMerchantByKeyHash resolves an active API key digest to its owning
	// merchant. Returns (nil, nil, nil) when the digest is unknown or the
	// key is inactive; callers decide the auth outcome.
	FindMerchantByKeyHash(ctx context.Context, hash string) (*model.Merchant, *model.APIKey, error)

	// TouchAPIKey records key usage. Best effort; callers may ignore errors.
	TouchAPIKey(ctx context.Context, keyID string, at time.Time) error

	// RevokeAPIKey soft-deactivates a key owned by the merchant. Keys are
	// never deleted. ErrNotFound covers both absent and foreign keys.
	RevokeAPIKey(ctx context.Context, merchantID, keyID string) error

	// CreateInvoice gates on remaining quota, allocates the next monthly
	// sequence number, persists the invoice, increments quota_used and
	// writes the invoice.created outbox event, all in one atomic unit per
	// merchant. On success inv.Number is set and the updated merchant row
	// is returned. Fails with ErrQuotaExceeded when the quota is spent.
	CreateInvoice(ctx context.Context, inv *model.Invoice) (*model.Merchant, error)

	// ListInvoices returns the merchant's invoices, newest first.
	ListInvoices(ctx context.Context, merchantID string, limit, offset int) ([]model.Invoice, error)

	// GetInvoice returns ErrNotFound for absent ids and for invoices owned
	// by another merchant, indistinguishably.
	GetInvoice(ctx context.Context, merchantID, id string) (*model.Invoice, error)

	CountInvoices(ctx context.Context, merchantID string) (int64, error)

	// ResetQuota / ResetAllQuotas zero quota_used. Idempotent; run from the
	// reset-quotas command on a monthly schedule.
	ResetQuota(ctx context.Context, merchantID string) error
	ResetAllQuotas(ctx context.Context) (int64, error)
}
