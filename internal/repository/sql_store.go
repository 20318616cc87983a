package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/aulins/invoice-api/internal/model"
)

// SQLStore is the durable Store backed by MySQL. All multi-row writes run
// in a single transaction; the merchant row lock serializes quota
// accounting per merchant.
type SQLStore struct {
	db        *sqlx.DB
	merchants merchantsRepo
	apiKeys   apiKeysRepo
	invoices  invoicesRepo
	counters  countersRepo
	outbox    outboxRepo
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

var _ Store = (*SQLStore)(nil)

func (s *SQLStore) RegisterMerchant(ctx context.Context, m *model.Merchant, key *model.APIKey) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.merchants.Insert(ctx, tx, m); err != nil {
		return fmt.Errorf("insert merchant: %w", err)
	}
	if err := s.apiKeys.Insert(ctx, tx, key); err != nil {
		return fmt.Errorf("insert api key: %w", err)
	}

	return tx.Commit()
}

func (s *SQLStore) GetMerchant(ctx context.Context, id string) (*model.Merchant, error) {
	return s.merchants.GetByID(ctx, s.db, id)
}

func (s *SQLStore) FindMerchantByKeyHash(ctx context.Context, hash string) (*model.Merchant, *model.APIKey, error) {
	key, err := s.apiKeys.GetActiveByHash(ctx, s.db, hash)
	if err != nil {
		return nil, nil, fmt.Errorf("lookup api key: %w", err)
	}
	if key == nil {
		return nil, nil, nil
	}

	m, err := s.merchants.GetByID(ctx, s.db, key.MerchantID)
	if err == ErrNotFound {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("lookup merchant: %w", err)
	}
	return m, key, nil
}

func (s *SQLStore) TouchAPIKey(ctx context.Context, keyID string, at time.Time) error {
	return s.apiKeys.TouchLastUsed(ctx, s.db, keyID, at)
}

func (s *SQLStore) RevokeAPIKey(ctx context.Context, merchantID, keyID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	key, err := s.apiKeys.GetByID(ctx, tx, keyID)
	if err != nil {
		return err
	}
	// Foreign keys look exactly like absent ones.
	if key.MerchantID != merchantID {
		return ErrNotFound
	}
	if !key.IsActive {
		return ErrAlreadyRevoked
	}

	if err := s.apiKeys.Deactivate(ctx, tx, keyID); err != nil {
		return fmt.Errorf("deactivate api key: %w", err)
	}
	return tx.Commit()
}

// CreateInvoice runs the whole quota/numbering critical section:
// lock merchant row -> quota check -> next sequence -> insert invoice ->
// quota_used+1 -> outbox event, committed atomically.
func (s *SQLStore) CreateInvoice(ctx context.Context, inv *model.Invoice) (*model.Merchant, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	m, err := s.merchants.GetForUpdate(ctx, tx, inv.MerchantID)
	if err != nil {
		return nil, fmt.Errorf("merchant for update: %w", err)
	}
	if m.QuotaUsed >= m.QuotaLimit {
		return nil, ErrQuotaExceeded
	}

	year, month := inv.CreatedAt.Year(), inv.CreatedAt.Month()
	seq, err := s.counters.NextSeq(ctx, tx, inv.MerchantID, year, int(month))
	if err != nil {
		return nil, fmt.Errorf("next sequence: %w", err)
	}
	inv.Number = model.InvoiceNumber(year, month, seq)

	if err := s.invoices.Insert(ctx, tx, inv); err != nil {
		return nil, fmt.Errorf("insert invoice: %w", err)
	}
	if err := s.merchants.IncrementQuota(ctx, tx, inv.MerchantID); err != nil {
		return nil, fmt.Errorf("increment quota: %w", err)
	}

	event, err := json.Marshal(model.InvoiceEvent{
		Type:       "invoice.created",
		InvoiceID:  inv.ID,
		MerchantID: inv.MerchantID,
		Number:     inv.Number,
		Currency:   inv.Currency,
		Totals:     inv.Totals(),
		OccurredAt: inv.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal invoice event: %w", err)
	}
	if err := s.outbox.Insert(ctx, tx, "invoice", inv.ID, InvoiceEventsTopic, event); err != nil {
		return nil, fmt.Errorf("insert outbox: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	m.QuotaUsed++
	return m, nil
}

func (s *SQLStore) ListInvoices(ctx context.Context, merchantID string, limit, offset int) ([]model.Invoice, error) {
	return s.invoices.ListByMerchant(ctx, s.db, merchantID, limit, offset)
}

func (s *SQLStore) GetInvoice(ctx context.Context, merchantID, id string) (*model.Invoice, error) {
	return s.invoices.GetByID(ctx, s.db, merchantID, id)
}

func (s *SQLStore) CountInvoices(ctx context.Context, merchantID string) (int64, error) {
	return s.invoices.CountByMerchant(ctx, s.db, merchantID)
}

func (s *SQLStore) ResetQuota(ctx context.Context, merchantID string) error {
	return s.merchants.ResetQuota(ctx, s.db, merchantID)
}

func (s *SQLStore) ResetAllQuotas(ctx context.Context) (int64, error) {
	return s.merchants.ResetAll(ctx, s.db)
}
