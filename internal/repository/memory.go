package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aulins/invoice-api/internal/model"
)

// MemoryStore is the process-local Store used in dev and tests. One mutex
// guards all state, which makes every operation trivially atomic; the
// semantics mirror SQLStore exactly, including quota gating and monthly
// sequence allocation.
type MemoryStore struct {
	mu        sync.Mutex
	merchants map[string]model.Merchant
	emails    map[string]string // normalized email -> merchant id
	keys      map[string]model.APIKey
	keyByHash map[string]string // key hash -> key id
	invoices  map[string]model.Invoice
	byOwner   map[string][]string // merchant id -> invoice ids, insertion order
	counters  map[string]int      // merchant|year|month -> last seq
	events    []model.OutboxEvent
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		merchants: make(map[string]model.Merchant),
		emails:    make(map[string]string),
		keys:      make(map[string]model.APIKey),
		keyByHash: make(map[string]string),
		invoices:  make(map[string]model.Invoice),
		byOwner:   make(map[string][]string),
		counters:  make(map[string]int),
	}
}

var _ Store = (*MemoryStore)(nil)

func counterKey(merchantID string, year int, month time.Month) string {
	return fmt.Sprintf("%s|%04d|%02d", merchantID, year, int(month))
}

func (s *MemoryStore) RegisterMerchant(_ context.Context, m *model.Merchant, key *model.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.emails[m.Email]; taken {
		return ErrDuplicateEmail
	}
	s.emails[m.Email] = m.ID
	s.merchants[m.ID] = *m
	s.keys[key.ID] = *key
	s.keyByHash[key.KeyHash] = key.ID
	return nil
}

func (s *MemoryStore) GetMerchant(_ context.Context, id string) (*model.Merchant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.merchants[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &m, nil
}

func (s *MemoryStore) FindMerchantByKeyHash(_ context.Context, hash string) (*model.Merchant, *model.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keyID, ok := s.keyByHash[hash]
	if !ok {
		return nil, nil, nil
	}
	key := s.keys[keyID]
	if !key.IsActive {
		return nil, nil, nil
	}
	m, ok := s.merchants[key.MerchantID]
	if !ok {
		return nil, nil, nil
	}
	return &m, &key, nil
}

func (s *MemoryStore) TouchAPIKey(_ context.Context, keyID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.keys[keyID]
	if !ok {
		return ErrNotFound
	}
	key.LastUsed = &at
	s.keys[keyID] = key
	return nil
}

func (s *MemoryStore) RevokeAPIKey(_ context.Context, merchantID, keyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key, ok := s.keys[keyID]
	if !ok || key.MerchantID != merchantID {
		return ErrNotFound
	}
	if !key.IsActive {
		return ErrAlreadyRevoked
	}
	key.IsActive = false
	s.keys[keyID] = key
	return nil
}

func (s *MemoryStore) CreateInvoice(_ context.Context, inv *model.Invoice) (*model.Merchant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.merchants[inv.MerchantID]
	if !ok {
		return nil, ErrNotFound
	}
	if m.QuotaUsed >= m.QuotaLimit {
		return nil, ErrQuotaExceeded
	}

	ck := counterKey(inv.MerchantID, inv.CreatedAt.Year(), inv.CreatedAt.Month())
	seq := s.counters[ck] + 1
	s.counters[ck] = seq
	inv.Number = model.InvoiceNumber(inv.CreatedAt.Year(), inv.CreatedAt.Month(), seq)

	m.QuotaUsed++
	s.merchants[inv.MerchantID] = m
	s.invoices[inv.ID] = *inv
	s.byOwner[inv.MerchantID] = append(s.byOwner[inv.MerchantID], inv.ID)

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
		return nil, err
	}
	s.events = append(s.events, model.OutboxEvent{
		ID:          int64(len(s.events) + 1),
		Aggregate:   "invoice",
		AggregateID: inv.ID,
		Topic:       InvoiceEventsTopic,
		Payload:     event,
		CreatedAt:   inv.CreatedAt,
	})

	return &m, nil
}

func (s *MemoryStore) ListInvoices(_ context.Context, merchantID string, limit, offset int) ([]model.Invoice, error) {
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ids := s.byOwner[merchantID]
	all := make([]model.Invoice, 0, len(ids))
	for _, id := range ids {
		all = append(all, s.invoices[id])
	}
	// newest first; insertion order breaks created_at ties
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return []model.Invoice{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	out := make([]model.Invoice, end-offset)
	copy(out, all[offset:end])
	return out, nil
}

func (s *MemoryStore) GetInvoice(_ context.Context, merchantID, id string) (*model.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[id]
	if !ok || inv.MerchantID != merchantID {
		return nil, ErrNotFound
	}
	return &inv, nil
}

func (s *MemoryStore) CountInvoices(_ context.Context, merchantID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.byOwner[merchantID])), nil
}

func (s *MemoryStore) ResetQuota(_ context.Context, merchantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.merchants[merchantID]
	if !ok {
		return ErrNotFound
	}
	m.QuotaUsed = 0
	s.merchants[merchantID] = m
	return nil
}

func (s *MemoryStore) ResetAllQuotas(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, m := range s.merchants {
		if m.QuotaUsed != 0 {
			m.QuotaUsed = 0
			s.merchants[id] = m
			n++
		}
	}
	return n, nil
}

// Events returns a copy of the accumulated outbox rows (tests and the
// memory-mode webhook path read these).
func (s *MemoryStore) Events() []model.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.OutboxEvent, len(s.events))
	copy(out, s.events)
	return out
}
