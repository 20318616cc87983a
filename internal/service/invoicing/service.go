// Package invoicing holds the quota/numbering core: merchant registration,
// quota-gated invoice creation with per-month sequential numbering, and API
// key lifecycle. All persistence goes through repository.Store; this layer
// never retries; transient storage failures propagate to the caller.
package invoicing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/aulins/invoice-api/internal/auth"
	"github.com/aulins/invoice-api/internal/billing"
	"github.com/aulins/invoice-api/internal/model"
	"github.com/aulins/invoice-api/internal/repository"
	"github.com/aulins/invoice-api/internal/util"
)

// ErrUnauthorized covers invalid or revoked keys and inactive merchants;
// callers must not distinguish the cases.
var ErrUnauthorized = errors.New("invalid api key")

// ErrInvalidArgument marks caller mistakes (bad email, unknown plan) so the
// HTTP layer can map them to 400 instead of 500.
var ErrInvalidArgument = errors.New("invalid argument")

const (
	defaultCurrency = "IDR"
	defaultKeyName  = "Default Key"
)

type Service struct {
	store repository.Store
	now   func() time.Time
}

func New(store repository.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Registration is the one-time response to RegisterMerchant; Secret is
// never recoverable afterwards.
type Registration struct {
	Merchant *model.Merchant
	Key      *model.APIKey
	Secret   string
}

// RegisterMerchant creates the merchant and its first API key atomically.
// Emails are normalized (trimmed, lowercased) before the uniqueness check,
// so addresses differing only in case collide.
func (s *Service) RegisterMerchant(ctx context.Context, name, email, plan string) (*Registration, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%w: email: %v", ErrInvalidArgument, err)
	}

	p, ok := model.ParsePlan(plan)
	if !ok {
		return nil, fmt.Errorf("%w: unknown plan %q", ErrInvalidArgument, plan)
	}

	plain, hash, prefix, err := auth.GenerateSecret()
	if err != nil {
		return nil, fmt.Errorf("generate api key: %w", err)
	}

	now := s.now().UTC()
	m := &model.Merchant{
		ID:         util.NewID("mrc"),
		Name:       strings.TrimSpace(name),
		Email:      email,
		Plan:       p,
		QuotaLimit: p.Quota(),
		IsActive:   true,
		CreatedAt:  now,
	}
	key := &model.APIKey{
		ID:         util.NewID("key"),
		MerchantID: m.ID,
		KeyHash:    hash,
		KeyPrefix:  prefix,
		Name:       defaultKeyName,
		IsActive:   true,
		CreatedAt:  now,
	}

	if err := s.store.RegisterMerchant(ctx, m, key); err != nil {
		return nil, err
	}
	return &Registration{Merchant: m, Key: key, Secret: plain}, nil
}

// Authenticate resolves a plaintext API key to its active merchant and
// stamps the key's last_used (best effort, never fails the request).
func (s *Service) Authenticate(ctx context.Context, rawKey string) (*model.Merchant, error) {
	m, key, err := s.store.FindMerchantByKeyHash(ctx, auth.HashSecret(rawKey))
	if err != nil {
		return nil, err
	}
	if m == nil || !m.IsActive {
		return nil, ErrUnauthorized
	}

	_ = s.store.TouchAPIKey(ctx, key.ID, s.now().UTC())
	return m, nil
}

// CreateInvoice computes totals, then hands quota gating, sequence
// allocation and the atomic write to the store. rawPayload is the request
// body retained verbatim for audit; payload is its validated form.
func (s *Service) CreateInvoice(ctx context.Context, merchant *model.Merchant, payload model.InvoicePayload, rawPayload json.RawMessage) (*model.Invoice, *model.Merchant, error) {
	totals := billing.Calculate(payload.Items, payload.Charges, payload.DiscountTotal)

	currency := strings.ToUpper(strings.TrimSpace(payload.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	inv := &model.Invoice{
		ID:         util.NewID("inv"),
		MerchantID: merchant.ID,
		Status:     model.StatusIssued,
		Currency:   currency,
		Payload:    rawPayload,
		Subtotal:   totals.Subtotal,
		TaxTotal:   totals.TaxTotal,
		GrandTotal: totals.GrandTotal,
		CreatedAt:  s.now().UTC(),
	}

	fresh, err := s.store.CreateInvoice(ctx, inv)
	if err != nil {
		return nil, nil, err
	}
	return inv, fresh, nil
}

func (s *Service) ListInvoices(ctx context.Context, merchant *model.Merchant, limit, offset int) ([]model.Invoice, error) {
	return s.store.ListInvoices(ctx, merchant.ID, limit, offset)
}

func (s *Service) GetInvoice(ctx context.Context, merchant *model.Merchant, id string) (*model.Invoice, error) {
	return s.store.GetInvoice(ctx, merchant.ID, id)
}

func (s *Service) CountInvoices(ctx context.Context, merchant *model.Merchant) (int64, error) {
	return s.store.CountInvoices(ctx, merchant.ID)
}

func (s *Service) RevokeAPIKey(ctx context.Context, merchant *model.Merchant, keyID string) error {
	return s.store.RevokeAPIKey(ctx, merchant.ID, keyID)
}

func (s *Service) ResetQuota(ctx context.Context, merchantID string) error {
	return s.store.ResetQuota(ctx, merchantID)
}

func (s *Service) ResetAllQuotas(ctx context.Context) (int64, error) {
	return s.store.ResetAllQuotas(ctx)
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return strings.ToLower(addr.Address), nil
}
