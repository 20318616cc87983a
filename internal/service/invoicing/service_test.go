package invoicing

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aulins/invoice-api/internal/auth"
	"github.com/aulins/invoice-api/internal/model"
	"github.com/aulins/invoice-api/internal/repository"
)

func newService() *Service {
	return New(repository.NewMemoryStore())
}

func register(t *testing.T, svc *Service, email, plan string) *Registration {
	t.Helper()
	reg, err := svc.RegisterMerchant(context.Background(), "Toko Maju", email, plan)
	require.NoError(t, err)
	return reg
}

func samplePayload() (model.InvoicePayload, json.RawMessage) {
	raw := json.RawMessage(`{
		"customer": {"name": "Budi"},
		"items": [{"name":"Widget","qty":2,"unit_price":50000,"discount":0,"tax_rate":0.11,"is_tax_inclusive":false}],
		"charges": {"shipping":10000,"service":0,"rounding":0},
		"discount_total": 0,
		"currency": "idr",
		"issue_date": "2026-09-01"
	}`)
	var p model.InvoicePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		panic(err)
	}
	return p, raw
}

func TestRegisterMerchant(t *testing.T) {
	svc := newService()
	reg := register(t, svc, "Owner@Example.COM", "starter")

	assert.Equal(t, "owner@example.com", reg.Merchant.Email)
	assert.Equal(t, model.PlanStarter, reg.Merchant.Plan)
	assert.Equal(t, 100, reg.Merchant.QuotaLimit)
	assert.Equal(t, 0, reg.Merchant.QuotaUsed)
	assert.True(t, reg.Merchant.IsActive)
	assert.NotEmpty(t, reg.Secret)
	assert.NotEqual(t, reg.Secret, reg.Key.KeyHash)

	// the secret authenticates; key hash alone does not
	m, err := svc.Authenticate(context.Background(), reg.Secret)
	require.NoError(t, err)
	assert.Equal(t, reg.Merchant.ID, m.ID)

	_, err = svc.Authenticate(context.Background(), reg.Key.KeyHash)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRegisterMerchantDuplicateEmailCaseInsensitive(t *testing.T) {
	svc := newService()
	register(t, svc, "a@b.com", "free")

	_, err := svc.RegisterMerchant(context.Background(), "Other", "A@B.com", "free")
	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
}

func TestRegisterMerchantRejectsBadInput(t *testing.T) {
	svc := newService()

	_, err := svc.RegisterMerchant(context.Background(), "X", "not-an-email", "free")
	assert.Error(t, err)

	_, err = svc.RegisterMerchant(context.Background(), "X", "x@y.com", "platinum")
	assert.Error(t, err)
}

func TestPlanQuotaTable(t *testing.T) {
	svc := newService()
	for plan, want := range map[string]int{
		"free": 10, "starter": 100, "pro": 1000, "enterprise": 1_000_000,
	} {
		reg := register(t, svc, plan+"@example.com", plan)
		assert.Equalf(t, want, reg.Merchant.QuotaLimit, "plan %s", plan)
	}
}

func TestCreateInvoice(t *testing.T) {
	svc := newService()
	reg := register(t, svc, "a@b.com", "free")
	payload, raw := samplePayload()

	inv, fresh, err := svc.CreateInvoice(context.Background(), reg.Merchant, payload, raw)
	require.NoError(t, err)

	assert.Equal(t, int64(100000), inv.Subtotal)
	assert.Equal(t, int64(11000), inv.TaxTotal)
	assert.Equal(t, int64(121000), inv.GrandTotal)
	assert.Equal(t, model.StatusIssued, inv.Status)
	assert.Equal(t, "IDR", inv.Currency)
	assert.Regexp(t, `^INV/\d{4}/\d{2}/0001$`, inv.Number)
	assert.Equal(t, 1, fresh.QuotaUsed)
	assert.Equal(t, 9, fresh.QuotaRemaining())

	// payload echoed verbatim
	assert.JSONEq(t, string(raw), string(inv.Payload))

	got, err := svc.GetInvoice(context.Background(), reg.Merchant, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.Number, got.Number)
}

func TestCreateInvoiceQuotaExceeded(t *testing.T) {
	svc := newService()
	reg := register(t, svc, "a@b.com", "free")
	payload, raw := samplePayload()

	for i := 0; i < 10; i++ {
		_, _, err := svc.CreateInvoice(context.Background(), reg.Merchant, payload, raw)
		require.NoError(t, err)
	}

	_, _, err := svc.CreateInvoice(context.Background(), reg.Merchant, payload, raw)
	assert.ErrorIs(t, err, repository.ErrQuotaExceeded)
}

func TestGetInvoiceIsolation(t *testing.T) {
	svc := newService()
	a := register(t, svc, "a@b.com", "free")
	b := register(t, svc, "b@b.com", "free")
	payload, raw := samplePayload()

	inv, _, err := svc.CreateInvoice(context.Background(), a.Merchant, payload, raw)
	require.NoError(t, err)

	_, err = svc.GetInvoice(context.Background(), b.Merchant, inv.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	list, err := svc.ListInvoices(context.Background(), b.Merchant, 50, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRevokeAPIKeyLifecycle(t *testing.T) {
	svc := newService()
	reg := register(t, svc, "a@b.com", "free")
	ctx := context.Background()

	require.NoError(t, svc.RevokeAPIKey(ctx, reg.Merchant, reg.Key.ID))

	_, err := svc.Authenticate(ctx, reg.Secret)
	assert.ErrorIs(t, err, ErrUnauthorized)

	err = svc.RevokeAPIKey(ctx, reg.Merchant, reg.Key.ID)
	assert.ErrorIs(t, err, repository.ErrAlreadyRevoked)

	other := register(t, svc, "b@b.com", "free")
	err = svc.RevokeAPIKey(ctx, other.Merchant, reg.Key.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAuthenticateTouchesLastUsed(t *testing.T) {
	svc := newService()
	fixed := time.Date(2026, time.September, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	reg := register(t, svc, "a@b.com", "free")
	_, err := svc.Authenticate(context.Background(), reg.Secret)
	require.NoError(t, err)

	// inspect the key record through the store
	m, key, err := svc.store.FindMerchantByKeyHash(context.Background(), auth.HashSecret(reg.Secret))
	require.NoError(t, err)
	require.NotNil(t, m)
	require.NotNil(t, key.LastUsed)
	assert.Equal(t, fixed, key.LastUsed.UTC())
}

func TestCreateInvoiceDefaultsCurrency(t *testing.T) {
	svc := newService()
	reg := register(t, svc, "a@b.com", "free")

	raw := json.RawMessage(`{"customer":{},"items":[],"charges":{},"discount_total":0,"issue_date":"2026-09-01"}`)
	var p model.InvoicePayload
	require.NoError(t, json.Unmarshal(raw, &p))
	require.True(t, p.DiscountTotal.Equal(decimal.Zero))

	inv, _, err := svc.CreateInvoice(context.Background(), reg.Merchant, p, raw)
	require.NoError(t, err)
	assert.Equal(t, "IDR", inv.Currency)
	assert.Equal(t, int64(0), inv.GrandTotal)
}
