package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aulins/invoice-api/internal/config"
	"github.com/aulins/invoice-api/internal/repository"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return NewServer(config.Config{}, repository.NewMemoryStore(), Options{})
}

func doJSON(s *Server, method, path, apiKey, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func registerMerchant(t *testing.T, s *Server, name, email, plan string) (merchantID, secret string) {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"email":%q,"plan":%q}`, name, email, plan)
	rec := doJSON(s, http.MethodPost, "/v1/merchants", "", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Merchant struct {
			ID string `json:"id"`
		} `json:"merchant"`
		APIKey struct {
			Secret string `json:"secret"`
		} `json:"api_key"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Merchant.ID)
	require.NotEmpty(t, resp.APIKey.Secret)
	return resp.Merchant.ID, resp.APIKey.Secret
}

const simpleInvoice = `{
	"issue_date": "2025-03-01",
	"currency": "IDR",
	"items": [
		{"name": "Widget", "qty": "2", "unit_price": "50000", "tax_rate": "0.11", "is_tax_inclusive": false}
	]
}`

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(s, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(s, http.MethodPost, "/v1/merchants", "", `{"name":"","email":"a@b.example"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(s, http.MethodPost, "/v1/merchants", "", `{"name":"Shop","email":"not-an-email"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(s, http.MethodPost, "/v1/merchants", "", `{"name":"Shop","email":"a@b.example","plan":"platinum"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := newTestServer(t)
	registerMerchant(t, s, "Shop One", "dup@example.com", "free")

	rec := doJSON(s, http.MethodPost, "/v1/merchants", "", `{"name":"Shop Two","email":"DUP@example.com"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(s, http.MethodPost, "/v1/invoices", "", simpleInvoice)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(s, http.MethodPost, "/v1/invoices", "ik_live_bogus", simpleInvoice)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateInvoice(t *testing.T) {
	s := newTestServer(t)
	_, secret := registerMerchant(t, s, "Shop", "shop@example.com", "starter")

	rec := doJSON(s, http.MethodPost, "/v1/invoices", secret, simpleInvoice)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		ID     string `json:"id"`
		Number string `json:"number"`
		Status string `json:"status"`
		Totals struct {
			Subtotal   int64 `json:"subtotal"`
			TaxTotal   int64 `json:"tax_total"`
			GrandTotal int64 `json:"grand_total"`
		} `json:"totals"`
		Quota struct {
			Used      int `json:"used"`
			Remaining int `json:"remaining"`
		} `json:"quota"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Regexp(t, `^INV/\d{4}/\d{2}/0001$`, resp.Number)
	require.Equal(t, "issued", resp.Status)
	require.Equal(t, int64(100000), resp.Totals.Subtotal)
	require.Equal(t, int64(11000), resp.Totals.TaxTotal)
	require.Equal(t, int64(111000), resp.Totals.GrandTotal)
	require.Equal(t, 1, resp.Quota.Used)
	require.Equal(t, 99, resp.Quota.Remaining)

	// fetch it back
	get := doJSON(s, http.MethodGet, "/v1/invoices/"+resp.ID, secret, "")
	require.Equal(t, http.StatusOK, get.Code)
}

func TestCreateInvoiceValidation(t *testing.T) {
	s := newTestServer(t)
	_, secret := registerMerchant(t, s, "Shop", "shop@example.com", "free")

	cases := []struct {
		name string
		body string
	}{
		{"missing issue_date", `{"items":[{"name":"x","qty":"1","unit_price":"10"}]}`},
		{"bad issue_date", `{"issue_date":"01-03-2025","items":[{"name":"x","qty":"1","unit_price":"10"}]}`},
		{"zero qty", `{"issue_date":"2025-03-01","items":[{"name":"x","qty":"0","unit_price":"10"}]}`},
		{"negative price", `{"issue_date":"2025-03-01","items":[{"name":"x","qty":"1","unit_price":"-10"}]}`},
		{"not json", `{`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(s, http.MethodPost, "/v1/invoices", secret, tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestQuotaExceeded(t *testing.T) {
	s := newTestServer(t)
	_, secret := registerMerchant(t, s, "Tiny Shop", "tiny@example.com", "free")

	for i := 0; i < 10; i++ {
		rec := doJSON(s, http.MethodPost, "/v1/invoices", secret, simpleInvoice)
		require.Equal(t, http.StatusCreated, rec.Code, "invoice %d", i+1)
	}

	rec := doJSON(s, http.MethodPost, "/v1/invoices", secret, simpleInvoice)
	require.Equal(t, http.StatusPaymentRequired, rec.Code)
	require.Contains(t, rec.Body.String(), "quota_exceeded")
}

func TestTenantIsolation(t *testing.T) {
	s := newTestServer(t)
	_, keyA := registerMerchant(t, s, "Shop A", "a@example.com", "free")
	_, keyB := registerMerchant(t, s, "Shop B", "b@example.com", "free")

	rec := doJSON(s, http.MethodPost, "/v1/invoices", keyA, simpleInvoice)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	// merchant B cannot see A's invoice, and absent looks the same
	rec = doJSON(s, http.MethodGet, "/v1/invoices/"+created.ID, keyB, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	rec = doJSON(s, http.MethodGet, "/v1/invoices/inv_does_not_exist", keyB, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	list := doJSON(s, http.MethodGet, "/v1/invoices", keyB, "")
	require.Equal(t, http.StatusOK, list.Code)
	require.NotContains(t, list.Body.String(), created.ID)
}

func TestRevokeKey(t *testing.T) {
	s := newTestServer(t)
	_, secret := registerMerchant(t, s, "Shop", "shop@example.com", "free")

	// find the key id through the keys listing on the registration response
	rec := doJSON(s, http.MethodPost, "/v1/merchants", "", `{"name":"Other","email":"other@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var other struct {
		APIKey struct {
			ID     string `json:"id"`
			Secret string `json:"secret"`
		} `json:"api_key"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &other))

	// revoking someone else's key 404s
	rec = doJSON(s, http.MethodDelete, "/v1/keys/"+other.APIKey.ID, secret, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	// revoking your own key works once
	rec = doJSON(s, http.MethodDelete, "/v1/keys/"+other.APIKey.ID, other.APIKey.Secret, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(s, http.MethodDelete, "/v1/keys/"+other.APIKey.ID, other.APIKey.Secret, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// the revoked secret no longer authenticates
	rec = doJSON(s, http.MethodPost, "/v1/invoices", other.APIKey.Secret, simpleInvoice)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUsageDisabled(t *testing.T) {
	s := newTestServer(t)
	_, secret := registerMerchant(t, s, "Shop", "shop@example.com", "free")

	rec := doJSON(s, http.MethodGet, "/v1/usage", secret, "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
