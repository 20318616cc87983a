package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/aulins/invoice-api/internal/http/middleware"
	"github.com/aulins/invoice-api/internal/metrics"
	"github.com/aulins/invoice-api/internal/model"
	"github.com/aulins/invoice-api/internal/repository"
	"github.com/aulins/invoice-api/internal/service/invoicing"
)

const maxPayloadBytes = 256 << 10 // 256KB

func createInvoiceHandler(svc *invoicing.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		m, ok := middleware.MerchantFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxPayloadBytes+1))
		if err != nil || len(raw) == 0 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}
		if len(raw) > maxPayloadBytes {
			return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": "payload too large"})
		}

		var payload model.InvoicePayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid json"})
		}
		if msg := validatePayload(payload); msg != "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": msg})
		}

		inv, fresh, err := svc.CreateInvoice(c.Request().Context(), m, payload, raw)
		if err != nil {
			if errors.Is(err, repository.ErrQuotaExceeded) {
				metrics.InvoicesTotal.WithLabelValues("quota_exceeded").Inc()
				return c.JSON(http.StatusPaymentRequired, map[string]any{
					"error":       "quota_exceeded",
					"description": "monthly invoice quota is spent; upgrade the plan or wait for the reset",
					"quota": map[string]int{
						"limit": m.QuotaLimit,
						"used":  m.QuotaUsed,
					},
				})
			}

			log.Errorf("create invoice failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		metrics.InvoicesTotal.WithLabelValues("created").Inc()

		return c.JSON(http.StatusCreated, map[string]any{
			"id":     inv.ID,
			"number": inv.Number,
			"status": inv.Status.String(),
			"totals": inv.Totals(),
			"quota": map[string]int{
				"limit":     fresh.QuotaLimit,
				"used":      fresh.QuotaUsed,
				"remaining": fresh.QuotaRemaining(),
			},
			"links": map[string]string{
				"self": "/v1/invoices/" + inv.ID,
			},
		})
	}
}

// validatePayload does the shape/range checks the core assumes were done
// upstream. Returns "" when valid.
func validatePayload(p model.InvoicePayload) string {
	if strings.TrimSpace(p.IssueDate) == "" {
		return "issue_date is required"
	}
	if _, err := time.Parse("2006-01-02", p.IssueDate); err != nil {
		return "issue_date must be YYYY-MM-DD"
	}
	if p.DueDate != "" {
		if _, err := time.Parse("2006-01-02", p.DueDate); err != nil {
			return "due_date must be YYYY-MM-DD"
		}
	}
	if p.DiscountTotal.IsNegative() {
		return "discount_total must be >= 0"
	}

	for i, it := range p.Items {
		switch {
		case strings.TrimSpace(it.Name) == "":
			return itemErr(i, "name is required")
		case !it.Qty.IsPositive():
			return itemErr(i, "qty must be > 0")
		case it.UnitPrice.IsNegative():
			return itemErr(i, "unit_price must be >= 0")
		case it.Discount.IsNegative():
			return itemErr(i, "discount must be >= 0")
		case it.TaxRate.IsNegative():
			return itemErr(i, "tax_rate must be >= 0")
		}
	}
	return ""
}

func itemErr(i int, msg string) string {
	return "items[" + strconv.Itoa(i) + "]: " + msg
}
