package http

import (
	"net/http"
	"strconv"
	"time"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/aulins/invoice-api/internal/http/middleware"
	"github.com/aulins/invoice-api/internal/repository"
	"github.com/aulins/invoice-api/internal/service/invoicing"
)

// usageReportHandler aggregates the request-audit trail (ClickHouse) plus
// the merchant's invoice count and quota snapshot.
func usageReportHandler(svc *invoicing.Service, usage repository.UsageEventsRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		m, ok := middleware.MerchantFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}
		if usage == nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "usage reporting disabled"})
		}

		hours := 24
		if v := c.QueryParam("hours"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 24*30 {
				hours = n
			}
		}
		since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)

		endpoints, err := usage.AggregateByEndpoint(c.Request().Context(), m.ID, since)
		if err != nil {
			log.Errorf("usage aggregate failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		invoiceCount, err := svc.CountInvoices(c.Request().Context(), m)
		if err != nil {
			log.Errorf("invoice count failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"window_hours": hours,
			"endpoints":    endpoints,
			"invoices":     invoiceCount,
			"quota": map[string]int{
				"limit":     m.QuotaLimit,
				"used":      m.QuotaUsed,
				"remaining": m.QuotaRemaining(),
			},
		})
	}
}
