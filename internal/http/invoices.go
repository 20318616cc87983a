package http

import (
	"errors"
	"net/http"
	"strconv"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/aulins/invoice-api/internal/http/middleware"
	"github.com/aulins/invoice-api/internal/repository"
	"github.com/aulins/invoice-api/internal/service/invoicing"
)

func listInvoicesHandler(svc *invoicing.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		m, ok := middleware.MerchantFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		limit := 50
		offset := 0
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}
		if v := c.QueryParam("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		invs, err := svc.ListInvoices(c.Request().Context(), m, limit, offset)
		if err != nil {
			log.Errorf("list invoices failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   limit,
			"offset":  offset,
			"count":   len(invs),
			"results": invs,
		})
	}
}

func getInvoiceHandler(svc *invoicing.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		m, ok := middleware.MerchantFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		inv, err := svc.GetInvoice(c.Request().Context(), m, c.Param("id"))
		if err != nil {
			// absent and foreign invoices answer identically
			if errors.Is(err, repository.ErrNotFound) {
				return c.JSON(http.StatusNotFound, map[string]string{"error": "invoice not found"})
			}
			log.Errorf("get invoice failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, inv)
	}
}
