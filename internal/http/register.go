package http

import (
	"errors"
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/aulins/invoice-api/internal/repository"
	"github.com/aulins/invoice-api/internal/service/invoicing"
)

type registerReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Plan  string `json:"plan"`
}

// registerMerchantHandler is the only unauthenticated write endpoint. The
// response carries the plaintext API key exactly once.
func registerMerchantHandler(svc *invoicing.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req registerReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" || strings.TrimSpace(req.Email) == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "name and email are required"})
		}

		reg, err := svc.RegisterMerchant(c.Request().Context(), req.Name, req.Email, req.Plan)
		if err != nil {
			if errors.Is(err, repository.ErrDuplicateEmail) {
				return c.JSON(http.StatusConflict, map[string]string{"error": "email already registered"})
			}
			if errors.Is(err, invoicing.ErrInvalidArgument) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
			}

			log.Errorf("register merchant failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		return c.JSON(http.StatusCreated, map[string]any{
			"merchant": reg.Merchant,
			"api_key": map[string]any{
				"id":     reg.Key.ID,
				"prefix": reg.Key.KeyPrefix,
				"name":   reg.Key.Name,
				// shown once, never retrievable again
				"secret": reg.Secret,
			},
		})
	}
}
