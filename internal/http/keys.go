package http

import (
	"errors"
	"net/http"

	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/aulins/invoice-api/internal/http/middleware"
	"github.com/aulins/invoice-api/internal/repository"
	"github.com/aulins/invoice-api/internal/service/invoicing"
)

// revokeAPIKeyHandler soft-deactivates a key. Revoked keys stay on record
// for audit; there is no hard delete.
func revokeAPIKeyHandler(svc *invoicing.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		m, ok := middleware.MerchantFromCtx(c)
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		}

		keyID := c.Param("id")
		if err := svc.RevokeAPIKey(c.Request().Context(), m, keyID); err != nil {
			switch {
			case errors.Is(err, repository.ErrNotFound):
				return c.JSON(http.StatusNotFound, map[string]string{"error": "api key not found"})
			case errors.Is(err, repository.ErrAlreadyRevoked):
				return c.JSON(http.StatusConflict, map[string]string{"error": "api key already revoked"})
			}

			log.Errorf("revoke api key failed: %v", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"revoked": true,
			"key_id":  keyID,
		})
	}
}
