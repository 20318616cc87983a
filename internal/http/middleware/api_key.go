package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v4"

	"github.com/aulins/invoice-api/internal/model"
	"github.com/aulins/invoice-api/internal/service/invoicing"
)

// Authenticator resolves a plaintext API key to its active merchant.
type Authenticator interface {
	Authenticate(ctx context.Context, rawKey string) (*model.Merchant, error)
}

// MerchantFromCtx extracts the authenticated merchant set by APIKeyMiddleware.
func MerchantFromCtx(c echo.Context) (*model.Merchant, bool) {
	m, ok := c.Get("merchant").(*model.Merchant)
	return m, ok
}

// APIKeyMiddleware authenticates requests using the X-API-Key header.
// Unknown keys, revoked keys and inactive merchants all produce the same
// 401 so nothing about key existence leaks.
func APIKeyMiddleware(authn Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := strings.TrimSpace(c.Request().Header.Get("X-API-Key"))
			if key == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing api key"})
			}
			m, err := authn.Authenticate(c.Request().Context(), key)
			if errors.Is(err, invoicing.ErrUnauthorized) {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid api key"})
			}
			if err != nil {
				return c.JSON(http.StatusInternalServerError, map[string]string{"error": "auth error"})
			}
			c.Set("merchant", m)
			return next(c)
		}
	}
}
