package middleware

import (
	"time"

	echo "github.com/labstack/echo/v4"

	"github.com/aulins/invoice-api/internal/model"
)

// UsageRecorder accepts request-audit events. Implementations must not
// block the request path; the Kafka producer buffers and drops on overflow.
type UsageRecorder interface {
	Record(event model.UsageEvent)
}

// UsageMiddleware emits one UsageEvent per authenticated request. Purely
// observational: a failing recorder never fails the request, and
// unauthenticated traffic is not tracked.
func UsageMiddleware(rec UsageRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if rec == nil {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			m, ok := MerchantFromCtx(c)
			if !ok {
				return err
			}

			status := c.Response().Status
			if err != nil {
				if he, isHTTP := err.(*echo.HTTPError); isHTTP {
					status = he.Code
				}
			}

			rec.Record(model.UsageEvent{
				MerchantID:     m.ID,
				Endpoint:       c.Path(),
				Method:         c.Request().Method,
				StatusCode:     status,
				ResponseTimeMs: time.Since(start).Milliseconds(),
				UserAgent:      c.Request().UserAgent(),
				IPAddress:      c.RealIP(),
				OccurredAt:     start.UTC(),
			})
			return err
		}
	}
}
