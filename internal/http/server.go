package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/aulins/invoice-api/internal/config"
	"github.com/aulins/invoice-api/internal/http/middleware"
	"github.com/aulins/invoice-api/internal/repository"
	"github.com/aulins/invoice-api/internal/service/invoicing"
)

type Server struct{ e *echo.Echo }

// Options carry the optional collaborators: Redis for burst limiting, the
// ClickHouse usage repo for reports, and the usage recorder for audit
// events. Any of them may be nil (dev / memory mode); the affected
// feature degrades, the core API does not.
type Options struct {
	Redis     *redis.Client
	UsageRepo repository.UsageEventsRepository
	Recorder  middleware.UsageRecorder
}

func NewServer(cfg config.Config, store repository.Store, opts Options) *Server {
	svc := invoicing.New(store)

	e := echo.New()
	e.HideBanner = true
	e.Use(echoMid.Recover(), echoMid.Logger())

	// metrics registration happens once in the command layer
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// public registration
	e.POST("/v1/merchants", registerMerchantHandler(svc))

	// middlewares
	authMW := middleware.APIKeyMiddleware(svc)
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:          opts.Redis,
		RPS:            cfg.RateLimit.RPS,
		KeyPrefix:      "rl:mrc:",
		Window:         time.Second,
		RetryAfterHint: true,
	})
	usageMW := middleware.UsageMiddleware(opts.Recorder)

	// key-scoped routes
	v1 := e.Group("/v1", authMW, rlMW, usageMW)
	v1.POST("/invoices", createInvoiceHandler(svc))
	v1.GET("/invoices", listInvoicesHandler(svc))
	v1.GET("/invoices/:id", getInvoiceHandler(svc))
	v1.DELETE("/keys/:id", revokeAPIKeyHandler(svc))
	v1.GET("/usage", usageReportHandler(svc, opts.UsageRepo))

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
