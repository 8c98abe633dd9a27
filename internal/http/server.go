package http

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/jmehdipour/installbase-sync/internal/config"
	"github.com/jmehdipour/installbase-sync/internal/http/middleware"
	"github.com/jmehdipour/installbase-sync/internal/metrics"
	"github.com/jmehdipour/installbase-sync/internal/repository"
	"github.com/jmehdipour/installbase-sync/internal/status"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type Server struct{ e *echo.Echo }

// LeaseReader reports which cycle currently owns the sync lease; see the
// lease package. A nil reader means no lease is configured.
type LeaseReader interface {
	Holder(ctx context.Context) (string, error)
}

// NewServer wires the operational API: health, metrics, live status and,
// when cycle history is enabled, the report endpoints.
func NewServer(cfg config.Config, tracker *status.Tracker, history repository.HistoryRepository, cycleLease LeaseReader, rds *redis.Client, reg prometheus.Registerer) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(echoMid.Recover(), echoMid.Logger())

	metrics.MustRegister(reg)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// middlewares
	authMW := middleware.APIKeyMiddleware(cfg.HTTP.APIKey)
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:          rds,
		RPS:            cfg.HTTP.RateLimitRPS,
		KeyPrefix:      "rl:ip:",
		Window:         time.Second,
		RetryAfterHint: true,
	})

	// routes
	v1 := e.Group("/v1", authMW, rlMW)
	v1.GET("/status", statusHandler(tracker, cycleLease))
	if history != nil {
		v1.GET("/reports/cycles", listCyclesHandler(history))
		v1.GET("/reports/failures", listFailuresHandler(history))
	}

	return &Server{e: e}
}

func (s *Server) Start(addr string) error {
	log.Printf("http: listening on %s", addr)
	return s.e.Start(addr)
}
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
