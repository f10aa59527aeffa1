package handler // declare the package name; contains HTTP handlers

import (
	"context"  // context bounds each dependency probe
	"net/http" // net/http provides status codes and response helpers
	"time"     // time expresses the probe timeout

	"github.com/labstack/echo/v4"  // echo is the web framework used for this project
	"github.com/redis/go-redis/v9" // redis client probed when the cache is configured
	"go.uber.org/zap"              // structured logging
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
)

// Pinger is anything whose reachability can be probed.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RedisPinger adapts a redis client to Pinger.
type RedisPinger struct{ Client *redis.Client }

func (p RedisPinger) Ping(ctx context.Context) error { return p.Client.Ping(ctx).Err() }

// HealthHandler reports the process and its dependencies.  It always
// answers 200: an unreachable dependency is reported, not escalated.
type HealthHandler struct {
	DB      Pinger
	Cache   Pinger // nil when Redis is not configured
	Logger  *zap.Logger
	Timeout time.Duration
}

func NewHealthHandler(db, cache Pinger, logger *zap.Logger, timeout time.Duration) *HealthHandler {
	return &HealthHandler{DB: db, Cache: cache, Logger: logger, Timeout: timeout}
}

// Health is used by load balancers and monitoring systems.
func (h *HealthHandler) Health(c echo.Context) error {
	body := map[string]string{
		"system": statusHealthy,
		"db":     h.probe(c, "db", h.DB),
	}
	if h.Cache != nil {
		body["cache"] = h.probe(c, "cache", h.Cache)
	}
	return c.JSON(http.StatusOK, body)
}

func (h *HealthHandler) probe(c echo.Context, name string, p Pinger) string {
	ctx, cancel := withTimeout(c, h.Timeout)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		h.Logger.Warn("health probe failed", zap.String("dependency", name), zap.Error(err))
		return statusUnhealthy
	}
	return statusHealthy
}
