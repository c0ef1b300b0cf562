package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// HealthHandler answers liveness probes.  Besides confirming the process is
// up it pings the two stores the credential workflows depend on, so a broken
// MySQL or Redis connection flips the probe to 503 instead of surfacing as
// scattered request failures.
type HealthHandler struct {
	DB  *sql.DB
	RDB *redis.Client
}

func NewHealthHandler(db *sql.DB, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{DB: db, RDB: rdb}
}

func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := echo.Map{"status": "ok", "database": "up", "redis": "up"}
	code := http.StatusOK
	if h.DB == nil || h.DB.PingContext(ctx) != nil {
		status["status"] = "degraded"
		status["database"] = "down"
		code = http.StatusServiceUnavailable
	}
	if h.RDB == nil || h.RDB.Ping(ctx).Err() != nil {
		status["status"] = "degraded"
		status["redis"] = "down"
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, status)
}
