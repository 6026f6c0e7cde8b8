package handler

import (
    "context"
    "database/sql"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

// Health answers load balancer probes.  With a database attached it also
// pings MySQL and reports 503 when the ping fails.
type Health struct {
    DB *sql.DB
}

func (h Health) Check(c echo.Context) error {
    if h.DB != nil {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()
        if err := h.DB.PingContext(ctx); err != nil {
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "degraded", "database": "unreachable"})
        }
    }
    return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
