package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

// Pinger is anything that can report whether a dependency is reachable,
// such as *sql.DB.
type Pinger interface {
    PingContext(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Health is a simple liveness endpoint used by load balancers.  It returns
// a plain text "ok" with status 200.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Ready returns a readiness handler that pings every named dependency.  A
// nil pinger is reported as "disabled" and does not fail the check.
func Ready(deps map[string]Pinger) echo.HandlerFunc {
    return func(c echo.Context) error {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()

        status := http.StatusOK
        out := echo.Map{}
        for name, p := range deps {
            if p == nil {
                out[name] = "disabled"
                continue
            }
            if err := p.PingContext(ctx); err != nil {
                out[name] = err.Error()
                status = http.StatusServiceUnavailable
                continue
            }
            out[name] = "ok"
        }
        return c.JSON(status, out)
    }
}
