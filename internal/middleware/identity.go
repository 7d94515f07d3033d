package middleware

// identity.go holds the context keys written by JWTAuth and the accessors
// handlers and other middleware use to read them.

import "github.com/labstack/echo/v4"

const (
    ctxUserID = "user_id"
    ctxRole   = "role"
)

// RoleAdmin is the role allowed to review bookings.
const RoleAdmin = "ADMIN"

// UserID returns the subject of the authenticated token, or "" for guests.
func UserID(c echo.Context) string {
    if s, ok := c.Get(ctxUserID).(string); ok {
        return s
    }
    return ""
}

// Role returns the role claim of the authenticated token, or "".
func Role(c echo.Context) string {
    if s, ok := c.Get(ctxRole).(string); ok {
        return s
    }
    return ""
}
