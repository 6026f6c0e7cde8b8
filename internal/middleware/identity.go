package middleware

import "github.com/labstack/echo/v4"

// Context keys filled by JWTAuth.
const (
    ctxUserID = "user_id"
    ctxRole   = "role"
)

// UserID returns the authenticated user's id, or "" when the request
// carries no verified token.
func UserID(c echo.Context) string {
    s, _ := c.Get(ctxUserID).(string)
    return s
}

// Role returns the authenticated user's account type.
func Role(c echo.Context) string {
    s, _ := c.Get(ctxRole).(string)
    return s
}

// subject names the caller in rate-limit and cache keys.
func subject(c echo.Context) string {
    if id := UserID(c); id != "" {
        return id
    }
    return "anon"
}
