package middleware

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/scooter-reservation/internal/model"
)

// RequireRole lets the request through only when the role claim stored by
// JWTAuth is one of roles.  Anything else is 403.
func RequireRole(roles ...model.AccountType) echo.MiddlewareFunc {
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[string(r)] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !allowed[Role(c)] {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "error_code": "FORBIDDEN"})
            }
            return next(c)
        }
    }
}
