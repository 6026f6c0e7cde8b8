package middleware

import (
    "net/http"
    "strings"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// JWTAuth validates an HS256 Bearer access token signed with secret and
// stores its subject and role claims for UserID and Role.  Tokens without
// a string subject are rejected.
func JWTAuth(secret string) echo.MiddlewareFunc {
    keyFunc := func(t *jwt.Token) (interface{}, error) {
        return []byte(secret), nil
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return unauthorized(c, "missing bearer token")
            }
            raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

            claims := jwt.MapClaims{}
            tok, err := jwt.ParseWithClaims(raw, claims, keyFunc,
                jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
                jwt.WithExpirationRequired(),
            )
            if err != nil || !tok.Valid {
                return unauthorized(c, "invalid token")
            }
            sub, err := claims.GetSubject()
            if err != nil || sub == "" {
                return unauthorized(c, "invalid claims")
            }
            role, _ := claims["role"].(string)

            c.Set(ctxUserID, sub)
            c.Set(ctxRole, role)
            return next(c)
        }
    }
}

func unauthorized(c echo.Context, msg string) error {
    return c.JSON(http.StatusUnauthorized, echo.Map{"error": msg, "error_code": "UNAUTHORIZED"})
}
