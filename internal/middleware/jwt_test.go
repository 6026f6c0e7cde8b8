package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/scooter-reservation/internal/model"
    "github.com/iliyamo/scooter-reservation/internal/utils"
)

const secret = "test-secret"

func protected(mw ...echo.MiddlewareFunc) *echo.Echo {
    e := echo.New()
    e.GET("/me", func(c echo.Context) error {
        return c.String(http.StatusOK, UserID(c)+"|"+Role(c))
    }, mw...)
    return e
}

func call(e *echo.Echo, token string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(http.MethodGet, "/me", nil)
    if token != "" {
        req.Header.Set("Authorization", "Bearer "+token)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestJWTAuthAcceptsSignedToken(t *testing.T) {
    tok, err := utils.NewAccessToken(secret, "u1", "User", time.Minute)
    if err != nil {
        t.Fatal(err)
    }
    rec := call(protected(JWTAuth(secret)), tok.Token)
    if rec.Code != http.StatusOK || rec.Body.String() != "u1|User" {
        t.Fatalf("got %d %q", rec.Code, rec.Body.String())
    }
}

func TestJWTAuthRejects(t *testing.T) {
    expired, _ := utils.NewAccessToken(secret, "u1", "User", -time.Minute)
    wrongKey, _ := utils.NewAccessToken("other", "u1", "User", time.Minute)
    noSub, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
        "role": "User", "exp": time.Now().Add(time.Minute).Unix(),
    }).SignedString([]byte(secret))
    noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
        "sub": "u1", "role": "User",
    }).SignedString([]byte(secret))
    hs512, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
        "sub": "u1", "exp": time.Now().Add(time.Minute).Unix(),
    }).SignedString([]byte(secret))

    cases := map[string]string{
        "missing":   "",
        "garbage":   "not-a-jwt",
        "expired":   expired.Token,
        "wrong key": wrongKey.Token,
        "no sub":    noSub,
        "no exp":    noExp,
        "hs512":     hs512,
    }
    e := protected(JWTAuth(secret))
    for name, tok := range cases {
        t.Run(name, func(t *testing.T) {
            if rec := call(e, tok); rec.Code != http.StatusUnauthorized {
                t.Fatalf("got %d", rec.Code)
            }
        })
    }
}

func TestRequireRole(t *testing.T) {
    e := protected(JWTAuth(secret), RequireRole(model.AccountAdmin, model.AccountInstitutionMember))
    for role, want := range map[string]int{
        "Admin":             http.StatusOK,
        "InstitutionMember": http.StatusOK,
        "User":              http.StatusForbidden,
    } {
        tok, err := utils.NewAccessToken(secret, "x", role, time.Minute)
        if err != nil {
            t.Fatal(err)
        }
        if rec := call(e, tok.Token); rec.Code != want {
            t.Fatalf("%s: got %d want %d", role, rec.Code, want)
        }
    }
}
