package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/scooter-reservation/internal/config"
)

func rateContext(user string) echo.Context {
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/v1/bookings?x=1", nil)
    req.Header.Set(echo.HeaderXRealIP, "10.0.0.7")
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/v1/bookings")
    if user != "" {
        c.Set(ctxUserID, user)
    }
    return c
}

func TestBuildRateKey(t *testing.T) {
    cases := []struct {
        strategy string
        user     string
        want     string
    }{
        {"ip", "u1", "rl:ip:10.0.0.7"},
        {"user", "u1", "rl:user:u1"},
        {"user", "", "rl:user:anon"},
        {"user_route", "u1", "rl:user:u1:route:GET /v1/bookings"},
        {"", "u1", "rl:ip:10.0.0.7:user:u1:route:GET /v1/bookings"},
    }
    for _, c := range cases {
        cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: c.strategy}
        if got := buildRateKey(cfg, rateContext(c.user)); got != c.want {
            t.Errorf("%q: got %q want %q", c.strategy, got, c.want)
        }
    }
}

func TestTokenBucketWithoutRedisPassesThrough(t *testing.T) {
    e := echo.New()
    mw := NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil, nil)
    e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, mw)
    for i := 0; i < 3; i++ {
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
        if rec.Code != http.StatusNoContent {
            t.Fatalf("request %d: %d", i, rec.Code)
        }
    }
}

func TestAsInt64(t *testing.T) {
    for in, want := range map[interface{}]int64{int64(3): 3, 4: 4, 5.0: 5, "6": 6, "x": 0} {
        if got := asInt64(in); got != want {
            t.Errorf("asInt64(%v) = %d", in, got)
        }
    }
}
