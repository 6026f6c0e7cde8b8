package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/scooter-reservation/internal/config"
)

func availabilityContext(user, query string) echo.Context {
    e := echo.New()
    req := httptest.NewRequest(http.MethodGet, "/v1/bookings/available-duration/p1?"+query, nil)
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/v1/bookings/available-duration/:poolId")
    c.SetParamNames(PoolParam)
    c.SetParamValues("p1")
    if user != "" {
        c.Set(ctxUserID, user)
    }
    return c
}

func TestCacheKeyScopes(t *testing.T) {
    cfg := config.CacheConfig{Prefix: "cache"}
    base := cacheKeyFrom(cfg, availabilityContext("u1", "booking_date=2024-05-01"), "p1", 0)

    if again := cacheKeyFrom(cfg, availabilityContext("u1", "booking_date=2024-05-01"), "p1", 0); again != base {
        t.Fatal("key is not stable")
    }
    for name, other := range map[string]string{
        "generation": cacheKeyFrom(cfg, availabilityContext("u1", "booking_date=2024-05-01"), "p1", 1),
        "user":       cacheKeyFrom(cfg, availabilityContext("u2", "booking_date=2024-05-01"), "p1", 0),
        "query":      cacheKeyFrom(cfg, availabilityContext("u1", "booking_date=2024-05-02"), "p1", 0),
    } {
        if other == base {
            t.Errorf("%s does not change the key", name)
        }
    }
}

func TestPayloadRoundTrip(t *testing.T) {
    hdr := http.Header{"Content-Type": {"application/json"}}
    bs, err := encodePayload(http.StatusOK, hdr, []byte(`[]`))
    if err != nil {
        t.Fatal(err)
    }
    status, got, body, ok := decodePayload(bs)
    if !ok || status != http.StatusOK || got.Get("Content-Type") != "application/json" || string(body) != "[]" {
        t.Fatalf("decoded %d %v %q %v", status, got, body, ok)
    }
    if _, _, _, ok := decodePayload(bs[:5]); ok {
        t.Fatal("short payload decoded")
    }
}

func TestCaptureWriterLimit(t *testing.T) {
    rec := httptest.NewRecorder()
    cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
    _, _ = cw.Write([]byte("abc"))
    if cw.truncated() {
        t.Fatal("three bytes fit")
    }
    _, _ = cw.Write([]byte("def"))
    if !cw.truncated() || cw.buf.String() != "abcd" || rec.Body.String() != "abcdef" {
        t.Fatalf("captured %q, sent %q", cw.buf.String(), rec.Body.String())
    }
}

func TestRedisCacheDisabledPassesThrough(t *testing.T) {
    e := echo.New()
    calls := 0
    mw := NewRedisCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil, nil, nil)
    e.GET("/x/:poolId", func(c echo.Context) error {
        calls++
        return c.JSON(http.StatusOK, []int{})
    }, mw)
    for i := 0; i < 2; i++ {
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x/p1", nil))
        if rec.Header().Get("X-Cache") != "" {
            t.Fatal("cache headers without redis")
        }
    }
    if calls != 2 {
        t.Fatalf("handler ran %d times", calls)
    }
}
