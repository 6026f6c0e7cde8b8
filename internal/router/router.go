package router

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/scooter-reservation/internal/handler"
    "github.com/iliyamo/scooter-reservation/internal/middleware"
    "github.com/iliyamo/scooter-reservation/internal/model"
)

// Routes carries everything the route table needs.  RateLimit and Cache
// may be nil.
type Routes struct {
    JWTSecret string
    Health    handler.Health
    Bookings  *handler.BookingHandler
    Admin     *handler.AdminBookingHandler
    RateLimit echo.MiddlewareFunc
    Cache     echo.MiddlewareFunc
}

// RegisterRoutes mounts the public probe, the customer booking API under
// /v1/bookings and the staff API under /v1/admin/bookings.
func RegisterRoutes(e *echo.Echo, r Routes) {
    e.GET("/healthz", r.Health.Check)

    auth := []echo.MiddlewareFunc{middleware.JWTAuth(r.JWTSecret)}
    if r.RateLimit != nil {
        auth = append(auth, r.RateLimit)
    }

    g := e.Group("/v1/bookings", with(auth, middleware.RequireRole(model.AccountUser))...)
    g.POST("", r.Bookings.Reserve)
    g.GET("", r.Bookings.List)

    availability := []echo.MiddlewareFunc{}
    if r.Cache != nil {
        availability = append(availability, r.Cache)
    }
    g.GET("/available-timeslots/:duration/:"+middleware.PoolParam, r.Bookings.AvailableTimeslots, availability...)
    g.GET("/available-duration/:"+middleware.PoolParam, r.Bookings.AvailableDurations, availability...)

    g.GET("/:id", r.Bookings.Get)
    g.PATCH("/:id", r.Bookings.Update)
    g.POST("/:id/cancel", r.Bookings.Cancel)

    admin := e.Group("/v1/admin/bookings", with(auth, middleware.RequireRole(model.AccountAdmin, model.AccountInstitutionMember))...)
    admin.GET("", r.Admin.List)
    admin.GET("/:id", r.Admin.Get)
    admin.POST("/:id/cancel", r.Admin.Cancel)
}

func with(base []echo.MiddlewareFunc, extra ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
    out := make([]echo.MiddlewareFunc, 0, len(base)+len(extra))
    return append(append(out, base...), extra...)
}
