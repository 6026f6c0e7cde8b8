package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/scooter-reservation/internal/middleware"
    "github.com/iliyamo/scooter-reservation/internal/service"
)

// AdminBookingHandler exposes booking oversight to admins and institution
// members.  Members only ever see their own institution's bookings.
type AdminBookingHandler struct {
    Bookings *service.BookingService
}

func NewAdminBookingHandler(s *service.BookingService) *AdminBookingHandler {
    if s == nil {
        panic("nil booking service passed to NewAdminBookingHandler")
    }
    return &AdminBookingHandler{Bookings: s}
}

// List handles GET /v1/admin/bookings?page=&limit=&search=&sort_by=&sort_order=.
func (h *AdminBookingHandler) List(c echo.Context) error {
    page, err := queryInt(c.QueryParam("page"))
    if err != nil {
        return invalidInput(c)
    }
    limit, err := queryInt(c.QueryParam("limit"))
    if err != nil {
        return invalidInput(c)
    }
    out, err := h.Bookings.AdminListBookings(c.Request().Context(), middleware.UserID(c), service.ListParams{
        Page:      page,
        Limit:     limit,
        Search:    c.QueryParam("search"),
        SortBy:    c.QueryParam("sort_by"),
        SortOrder: c.QueryParam("sort_order"),
    })
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/admin/bookings/:id.
func (h *AdminBookingHandler) Get(c echo.Context) error {
    b, err := h.Bookings.AdminGetBooking(c.Request().Context(), middleware.UserID(c), c.Param("id"))
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, b)
}

// Cancel handles POST /v1/admin/bookings/:id/cancel.
func (h *AdminBookingHandler) Cancel(c echo.Context) error {
    b, err := h.Bookings.AdminCancel(c.Request().Context(), middleware.UserID(c), c.Param("id"))
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, b)
}
