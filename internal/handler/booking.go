package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/scooter-reservation/internal/middleware"
    "github.com/iliyamo/scooter-reservation/internal/model"
    "github.com/iliyamo/scooter-reservation/internal/service"
)

// BookingHandler exposes the customer booking API.  JWTAuth and the User
// role gate run before every method.
type BookingHandler struct {
    Bookings *service.BookingService
}

// NewBookingHandler panics on a nil service.
func NewBookingHandler(s *service.BookingService) *BookingHandler {
    if s == nil {
        panic("nil booking service passed to NewBookingHandler")
    }
    return &BookingHandler{Bookings: s}
}

func (h *BookingHandler) location() *time.Location {
    if loc := h.Bookings.Options().Location; loc != nil {
        return loc
    }
    return time.UTC
}

type reserveRequest struct {
    BookingDate   string `json:"booking_date" validate:"required_unless=BookingType OnDemand"`
    Duration      int    `json:"duration" validate:"required,gt=0"`
    BookingType   string `json:"booking_type" validate:"required,oneof=OnDemand Reservation"`
    ScooterPoolID string `json:"scooter_pool_id" validate:"required"`
}

// Reserve handles POST /v1/bookings.
func (h *BookingHandler) Reserve(c echo.Context) error {
    var body reserveRequest
    if err := c.Bind(&body); err != nil {
        return invalidInput(c)
    }
    if err := c.Validate(&body); err != nil {
        return invalidInput(c)
    }
    req := service.ReserveRequest{
        Duration:    model.Duration(body.Duration),
        BookingType: model.BookingType(body.BookingType),
        PoolID:      body.ScooterPoolID,
    }
    if body.BookingDate != "" {
        start, err := parseDate(body.BookingDate, h.location())
        if err != nil {
            return invalidInput(c)
        }
        req.StartTime = start
    }
    b, err := h.Bookings.Reserve(c.Request().Context(), middleware.UserID(c), req)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusCreated, b)
}

// List handles GET /v1/bookings?status=Open,Ongoing&sort_order=desc.
func (h *BookingHandler) List(c echo.Context) error {
    list, err := h.Bookings.ListMyBookings(c.Request().Context(), middleware.UserID(c),
        splitList(c.QueryParam("status")), c.QueryParam("sort_order"))
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, list)
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
    b, err := h.Bookings.GetBooking(c.Request().Context(), middleware.UserID(c), c.Param("id"))
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, b)
}

type updateRequest struct {
    Duration int `json:"duration" validate:"required,gt=0"`
}

// Update handles PATCH /v1/bookings/:id.  Only the duration can change.
func (h *BookingHandler) Update(c echo.Context) error {
    var body updateRequest
    if err := c.Bind(&body); err != nil {
        return invalidInput(c)
    }
    if err := c.Validate(&body); err != nil {
        return invalidInput(c)
    }
    b, err := h.Bookings.UpdateDuration(c.Request().Context(), middleware.UserID(c), c.Param("id"), model.Duration(body.Duration))
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, b)
}

// Cancel handles POST /v1/bookings/:id/cancel.
func (h *BookingHandler) Cancel(c echo.Context) error {
    b, err := h.Bookings.Cancel(c.Request().Context(), middleware.UserID(c), c.Param("id"))
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, b)
}

// AvailableTimeslots handles
// GET /v1/bookings/available-timeslots/:duration/:poolId?booking_date=YYYY-MM-DD.
func (h *BookingHandler) AvailableTimeslots(c echo.Context) error {
    d, err := model.ParseDuration(c.Param("duration"), h.Bookings.DurationOptions())
    if err != nil {
        return invalidInput(c)
    }
    day, err := parseDate(c.QueryParam("booking_date"), h.location())
    if err != nil {
        return invalidInput(c)
    }
    slots, err := h.Bookings.AvailableTimeSlots(c.Request().Context(), middleware.UserID(c), d, c.Param(middleware.PoolParam), day)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, slots)
}

// AvailableDurations handles
// GET /v1/bookings/available-duration/:poolId?booking_date=&booking_id=.
func (h *BookingHandler) AvailableDurations(c echo.Context) error {
    q := service.DurationQuery{BookingID: c.QueryParam("booking_id")}
    if raw := c.QueryParam("booking_date"); raw != "" && q.BookingID == "" {
        day, err := parseDate(raw, h.location())
        if err != nil {
            return invalidInput(c)
        }
        q.Date = &day
    }
    out, err := h.Bookings.AvailableDurations(c.Request().Context(), middleware.UserID(c), c.Param(middleware.PoolParam), q)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, out)
}
