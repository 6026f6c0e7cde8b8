package router

import (
    "encoding/json"
    "io"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/scooter-reservation/internal/handler"
    "github.com/iliyamo/scooter-reservation/internal/model"
    "github.com/iliyamo/scooter-reservation/internal/repository"
    "github.com/iliyamo/scooter-reservation/internal/service"
    "github.com/iliyamo/scooter-reservation/internal/utils"
)

const secret = "router-secret"

var now = time.Date(2024, 4, 30, 12, 0, 0, 0, time.UTC)

type api struct {
    t     *testing.T
    e     *echo.Echo
    store *repository.MemoryStore
}

func newAPI(t *testing.T) *api {
    t.Helper()
    store := repository.NewMemoryStore(func() time.Time { return now })
    store.AddUser(model.User{ID: "u1", AccountType: model.AccountUser, Status: model.UserActive,
        Customer: &model.Customer{ID: "c1", UserID: "u1", InstitutionID: "inst-1"}})
    store.AddUser(model.User{ID: "m1", AccountType: model.AccountInstitutionMember, Status: model.UserActive,
        InstitutionMember: &model.InstitutionMember{ID: "im1", UserID: "m1", InstitutionID: "inst-1"}})
    store.AddPool(model.ScooterPool{ID: "p1", Name: "Campus"})
    store.AddScooter(model.Scooter{ID: "s1", Name: "Scooter 1", PoolID: "p1"})
    store.GrantAccess("c1", "p1")

    log := logrus.New()
    log.SetOutput(io.Discard)
    svc := service.NewBookingService(service.Deps{Users: store, Pools: store, Bookings: store}, service.Options{
        Hours:     service.Hours{Opening: 8, Closing: 20},
        Buffer:    time.Hour,
        Durations: model.DefaultDurationOptions(),
        Location:  time.UTC,
        Clock:     func() time.Time { return now },
    }, log)

    e := echo.New()
    e.Validator = handler.NewRequestValidator()
    e.HTTPErrorHandler = handler.ErrorHandler
    RegisterRoutes(e, Routes{
        JWTSecret: secret,
        Bookings:  handler.NewBookingHandler(svc),
        Admin:     handler.NewAdminBookingHandler(svc),
    })
    return &api{t: t, e: e, store: store}
}

func (a *api) do(method, path, user, role, body string) *httptest.ResponseRecorder {
    a.t.Helper()
    var rd io.Reader
    if body != "" {
        rd = strings.NewReader(body)
    }
    req := httptest.NewRequest(method, path, rd)
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    if user != "" {
        tok, err := utils.NewAccessToken(secret, user, role, time.Hour)
        if err != nil {
            a.t.Fatal(err)
        }
        req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
    }
    rec := httptest.NewRecorder()
    a.e.ServeHTTP(rec, req)
    return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
    t.Helper()
    var v T
    if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
        t.Fatalf("decode %q: %v", rec.Body.String(), err)
    }
    return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
    return decode[map[string]string](t, rec)["error_code"]
}

func TestHealth(t *testing.T) {
    a := newAPI(t)
    if rec := a.do(http.MethodGet, "/healthz", "", "", ""); rec.Code != http.StatusOK {
        t.Fatalf("got %d", rec.Code)
    }
}

func TestReserveGetCancelFlow(t *testing.T) {
    a := newAPI(t)
    rec := a.do(http.MethodPost, "/v1/bookings", "u1", "User",
        `{"booking_date":"2024-05-01T10:00:00Z","duration":60,"booking_type":"Reservation","scooter_pool_id":"p1"}`)
    if rec.Code != http.StatusCreated {
        t.Fatalf("reserve: %d %s", rec.Code, rec.Body.String())
    }
    b := decode[model.Booking](t, rec)
    if b.ScooterID != "s1" || b.BookingStatus != model.BookingOpen {
        t.Fatalf("booking %+v", b)
    }

    if rec := a.do(http.MethodGet, "/v1/bookings/"+b.ID, "u1", "User", ""); rec.Code != http.StatusOK {
        t.Fatalf("get: %d", rec.Code)
    }

    rec = a.do(http.MethodPost, "/v1/bookings", "u1", "User",
        `{"booking_date":"2024-05-01T10:00:00Z","duration":60,"booking_type":"Reservation","scooter_pool_id":"p1"}`)
    if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "DUPLICATE_BOOKING" {
        t.Fatalf("duplicate: %d %s", rec.Code, rec.Body.String())
    }

    rec = a.do(http.MethodPatch, "/v1/bookings/"+b.ID, "u1", "User", `{"duration":120}`)
    if rec.Code != http.StatusOK || decode[model.Booking](t, rec).Duration != 120 {
        t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
    }

    if rec := a.do(http.MethodPost, "/v1/bookings/"+b.ID+"/cancel", "u1", "User", ""); rec.Code != http.StatusOK {
        t.Fatalf("cancel: %d", rec.Code)
    }
    rec = a.do(http.MethodPost, "/v1/bookings/"+b.ID+"/cancel", "u1", "User", "")
    if rec.Code != http.StatusConflict || errorCode(t, rec) != "INVALID_BOOKING_REQUEST" {
        t.Fatalf("second cancel: %d %s", rec.Code, rec.Body.String())
    }
}

func TestReserveRejectsBadBodies(t *testing.T) {
    a := newAPI(t)
    for name, body := range map[string]string{
        "not json":     `{`,
        "missing pool": `{"booking_date":"2024-05-01T10:00:00Z","duration":60,"booking_type":"Reservation"}`,
        "bad type":     `{"booking_date":"2024-05-01T10:00:00Z","duration":60,"booking_type":"Weekly","scooter_pool_id":"p1"}`,
        "bad date":     `{"booking_date":"tomorrow","duration":60,"booking_type":"Reservation","scooter_pool_id":"p1"}`,
        "no date":      `{"duration":60,"booking_type":"Reservation","scooter_pool_id":"p1"}`,
        "odd duration": `{"booking_date":"2024-05-01T10:00:00Z","duration":90,"booking_type":"Reservation","scooter_pool_id":"p1"}`,
    } {
        t.Run(name, func(t *testing.T) {
            rec := a.do(http.MethodPost, "/v1/bookings", "u1", "User", body)
            if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "INVALID_INPUT" {
                t.Fatalf("got %d %s", rec.Code, rec.Body.String())
            }
        })
    }
}

func TestAvailabilityRoutes(t *testing.T) {
    a := newAPI(t)
    rec := a.do(http.MethodGet, "/v1/bookings/available-timeslots/60/p1?booking_date=2024-05-01", "u1", "User", "")
    if rec.Code != http.StatusOK {
        t.Fatalf("timeslots: %d %s", rec.Code, rec.Body.String())
    }
    slots := decode[[]model.TimeSlot](t, rec)
    if len(slots) != 12 || slots[0].Timeslot != "08:00" || slots[11].Timeslot != "19:00" {
        t.Fatalf("slots %+v", slots)
    }

    rec = a.do(http.MethodGet, "/v1/bookings/available-timeslots/45/p1?booking_date=2024-05-01", "u1", "User", "")
    if rec.Code != http.StatusBadRequest {
        t.Fatalf("bad duration: %d", rec.Code)
    }
    rec = a.do(http.MethodGet, "/v1/bookings/available-timeslots/60/p1?booking_date=01/05/2024", "u1", "User", "")
    if rec.Code != http.StatusBadRequest {
        t.Fatalf("bad date: %d", rec.Code)
    }

    rec = a.do(http.MethodGet, "/v1/bookings/available-duration/p1?booking_date=2024-05-01", "u1", "User", "")
    if rec.Code != http.StatusOK {
        t.Fatalf("durations: %d %s", rec.Code, rec.Body.String())
    }
    if ds := decode[[]model.AvailableDuration](t, rec); len(ds) != 4 || !ds[3].Available {
        t.Fatalf("durations %+v", ds)
    }
}

func TestRoleGates(t *testing.T) {
    a := newAPI(t)
    if rec := a.do(http.MethodGet, "/v1/bookings", "", "", ""); rec.Code != http.StatusUnauthorized {
        t.Fatalf("anonymous: %d", rec.Code)
    }
    if rec := a.do(http.MethodGet, "/v1/bookings", "m1", "InstitutionMember", ""); rec.Code != http.StatusForbidden {
        t.Fatalf("staff on customer api: %d", rec.Code)
    }
    if rec := a.do(http.MethodGet, "/v1/admin/bookings", "u1", "User", ""); rec.Code != http.StatusForbidden {
        t.Fatalf("customer on admin api: %d", rec.Code)
    }
}

func TestAdminRoutes(t *testing.T) {
    a := newAPI(t)
    a.store.AddBooking(model.Booking{
        ID: "b1", CustomerID: "c1", ScooterID: "s1",
        BookingDate: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), BookingEndDate: time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC),
        Duration: 60, BookingType: model.BookingReservation, BookingStatus: model.BookingOpen,
    })
    rec := a.do(http.MethodGet, "/v1/admin/bookings?page=1&limit=5", "m1", "InstitutionMember", "")
    if rec.Code != http.StatusOK {
        t.Fatalf("list: %d %s", rec.Code, rec.Body.String())
    }
    page := decode[service.BookingPage](t, rec)
    if page.TotalCount != 1 || page.PerPage != 5 || page.Data[0].ID != "b1" {
        t.Fatalf("page %+v", page)
    }
    if rec := a.do(http.MethodGet, "/v1/admin/bookings?sort_by=password", "m1", "InstitutionMember", ""); rec.Code != http.StatusBadRequest {
        t.Fatalf("bad sort: %d", rec.Code)
    }
    if rec := a.do(http.MethodGet, "/v1/admin/bookings?page=x", "m1", "InstitutionMember", ""); rec.Code != http.StatusBadRequest {
        t.Fatalf("bad page: %d", rec.Code)
    }
    if rec := a.do(http.MethodGet, "/v1/admin/bookings/b1", "m1", "InstitutionMember", ""); rec.Code != http.StatusOK {
        t.Fatalf("get: %d", rec.Code)
    }
    rec = a.do(http.MethodPost, "/v1/admin/bookings/b1/cancel", "m1", "InstitutionMember", "")
    if rec.Code != http.StatusOK || decode[model.Booking](t, rec).BookingStatus != model.BookingCancelled {
        t.Fatalf("cancel: %d %s", rec.Code, rec.Body.String())
    }
}

func TestUnknownRouteUsesErrorShape(t *testing.T) {
    a := newAPI(t)
    rec := a.do(http.MethodGet, "/nope", "", "", "")
    if rec.Code != http.StatusNotFound || errorCode(t, rec) != "NOT_FOUND" {
        t.Fatalf("got %d %s", rec.Code, rec.Body.String())
    }
}
