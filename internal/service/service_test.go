package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/scooter-reservation/internal/model"
	"github.com/iliyamo/scooter-reservation/internal/queue"
	"github.com/iliyamo/scooter-reservation/internal/repository"
)

// day is the calendar day most tests book on; "now" defaults to the
// previous day at noon so the whole of day is bookable.
var day = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.UTC)
}

type recorder struct {
	mu     sync.Mutex
	events []queue.BookingEvent
	bumps  []string
}

func (r *recorder) Publish(ctx context.Context, ev queue.BookingEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *recorder) Bump(ctx context.Context, poolID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bumps = append(r.bumps, poolID)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	svc   *BookingService
	store *repository.MemoryStore
	rec   *recorder
	now   time.Time
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// newFixture seeds one institution-1 customer u1 (active, access to p1),
// an inactive customer u2, a customer u3 of institution 2 without access,
// staff m1 (institution 1), m2 (institution 2), admin a1, and pool p1
// with scooter s1.
func newFixture(t *testing.T, opts ...func(*Options)) *fixture {
	t.Helper()
	f := &fixture{rec: &recorder{}, now: at(-12, 0)}
	f.store = repository.NewMemoryStore(func() time.Time { return f.now })

	f.store.AddUser(model.User{ID: "u1", AccountType: model.AccountUser, Status: model.UserActive,
		Customer: &model.Customer{ID: "c1", UserID: "u1", InstitutionID: "inst-1"}})
	f.store.AddUser(model.User{ID: "u2", AccountType: model.AccountUser, Status: model.UserInactive,
		Customer: &model.Customer{ID: "c2", UserID: "u2", InstitutionID: "inst-1"}})
	f.store.AddUser(model.User{ID: "u3", AccountType: model.AccountUser, Status: model.UserActive,
		Customer: &model.Customer{ID: "c3", UserID: "u3", InstitutionID: "inst-2"}})
	f.store.AddUser(model.User{ID: "m1", AccountType: model.AccountInstitutionMember, Status: model.UserActive,
		InstitutionMember: &model.InstitutionMember{ID: "im1", UserID: "m1", InstitutionID: "inst-1"}})
	f.store.AddUser(model.User{ID: "m2", AccountType: model.AccountInstitutionMember, Status: model.UserActive,
		InstitutionMember: &model.InstitutionMember{ID: "im2", UserID: "m2", InstitutionID: "inst-2"}})
	f.store.AddUser(model.User{ID: "a1", AccountType: model.AccountAdmin, Status: model.UserActive})

	f.store.AddPool(model.ScooterPool{ID: "p1", Name: "Campus"})
	f.store.AddScooter(model.Scooter{ID: "s1", Name: "Scooter 1", PoolID: "p1"})
	f.store.GrantAccess("c1", "p1")
	f.store.GrantAccess("c2", "p1")

	o := Options{
		Hours:     Hours{Opening: 8, Closing: 20},
		Buffer:    time.Hour,
		Durations: model.DefaultDurationOptions(),
		Location:  time.UTC,
		Clock:     func() time.Time { return f.now },
	}
	for _, fn := range opts {
		fn(&o)
	}
	f.svc = NewBookingService(Deps{
		Users:    f.store,
		Pools:    f.store,
		Bookings: f.store,
		Events:   f.rec,
		Cache:    f.rec,
	}, o, quietLogger())
	return f
}

// seed stores an Open booking directly.
func (f *fixture) seed(id, customerID, scooterID string, start time.Time, d model.Duration) {
	f.store.AddBooking(model.Booking{
		ID:             id,
		CustomerID:     customerID,
		ScooterID:      scooterID,
		BookingDate:    start,
		BookingEndDate: model.EndFor(start, d),
		Duration:       d,
		BookingType:    model.BookingReservation,
		BookingStatus:  model.BookingOpen,
	})
}

func (f *fixture) reserve(userID string, start time.Time, d model.Duration) (*model.Booking, error) {
	return f.svc.Reserve(context.Background(), userID, ReserveRequest{
		StartTime:   start,
		Duration:    d,
		BookingType: model.BookingReservation,
		PoolID:      "p1",
	})
}

func wantErr(t *testing.T, got, want error) {
	t.Helper()
	if !errors.Is(got, want) {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func TestErrorIsMatchesCodeAndStatus(t *testing.T) {
	rendered := &Error{Code: CodeInvalidBookingTime, Status: 400, Message: "Booking should be between 9:00 and 17:00."}
	if !errors.Is(rendered, ErrInvalidBookingTime) {
		t.Fatal("rendered hours error should match its sentinel")
	}
	if errors.Is(ErrNoPoolAccess, ErrInvalidBookingState) {
		t.Fatal("pool access and state errors differ in status")
	}
}

type failingStore struct {
	*repository.MemoryStore
}

func (failingStore) HasPoolAccess(ctx context.Context, customerID, poolID string) (bool, error) {
	return false, errors.New("connection reset")
}

func TestStoreFailureBecomesInternal(t *testing.T) {
	f := newFixture(t)
	svc := NewBookingService(Deps{
		Users:    f.store,
		Pools:    failingStore{f.store},
		Bookings: f.store,
	}, f.svc.Options(), quietLogger())
	_, err := svc.Reserve(context.Background(), "u1", ReserveRequest{
		StartTime: at(10, 0), Duration: 60, BookingType: model.BookingReservation, PoolID: "p1",
	})
	wantErr(t, err, ErrInternal)
	var se *Error
	if !errors.As(err, &se) || se.Message != "Internal server error." {
		t.Fatalf("internal detail leaked: %v", err)
	}
}

func repositoryCancel(id string) repository.StatusChange {
	return repository.StatusChange{BookingID: id, From: model.BookingOpen, To: model.BookingCancelled}
}
