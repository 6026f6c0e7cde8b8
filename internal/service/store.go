package service

import (
	"context"
	"time"

	"github.com/iliyamo/scooter-reservation/internal/model"
	"github.com/iliyamo/scooter-reservation/internal/queue"
	"github.com/iliyamo/scooter-reservation/internal/repository"
)

// UserDirectory resolves accounts.  FindUserByID returns
// repository.ErrNotFound for unknown IDs.
type UserDirectory interface {
	FindUserByID(ctx context.Context, id string) (*model.User, error)
}

// PoolStore answers pool membership and scooter occupancy questions.
// Every time range is half-open and already widened by the buffer.
type PoolStore interface {
	HasPoolAccess(ctx context.Context, customerID, poolID string) (bool, error)
	ScootersWithBookings(ctx context.Context, poolID string, from, to time.Time, statuses []model.BookingStatus) ([]model.ScooterWithBookings, error)
	FindAvailableScooter(ctx context.Context, poolID string, from, to time.Time, statuses []model.BookingStatus) (*model.Scooter, error)
	ScooterAvailable(ctx context.Context, c repository.ScooterCheck) (bool, error)
}

// BookingStore reads and writes bookings.  AllocateBooking must pick the
// scooter and insert the booking atomically.
type BookingStore interface {
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	CustomerBookingAt(ctx context.Context, customerID string, start time.Time) (bool, error)
	ListCustomerBookings(ctx context.Context, f repository.CustomerBookingFilter) ([]model.Booking, error)
	ListBookings(ctx context.Context, q repository.BookingListQuery) ([]model.Booking, int, error)
	AllocateBooking(ctx context.Context, a repository.Allocation) error
	TransitionStatus(ctx context.Context, c repository.StatusChange) (*model.Booking, error)
	ResizeBooking(ctx context.Context, r repository.Resize) (*model.Booking, error)
}

// EventPublisher delivers booking events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.BookingEvent) error
}

// PoolInvalidator is told about every booking write on a pool.
type PoolInvalidator interface {
	Bump(ctx context.Context, poolID string) error
}
