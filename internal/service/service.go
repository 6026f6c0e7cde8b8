// Package service is the booking engine: availability, allocation and the
// booking lifecycle.  It depends only on the store contracts in store.go
// and returns *Error values for every expected failure.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/scooter-reservation/internal/model"
	"github.com/iliyamo/scooter-reservation/internal/queue"
	"github.com/iliyamo/scooter-reservation/internal/repository"
)

// Hours is the daily window, in whole hours, in which bookings may run.
type Hours struct {
	Opening int
	Closing int
}

// Options configures the engine.  Zero values are replaced by
// DefaultOptions.
type Options struct {
	Hours     Hours
	Buffer    time.Duration
	Durations []model.Duration
	Location  *time.Location
	Clock     func() time.Time
}

// DefaultOptions returns 08:00-20:00, a 60 minute buffer and the stock
// durations, in UTC.
func DefaultOptions() Options {
	return Options{
		Hours:     Hours{Opening: 8, Closing: 20},
		Buffer:    time.Hour,
		Durations: model.DefaultDurationOptions(),
		Location:  time.UTC,
		Clock:     time.Now,
	}
}

// Deps are the collaborators of a BookingService.  Events and Cache may
// be nil.
type Deps struct {
	Users    UserDirectory
	Pools    PoolStore
	Bookings BookingStore
	Events   EventPublisher
	Cache    PoolInvalidator
}

// BookingService implements every booking operation.  It holds no
// mutable state; all coordination happens in the stores.
type BookingService struct {
	users    UserDirectory
	pools    PoolStore
	bookings BookingStore
	events   EventPublisher
	cache    PoolInvalidator
	opts     Options
	log      *logrus.Logger

	hoursErr *Error
}

// NewBookingService wires the engine.  A zero Hours, nil Durations,
// Location or Clock fall back to DefaultOptions; a zero Buffer is kept.
func NewBookingService(deps Deps, opts Options, log *logrus.Logger) *BookingService {
	def := DefaultOptions()
	if opts.Hours == (Hours{}) {
		opts.Hours = def.Hours
	}
	if len(opts.Durations) == 0 {
		opts.Durations = def.Durations
	}
	if opts.Location == nil {
		opts.Location = def.Location
	}
	if opts.Clock == nil {
		opts.Clock = def.Clock
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &BookingService{
		users:    deps.Users,
		pools:    deps.Pools,
		bookings: deps.Bookings,
		events:   deps.Events,
		cache:    deps.Cache,
		opts:     opts,
		log:      log,
		hoursErr: &Error{
			Code:    CodeInvalidBookingTime,
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("Booking should be between %d:00 and %d:00.", opts.Hours.Opening, opts.Hours.Closing),
		},
	}
}

// Options returns the effective engine options.
func (s *BookingService) Options() Options { return s.opts }

// DurationOptions returns the bookable durations.
func (s *BookingService) DurationOptions() []model.Duration {
	out := make([]model.Duration, len(s.opts.Durations))
	copy(out, s.opts.Durations)
	return out
}

func (s *BookingService) now() time.Time {
	return s.opts.Clock().In(s.opts.Location)
}

// local converts t into the business time zone.
func (s *BookingService) local(t time.Time) time.Time {
	return t.In(s.opts.Location)
}

// internal logs an unexpected store failure and hides it behind ErrInternal.
func (s *BookingService) internal(op string, err error, fields logrus.Fields) error {
	s.log.WithFields(fields).WithField("op", op).WithError(err).Error("booking store failure")
	return ErrInternal
}

// resolveUser loads a user; unknown IDs become ErrUserNotFound.
func (s *BookingService) resolveUser(ctx context.Context, op, userID string) (*model.User, error) {
	u, err := s.users.FindUserByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, s.internal(op, err, logrus.Fields{"user_id": userID})
	}
	return u, nil
}

// resolveCustomer loads a user that must carry a customer profile.
func (s *BookingService) resolveCustomer(ctx context.Context, op, userID string) (*model.User, error) {
	u, err := s.resolveUser(ctx, op, userID)
	if err != nil {
		return nil, err
	}
	if u.Customer == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// validateHours checks that [start, start+d) lies inside business hours
// on start's local day.
func (s *BookingService) validateHours(start time.Time, d model.Duration) error {
	l := s.local(start)
	offset := time.Duration(l.Hour())*time.Hour + time.Duration(l.Minute())*time.Minute +
		time.Duration(l.Second())*time.Second + time.Duration(l.Nanosecond())
	open := time.Duration(s.opts.Hours.Opening) * time.Hour
	closing := time.Duration(s.opts.Hours.Closing) * time.Hour
	if offset < open || offset+d.Minutes() > closing {
		return s.hoursErr
	}
	return nil
}

// window returns the buffered search range around [start, start+d).
func (s *BookingService) window(start time.Time, d model.Duration) (time.Time, time.Time) {
	return start.Add(-s.opts.Buffer), model.EndFor(start, d).Add(s.opts.Buffer)
}

// loadBooking fetches a booking; unknown IDs become ErrBookingNotFound.
func (s *BookingService) loadBooking(ctx context.Context, op, bookingID string) (*model.Booking, error) {
	b, err := s.bookings.GetBooking(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, s.internal(op, err, logrus.Fields{"booking_id": bookingID})
	}
	return b, nil
}

// ownedBooking fetches a booking that must belong to customerID.
func (s *BookingService) ownedBooking(ctx context.Context, op, customerID, bookingID string) (*model.Booking, error) {
	b, err := s.loadBooking(ctx, op, bookingID)
	if err != nil {
		return nil, err
	}
	if b.CustomerID != customerID {
		return nil, ErrBookingNotFound
	}
	return b, nil
}

func poolOf(b *model.Booking) string {
	if b.Scooter != nil {
		return b.Scooter.PoolID
	}
	return ""
}

// afterWrite publishes the booking event and invalidates the pool's
// cached availability.  Both are best-effort and never fail the caller.
func (s *BookingService) afterWrite(ctx context.Context, kind string, b *model.Booking, actorID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	poolID := poolOf(b)
	fields := logrus.Fields{"booking_id": b.ID, "pool_id": poolID, "event": kind}

	if s.cache != nil && poolID != "" {
		if err := s.cache.Bump(ctx, poolID); err != nil {
			s.log.WithFields(fields).WithError(err).Warn("availability cache invalidation failed")
		}
	}
	if s.events == nil {
		return
	}
	ev := queue.BookingEvent{
		Type:          kind,
		BookingID:     b.ID,
		CustomerID:    b.CustomerID,
		ScooterID:     b.ScooterID,
		PoolID:        poolID,
		BookingDate:   b.BookingDate.UTC().Format(time.RFC3339),
		BookingEnd:    b.BookingEndDate.UTC().Format(time.RFC3339),
		Duration:      int(b.Duration),
		BookingType:   string(b.BookingType),
		BookingStatus: string(b.BookingStatus),
		ActorID:       actorID,
		OccurredAt:    s.opts.Clock().UTC().Format(time.RFC3339),
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.WithFields(fields).WithError(err).Warn("booking event publish failed")
	}
}
