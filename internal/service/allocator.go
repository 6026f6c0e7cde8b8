package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/scooter-reservation/internal/model"
	"github.com/iliyamo/scooter-reservation/internal/queue"
	"github.com/iliyamo/scooter-reservation/internal/repository"
	"github.com/iliyamo/scooter-reservation/internal/utils"
)

// ReserveRequest is a booking request as submitted by a customer.
// StartTime is ignored for on-demand bookings.
type ReserveRequest struct {
	StartTime   time.Time
	Duration    model.Duration
	BookingType model.BookingType
	PoolID      string
}

// Reserve books a free scooter of the pool for the user.  Checks run in
// a fixed order and the first failing one decides the error; the only
// write is the final atomic allocation.
func (s *BookingService) Reserve(ctx context.Context, userID string, req ReserveRequest) (*model.Booking, error) {
	const op = "reserve"
	if !req.Duration.In(s.opts.Durations) || !req.BookingType.IsValid() || req.PoolID == "" {
		return nil, ErrInvalidInput
	}
	u, err := s.resolveCustomer(ctx, op, userID)
	if err != nil {
		return nil, err
	}
	if u.Status != model.UserActive {
		return nil, ErrInactiveUser
	}
	customerID := u.Customer.ID

	start := req.StartTime
	if req.BookingType == model.BookingOnDemand {
		start = utils.ClosestHourMark(s.now())
	}
	if start.IsZero() {
		return nil, ErrInvalidInput
	}
	start = start.UTC().Truncate(time.Second)
	fields := logrus.Fields{"customer_id": customerID, "pool_id": req.PoolID, "booking_date": start}

	if err := s.validateHours(start, req.Duration); err != nil {
		return nil, err
	}

	access, err := s.pools.HasPoolAccess(ctx, customerID, req.PoolID)
	if err != nil {
		return nil, s.internal(op, err, fields)
	}
	if !access {
		return nil, ErrNoPoolAccess
	}

	dup, err := s.bookings.CustomerBookingAt(ctx, customerID, start)
	if err != nil {
		return nil, s.internal(op, err, fields)
	}
	if dup {
		return nil, ErrDuplicateBooking
	}

	b := &model.Booking{
		ID:             uuid.NewString(),
		CustomerID:     customerID,
		BookingDate:    start,
		BookingEndDate: model.EndFor(start, req.Duration),
		Duration:       req.Duration,
		BookingType:    req.BookingType,
		BookingStatus:  model.BookingOpen,
	}
	from, to := s.window(start, req.Duration)
	err = s.bookings.AllocateBooking(ctx, repository.Allocation{
		PoolID:   req.PoolID,
		From:     from,
		To:       to,
		Statuses: model.NonCancelledStatuses(),
		Booking:  b,
	})
	if errors.Is(err, repository.ErrNoCandidate) {
		return nil, ErrNoAvailableScooter
	}
	if err != nil {
		return nil, s.internal(op, err, fields)
	}

	s.log.WithFields(fields).WithFields(logrus.Fields{
		"booking_id": b.ID,
		"scooter_id": b.ScooterID,
	}).Info("booking created")
	if b.Scooter == nil {
		b.Scooter = &model.Scooter{ID: b.ScooterID, PoolID: req.PoolID}
	}
	s.afterWrite(ctx, queue.BookingCreated, b, userID)
	return b, nil
}
