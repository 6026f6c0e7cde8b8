package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/scooter-reservation/internal/model"
	"github.com/iliyamo/scooter-reservation/internal/queue"
	"github.com/iliyamo/scooter-reservation/internal/repository"
)

// Cancel cancels one of the user's own Open bookings.
func (s *BookingService) Cancel(ctx context.Context, userID, bookingID string) (*model.Booking, error) {
	const op = "cancel"
	u, err := s.resolveCustomer(ctx, op, userID)
	if err != nil {
		return nil, err
	}
	b, err := s.ownedBooking(ctx, op, u.Customer.ID, bookingID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, op, b, model.BookingCancelled, userID, nil, nil)
}

// AdminCancel cancels a booking on behalf of staff.  Admins reach every
// booking, institution members only their institution's; anything else
// is reported as not found.
func (s *BookingService) AdminCancel(ctx context.Context, actorID, bookingID string) (*model.Booking, error) {
	const op = "admin_cancel"
	b, err := s.staffBooking(ctx, op, actorID, bookingID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, op, b, model.BookingCancelled, actorID, nil, nil)
}

// UpdateDuration changes the length of one of the user's Open bookings,
// keeping its start and scooter.
func (s *BookingService) UpdateDuration(ctx context.Context, userID, bookingID string, d model.Duration) (*model.Booking, error) {
	const op = "update_duration"
	if !d.In(s.opts.Durations) {
		return nil, ErrInvalidInput
	}
	u, err := s.resolveCustomer(ctx, op, userID)
	if err != nil {
		return nil, err
	}
	b, err := s.ownedBooking(ctx, op, u.Customer.ID, bookingID)
	if err != nil {
		return nil, err
	}
	if b.BookingStatus != model.BookingOpen {
		return nil, ErrInvalidBookingState
	}
	if err := s.validateHours(b.BookingDate, d); err != nil {
		return nil, err
	}

	from, to := s.window(b.BookingDate, d)
	updated, err := s.bookings.ResizeBooking(ctx, repository.Resize{
		BookingID: b.ID,
		Duration:  d,
		EndDate:   model.EndFor(b.BookingDate, d),
		From:      from,
		To:        to,
		Statuses:  model.BlockingStatuses(),
	})
	switch {
	case errors.Is(err, repository.ErrConflict):
		return nil, ErrUpdateConflict
	case errors.Is(err, repository.ErrStatusChanged):
		return nil, ErrInvalidBookingState
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrBookingNotFound
	case err != nil:
		return nil, s.internal(op, err, logrus.Fields{"booking_id": b.ID, "scooter_id": b.ScooterID})
	}
	s.log.WithFields(logrus.Fields{"booking_id": b.ID, "duration": int(d)}).Info("booking duration updated")
	s.afterWrite(ctx, queue.BookingUpdated, updated, userID)
	return updated, nil
}

// StartBooking marks an Open booking Ongoing when its scooter is picked up.
func (s *BookingService) StartBooking(ctx context.Context, bookingID string, at time.Time) error {
	b, err := s.loadBooking(ctx, "start_booking", bookingID)
	if err != nil {
		return err
	}
	t := at.UTC()
	_, err = s.transition(ctx, "start_booking", b, model.BookingOngoing, "", &t, nil)
	return err
}

// CloseBooking marks an Ongoing booking Closed when its scooter is returned.
func (s *BookingService) CloseBooking(ctx context.Context, bookingID string, at time.Time) error {
	b, err := s.loadBooking(ctx, "close_booking", bookingID)
	if err != nil {
		return err
	}
	t := at.UTC()
	_, err = s.transition(ctx, "close_booking", b, model.BookingClosed, "", nil, &t)
	return err
}

var transitionEvents = map[model.BookingStatus]string{
	model.BookingCancelled: queue.BookingCancelled,
	model.BookingOngoing:   queue.BookingStarted,
	model.BookingClosed:    queue.BookingClosed,
}

// transition moves b to target through the status table.  The store
// write is conditional on the status read here, so of two racing
// transitions only one succeeds.
func (s *BookingService) transition(ctx context.Context, op string, b *model.Booking, target model.BookingStatus, actorID string, startedAt, returnedAt *time.Time) (*model.Booking, error) {
	if !b.BookingStatus.CanTransitionTo(target) {
		return nil, ErrInvalidBookingState
	}
	updated, err := s.bookings.TransitionStatus(ctx, repository.StatusChange{
		BookingID:  b.ID,
		From:       b.BookingStatus,
		To:         target,
		StartedAt:  startedAt,
		ReturnedAt: returnedAt,
	})
	switch {
	case errors.Is(err, repository.ErrStatusChanged):
		return nil, ErrInvalidBookingState
	case errors.Is(err, repository.ErrNotFound):
		return nil, ErrBookingNotFound
	case err != nil:
		return nil, s.internal(op, err, logrus.Fields{"booking_id": b.ID, "target": target})
	}
	s.log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"from":       b.BookingStatus,
		"to":         target,
		"actor_id":   actorID,
	}).Info("booking status changed")
	s.afterWrite(ctx, transitionEvents[target], updated, actorID)
	return updated, nil
}

// staffScope returns the institution a staff user is limited to.  ok is
// false for users with no staff rights; an empty institution means all.
func staffScope(u *model.User) (institutionID string, ok bool) {
	switch {
	case u.AccountType == model.AccountAdmin:
		return "", true
	case u.AccountType == model.AccountInstitutionMember && u.InstitutionMember != nil:
		return u.InstitutionMember.InstitutionID, true
	}
	return "", false
}

// staffBooking loads a booking visible to the staff user actorID.
func (s *BookingService) staffBooking(ctx context.Context, op, actorID, bookingID string) (*model.Booking, error) {
	actor, err := s.resolveUser(ctx, op, actorID)
	if err != nil {
		return nil, err
	}
	institutionID, ok := staffScope(actor)
	if !ok {
		return nil, ErrBookingNotFound
	}
	b, err := s.loadBooking(ctx, op, bookingID)
	if err != nil {
		return nil, err
	}
	if institutionID != "" && (b.Customer == nil || b.Customer.InstitutionID != institutionID) {
		return nil, ErrBookingNotFound
	}
	return b, nil
}
