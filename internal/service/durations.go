package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/scooter-reservation/internal/model"
	"github.com/iliyamo/scooter-reservation/internal/repository"
	"github.com/iliyamo/scooter-reservation/internal/utils"
)

// DurationQuery selects the advisor mode.  BookingID wins over Date;
// with neither set the advisor answers for the current hour.
type DurationQuery struct {
	Date      *time.Time
	BookingID string
}

// AvailableDurations reports, per duration option, whether it can be
// booked in poolID now, on a given day, or as a new length for an
// existing booking.
func (s *BookingService) AvailableDurations(ctx context.Context, userID, poolID string, q DurationQuery) ([]model.AvailableDuration, error) {
	const op = "available_durations"
	u, err := s.resolveCustomer(ctx, op, userID)
	if err != nil {
		return nil, err
	}
	switch {
	case q.BookingID != "":
		return s.rescheduleDurations(ctx, u.Customer.ID, q.BookingID)
	case q.Date != nil:
		return s.dateDurations(ctx, u.Customer.ID, poolID, *q.Date)
	default:
		return s.instantDurations(ctx, u.Customer.ID, poolID)
	}
}

func (s *BookingService) instantDurations(ctx context.Context, customerID, poolID string) ([]model.AvailableDuration, error) {
	const op = "available_durations_instant"
	fields := logrus.Fields{"customer_id": customerID, "pool_id": poolID}
	access, err := s.pools.HasPoolAccess(ctx, customerID, poolID)
	if err != nil {
		return nil, s.internal(op, err, fields)
	}
	start := utils.ClosestHourMark(s.now())
	hour := start.Hour()
	out := make([]model.AvailableDuration, 0, len(s.opts.Durations))
	for _, d := range s.opts.Durations {
		end := hour + d.Hours()
		available := access && s.validateHours(start, d) == nil
		if available {
			from, to := s.window(start, d)
			sc, err := s.pools.FindAvailableScooter(ctx, poolID, from, to, model.NonCancelledStatuses())
			if err != nil {
				return nil, s.internal(op, err, fields)
			}
			available = sc != nil
		}
		out = append(out, model.AvailableDuration{
			Duration:     d,
			StartingTime: utils.FormatHour(hour),
			EndingTime:   utils.FormatHour(end),
			Available:    available,
		})
	}
	return out, nil
}

func (s *BookingService) dateDurations(ctx context.Context, customerID, poolID string, date time.Time) ([]model.AvailableDuration, error) {
	const op = "available_durations_date"
	access, err := s.pools.HasPoolAccess(ctx, customerID, poolID)
	if err != nil {
		return nil, s.internal(op, err, logrus.Fields{"customer_id": customerID, "pool_id": poolID})
	}
	day := utils.StartOfDay(s.local(date))
	var scooters []model.ScooterWithBookings
	if access {
		if scooters, err = s.dayScooters(ctx, op, poolID, day); err != nil {
			return nil, err
		}
	}
	out := make([]model.AvailableDuration, 0, len(s.opts.Durations))
	for _, d := range s.opts.Durations {
		available := false
		if access {
			available = len(CalculateTimeSlots(s.slotQuery(day, customerID, scooters, d))) > 0
		}
		out = append(out, model.AvailableDuration{Duration: d, Available: available})
	}
	return out, nil
}

func (s *BookingService) rescheduleDurations(ctx context.Context, customerID, bookingID string) ([]model.AvailableDuration, error) {
	const op = "available_durations_reschedule"
	b, err := s.ownedBooking(ctx, op, customerID, bookingID)
	if err != nil {
		return nil, err
	}
	hour := s.local(b.BookingDate).Hour()
	out := make([]model.AvailableDuration, 0, len(s.opts.Durations))
	for _, d := range s.opts.Durations {
		available := s.validateHours(b.BookingDate, d) == nil
		if available {
			from, to := s.window(b.BookingDate, d)
			free, err := s.pools.ScooterAvailable(ctx, repository.ScooterCheck{
				ScooterID:        b.ScooterID,
				From:             from,
				To:               to,
				ExcludeBookingID: b.ID,
				Statuses:         model.BlockingStatuses(),
			})
			switch {
			case errors.Is(err, repository.ErrNotFound):
				free = false
			case err != nil:
				return nil, s.internal(op, err, logrus.Fields{"booking_id": b.ID, "scooter_id": b.ScooterID})
			}
			available = free
		}
		out = append(out, model.AvailableDuration{
			Duration:     d,
			StartingTime: utils.FormatHour(hour),
			EndingTime:   utils.FormatHour(hour + d.Hours()),
			Available:    available,
		})
	}
	return out, nil
}
