package service

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/scooter-reservation/internal/model"
	"github.com/iliyamo/scooter-reservation/internal/utils"
)

// SlotQuery is the input of CalculateTimeSlots.  Day is any instant on
// the target calendar day in the business time zone; blocks are hours of
// that day.
type SlotQuery struct {
	Day        time.Time
	CustomerID string
	Scooters   []model.ScooterWithBookings
	StartBlock int
	EndBlock   int
	Duration   model.Duration
	Buffer     time.Duration
}

// CalculateTimeSlots lists the hourly start times at which at least one
// scooter can take a booking of q.Duration that ends by q.EndBlock.  A
// slot is flagged AlreadyBooked when the customer holds a booking on any
// scooter that overlaps it exactly.  Output is sorted and never nil.
func CalculateTimeSlots(q SlotQuery) []model.TimeSlot {
	slots := make([]model.TimeSlot, 0)
	if q.StartBlock >= q.EndBlock {
		return slots
	}
	closing := utils.AtHour(q.Day, q.EndBlock)
	offerable := make(map[string]bool)
	mine := make(map[string]bool)

	for _, sc := range q.Scooters {
		for h := q.StartBlock; h < q.EndBlock; h++ {
			start := utils.AtHour(q.Day, h)
			end := model.EndFor(start, q.Duration)
			label := utils.FormatClock(start)
			free := !end.After(closing)
			for _, b := range sc.Bookings {
				if b.BookingStatus == model.BookingCancelled {
					continue
				}
				if free && utils.OverlapsWithBuffer(start, end, b.BookingDate, b.BookingEndDate, q.Buffer) {
					free = false
				}
				if b.CustomerID == q.CustomerID && utils.OverlapsExact(start, end, b.BookingDate, b.BookingEndDate) {
					mine[label] = true
				}
			}
			if free {
				offerable[label] = true
			}
		}
	}

	labels := make([]string, 0, len(offerable))
	for l := range offerable {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		slots = append(slots, model.TimeSlot{Timeslot: l, AlreadyBooked: mine[l]})
	}
	return slots
}

// StartTimeBlock is the first hour that may be offered on day.  On the
// current day it is the next full hour (the current one when now sits
// exactly on the hour), never earlier than opening.
func StartTimeBlock(day, now time.Time, opening int) int {
	if !utils.SameDay(now, day) {
		return opening
	}
	h := now.Hour()
	if !utils.ClosestHourMark(now).Equal(now) {
		h++
	}
	if h < opening {
		h = opening
	}
	return h
}

// AvailableTimeSlots lists the start times in poolID on bookingDate's
// day at which the user could book duration.  Customers without access
// to the pool get an empty list.
func (s *BookingService) AvailableTimeSlots(ctx context.Context, userID string, duration model.Duration, poolID string, bookingDate time.Time) ([]model.TimeSlot, error) {
	const op = "available_timeslots"
	if !duration.In(s.opts.Durations) {
		return nil, ErrInvalidInput
	}
	u, err := s.resolveCustomer(ctx, op, userID)
	if err != nil {
		return nil, err
	}
	ok, err := s.pools.HasPoolAccess(ctx, u.Customer.ID, poolID)
	if err != nil {
		return nil, s.internal(op, err, logrus.Fields{"customer_id": u.Customer.ID, "pool_id": poolID})
	}
	if !ok {
		return []model.TimeSlot{}, nil
	}
	day := utils.StartOfDay(s.local(bookingDate))
	scooters, err := s.dayScooters(ctx, op, poolID, day)
	if err != nil {
		return nil, err
	}
	return CalculateTimeSlots(s.slotQuery(day, u.Customer.ID, scooters, duration)), nil
}

func (s *BookingService) slotQuery(day time.Time, customerID string, scooters []model.ScooterWithBookings, d model.Duration) SlotQuery {
	return SlotQuery{
		Day:        day,
		CustomerID: customerID,
		Scooters:   scooters,
		StartBlock: StartTimeBlock(day, s.now(), s.opts.Hours.Opening),
		EndBlock:   s.opts.Hours.Closing,
		Duration:   d,
		Buffer:     s.opts.Buffer,
	}
}

// dayScooters loads the pool's scooters with every non-cancelled booking
// that can interact with a slot inside business hours on day.
func (s *BookingService) dayScooters(ctx context.Context, op, poolID string, day time.Time) ([]model.ScooterWithBookings, error) {
	from := utils.AtHour(day, s.opts.Hours.Opening).Add(-s.opts.Buffer)
	to := utils.AtHour(day, s.opts.Hours.Closing).Add(s.opts.Buffer)
	scooters, err := s.pools.ScootersWithBookings(ctx, poolID, from, to, model.NonCancelledStatuses())
	if err != nil {
		return nil, s.internal(op, err, logrus.Fields{"pool_id": poolID})
	}
	return scooters, nil
}
