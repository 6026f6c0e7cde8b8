package model

import (
    "fmt"
    "time"
)

// BookingStatus is the lifecycle state of a booking.  Legal moves are
// listed in bookingTransitions; Cancelled and Closed are terminal.
type BookingStatus string

const (
    BookingOpen      BookingStatus = "Open"
    BookingOngoing   BookingStatus = "Ongoing"
    BookingClosed    BookingStatus = "Closed"
    BookingCancelled BookingStatus = "Cancelled"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
    BookingOpen:      {BookingCancelled, BookingOngoing},
    BookingOngoing:   {BookingClosed},
    BookingClosed:    {},
    BookingCancelled: {},
}

// IsValid reports whether s is a known booking status.
func (s BookingStatus) IsValid() bool {
    _, ok := bookingTransitions[s]
    return ok
}

// CanTransitionTo reports whether moving from s to target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
    for _, t := range bookingTransitions[s] {
        if t == target {
            return true
        }
    }
    return false
}

// IsTerminal reports whether no transition leaves s.
func (s BookingStatus) IsTerminal() bool {
    return len(bookingTransitions[s]) == 0
}

// ParseBookingStatus converts a raw value into a BookingStatus.
func ParseBookingStatus(raw string) (BookingStatus, error) {
    s := BookingStatus(raw)
    if !s.IsValid() {
        return "", fmt.Errorf("invalid booking status: %q", raw)
    }
    return s, nil
}

// NonCancelledStatuses are the statuses that occupy a scooter when
// searching for a free one.
func NonCancelledStatuses() []BookingStatus {
    return []BookingStatus{BookingOpen, BookingOngoing, BookingClosed}
}

// BlockingStatuses are the statuses that conflict with a reschedule.
func BlockingStatuses() []BookingStatus {
    return []BookingStatus{BookingOpen, BookingOngoing}
}

// BookingType distinguishes immediate rentals from planned ones.
type BookingType string

const (
    BookingOnDemand    BookingType = "OnDemand"
    BookingReservation BookingType = "Reservation"
)

// IsValid reports whether t is a known booking type.
func (t BookingType) IsValid() bool {
    return t == BookingOnDemand || t == BookingReservation
}

// Booking assigns one scooter to one customer for the window
// [BookingDate, BookingEndDate).  BookingEndDate always equals
// BookingDate plus Duration.
//
// Fields:
//  ID             – primary key (UUID).
//  CustomerID     – customer holding the booking.
//  ScooterID      – scooter assigned by the allocator.
//  BookingDate    – window start, inclusive.
//  BookingEndDate – window end, exclusive.
//  Duration       – window length in minutes.
//  BookingType    – OnDemand or Reservation.
//  BookingStatus  – lifecycle state.
//  StartedAt      – pick-up time (nullable).
//  ReturnedAt     – return time (nullable).
type Booking struct {
    ID             string        `json:"id"`
    CustomerID     string        `json:"customer_id"`
    ScooterID      string        `json:"scooter_id"`
    BookingDate    time.Time     `json:"booking_date"`
    BookingEndDate time.Time     `json:"booking_end_date"`
    Duration       Duration      `json:"duration"`
    BookingType    BookingType   `json:"booking_type"`
    BookingStatus  BookingStatus `json:"booking_status"`
    StartedAt      *time.Time    `json:"started_at"`
    ReturnedAt     *time.Time    `json:"returned_at"`
    CreatedAt      time.Time     `json:"created_at"`
    UpdatedAt      time.Time     `json:"updated_at"`

    Scooter  *Scooter  `json:"scooter,omitempty"`
    Customer *Customer `json:"customer,omitempty"`
}

// EndFor returns the exclusive end of a window of duration d starting at start.
func EndFor(start time.Time, d Duration) time.Time {
    return start.Add(d.Minutes())
}
