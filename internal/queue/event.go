// Package queue defines message payloads exchanged over the message broker.
package queue

import (
    "fmt"
    "time"
)

// Booking event kinds, used as routing keys on the booking exchange.
const (
    BookingCreated   = "booking.created"
    BookingCancelled = "booking.cancelled"
    BookingUpdated   = "booking.updated"
    BookingStarted   = "booking.started"
    BookingClosed    = "booking.closed"
)

// BookingEvent is published after a booking write commits.  It carries
// enough of the booking for downstream consumers (notifications, fleet
// dashboards) to act without querying the primary database.
type BookingEvent struct {
    Type          string `json:"type"`
    BookingID     string `json:"booking_id"`
    CustomerID    string `json:"customer_id"`
    ScooterID     string `json:"scooter_id"`
    PoolID        string `json:"scooter_pool_id,omitempty"`
    BookingDate   string `json:"booking_date"`
    BookingEnd    string `json:"booking_end_date"`
    Duration      int    `json:"duration"`
    BookingType   string `json:"booking_type"`
    BookingStatus string `json:"booking_status"`
    ActorID       string `json:"actor_id,omitempty"`
    OccurredAt    string `json:"occurred_at"`
}

// Scooter event kinds reported by the fleet.
const (
    ScooterPickedUp = "picked_up"
    ScooterReturned = "returned"
)

// ScooterEvent reports that the scooter of a booking was physically
// taken or handed back.
type ScooterEvent struct {
    BookingID string    `json:"booking_id"`
    Event     string    `json:"event"`
    At        time.Time `json:"at"`
}

// Validate checks the fields a consumer relies on.
func (e ScooterEvent) Validate() error {
    if e.BookingID == "" {
        return fmt.Errorf("scooter event: missing booking_id")
    }
    switch e.Event {
    case ScooterPickedUp, ScooterReturned:
    default:
        return fmt.Errorf("scooter event: unknown event %q", e.Event)
    }
    return nil
}
