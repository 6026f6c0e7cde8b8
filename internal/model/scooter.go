package model

import "time"

// ScooterStatus marks whether a scooter may be allocated at all.
type ScooterStatus string

const (
    ScooterAvailable   ScooterStatus = "Available"
    ScooterUnavailable ScooterStatus = "Unavailable"
)

// Scooter is a single bookable asset that belongs to one pool.
type Scooter struct {
    ID        string        `json:"id"`
    Name      string        `json:"scooter_name"`
    PoolID    string        `json:"scooter_pool_id"`
    Status    ScooterStatus `json:"status"`
    CreatedAt time.Time     `json:"created_at"`
    UpdatedAt time.Time     `json:"updated_at"`

    Pool *ScooterPool `json:"scooter_pool,omitempty"`
}

// ScooterWithBookings pairs a scooter with the bookings loaded for one
// availability computation.
type ScooterWithBookings struct {
    Scooter
    Bookings []Booking `json:"bookings"`
}

// ScooterPool groups interchangeable scooters.  Customers reach a pool
// through a membership grant, not ownership.
type ScooterPool struct {
    ID   string `json:"id"`
    Name string `json:"name"`
}
