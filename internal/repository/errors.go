// Package repository defines the stores behind the booking engine and
// the error values they share.  Higher layers compare against these
// sentinels with errors.Is to tell store outcomes apart from failures.
package repository

import "errors"

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrNoCandidate is returned by AllocateBooking when no scooter in the
// pool can take the requested window.
var ErrNoCandidate = errors.New("no candidate scooter")

// ErrConflict is returned when a write would make two bookings on the
// same scooter overlap.
var ErrConflict = errors.New("conflict")

// ErrStatusChanged is returned by conditional writes when the booking is
// no longer in the status the caller expected.
var ErrStatusChanged = errors.New("booking status changed")
