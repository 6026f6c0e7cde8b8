package service

import "net/http"

// Code is the stable identifier of a booking failure.
type Code string

const (
	CodeUserNotFound          Code = "USER_NOT_FOUND"
	CodeInactiveUser          Code = "INACTIVE_USER"
	CodeInvalidBookingTime    Code = "INVALID_BOOKING_TIME"
	CodeInvalidBookingRequest Code = "INVALID_BOOKING_REQUEST"
	CodeDuplicateBooking      Code = "DUPLICATE_BOOKING"
	CodeNoAvailableScooter    Code = "NO_AVAILABLE_SCOOTER"
	CodeBookingNotFound       Code = "BOOKING_NOT_FOUND"
	CodeUpdateConflict        Code = "UPDATE_BOOKING_SCOOTER_CONFLICT"
	CodeInvalidInput          Code = "INVALID_INPUT"
	CodeInternal              Code = "INTERNAL_SERVER_ERROR"
)

// Error is a typed booking failure.  Status is the HTTP status a caller
// should answer with.
type Error struct {
	Code    Code
	Status  int
	Message string
}

func (e *Error) Error() string { return string(e.Code) + ": " + e.Message }

// Is matches any Error with the same code and status, so a message
// rendered for a specific configuration still matches its sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code && t.Status == e.Status
}

var (
	ErrUserNotFound = &Error{CodeUserNotFound, http.StatusNotFound, "User not found."}
	ErrInactiveUser = &Error{CodeInactiveUser, http.StatusForbidden,
		"User is inactive. Please contact administrator for assistance."}
	ErrInvalidBookingTime = &Error{CodeInvalidBookingTime, http.StatusBadRequest,
		"Booking should be between 8:00 and 20:00."}
	// ErrNoPoolAccess and ErrInvalidBookingState share a code but not a class.
	ErrNoPoolAccess = &Error{CodeInvalidBookingRequest, http.StatusBadRequest,
		"Invalid booking request. Please contact support for assistance."}
	ErrInvalidBookingState = &Error{CodeInvalidBookingRequest, http.StatusConflict,
		"Invalid booking request. Please contact support for assistance."}
	ErrDuplicateBooking    = &Error{CodeDuplicateBooking, http.StatusBadRequest, "Duplicate booking found."}
	ErrNoAvailableScooter  = &Error{CodeNoAvailableScooter, http.StatusNotFound, "No available scooter."}
	ErrBookingNotFound     = &Error{CodeBookingNotFound, http.StatusNotFound, "Booking not found."}
	ErrUpdateConflict      = &Error{CodeUpdateConflict, http.StatusConflict,
		"Unable to update booking scooter is already reserved within the new timeslot."}
	ErrInvalidInput = &Error{CodeInvalidInput, http.StatusBadRequest, "Invalid input provided."}
	ErrInternal     = &Error{CodeInternal, http.StatusInternalServerError, "Internal server error."}
)
