package repository

import (
	"time"

	"github.com/iliyamo/scooter-reservation/internal/model"
)

// Allocation describes one find-and-create request.  The scooter must
// have no booking in Statuses overlapping [From, To).  From and To are
// already widened by the hand-back buffer.
type Allocation struct {
	PoolID   string
	From     time.Time
	To       time.Time
	Statuses []model.BookingStatus
	Booking  *model.Booking
}

// ScooterCheck asks whether one scooter is free over [From, To),
// ignoring ExcludeBookingID.
type ScooterCheck struct {
	ScooterID        string
	From             time.Time
	To               time.Time
	ExcludeBookingID string
	Statuses         []model.BookingStatus
}

// Resize changes the length of an Open booking.  The conflict window
// [From, To) is checked against other bookings on the same scooter in
// Statuses.
type Resize struct {
	BookingID string
	Duration  model.Duration
	EndDate   time.Time
	From      time.Time
	To        time.Time
	Statuses  []model.BookingStatus
}

// StatusChange moves a booking from one status to another if it is still
// in From.  StartedAt and ReturnedAt are written when non-nil.
type StatusChange struct {
	BookingID  string
	From       model.BookingStatus
	To         model.BookingStatus
	StartedAt  *time.Time
	ReturnedAt *time.Time
}

// CustomerBookingFilter narrows a customer's own booking list.
type CustomerBookingFilter struct {
	CustomerID  string
	Statuses    []model.BookingStatus
	StartsAfter time.Time
	Descending  bool
}

// BookingListQuery drives the paginated staff listing.  An empty
// InstitutionID means no institution restriction.
type BookingListQuery struct {
	InstitutionID string
	Search        string
	SortBy        string
	Descending    bool
	Page          int
	Limit         int
}

// sortColumns whitelists BookingListQuery.SortBy values.
var sortColumns = map[string]string{
	"booking_date": "b.booking_date",
	"created_at":   "b.created_at",
	"duration":     "b.duration",
}

// SortColumn reports whether name is an accepted sort key.
func SortColumn(name string) bool {
	_, ok := sortColumns[name]
	return ok
}

func statusArgs(statuses []model.BookingStatus) ([]string, []interface{}) {
	placeholders := make([]string, 0, len(statuses))
	args := make([]interface{}, 0, len(statuses))
	for _, s := range statuses {
		placeholders = append(placeholders, "?")
		args = append(args, string(s))
	}
	return placeholders, args
}

func hasStatus(statuses []model.BookingStatus, s model.BookingStatus) bool {
	for _, st := range statuses {
		if st == s {
			return true
		}
	}
	return false
}
