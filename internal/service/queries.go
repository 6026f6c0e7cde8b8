package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/scooter-reservation/internal/model"
	"github.com/iliyamo/scooter-reservation/internal/repository"
	"github.com/iliyamo/scooter-reservation/internal/utils"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// GetBooking returns one of the user's own bookings.
func (s *BookingService) GetBooking(ctx context.Context, userID, bookingID string) (*model.Booking, error) {
	const op = "get_booking"
	u, err := s.resolveCustomer(ctx, op, userID)
	if err != nil {
		return nil, err
	}
	return s.ownedBooking(ctx, op, u.Customer.ID, bookingID)
}

// ListMyBookings returns the user's bookings starting from the current
// hour on.  statuses defaults to Open; unknown values are dropped.
func (s *BookingService) ListMyBookings(ctx context.Context, userID string, statuses []string, sortOrder string) ([]model.Booking, error) {
	const op = "list_my_bookings"
	u, err := s.resolveCustomer(ctx, op, userID)
	if err != nil {
		return nil, err
	}
	wanted := []model.BookingStatus{model.BookingOpen}
	if len(statuses) > 0 {
		wanted = wanted[:0]
		for _, raw := range statuses {
			if st, err := model.ParseBookingStatus(strings.TrimSpace(raw)); err == nil {
				wanted = append(wanted, st)
			}
		}
		if len(wanted) == 0 {
			return []model.Booking{}, nil
		}
	}
	list, err := s.bookings.ListCustomerBookings(ctx, repository.CustomerBookingFilter{
		CustomerID:  u.Customer.ID,
		Statuses:    wanted,
		StartsAfter: utils.ClosestHourMark(s.now()),
		Descending:  strings.EqualFold(sortOrder, "desc"),
	})
	if err != nil {
		return nil, s.internal(op, err, logrus.Fields{"customer_id": u.Customer.ID})
	}
	return list, nil
}

// AdminGetBooking returns a booking visible to the staff user actorID.
func (s *BookingService) AdminGetBooking(ctx context.Context, actorID, bookingID string) (*model.Booking, error) {
	return s.staffBooking(ctx, "admin_get_booking", actorID, bookingID)
}

// ListParams drives AdminListBookings.  Page is 1-based.
type ListParams struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortOrder string
}

// BookingPage is one page of a staff listing.
type BookingPage struct {
	Page       int             `json:"page"`
	PerPage    int             `json:"per_page"`
	PageCount  int             `json:"page_count"`
	TotalCount int             `json:"total_count"`
	Data       []model.Booking `json:"data"`
}

// AdminListBookings pages through the bookings staff may see.
func (s *BookingService) AdminListBookings(ctx context.Context, actorID string, p ListParams) (*BookingPage, error) {
	const op = "admin_list_bookings"
	if p.SortBy == "" {
		p.SortBy = "booking_date"
	}
	if !repository.SortColumn(p.SortBy) {
		return nil, ErrInvalidInput
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	page := &BookingPage{Page: p.Page, PerPage: p.Limit, Data: []model.Booking{}}

	actor, err := s.resolveUser(ctx, op, actorID)
	if err != nil {
		return nil, err
	}
	institutionID, ok := staffScope(actor)
	if !ok {
		return page, nil
	}
	list, total, err := s.bookings.ListBookings(ctx, repository.BookingListQuery{
		InstitutionID: institutionID,
		Search:        strings.TrimSpace(p.Search),
		SortBy:        p.SortBy,
		Descending:    strings.EqualFold(p.SortOrder, "desc"),
		Page:          p.Page - 1,
		Limit:         p.Limit,
	})
	if err != nil {
		return nil, s.internal(op, err, logrus.Fields{"actor_id": actorID})
	}
	page.Data = list
	page.TotalCount = total
	page.PageCount = (total + p.Limit - 1) / p.Limit
	return page, nil
}
