package service

import (
	"context"
	"testing"

	"github.com/iliyamo/scooter-reservation/internal/model"
)

func TestGetBookingOwnership(t *testing.T) {
	f := newFixture(t)
	f.seed("mine", "c1", "s1", at(10, 0), 60)
	f.seed("theirs", "c3", "s1", at(14, 0), 60)
	b, err := f.svc.GetBooking(context.Background(), "u1", "mine")
	if err != nil {
		t.Fatal(err)
	}
	if b.Scooter == nil || b.Scooter.Pool == nil || b.Scooter.Pool.Name != "Campus" {
		t.Fatalf("relations missing: %+v", b)
	}
	_, err = f.svc.GetBooking(context.Background(), "u1", "theirs")
	wantErr(t, err, ErrBookingNotFound)
}

func TestListMyBookings(t *testing.T) {
	f := newFixture(t)
	f.now = at(11, 30)
	f.seed("past", "c1", "s1", at(8, 0), 60)
	f.seed("current", "c1", "s1", at(11, 0), 60)
	f.seed("later", "c1", "s1", at(15, 0), 60)
	f.store.AddBooking(model.Booking{
		ID: "ongoing", CustomerID: "c1", ScooterID: "s1",
		BookingDate: at(18, 0), BookingEndDate: at(19, 0), Duration: 60,
		BookingStatus: model.BookingOngoing,
	})
	f.seed("other", "c3", "s1", at(16, 0), 60)
	ctx := context.Background()

	ids := func(bs []model.Booking) []string {
		out := make([]string, 0, len(bs))
		for _, b := range bs {
			out = append(out, b.ID)
		}
		return out
	}

	list, err := f.svc.ListMyBookings(ctx, "u1", nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(list); len(got) != 2 || got[0] != "current" || got[1] != "later" {
		t.Fatalf("default list = %v", got)
	}

	list, err = f.svc.ListMyBookings(ctx, "u1", []string{"Open", "Ongoing", "Bogus"}, "desc")
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(list); len(got) != 3 || got[0] != "ongoing" || got[2] != "current" {
		t.Fatalf("filtered list = %v", got)
	}

	list, err = f.svc.ListMyBookings(ctx, "u1", []string{"Bogus"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Fatalf("unknown statuses only should match nothing, got %v", ids(list))
	}
}

func TestAdminGetBookingScoping(t *testing.T) {
	f := newFixture(t)
	f.seed("b", "c1", "s1", at(10, 0), 60)
	if _, err := f.svc.AdminGetBooking(context.Background(), "m1", "b"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.AdminGetBooking(context.Background(), "a1", "b"); err != nil {
		t.Fatal(err)
	}
	_, err := f.svc.AdminGetBooking(context.Background(), "m2", "b")
	wantErr(t, err, ErrBookingNotFound)
}

func TestAdminListBookings(t *testing.T) {
	f := newFixture(t)
	f.seed("b1", "c1", "s1", at(8, 0), 60)
	f.seed("b2", "c1", "s1", at(10, 0), 120)
	f.seed("b3", "c2", "s1", at(13, 0), 60)
	f.seed("b4", "c3", "s1", at(16, 0), 240)
	ctx := context.Background()

	page, err := f.svc.AdminListBookings(ctx, "m1", ListParams{Page: 1, Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if page.TotalCount != 3 || page.PageCount != 2 || len(page.Data) != 2 || page.Data[0].ID != "b1" {
		t.Fatalf("page 1 = %+v", page)
	}
	page, err = f.svc.AdminListBookings(ctx, "m1", ListParams{Page: 2, Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Data) != 1 || page.Data[0].ID != "b3" {
		t.Fatalf("page 2 = %+v", page)
	}

	page, err = f.svc.AdminListBookings(ctx, "a1", ListParams{SortBy: "duration", SortOrder: "desc"})
	if err != nil {
		t.Fatal(err)
	}
	if page.TotalCount != 4 || page.Data[0].ID != "b4" || page.PerPage != defaultPageSize {
		t.Fatalf("admin page = %+v", page)
	}

	page, err = f.svc.AdminListBookings(ctx, "a1", ListParams{Search: "c3"})
	if err != nil {
		t.Fatal(err)
	}
	if page.TotalCount != 1 || page.Data[0].ID != "b4" {
		t.Fatalf("search = %+v", page)
	}

	page, err = f.svc.AdminListBookings(ctx, "u1", ListParams{})
	if err != nil {
		t.Fatal(err)
	}
	if page.TotalCount != 0 || page.Data == nil {
		t.Fatalf("non-staff = %+v", page)
	}

	_, err = f.svc.AdminListBookings(ctx, "a1", ListParams{SortBy: "password"})
	wantErr(t, err, ErrInvalidInput)
}
