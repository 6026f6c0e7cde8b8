package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/scooter-reservation/internal/model"
)

// PoolRepo answers pool membership and scooter occupancy questions.
type PoolRepo struct {
	db *sql.DB
}

// NewPoolRepo returns a new PoolRepo bound to the given database.
func NewPoolRepo(db *sql.DB) *PoolRepo { return &PoolRepo{db: db} }

// HasPoolAccess reports whether the customer is linked to the pool.
func (r *PoolRepo) HasPoolAccess(ctx context.Context, customerID, poolID string) (bool, error) {
	const q = `SELECT 1 FROM customer_scooter_pools WHERE customer_id = ? AND scooter_pool_id = ? LIMIT 1`
	var one int
	err := r.db.QueryRowContext(ctx, q, customerID, poolID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("pool access: %w", err)
	}
	return true, nil
}

// ScootersWithBookings returns every available scooter of the pool with
// its bookings in statuses that overlap [from, to).
func (r *PoolRepo) ScootersWithBookings(ctx context.Context, poolID string, from, to time.Time, statuses []model.BookingStatus) ([]model.ScooterWithBookings, error) {
	const sq = `SELECT id, scooter_name, scooter_pool_id, status, created_at, updated_at
                FROM scooters
                WHERE scooter_pool_id = ? AND status <> 'Unavailable'
                ORDER BY id`
	rows, err := r.db.QueryContext(ctx, sq, poolID)
	if err != nil {
		return nil, fmt.Errorf("list scooters: %w", err)
	}
	out := make([]model.ScooterWithBookings, 0)
	index := make(map[string]int)
	for rows.Next() {
		var (
			s      model.Scooter
			status string
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.PoolID, &status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		s.Status = model.ScooterStatus(status)
		index[s.ID] = len(out)
		out = append(out, model.ScooterWithBookings{Scooter: s, Bookings: []model.Booking{}})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	if len(out) == 0 || len(statuses) == 0 {
		return out, nil
	}

	placeholders, statusVals := statusArgs(statuses)
	bq := `SELECT ` + bookingColumns + `
           FROM bookings b
           JOIN scooters s ON s.id = b.scooter_id
           WHERE s.scooter_pool_id = ? AND s.status <> 'Unavailable'
             AND b.booking_status IN (` + strings.Join(placeholders, ",") + `)
             AND b.booking_date < ? AND b.booking_end_date > ?
           ORDER BY b.scooter_id, b.booking_date`
	args := append([]interface{}{poolID}, statusVals...)
	args = append(args, to.UTC(), from.UTC())
	brows, err := r.db.QueryContext(ctx, bq, args...)
	if err != nil {
		return nil, fmt.Errorf("list pool bookings: %w", err)
	}
	defer brows.Close()
	for brows.Next() {
		b, err := scanBooking(brows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[b.ScooterID]; ok {
			out[i].Bookings = append(out[i].Bookings, b)
		}
	}
	return out, brows.Err()
}

// FindAvailableScooter returns an available scooter of the pool with no
// booking in statuses overlapping [from, to), or nil when none is free.
func (r *PoolRepo) FindAvailableScooter(ctx context.Context, poolID string, from, to time.Time, statuses []model.BookingStatus) (*model.Scooter, error) {
	return findAvailableScooter(ctx, r.db, poolID, from, to, statuses)
}

func findAvailableScooter(ctx context.Context, q querier, poolID string, from, to time.Time, statuses []model.BookingStatus) (*model.Scooter, error) {
	args := []interface{}{poolID}
	busy := ""
	if len(statuses) > 0 {
		placeholders, statusVals := statusArgs(statuses)
		busy = ` AND NOT EXISTS (
                    SELECT 1 FROM bookings b
                    WHERE b.scooter_id = s.id
                      AND b.booking_status IN (` + strings.Join(placeholders, ",") + `)
                      AND b.booking_date < ? AND b.booking_end_date > ?)`
		args = append(args, statusVals...)
		args = append(args, to.UTC(), from.UTC())
	}
	query := `SELECT s.id, s.scooter_name, s.scooter_pool_id, s.status
              FROM scooters s
              WHERE s.scooter_pool_id = ? AND s.status <> 'Unavailable'` + busy + `
              ORDER BY s.id LIMIT 1`
	var (
		s      model.Scooter
		status string
	)
	err := q.QueryRowContext(ctx, query, args...).Scan(&s.ID, &s.Name, &s.PoolID, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find scooter: %w", err)
	}
	s.Status = model.ScooterStatus(status)
	return &s, nil
}

// ScooterAvailable reports whether the scooter is in service and has no
// booking other than c.ExcludeBookingID overlapping [c.From, c.To).
func (r *PoolRepo) ScooterAvailable(ctx context.Context, c ScooterCheck) (bool, error) {
	var status string
	err := r.db.QueryRowContext(ctx, `SELECT status FROM scooters WHERE id = ?`, c.ScooterID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("load scooter %s: %w", c.ScooterID, err)
	}
	if model.ScooterStatus(status) == model.ScooterUnavailable {
		return false, nil
	}
	n, err := countConflicts(ctx, r.db, c.ScooterID, c.ExcludeBookingID, c.From, c.To, c.Statuses)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}
