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

// BookingRepo persists bookings in MySQL.  All timestamps are written and
// read in UTC.  Writes that must not race with allocation take a row
// lock on the scooter (or the whole pool) inside a transaction.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// DB exposes the underlying handle for callers that need their own transaction.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

const bookingColumns = `b.id, b.customer_id, b.scooter_id, b.booking_date, b.booking_end_date,
       b.duration, b.booking_type, b.booking_status, b.started_at, b.returned_at,
       b.created_at, b.updated_at`

// scanBooking reads bookingColumns followed by any extra destinations.
func scanBooking(row rowScanner, extra ...interface{}) (model.Booking, error) {
	var (
		b                   model.Booking
		duration            int
		bookingType, status string
		startedAt           sql.NullTime
		returnedAt          sql.NullTime
	)
	dest := []interface{}{
		&b.ID, &b.CustomerID, &b.ScooterID, &b.BookingDate, &b.BookingEndDate,
		&duration, &bookingType, &status, &startedAt, &returnedAt,
		&b.CreatedAt, &b.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return model.Booking{}, err
	}
	b.Duration = model.Duration(duration)
	b.BookingType = model.BookingType(bookingType)
	b.BookingStatus = model.BookingStatus(status)
	b.BookingDate = b.BookingDate.UTC()
	b.BookingEndDate = b.BookingEndDate.UTC()
	if startedAt.Valid {
		t := startedAt.Time.UTC()
		b.StartedAt = &t
	}
	if returnedAt.Valid {
		t := returnedAt.Time.UTC()
		b.ReturnedAt = &t
	}
	return b, nil
}

func nullableUTC(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// GetBooking loads a booking with its scooter and the customer's
// institution.  ErrNotFound when the ID is unknown.
func (r *BookingRepo) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	return getBooking(ctx, r.db, id)
}

func getBooking(ctx context.Context, q querier, id string) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + `,
                      s.scooter_name, s.scooter_pool_id, s.status, c.institution_id
               FROM bookings b
               JOIN scooters s ON s.id = b.scooter_id
               JOIN customers c ON c.id = b.customer_id
               WHERE b.id = ?`
	var (
		sc            model.Scooter
		scooterStatus string
		cust          model.Customer
	)
	b, err := scanBooking(q.QueryRowContext(ctx, query, id),
		&sc.Name, &sc.PoolID, &scooterStatus, &cust.InstitutionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking %s: %w", id, err)
	}
	sc.ID = b.ScooterID
	sc.Status = model.ScooterStatus(scooterStatus)
	cust.ID = b.CustomerID
	b.Scooter = &sc
	b.Customer = &cust
	return &b, nil
}

// CustomerBookingAt reports whether the customer holds a non-cancelled
// booking starting exactly at start.
func (r *BookingRepo) CustomerBookingAt(ctx context.Context, customerID string, start time.Time) (bool, error) {
	const q = `SELECT 1 FROM bookings
               WHERE customer_id = ? AND booking_date = ? AND booking_status <> 'Cancelled'
               LIMIT 1`
	var one int
	err := r.db.QueryRowContext(ctx, q, customerID, start.UTC()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("duplicate check: %w", err)
	}
	return true, nil
}

// ListCustomerBookings returns the customer's bookings in the requested
// statuses starting at or after f.StartsAfter, with scooter and pool.
func (r *BookingRepo) ListCustomerBookings(ctx context.Context, f CustomerBookingFilter) ([]model.Booking, error) {
	out := make([]model.Booking, 0)
	if len(f.Statuses) == 0 {
		return out, nil
	}
	placeholders, statusVals := statusArgs(f.Statuses)
	order := "ASC"
	if f.Descending {
		order = "DESC"
	}
	query := `SELECT ` + bookingColumns + `,
                    s.scooter_name, s.scooter_pool_id, s.status, p.name
             FROM bookings b
             JOIN scooters s ON s.id = b.scooter_id
             JOIN scooter_pools p ON p.id = s.scooter_pool_id
             WHERE b.customer_id = ? AND b.booking_date >= ?
               AND b.booking_status IN (` + strings.Join(placeholders, ",") + `)
             ORDER BY b.booking_date ` + order
	args := append([]interface{}{f.CustomerID, f.StartsAfter.UTC()}, statusVals...)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list customer bookings: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			sc            model.Scooter
			scooterStatus string
			pool          model.ScooterPool
		)
		b, err := scanBooking(rows, &sc.Name, &sc.PoolID, &scooterStatus, &pool.Name)
		if err != nil {
			return nil, err
		}
		sc.ID = b.ScooterID
		sc.Status = model.ScooterStatus(scooterStatus)
		pool.ID = sc.PoolID
		sc.Pool = &pool
		b.Scooter = &sc
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListBookings returns one page of bookings for staff and the total
// number of matching rows.
func (r *BookingRepo) ListBookings(ctx context.Context, q BookingListQuery) ([]model.Booking, int, error) {
	where := make([]string, 0, 2)
	args := make([]interface{}, 0, 4)
	if q.InstitutionID != "" {
		where = append(where, "c.institution_id = ?")
		args = append(args, q.InstitutionID)
	}
	if q.Search != "" {
		where = append(where, "(b.scooter_id LIKE ? OR b.customer_id = ?)")
		args = append(args, q.Search+"%", q.Search)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}
	const from = ` FROM bookings b JOIN customers c ON c.id = b.customer_id`

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*)`+from+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	col, ok := sortColumns[q.SortBy]
	if !ok {
		col = sortColumns["booking_date"]
	}
	order := "ASC"
	if q.Descending {
		order = "DESC"
	}
	query := `SELECT ` + bookingColumns + `, c.institution_id` + from + clause +
		` ORDER BY ` + col + ` ` + order + `, b.id LIMIT ? OFFSET ?`
	pageArgs := append(append([]interface{}{}, args...), q.Limit, q.Page*q.Limit)
	rows, err := r.db.QueryContext(ctx, query, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()
	out := make([]model.Booking, 0, q.Limit)
	for rows.Next() {
		var cust model.Customer
		b, err := scanBooking(rows, &cust.InstitutionID)
		if err != nil {
			return nil, 0, err
		}
		cust.ID = b.CustomerID
		b.Customer = &cust
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// AllocateBooking picks a free scooter in the pool and inserts the
// booking on it inside one transaction.  The pool's scooter rows are
// locked first, so two allocations for the same pool are serialized and
// at most one of two overlapping requests can take a given scooter.
func (r *BookingRepo) AllocateBooking(ctx context.Context, a Allocation) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin allocation: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := lockPoolScooters(ctx, tx, a.PoolID); err != nil {
		return err
	}
	sc, err := findAvailableScooter(ctx, tx, a.PoolID, a.From, a.To, a.Statuses)
	if err != nil {
		return err
	}
	if sc == nil {
		return ErrNoCandidate
	}

	b := a.Booking
	b.ScooterID = sc.ID
	const ins = `INSERT INTO bookings
                 (id, customer_id, scooter_id, booking_date, booking_end_date, duration, booking_type, booking_status)
                 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, ins,
		b.ID, b.CustomerID, b.ScooterID, b.BookingDate.UTC(), b.BookingEndDate.UTC(),
		int(b.Duration), string(b.BookingType), string(b.BookingStatus),
	); err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	// Query back the timestamps filled by column defaults
	const sel = `SELECT created_at, updated_at FROM bookings WHERE id = ?`
	if err := tx.QueryRowContext(ctx, sel, b.ID).Scan(&b.CreatedAt, &b.UpdatedAt); err != nil {
		return fmt.Errorf("reload booking: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit allocation: %w", err)
	}
	committed = true
	b.Scooter = sc
	return nil
}

func lockPoolScooters(ctx context.Context, tx *sql.Tx, poolID string) error {
	rows, err := tx.QueryContext(ctx, `SELECT id FROM scooters WHERE scooter_pool_id = ? ORDER BY id FOR UPDATE`, poolID)
	if err != nil {
		return fmt.Errorf("lock pool %s: %w", poolID, err)
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
	}
	return rows.Err()
}

// TransitionStatus applies c only if the booking is still in c.From and
// returns the updated booking.  ErrStatusChanged when it is not,
// ErrNotFound when the booking does not exist.
func (r *BookingRepo) TransitionStatus(ctx context.Context, c StatusChange) (*model.Booking, error) {
	const q = `UPDATE bookings
               SET booking_status = ?,
                   started_at = COALESCE(?, started_at),
                   returned_at = COALESCE(?, returned_at)
               WHERE id = ? AND booking_status = ?`
	res, err := r.db.ExecContext(ctx, q, string(c.To), nullableUTC(c.StartedAt), nullableUTC(c.ReturnedAt), c.BookingID, string(c.From))
	if err != nil {
		return nil, fmt.Errorf("transition booking %s: %w", c.BookingID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		var status string
		err := r.db.QueryRowContext(ctx, `SELECT booking_status FROM bookings WHERE id = ?`, c.BookingID).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("reload booking %s: %w", c.BookingID, err)
		}
		return nil, ErrStatusChanged
	}
	return r.GetBooking(ctx, c.BookingID)
}

// ResizeBooking rewrites duration and booking_end_date of an Open
// booking after checking its scooter for conflicts, all under the
// scooter's row lock.  Only those two columns are written.
func (r *BookingRepo) ResizeBooking(ctx context.Context, rz Resize) (*model.Booking, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin resize: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var scooterID string
	err = tx.QueryRowContext(ctx, `SELECT scooter_id FROM bookings WHERE id = ?`, rz.BookingID).Scan(&scooterID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load booking %s: %w", rz.BookingID, err)
	}
	var locked string
	if err := tx.QueryRowContext(ctx, `SELECT id FROM scooters WHERE id = ? FOR UPDATE`, scooterID).Scan(&locked); err != nil {
		return nil, fmt.Errorf("lock scooter %s: %w", scooterID, err)
	}
	var status string
	if err := tx.QueryRowContext(ctx, `SELECT booking_status FROM bookings WHERE id = ? FOR UPDATE`, rz.BookingID).Scan(&status); err != nil {
		return nil, fmt.Errorf("lock booking %s: %w", rz.BookingID, err)
	}
	if model.BookingStatus(status) != model.BookingOpen {
		return nil, ErrStatusChanged
	}

	conflicts, err := countConflicts(ctx, tx, scooterID, rz.BookingID, rz.From, rz.To, rz.Statuses)
	if err != nil {
		return nil, err
	}
	if conflicts > 0 {
		return nil, ErrConflict
	}

	const upd = `UPDATE bookings SET duration = ?, booking_end_date = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, upd, int(rz.Duration), rz.EndDate.UTC(), rz.BookingID); err != nil {
		return nil, fmt.Errorf("resize booking %s: %w", rz.BookingID, err)
	}
	b, err := getBooking(ctx, tx, rz.BookingID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit resize: %w", err)
	}
	committed = true
	return b, nil
}

// countConflicts counts bookings on scooterID, other than excludeID, in
// one of statuses whose window overlaps [from, to).
func countConflicts(ctx context.Context, q querier, scooterID, excludeID string, from, to time.Time, statuses []model.BookingStatus) (int, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	placeholders, statusVals := statusArgs(statuses)
	query := `SELECT COUNT(*) FROM bookings b
              WHERE b.scooter_id = ? AND b.id <> ?
                AND b.booking_status IN (` + strings.Join(placeholders, ",") + `)
                AND b.booking_date < ? AND b.booking_end_date > ?`
	args := append([]interface{}{scooterID, excludeID}, statusVals...)
	args = append(args, to.UTC(), from.UTC())
	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("conflict check: %w", err)
	}
	return n, nil
}
