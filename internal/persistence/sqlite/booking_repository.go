package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/room-booking/internal/persistence"
)

const bookingColumns = `id, room_id, user_id, start_at, end_at, title, description, status, created_at, cancelled_at`

// Booking status values stored in the status column.
const (
	BookingStatusActive    = "active"
	BookingStatusCancelled = "cancelled"
)

// BookingRepository implements persistence.BookingRepository using SQLite.
type BookingRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewBookingRepository creates a SQLite booking repository.
func NewBookingRepository(pool *ConnectionPool) *BookingRepository {
	return &BookingRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateBooking inserts a booking with the next sequential id.
func (r *BookingRepository) CreateBooking(ctx context.Context, booking persistence.Booking) (persistence.Booking, error) {
	normalized, err := normalizeBooking(booking)
	if err != nil {
		return persistence.Booking{}, err
	}

	err = r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		id, err := r.helper.nextID(ctx, tx, "bookings")
		if err != nil {
			return r.mapper.MapError(err)
		}
		_, err = r.helper.ExecTx(ctx, tx, `
			INSERT INTO bookings (`+bookingColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id,
			normalized.RoomID,
			normalized.UserID,
			formatTime(normalized.Start),
			formatTime(normalized.End),
			normalized.Title,
			normalized.Description,
			normalized.Status,
			formatTime(normalized.CreatedAt),
			nullTime(normalized.CancelledAt),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		normalized.ID = id
		return nil
	})
	if err != nil {
		return persistence.Booking{}, err
	}
	return normalized, nil
}

// UpdateBooking overwrites the mutable fields of an existing booking. The
// creation timestamp is preserved.
func (r *BookingRepository) UpdateBooking(ctx context.Context, booking persistence.Booking) (persistence.Booking, error) {
	if booking.ID <= 0 {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	normalized, err := normalizeBooking(booking)
	if err != nil {
		return persistence.Booking{}, err
	}

	var stored persistence.Booking
	err = r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		result, err := r.helper.ExecTx(ctx, tx, `
			UPDATE bookings
			SET room_id = ?, user_id = ?, start_at = ?, end_at = ?, title = ?,
			    description = ?, status = ?, cancelled_at = ?
			WHERE id = ?`,
			normalized.RoomID,
			normalized.UserID,
			formatTime(normalized.Start),
			formatTime(normalized.End),
			normalized.Title,
			normalized.Description,
			normalized.Status,
			nullTime(normalized.CancelledAt),
			normalized.ID,
		)
		if err != nil {
			return r.mapper.MapError(err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if affected == 0 {
			return persistence.ErrNotFound
		}

		stored, err = r.scanBooking(r.helper.QueryRowTx(ctx, tx,
			`SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, normalized.ID))
		return err
	})
	if err != nil {
		return persistence.Booking{}, err
	}
	return stored, nil
}

// GetBooking retrieves a booking by id regardless of status.
func (r *BookingRepository) GetBooking(ctx context.Context, id int64) (persistence.Booking, error) {
	if id <= 0 {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	return r.scanBooking(r.helper.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
}

// ListBookings returns bookings matching the filter ordered by id.
func (r *BookingRepository) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.RoomID != nil {
		clauses = append(clauses, "room_id = ?")
		args = append(args, *filter.RoomID)
	}
	if filter.UserID != nil {
		clauses = append(clauses, "user_id = ?")
		args = append(args, *filter.UserID)
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, status)
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY id ASC`

	return r.queryBookings(ctx, query, args...)
}

// ListOverlapping returns active bookings of roomID intersecting the half-open
// interval [start, end). Touching intervals do not overlap.
func (r *BookingRepository) ListOverlapping(ctx context.Context, roomID int64, start, end time.Time) ([]persistence.Booking, error) {
	return r.queryBookings(ctx, `
		SELECT `+bookingColumns+` FROM bookings
		WHERE room_id = ? AND status = ? AND start_at < ? AND end_at > ?
		ORDER BY start_at ASC, id ASC`,
		roomID,
		BookingStatusActive,
		formatTime(end),
		formatTime(start),
	)
}

func (r *BookingRepository) queryBookings(ctx context.Context, query string, args ...any) ([]persistence.Booking, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var bookings []persistence.Booking
	for rows.Next() {
		booking, err := r.scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return bookings, nil
}

func (r *BookingRepository) scanBooking(row scanner) (persistence.Booking, error) {
	var (
		booking                   persistence.Booking
		startAt, endAt, createdAt string
		cancelledAt               sql.NullString
	)
	if err := row.Scan(
		&booking.ID,
		&booking.RoomID,
		&booking.UserID,
		&startAt,
		&endAt,
		&booking.Title,
		&booking.Description,
		&booking.Status,
		&createdAt,
		&cancelledAt,
	); err != nil {
		return persistence.Booking{}, r.mapper.MapError(err)
	}

	var err error
	if booking.Start, err = parseTime(startAt); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse start_at: %w", err)
	}
	if booking.End, err = parseTime(endAt); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse end_at: %w", err)
	}
	if booking.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if booking.CancelledAt, err = parseNullTime(cancelledAt); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse cancelled_at: %w", err)
	}
	return booking, nil
}

func normalizeBooking(booking persistence.Booking) (persistence.Booking, error) {
	if booking.RoomID <= 0 || booking.UserID <= 0 {
		return persistence.Booking{}, persistence.ErrConstraintViolation
	}
	if booking.Start.IsZero() || booking.End.IsZero() || !booking.Start.Before(booking.End) {
		return persistence.Booking{}, persistence.ErrConstraintViolation
	}
	if booking.Status == "" {
		booking.Status = BookingStatusActive
	}

	booking.Start = booking.Start.UTC().Truncate(time.Second)
	booking.End = booking.End.UTC().Truncate(time.Second)
	booking.CreatedAt = booking.CreatedAt.UTC().Truncate(time.Second)
	if booking.CancelledAt != nil {
		cancelled := booking.CancelledAt.UTC().Truncate(time.Second)
		booking.CancelledAt = &cancelled
	}
	return booking, nil
}
