package bookings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventbond/eventbond/internal/shared"
)

// Repository defines persistence operations for bookings.
type Repository interface {
	Create(ctx context.Context, userID, eventID int64) (*Booking, error)
	Get(ctx context.Context, id int64) (*Booking, error)
	List(ctx context.Context) ([]Booking, error)
	ListByUser(ctx context.Context, userID int64) ([]Booking, error)
	Delete(ctx context.Context, id int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const bookingColumns = `id, user_id, event_id, created_at, updated_at`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	if err := row.Scan(&b.ID, &b.UserID, &b.EventID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// Create inserts a booking. A foreign key violation means the referenced
// user or event does not exist and maps to shared.ErrNotFound.
func (r *PGRepository) Create(ctx context.Context, userID, eventID int64) (*Booking, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO bookings (user_id, event_id) VALUES ($1, $2) RETURNING `+bookingColumns,
		userID, eventID)
	booking, err := scanBooking(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return booking, nil
}

// Get fetches a booking by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Booking, error) {
	return scanBooking(r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
}

// List returns all bookings ordered by id.
func (r *PGRepository) List(ctx context.Context) ([]Booking, error) {
	return r.query(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY id`)
}

// ListByUser returns one user's bookings.
func (r *PGRepository) ListByUser(ctx context.Context, userID int64) ([]Booking, error) {
	return r.query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_id = $1 ORDER BY id`, userID)
}

func (r *PGRepository) query(ctx context.Context, sql string, args ...any) ([]Booking, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Booking
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.EventID, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// Delete removes a booking.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// OwnerOf resolves ownership for the "booking" resource kind.
func (r *PGRepository) OwnerOf(ctx context.Context, id int64) (int64, error) {
	var userID int64
	if err := r.pool.QueryRow(ctx, `SELECT user_id FROM bookings WHERE id = $1`, id).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shared.ErrNotFound
		}
		return 0, err
	}
	return userID, nil
}

var _ Repository = (*PGRepository)(nil)
