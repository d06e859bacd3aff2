package events

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventbond/eventbond/internal/platform/db"
	"github.com/eventbond/eventbond/internal/shared"
)

// Repository defines persistence operations for events.
type Repository interface {
	Create(ctx context.Context, creatorID int64, params CreateParams) (*Event, error)
	Get(ctx context.Context, id int64) (*Event, error)
	Update(ctx context.Context, id int64, params UpdateParams) (*Event, error)
	Delete(ctx context.Context, id int64) error
	Search(ctx context.Context, params SearchParams) ([]Event, int, error)
}

// ImageStore provides image persistence plus the atomic unit the primary-flag
// invariant depends on.
type ImageStore interface {
	EventExists(ctx context.Context, eventID int64) (bool, error)
	GetImage(ctx context.Context, id int64) (*Image, error)
	ListImages(ctx context.Context, eventID int64) ([]Image, error)
	DeleteImage(ctx context.Context, id int64) error
	// WithinTx runs fn against a transactional view of the store. All
	// mutations performed through the ImageTx commit together or roll
	// back together; no intermediate state is observable outside fn.
	WithinTx(ctx context.Context, fn func(tx ImageTx) error) error
}

// ImageTx is the transactional mutation surface for image rows.
type ImageTx interface {
	DemotePrimary(ctx context.Context, eventID int64) error
	InsertImage(ctx context.Context, image Image) (*Image, error)
	SetPrimary(ctx context.Context, id int64) (*Image, error)
}

// PGRepository implements Repository and ImageStore using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const eventColumns = `id, creator_id, category_id, title, description, start_date, end_date, venue, price, created_at, updated_at`

func scanEvent(row pgx.Row) (*Event, error) {
	var e Event
	err := row.Scan(&e.ID, &e.CreatorID, &e.CategoryID, &e.Title, &e.Description,
		&e.StartDate, &e.EndDate, &e.Venue, &e.Price, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// Create inserts a new event.
func (r *PGRepository) Create(ctx context.Context, creatorID int64, params CreateParams) (*Event, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO events (creator_id, category_id, title, description, start_date, end_date, venue, price)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+eventColumns,
		creatorID, params.CategoryID, params.Title, params.Description,
		params.StartDate, params.EndDate, params.Venue, params.Price)
	return scanEvent(row)
}

// Get fetches an event by id.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Event, error) {
	return scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
}

// Update applies a partial update; nil fields keep their stored value.
func (r *PGRepository) Update(ctx context.Context, id int64, params UpdateParams) (*Event, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE events SET
		    category_id = COALESCE($2, category_id),
		    title       = COALESCE($3, title),
		    description = COALESCE($4, description),
		    start_date  = COALESCE($5, start_date),
		    end_date    = COALESCE($6, end_date),
		    venue       = COALESCE($7, venue),
		    price       = COALESCE($8, price),
		    updated_at  = now()
		 WHERE id = $1
		 RETURNING `+eventColumns,
		id, params.CategoryID, params.Title, params.Description,
		params.StartDate, params.EndDate, params.Venue, params.Price)
	return scanEvent(row)
}

// Delete removes an event; image rows cascade.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Search returns one page of events matching the filter plus the total count.
func (r *PGRepository) Search(ctx context.Context, params SearchParams) ([]Event, int, error) {
	where := ` WHERE ($1 = '' OR title ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')
	           AND ($2 = 0 OR category_id = $2)`

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM events`+where, params.Text, params.CategoryID).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := shared.NewPagination(params.Page, params.PerPage, total)
	rows, err := r.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM events`+where+` ORDER BY start_date, id LIMIT $3 OFFSET $4`,
		params.Text, params.CategoryID, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var list []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.CreatorID, &e.CategoryID, &e.Title, &e.Description,
			&e.StartDate, &e.EndDate, &e.Venue, &e.Price, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, e)
	}
	return list, total, rows.Err()
}

const imageColumns = `id, event_id, image_url, alt_text, is_primary, created_at, updated_at`

func scanImage(row pgx.Row) (*Image, error) {
	var img Image
	err := row.Scan(&img.ID, &img.EventID, &img.ImageURL, &img.AltText, &img.IsPrimary, &img.CreatedAt, &img.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &img, nil
}

// EventExists reports whether the event row is present.
func (r *PGRepository) EventExists(ctx context.Context, eventID int64) (bool, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`, eventID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// GetImage fetches an image by id.
func (r *PGRepository) GetImage(ctx context.Context, id int64) (*Image, error) {
	return scanImage(r.pool.QueryRow(ctx, `SELECT `+imageColumns+` FROM event_images WHERE id = $1`, id))
}

// ListImages returns all images of one event.
func (r *PGRepository) ListImages(ctx context.Context, eventID int64) ([]Image, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+imageColumns+` FROM event_images WHERE event_id = $1 ORDER BY id`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Image
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ID, &img.EventID, &img.ImageURL, &img.AltText, &img.IsPrimary, &img.CreatedAt, &img.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, img)
	}
	return list, rows.Err()
}

// DeleteImage removes an image row. Deleting the primary image leaves the
// event with zero primaries, which is a legal state.
func (r *PGRepository) DeleteImage(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM event_images WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// WithinTx implements the atomic unit over a pgx transaction.
func (r *PGRepository) WithinTx(ctx context.Context, fn func(tx ImageTx) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&pgImageTx{tx: tx})
	})
}

type pgImageTx struct {
	tx pgx.Tx
}

// DemotePrimary clears the primary flag on every image of the event.
func (t *pgImageTx) DemotePrimary(ctx context.Context, eventID int64) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE event_images SET is_primary = false, updated_at = now() WHERE event_id = $1 AND is_primary`,
		eventID)
	return err
}

// InsertImage stores a new image row.
func (t *pgImageTx) InsertImage(ctx context.Context, image Image) (*Image, error) {
	row := t.tx.QueryRow(ctx,
		`INSERT INTO event_images (event_id, image_url, alt_text, is_primary)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+imageColumns,
		image.EventID, image.ImageURL, image.AltText, image.IsPrimary)
	return scanImage(row)
}

// SetPrimary flips the primary flag on for one image.
func (t *pgImageTx) SetPrimary(ctx context.Context, id int64) (*Image, error) {
	row := t.tx.QueryRow(ctx,
		`UPDATE event_images SET is_primary = true, updated_at = now() WHERE id = $1 RETURNING `+imageColumns,
		id)
	return scanImage(row)
}

var (
	_ Repository = (*PGRepository)(nil)
	_ ImageStore = (*PGRepository)(nil)
)
