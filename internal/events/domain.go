package events

import (
	"time"

	"github.com/eventbond/eventbond/internal/shared"
)

// Event represents a bookable event created by an admin.
type Event struct {
	ID          int64
	CreatorID   int64
	CategoryID  int64
	Title       string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Venue       string
	Price       float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Image is a stored picture attached to an event. Per event, at most one
// image carries IsPrimary = true; the image service is the only writer
// allowed to flip the flag after creation.
type Image struct {
	ID        int64
	EventID   int64
	ImageURL  string
	AltText   string
	IsPrimary bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Page is one page of an event listing.
type Page struct {
	Items      []Event           `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

// CreateParams carries the fields of a new event.
type CreateParams struct {
	CategoryID  int64
	Title       string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Venue       string
	Price       float64
}

// UpdateParams carries a partial event update; nil fields stay unchanged.
type UpdateParams struct {
	CategoryID  *int64
	Title       *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	Venue       *string
	Price       *float64
}

// SearchParams filters the event listing.
type SearchParams struct {
	Text       string
	CategoryID int64
	Page       int
	PerPage    int
}
