package bookings

import "time"

// Booking ties a user to an event they reserved a place at.
type Booking struct {
	ID        int64
	UserID    int64
	EventID   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
