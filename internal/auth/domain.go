package auth

import (
	"time"

	"github.com/eventbond/eventbond/internal/authz"
)

// User represents an authenticated user account.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         authz.Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
