package users

import (
	"time"

	"github.com/eventbond/eventbond/internal/authz"
)

// User represents a registered account.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Role         authz.Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UpdateParams carries a partial update. Nil fields mean "no change"; the
// service never interprets an absent field as a request to clear it.
type UpdateParams struct {
	Username *string
	Email    *string
	Password *string
	Role     *authz.Role
}
