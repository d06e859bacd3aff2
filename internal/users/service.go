package users

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/eventbond/eventbond/internal/authz"
)

// ErrSelfDelete rejects an admin removing their own account via the admin route.
var ErrSelfDelete = errors.New("users: cannot delete own account")

// Service handles account business logic.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new account with a bcrypt-hashed password. Role
// restrictions (only admins may mint admins) are enforced by the
// authorization layer before this is called.
func (s *Service) Create(ctx context.Context, username, email, password string, role authz.Role) (*User, error) {
	if role == "" {
		role = authz.RoleUser
	}
	if !role.Valid() {
		return nil, fmt.Errorf("users: invalid role %q", role)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("users: hash password: %w", err)
	}
	return s.repo.Create(ctx, username, email, string(hash), role)
}

// Get fetches one account.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	return s.repo.Get(ctx, id)
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Update applies a partial self-service update. Absent fields are left
// unchanged; the role can only be changed through UpdateByAdmin.
func (s *Service) Update(ctx context.Context, id int64, params UpdateParams) (*User, error) {
	record := updateRecord{Username: params.Username, Email: params.Email}
	if err := hashInto(&record, params.Password); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, record)
}

// UpdateByAdmin is the admin variant of Update; it may additionally change
// the account role.
func (s *Service) UpdateByAdmin(ctx context.Context, id int64, params UpdateParams) (*User, error) {
	if params.Role != nil && !params.Role.Valid() {
		return nil, fmt.Errorf("users: invalid role %q", *params.Role)
	}
	record := updateRecord{Username: params.Username, Email: params.Email, Role: params.Role}
	if err := hashInto(&record, params.Password); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, record)
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// DeleteByAdmin removes another user's account.
func (s *Service) DeleteByAdmin(ctx context.Context, id, actorID int64) error {
	if id == actorID {
		return ErrSelfDelete
	}
	return s.repo.Delete(ctx, id)
}

func hashInto(record *updateRecord, password *string) error {
	if password == nil {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("users: hash password: %w", err)
	}
	hashed := string(hash)
	record.PasswordHash = &hashed
	return nil
}
