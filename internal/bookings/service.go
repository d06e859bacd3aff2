package bookings

import (
	"context"
	"log/slog"
)

// ConfirmationEnqueuer schedules a booking confirmation notification.
type ConfirmationEnqueuer interface {
	EnqueueBookingConfirmation(ctx context.Context, bookingID, userID, eventID int64) error
}

// Service handles booking business logic.
type Service struct {
	logger  *slog.Logger
	repo    Repository
	confirm ConfirmationEnqueuer
}

// NewService builds a Service instance.
func NewService(logger *slog.Logger, repo Repository, confirm ConfirmationEnqueuer) *Service {
	return &Service{logger: logger, repo: repo, confirm: confirm}
}

// Create books the event for the user and schedules a confirmation.
func (s *Service) Create(ctx context.Context, userID, eventID int64) (*Booking, error) {
	booking, err := s.repo.Create(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	if s.confirm != nil {
		if err := s.confirm.EnqueueBookingConfirmation(ctx, booking.ID, userID, eventID); err != nil {
			s.logger.Warn("enqueue booking confirmation",
				slog.Int64("booking", booking.ID),
				slog.Any("error", err))
		}
	}
	return booking, nil
}

// Get fetches one booking.
func (s *Service) Get(ctx context.Context, id int64) (*Booking, error) {
	return s.repo.Get(ctx, id)
}

// List returns all bookings.
func (s *Service) List(ctx context.Context) ([]Booking, error) {
	return s.repo.List(ctx)
}

// ListByUser returns one user's bookings.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]Booking, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Remove deletes a booking. Ownership checks happen in the authorization
// layer before this is reached.
func (s *Service) Remove(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
