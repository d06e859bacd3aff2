package events

import (
	"context"
	"log/slog"

	"github.com/eventbond/eventbond/internal/shared"
)

// CleanupEnqueuer schedules removal of stored image files after their
// database row is gone.
type CleanupEnqueuer interface {
	EnqueueImageCleanup(ctx context.Context, filename string) error
}

// ImageService enforces the "at most one primary image per event" invariant.
// Every write that can affect the flag runs inside a single atomic unit, so
// concurrent promotions of images of the same event deterministically
// produce exactly one winner and never two primaries.
type ImageService struct {
	logger  *slog.Logger
	store   ImageStore
	cleanup CleanupEnqueuer
}

// NewImageService builds an ImageService instance.
func NewImageService(logger *slog.Logger, store ImageStore, cleanup CleanupEnqueuer) *ImageService {
	return &ImageService{logger: logger, store: store, cleanup: cleanup}
}

// Upload records a new image for the event. When makePrimary is set, every
// existing image of the event is demoted and the new row inserted as primary
// inside one transaction; otherwise the row is inserted directly. The target
// event must exist.
func (s *ImageService) Upload(ctx context.Context, eventID int64, imageURL, altText string, makePrimary bool) (*Image, error) {
	exists, err := s.store.EventExists(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.ErrNotFound
	}

	var saved *Image
	err = s.store.WithinTx(ctx, func(tx ImageTx) error {
		if makePrimary {
			if err := tx.DemotePrimary(ctx, eventID); err != nil {
				return err
			}
		}
		inserted, err := tx.InsertImage(ctx, Image{
			EventID:   eventID,
			ImageURL:  imageURL,
			AltText:   altText,
			IsPrimary: makePrimary,
		})
		if err != nil {
			return err
		}
		saved = inserted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// Promote makes the image the single primary of its event: all siblings are
// demoted and the target set primary inside one transaction. Promoting an
// already-primary image is a no-op in observable state.
func (s *ImageService) Promote(ctx context.Context, imageID int64) (*Image, error) {
	image, err := s.store.GetImage(ctx, imageID)
	if err != nil {
		return nil, err
	}

	var promoted *Image
	err = s.store.WithinTx(ctx, func(tx ImageTx) error {
		if err := tx.DemotePrimary(ctx, image.EventID); err != nil {
			return err
		}
		updated, err := tx.SetPrimary(ctx, imageID)
		if err != nil {
			return err
		}
		promoted = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return promoted, nil
}

// Delete removes the image row and schedules removal of the stored file.
// Deleting the current primary does not promote another image; zero
// primaries is a legal state and re-promotion is an explicit Promote call.
func (s *ImageService) Delete(ctx context.Context, imageID int64) error {
	image, err := s.store.GetImage(ctx, imageID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteImage(ctx, imageID); err != nil {
		return err
	}
	if s.cleanup != nil {
		if err := s.cleanup.EnqueueImageCleanup(ctx, image.ImageURL); err != nil {
			s.logger.Warn("enqueue image cleanup",
				slog.String("file", image.ImageURL),
				slog.Any("error", err))
		}
	}
	return nil
}

// Get fetches one image.
func (s *ImageService) Get(ctx context.Context, imageID int64) (*Image, error) {
	return s.store.GetImage(ctx, imageID)
}

// ListByEvent returns all images of one event.
func (s *ImageService) ListByEvent(ctx context.Context, eventID int64) ([]Image, error) {
	return s.store.ListImages(ctx, eventID)
}
