package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeImageCleanup removes orphaned image files from disk.
	TaskTypeImageCleanup = "images:cleanup"
	// TaskTypeBookingConfirmation sends a booking confirmation notification.
	TaskTypeBookingConfirmation = "bookings:confirm"
)

// ImageCleanupPayload names the stored file to remove.
type ImageCleanupPayload struct {
	Filename string `json:"filename"`
}

// BookingConfirmationPayload identifies the booking to confirm.
type BookingConfirmationPayload struct {
	BookingID int64 `json:"bookingId"`
	UserID    int64 `json:"userId"`
	EventID   int64 `json:"eventId"`
}

// NewImageCleanupTask constructs an Asynq task.
func NewImageCleanupTask(payload ImageCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeImageCleanup, data), nil
}

// NewBookingConfirmationTask constructs an Asynq task.
func NewBookingConfirmationTask(payload BookingConfirmationPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeBookingConfirmation, data), nil
}

// FileRemover deletes a stored upload by filename.
type FileRemover interface {
	Remove(filename string) error
}

// NewImageCleanupHandler returns a handler that deletes the named file.
func NewImageCleanupHandler(files FileRemover, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ImageCleanupPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.Filename == "" {
			return asynq.SkipRetry
		}
		if err := files.Remove(payload.Filename); err != nil {
			return err
		}
		logger.Info("image file removed", slog.String("filename", payload.Filename))
		return nil
	}
}

// HandleBookingConfirmationTask processes TaskTypeBookingConfirmation tasks.
func HandleBookingConfirmationTask(ctx context.Context, t *asynq.Task) error {
	var payload BookingConfirmationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	// Placeholder: integrate with SMTP/Mailpit in phase 2.
	fmt.Printf("[jobs] booking %d confirmed for user %d event %d\n",
		payload.BookingID, payload.UserID, payload.EventID)
	return nil
}
