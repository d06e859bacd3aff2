package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
)

type fakeRemover struct {
	removed []string
}

func (r *fakeRemover) Remove(filename string) error {
	r.removed = append(r.removed, filename)
	return nil
}

func TestImageCleanupHandlerRemovesFile(t *testing.T) {
	remover := &fakeRemover{}
	handler := NewImageCleanupHandler(remover, slog.New(slog.NewTextHandler(io.Discard, nil)))

	task, err := NewImageCleanupTask(ImageCleanupPayload{Filename: "a.jpg"})
	if err != nil {
		t.Fatalf("NewImageCleanupTask returned error: %v", err)
	}
	if err := handler(context.Background(), task); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if len(remover.removed) != 1 || remover.removed[0] != "a.jpg" {
		t.Fatalf("expected a.jpg removed, got %v", remover.removed)
	}
}

func TestImageCleanupHandlerSkipsBadPayload(t *testing.T) {
	remover := &fakeRemover{}
	handler := NewImageCleanupHandler(remover, slog.New(slog.NewTextHandler(io.Discard, nil)))

	task := asynq.NewTask(TaskTypeImageCleanup, []byte("not json"))
	if err := handler(context.Background(), task); err != asynq.SkipRetry {
		t.Fatalf("expected SkipRetry got %v", err)
	}
	if len(remover.removed) != 0 {
		t.Fatalf("expected no removal, got %v", remover.removed)
	}
}
