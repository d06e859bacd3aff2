package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/eventbond/eventbond/internal/shared"
)

// fakeImageStore keeps images in memory and gives WithinTx real
// commit-or-discard semantics: mutations run against a copy that only
// replaces the live state when fn succeeds.
type fakeImageStore struct {
	mu     sync.Mutex
	events map[int64]bool
	images map[int64]Image
	nextID int64
}

func newFakeImageStore(eventIDs ...int64) *fakeImageStore {
	s := &fakeImageStore{events: map[int64]bool{}, images: map[int64]Image{}, nextID: 1}
	for _, id := range eventIDs {
		s.events[id] = true
	}
	return s
}

func (s *fakeImageStore) EventExists(_ context.Context, eventID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[eventID], nil
}

func (s *fakeImageStore) GetImage(_ context.Context, id int64) (*Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	image, ok := s.images[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &image, nil
}

func (s *fakeImageStore) ListImages(_ context.Context, eventID int64) ([]Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var list []Image
	for _, image := range s.images {
		if image.EventID == eventID {
			list = append(list, image)
		}
	}
	return list, nil
}

func (s *fakeImageStore) DeleteImage(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.images[id]; !ok {
		return shared.ErrNotFound
	}
	delete(s.images, id)
	return nil
}

func (s *fakeImageStore) WithinTx(_ context.Context, fn func(tx ImageTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	staged := &fakeImageTx{images: make(map[int64]Image, len(s.images)), nextID: s.nextID}
	for id, image := range s.images {
		staged.images[id] = image
	}
	if err := fn(staged); err != nil {
		return err
	}
	s.images = staged.images
	s.nextID = staged.nextID
	return nil
}

type fakeImageTx struct {
	images map[int64]Image
	nextID int64

	failSetPrimary bool
}

func (tx *fakeImageTx) DemotePrimary(_ context.Context, eventID int64) error {
	for id, image := range tx.images {
		if image.EventID == eventID && image.IsPrimary {
			image.IsPrimary = false
			tx.images[id] = image
		}
	}
	return nil
}

func (tx *fakeImageTx) InsertImage(_ context.Context, image Image) (*Image, error) {
	image.ID = tx.nextID
	tx.nextID++
	tx.images[image.ID] = image
	return &image, nil
}

func (tx *fakeImageTx) SetPrimary(_ context.Context, id int64) (*Image, error) {
	if tx.failSetPrimary {
		return nil, errors.New("boom")
	}
	image, ok := tx.images[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	image.IsPrimary = true
	tx.images[id] = image
	return &image, nil
}

func (s *fakeImageStore) primaryCount(eventID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, image := range s.images {
		if image.EventID == eventID && image.IsPrimary {
			count++
		}
	}
	return count
}

func newImageService(store ImageStore, cleanup CleanupEnqueuer) *ImageService {
	return NewImageService(slog.New(slog.NewTextHandler(io.Discard, nil)), store, cleanup)
}

func TestUploadFirstImageAsPrimary(t *testing.T) {
	store := newFakeImageStore(1)
	svc := newImageService(store, nil)

	image, err := svc.Upload(context.Background(), 1, "a.jpg", "a", true)
	if err != nil {
		t.Fatalf("Upload returned error: %v", err)
	}
	if !image.IsPrimary {
		t.Fatalf("expected uploaded image to be primary")
	}
	if got := store.primaryCount(1); got != 1 {
		t.Fatalf("expected 1 primary got %d", got)
	}
}

func TestUploadPrimaryDemotesExisting(t *testing.T) {
	store := newFakeImageStore(1)
	svc := newImageService(store, nil)
	ctx := context.Background()

	first, err := svc.Upload(ctx, 1, "a.jpg", "a", true)
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	second, err := svc.Upload(ctx, 1, "b.jpg", "b", true)
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}

	if got := store.primaryCount(1); got != 1 {
		t.Fatalf("expected exactly 1 primary got %d", got)
	}
	demoted, _ := store.GetImage(ctx, first.ID)
	if demoted.IsPrimary {
		t.Fatalf("expected first image demoted")
	}
	current, _ := store.GetImage(ctx, second.ID)
	if !current.IsPrimary {
		t.Fatalf("expected second image primary")
	}
}

func TestUploadNonPrimaryLeavesPrimaryAlone(t *testing.T) {
	store := newFakeImageStore(1)
	svc := newImageService(store, nil)
	ctx := context.Background()

	first, err := svc.Upload(ctx, 1, "a.jpg", "a", true)
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}
	if _, err := svc.Upload(ctx, 1, "b.jpg", "b", false); err != nil {
		t.Fatalf("second upload: %v", err)
	}

	current, _ := store.GetImage(ctx, first.ID)
	if !current.IsPrimary {
		t.Fatalf("expected original primary untouched")
	}
	if got := store.primaryCount(1); got != 1 {
		t.Fatalf("expected 1 primary got %d", got)
	}
}

func TestUploadUnknownEvent(t *testing.T) {
	svc := newImageService(newFakeImageStore(), nil)
	if _, err := svc.Upload(context.Background(), 99, "a.jpg", "a", false); !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

func TestPromoteSwitchesPrimary(t *testing.T) {
	store := newFakeImageStore(1)
	svc := newImageService(store, nil)
	ctx := context.Background()

	first, _ := svc.Upload(ctx, 1, "a.jpg", "a", true)
	second, _ := svc.Upload(ctx, 1, "b.jpg", "b", false)

	promoted, err := svc.Promote(ctx, second.ID)
	if err != nil {
		t.Fatalf("Promote returned error: %v", err)
	}
	if !promoted.IsPrimary {
		t.Fatalf("expected promoted image primary")
	}
	if got := store.primaryCount(1); got != 1 {
		t.Fatalf("expected 1 primary got %d", got)
	}
	old, _ := store.GetImage(ctx, first.ID)
	if old.IsPrimary {
		t.Fatalf("expected old primary demoted")
	}
}

func TestPromoteIsIdempotent(t *testing.T) {
	store := newFakeImageStore(1)
	svc := newImageService(store, nil)
	ctx := context.Background()

	image, _ := svc.Upload(ctx, 1, "a.jpg", "a", true)

	promoted, err := svc.Promote(ctx, image.ID)
	if err != nil {
		t.Fatalf("Promote returned error: %v", err)
	}
	if !promoted.IsPrimary {
		t.Fatalf("expected image to stay primary")
	}
	if got := store.primaryCount(1); got != 1 {
		t.Fatalf("expected 1 primary got %d", got)
	}
}

func TestPromoteUnknownImage(t *testing.T) {
	svc := newImageService(newFakeImageStore(1), nil)
	if _, err := svc.Promote(context.Background(), 99); !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected ErrNotFound got %v", err)
	}
}

// failingStore wraps the fake store so SetPrimary fails inside the
// transaction, exercising the rollback path.
type failingStore struct {
	*fakeImageStore
}

func (s *failingStore) WithinTx(ctx context.Context, fn func(tx ImageTx) error) error {
	return s.fakeImageStore.withinFailingTx(ctx, fn)
}

func (s *fakeImageStore) withinFailingTx(_ context.Context, fn func(tx ImageTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	staged := &fakeImageTx{images: make(map[int64]Image, len(s.images)), nextID: s.nextID, failSetPrimary: true}
	for id, image := range s.images {
		staged.images[id] = image
	}
	if err := fn(staged); err != nil {
		return err
	}
	s.images = staged.images
	s.nextID = staged.nextID
	return nil
}

func TestPromoteRollsBackOnFailure(t *testing.T) {
	store := newFakeImageStore(1)
	ctx := context.Background()

	setup := newImageService(store, nil)
	first, _ := setup.Upload(ctx, 1, "a.jpg", "a", true)
	second, _ := setup.Upload(ctx, 1, "b.jpg", "b", false)

	svc := newImageService(&failingStore{store}, nil)
	if _, err := svc.Promote(ctx, second.ID); err == nil {
		t.Fatalf("expected promote to fail")
	}

	// The demotion inside the failed transaction must not stick.
	current, _ := store.GetImage(ctx, first.ID)
	if !current.IsPrimary {
		t.Fatalf("expected original primary restored after rollback")
	}
	if got := store.primaryCount(1); got != 1 {
		t.Fatalf("expected 1 primary got %d", got)
	}
}

type recordingCleanup struct {
	files []string
	err   error
}

func (c *recordingCleanup) EnqueueImageCleanup(_ context.Context, filename string) error {
	c.files = append(c.files, filename)
	return c.err
}

func TestDeleteSchedulesFileCleanup(t *testing.T) {
	store := newFakeImageStore(1)
	cleanup := &recordingCleanup{}
	svc := newImageService(store, cleanup)
	ctx := context.Background()

	image, _ := svc.Upload(ctx, 1, "a.jpg", "a", true)
	if err := svc.Delete(ctx, image.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	if len(cleanup.files) != 1 || cleanup.files[0] != "a.jpg" {
		t.Fatalf("expected cleanup for a.jpg, got %v", cleanup.files)
	}
	if _, err := store.GetImage(ctx, image.ID); !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected image row gone, got %v", err)
	}
}

func TestDeletePrimaryDoesNotPromoteAnother(t *testing.T) {
	store := newFakeImageStore(1)
	svc := newImageService(store, nil)
	ctx := context.Background()

	primary, _ := svc.Upload(ctx, 1, "a.jpg", "a", true)
	other, _ := svc.Upload(ctx, 1, "b.jpg", "b", false)

	if err := svc.Delete(ctx, primary.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if got := store.primaryCount(1); got != 0 {
		t.Fatalf("expected 0 primaries after deleting the primary, got %d", got)
	}
	remaining, _ := store.GetImage(ctx, other.ID)
	if remaining.IsPrimary {
		t.Fatalf("expected remaining image to stay non-primary")
	}
}

func TestDeleteSucceedsWhenCleanupEnqueueFails(t *testing.T) {
	store := newFakeImageStore(1)
	cleanup := &recordingCleanup{err: errors.New("queue down")}
	svc := newImageService(store, cleanup)
	ctx := context.Background()

	image, _ := svc.Upload(ctx, 1, "a.jpg", "a", false)
	if err := svc.Delete(ctx, image.ID); err != nil {
		t.Fatalf("expected delete to succeed despite enqueue failure, got %v", err)
	}
}
