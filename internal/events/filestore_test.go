package events

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreSaveAndRemove(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}

	name, err := store.Save("image/png", bytes.NewReader([]byte("fake-png")))
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if filepath.Ext(name) != ".png" {
		t.Fatalf("expected .png extension got %q", name)
	}

	path, err := store.Path(name)
	if err != nil {
		t.Fatalf("Path returned error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("saved file missing: %v", err)
	}

	if err := store.Remove(name); err != nil {
		t.Fatalf("Remove returned error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file gone, stat err: %v", err)
	}

	// Removing an already-removed file is not an error.
	if err := store.Remove(name); err != nil {
		t.Fatalf("second Remove returned error: %v", err)
	}
}

func TestFileStoreRejectsUnknownContentType(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	if store.Accepts("application/pdf") {
		t.Fatalf("expected pdf rejected")
	}
	if _, err := store.Save("application/pdf", bytes.NewReader(nil)); err == nil {
		t.Fatalf("expected Save to reject unsupported content type")
	}
}

func TestFileStorePathRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore returned error: %v", err)
	}
	for _, name := range []string{"../etc/passwd", "a/b.png", ""} {
		if _, err := store.Path(name); err == nil {
			t.Fatalf("expected Path to reject %q", name)
		}
	}
}
