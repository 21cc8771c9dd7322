package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.gob")
	s := NewFileStore(path)

	if _, err := s.Load(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("Load() on missing file error = %v, want ErrNoToken", err)
	}

	if err := s.Save("tok-1"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Fatalf("token file mode = %o, want 600", perm)
	}

	if err := s.Save("tok-2"); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}
	got, err := NewFileStore(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != "tok-2" {
		t.Fatalf("Load() = %q, want tok-2", got)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() on missing file error = %v", err)
	}
	if _, err := s.Load(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("Load() after Clear error = %v, want ErrNoToken", err)
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.gob")
	if err := os.WriteFile(path, []byte("garbage"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := NewFileStore(path).Load(); err == nil || errors.Is(err, ErrNoToken) {
		t.Fatalf("Load() error = %v, want decode error", err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore("")
	if _, err := s.Load(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("Load() error = %v, want ErrNoToken", err)
	}
	s.Save("tok")
	if got, _ := s.Load(); got != "tok" {
		t.Fatalf("Load() = %q, want tok", got)
	}
	s.Clear()
	if _, err := s.Load(); !errors.Is(err, ErrNoToken) {
		t.Fatalf("Load() after Clear error = %v, want ErrNoToken", err)
	}
}
