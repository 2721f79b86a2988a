package storage

import (
	"os"
	"path/filepath"
	"testing"

	"diabetes-console/internal/config"
)

// exerciseStore runs the behavior every Store implementation must share.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()

	if _, ok, err := s.Get("accessToken"); err != nil || ok {
		t.Fatalf("Get on empty store = ok %v err %v, want absent", ok, err)
	}

	if err := s.Set("accessToken", "tok-1"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	got, ok, err := s.Get("accessToken")
	if err != nil || !ok || got != "tok-1" {
		t.Fatalf("Get = (%q, %v, %v), want (tok-1, true, nil)", got, ok, err)
	}

	if err := s.Set("accessToken", "tok-2"); err != nil {
		t.Fatalf("overwrite error: %v", err)
	}
	got, _, _ = s.Get("accessToken")
	if got != "tok-2" {
		t.Errorf("after overwrite Get = %q, want tok-2", got)
	}

	if err := s.Set("other/accessToken", "tok-3"); err != nil {
		t.Fatalf("Set second key error: %v", err)
	}

	if err := s.Delete("accessToken"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, ok, _ := s.Get("accessToken"); ok {
		t.Error("key still present after Delete")
	}
	if v, ok, _ := s.Get("other/accessToken"); !ok || v != "tok-3" {
		t.Errorf("unrelated key affected by Delete: (%q, %v)", v, ok)
	}

	if err := s.Delete("never-set"); err != nil {
		t.Errorf("Delete of missing key returned %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(0))
}

func TestMemoryStore_Eviction(t *testing.T) {
	s := NewMemoryStore(2)
	s.Set("a", "1")
	s.Set("b", "2")
	s.Set("c", "3")

	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}
	if _, ok, _ := s.Get("c"); !ok {
		t.Error("most recent key was evicted")
	}
}

func TestMemoryStore_Closed(t *testing.T) {
	s := NewMemoryStore(0)
	s.Close()

	if err := s.Set("a", "1"); err != ErrClosed {
		t.Errorf("Set after Close = %v, want ErrClosed", err)
	}
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "session.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	exerciseStore(t, s)
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")

	first, _ := NewFileStore(path)
	if err := first.Set("accessToken", "persisted"); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file mode = %o, want 600", perm)
	}

	second, _ := NewFileStore(path)
	got, ok, err := second.Get("accessToken")
	if err != nil || !ok || got != "persisted" {
		t.Errorf("Get from new instance = (%q, %v, %v)", got, ok, err)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	if err := os.WriteFile(path, []byte("accessToken: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}

	s, _ := NewFileStore(path)
	if _, _, err := s.Get("accessToken"); err == nil {
		t.Error("expected parse error for corrupt file")
	}
}

func TestNewFileStore_EmptyPath(t *testing.T) {
	if _, err := NewFileStore(""); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestOpen(t *testing.T) {
	tmp := t.TempDir()

	tests := []struct {
		storage config.StorageType
		path    string
	}{
		{config.StorageMemory, ""},
		{config.StorageFile, filepath.Join(tmp, "s.yaml")},
		{config.StorageSQLite, filepath.Join(tmp, "s.sqlite")},
	}

	for _, tt := range tests {
		t.Run(string(tt.storage), func(t *testing.T) {
			cfg := config.Defaults()
			cfg.Storage = tt.storage
			cfg.StoragePath = tt.path

			s, err := Open(cfg, nil)
			if err != nil {
				t.Fatalf("Open error: %v", err)
			}
			defer s.Close()

			if err := s.Set("k", "v"); err != nil {
				t.Errorf("Set error: %v", err)
			}
		})
	}

	cfg := config.Defaults()
	cfg.Storage = "redis"
	if _, err := Open(cfg, nil); err == nil {
		t.Error("expected error for unknown storage type")
	}
}
