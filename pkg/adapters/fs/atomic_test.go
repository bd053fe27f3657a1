package fs

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestWriteFileAtomic(t *testing.T) {
	t.Run("Creates New File", func(t *testing.T) {
		tmpDir := t.TempDir()
		filename := filepath.Join(tmpDir, "qafizz_auth")

		if err := writeFileAtomic(filename, []byte("true"), 0644); err != nil {
			t.Fatalf("writeFileAtomic failed: %v", err)
		}

		got, err := os.ReadFile(filename)
		if err != nil {
			t.Fatalf("Failed to read file: %v", err)
		}
		if string(got) != "true" {
			t.Errorf("Expected content 'true', got '%s'", string(got))
		}
	})

	t.Run("Overwrites Existing File", func(t *testing.T) {
		tmpDir := t.TempDir()
		filename := filepath.Join(tmpDir, "qafizz_notes")

		if err := os.WriteFile(filename, []byte("[]"), 0644); err != nil {
			t.Fatalf("Setup failed: %v", err)
		}

		if err := writeFileAtomic(filename, []byte(`[{"id":1}]`), 0644); err != nil {
			t.Fatalf("writeFileAtomic failed: %v", err)
		}

		got, err := os.ReadFile(filename)
		if err != nil {
			t.Fatalf("Failed to read file: %v", err)
		}
		if string(got) != `[{"id":1}]` {
			t.Errorf("Unexpected content '%s'", string(got))
		}
	})

	t.Run("Leaves No Temp Files", func(t *testing.T) {
		tmpDir := t.TempDir()
		if err := writeFileAtomic(filepath.Join(tmpDir, "k"), []byte("v"), 0644); err != nil {
			t.Fatalf("writeFileAtomic failed: %v", err)
		}

		entries, err := os.ReadDir(tmpDir)
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), TempFilePrefix) {
				t.Errorf("temp file left behind: %s", e.Name())
			}
		}
	})
}

func TestAcquireLock(t *testing.T) {
	dir := t.TempDir()

	unlock, err := acquireLock(context.Background(), dir)
	if err != nil {
		t.Fatalf("acquireLock failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := acquireLock(ctx, dir); err == nil {
		t.Fatal("expected second acquire to time out while held")
	}

	unlock()

	unlock2, err := acquireLock(context.Background(), dir)
	if err != nil {
		t.Fatalf("acquire after release failed: %v", err)
	}
	unlock2()
}

func TestAcquireLock_RecordsHolder(t *testing.T) {
	dir := t.TempDir()

	unlock, err := acquireLock(context.Background(), dir)
	if err != nil {
		t.Fatalf("acquireLock failed: %v", err)
	}
	defer unlock()

	data, err := os.ReadFile(filepath.Join(dir, LockFile))
	if err != nil {
		t.Fatalf("Failed to read lock file: %v", err)
	}
	fields := strings.Fields(string(data))
	if len(fields) != 2 || fields[0] != strconv.Itoa(os.Getpid()) {
		t.Errorf("unexpected lock content %q", string(data))
	}
}

func TestAcquireLock_BreaksStaleLock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, LockFile)

	// A lock left behind by a process that died while holding it.
	if err := os.WriteFile(path, []byte("99999 2020-01-01T00:00:00Z\n"), 0644); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	old := time.Now().Add(-2 * StaleLockAge)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	unlock, err := acquireLock(ctx, dir)
	if err != nil {
		t.Fatalf("expected stale lock to be broken, got: %v", err)
	}
	unlock()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("lock file should be gone after release, stat err: %v", err)
	}
}

func TestAcquireLock_KeepsFreshForeignLock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, LockFile)

	if err := os.WriteFile(path, []byte("99999\n"), 0644); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	if _, err := acquireLock(ctx, dir); err == nil {
		t.Fatal("expected a fresh lock held by another process to block")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("fresh lock should be left in place: %v", err)
	}
}
