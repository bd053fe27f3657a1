package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// TempFilePrefix is the prefix used for temporary atomic write files.
	TempFilePrefix = ".qafizz-tmp-"
	// LockFile guards read-modify-write cycles across processes.
	LockFile = ".qafizz.lock"
	// StaleLockAge bounds how long a lock may be held before other
	// processes break it.
	StaleLockAge = 30 * time.Second
)

// writeFileAtomic writes data to a file atomically by writing to a temp file
// and then renaming it to the target filename.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)

	tmpFile, err := os.CreateTemp(dir, TempFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name()) // no-op after a successful rename

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpFile.Name(), perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}

	if err := os.Rename(tmpFile.Name(), filename); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", filename, err)
	}

	return nil
}

// acquireLock creates the lock file exclusively, retrying until ctx is done.
// The lock records the holder's pid and creation time. A lock older than
// StaleLockAge is treated as left behind by a crashed process and broken.
// The returned func releases it.
func acquireLock(ctx context.Context, dir string) (func(), error) {
	path := filepath.Join(dir, LockFile)

	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0666)
		if err == nil {
			fmt.Fprintf(f, "%d %s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339Nano))
			f.Close()
			return func() {
				os.Remove(path)
			}, nil
		}

		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}

		if breakStaleLock(path) {
			continue
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to acquire lock: %w", ctx.Err())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// breakStaleLock removes the lock at path when it is older than StaleLockAge.
// It re-checks the file right before removal so a lock that was just
// replaced by a live holder is left alone.
func breakStaleLock(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		// Released between the create attempt and the stat.
		return os.IsNotExist(err)
	}
	if time.Since(info.ModTime()) < StaleLockAge {
		return false
	}

	again, err := os.Stat(path)
	if err != nil || !os.SameFile(info, again) || !again.ModTime().Equal(info.ModTime()) {
		return false
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return false
	}
	return true
}
