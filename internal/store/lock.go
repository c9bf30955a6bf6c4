package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	biberrors "github.com/Aman-CERP/bibsearch/internal/errors"
)

// lockRetryDelay is how often Lock retries a held lock.
const lockRetryDelay = 50 * time.Millisecond

// FileLock provides cross-process locking of a store file using gofrs/flock,
// so two imports cannot interleave their writes.
type FileLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewFileLock creates a lock guarding the store at storePath.
// The lock file is <storePath>.lock.
func NewFileLock(storePath string) *FileLock {
	lockPath := storePath + ".lock"
	return &FileLock{
		path:  lockPath,
		flock: flock.New(lockPath),
	}
}

// Lock acquires the lock, retrying until it is free or ctx is done.
func (l *FileLock) Lock(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return biberrors.New(biberrors.ErrCodeLockFailed,
			fmt.Sprintf("failed to acquire lock %s", l.path), err).
			WithSuggestion("another bibsearch import may be running against the same store")
	}
	if !acquired {
		return biberrors.New(biberrors.ErrCodeLockFailed,
			fmt.Sprintf("lock %s is held by another process", l.path), nil)
	}

	l.locked = true
	return nil
}

// TryLock attempts to acquire the lock without blocking.
func (l *FileLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if acquired {
		l.locked = true
	}
	return acquired, nil
}

// Unlock releases the lock. Safe to call on an unlocked FileLock.
func (l *FileLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Path returns the path to the lock file.
func (l *FileLock) Path() string {
	return l.path
}

// IsLocked reports whether this FileLock holds the lock.
func (l *FileLock) IsLocked() bool {
	return l.locked
}
