package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	biberrors "github.com/Aman-CERP/bibsearch/internal/errors"
)

func TestFileLock_LockUnlock(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "sub", "library.db")
	l := NewFileLock(storePath)

	assert.Equal(t, storePath+".lock", l.Path())
	require.NoError(t, l.Lock(context.Background()))
	assert.True(t, l.IsLocked())

	require.NoError(t, l.Unlock())
	assert.False(t, l.IsLocked())
	require.NoError(t, l.Unlock())
}

func TestFileLock_SecondLockerWaits(t *testing.T) {
	// Given: one holder of the lock
	storePath := filepath.Join(t.TempDir(), "library.db")
	first := NewFileLock(storePath)
	require.NoError(t, first.Lock(context.Background()))
	defer first.Unlock()

	// When: a second locker tries without blocking
	second := NewFileLock(storePath)
	acquired, err := second.TryLock()

	// Then: it does not get the lock
	require.NoError(t, err)
	assert.False(t, acquired)

	// And: a bounded Lock gives up with a lock error
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	err = second.Lock(ctx)
	require.Error(t, err)
	assert.Equal(t, biberrors.ErrCodeLockFailed, biberrors.GetCode(err))
}

func TestFileLock_ReleasedLockCanBeTaken(t *testing.T) {
	storePath := filepath.Join(t.TempDir(), "library.db")
	first := NewFileLock(storePath)
	require.NoError(t, first.Lock(context.Background()))
	require.NoError(t, first.Unlock())

	second := NewFileLock(storePath)
	acquired, err := second.TryLock()
	require.NoError(t, err)
	assert.True(t, acquired)
	require.NoError(t, second.Unlock())
}
