package storage

import (
	"context"
	"time"

	"github.com/gofrs/flock"
)

// FileLock is an exclusive, cross-process lock on a path.
type FileLock interface {
	// TryLockContext polls every retryInterval until the lock is taken or
	// ctx is done.
	TryLockContext(ctx context.Context, retryInterval time.Duration) (bool, error)
	Unlock() error
}

// FileLockFactory hands out the lock guarding a document path.
type FileLockFactory interface {
	New(path string) FileLock
}

// FlockFactory creates advisory locks backed by github.com/gofrs/flock.
type FlockFactory struct{}

// New returns a flock on path. *flock.Flock already satisfies FileLock.
func (FlockFactory) New(path string) FileLock {
	return flock.New(path)
}
