package storage

import "sync"

// OperationType tells LockManager which side of the RWMutex to take.
type OperationType int

const (
	// ReadOperation runs concurrently with other reads.
	ReadOperation OperationType = iota
	// WriteOperation runs alone.
	WriteOperation
)

// LockManager centralizes the in-process locking of a session so every
// entry point takes the right lock exactly once.
type LockManager struct {
	mu sync.RWMutex
}

// NewLockManager returns a ready LockManager.
func NewLockManager() *LockManager {
	return &LockManager{}
}

// Execute runs fn holding the lock selected by opType. The lock is released
// when fn returns or panics.
//
// Example:
//
//	err := lm.Execute(WriteOperation, func() error {
//	    return s.commit(next)
//	})
func (lm *LockManager) Execute(opType OperationType, fn func() error) error {
	switch opType {
	case ReadOperation:
		lm.mu.RLock()
		defer lm.mu.RUnlock()
	default:
		lm.mu.Lock()
		defer lm.mu.Unlock()
	}
	return fn()
}

// ExecuteWithResult is Execute for functions returning a value.
func ExecuteWithResult[T any](lm *LockManager, opType OperationType, fn func() (T, error)) (T, error) {
	var out T
	err := lm.Execute(opType, func() error {
		var err error
		out, err = fn()
		return err
	})
	return out, err
}
