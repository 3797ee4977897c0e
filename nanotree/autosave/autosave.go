// Package autosave writes a session's state to disk shortly after it stops
// changing. An Autosaver is a store listener: subscribe Notify and every
// burst of edits results in one save of the latest state.
package autosave

import (
	"log/slog"
	"sync"
	"time"

	"github.com/arthur-debert/nanotree/nanotree/store"
	"github.com/arthur-debert/nanotree/types"
	"github.com/bep/debounce"
)

// Saver persists a forest and reports whether anything was written.
// *storage.DocumentFile is a Saver.
type Saver interface {
	Save(forest []*types.Node) (bool, error)
}

// Autosaver debounces saves of the most recent state it was notified of.
type Autosaver struct {
	saver     Saver
	logger    *slog.Logger
	debounced func(func())

	mu      sync.Mutex
	pending *store.State
	closed  bool
	lastErr error
	saved   uint64 // revision of the last successful save
}

// New returns an Autosaver that saves delay after the last notification.
// A delay of zero or less saves on every notification.
func New(saver Saver, delay time.Duration, logger *slog.Logger) *Autosaver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	a := &Autosaver{saver: saver, logger: logger}
	if delay > 0 {
		a.debounced = debounce.New(delay)
	}
	return a
}

// Notify records st as the state to save. It never blocks on disk I/O
// unless the delay is zero.
func (a *Autosaver) Notify(st store.State) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.pending = &st
	a.mu.Unlock()

	if a.debounced == nil {
		_ = a.Flush()
		return
	}
	a.debounced(func() { _ = a.Flush() })
}

// Flush saves the pending state now, if there is one.
func (a *Autosaver) Flush() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.flushLocked()
}

func (a *Autosaver) flushLocked() error {
	st := a.pending
	if st == nil {
		return nil
	}
	written, err := a.saver.Save(st.Forest)
	if err != nil {
		// Keep the state so a later flush can retry.
		a.lastErr = err
		a.logger.Error("autosave failed", "revision", st.Revision, "error", err)
		return err
	}
	a.pending = nil
	a.lastErr = nil
	a.saved = st.Revision
	if written {
		a.logger.Debug("autosaved", "revision", st.Revision)
	}
	return nil
}

// Close flushes any pending state and ignores later notifications.
func (a *Autosaver) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	return a.flushLocked()
}

// LastError returns the error of the most recent save attempt, or nil
// if it succeeded.
func (a *Autosaver) LastError() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastErr
}

// SavedRevision returns the revision of the last state saved.
func (a *Autosaver) SavedRevision() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.saved
}

// Pending reports whether a state is waiting to be saved.
func (a *Autosaver) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending != nil
}
