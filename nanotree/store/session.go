// Package store owns the canonical forest of a document. A Session applies
// every mutation as a single all-or-nothing transaction: the forest is
// cloned, the change applied to the clone, IDs renumbered, constraint
// references remapped and repaired, reference cycles checked, and only
// then is the clone committed and the new state broadcast to subscribers.
package store

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/arthur-debert/nanotree/nanotree/ids"
	"github.com/arthur-debert/nanotree/nanotree/refgraph"
	"github.com/arthur-debert/nanotree/nanotree/storage"
	"github.com/arthur-debert/nanotree/types"
	"github.com/google/uuid"
)

// ErrClosed is returned by operations on a closed Session.
var ErrClosed = errors.New("session is closed")

// State is what subscribers receive after every committed change. It is a
// deep copy; receivers may keep or modify it.
type State struct {
	Forest      []*types.Node      `json:"forest"`
	SelectedID  string             `json:"selectedId,omitempty"`
	Revision    uint64             `json:"revision"`
	Diagnostics []types.Diagnostic `json:"diagnostics,omitempty"`
}

// Listener receives states in commit order. Listeners run after the change
// is committed, outside the session lock, and may call any method. A
// mutation made from inside a listener returns once committed; its state
// is delivered after the current broadcast finishes.
type Listener func(State)

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	ID      uuid.UUID
	session *Session
}

// Unsubscribe detaches the listener. Calling it twice is harmless.
func (sub Subscription) Unsubscribe() {
	if sub.session != nil {
		sub.session.unsubscribe(sub.ID)
	}
}

type subscriber struct {
	id uuid.UUID
	fn Listener
}

// Session is one open document.
type Session struct {
	id     uuid.UUID
	logger *slog.Logger
	policy Policy
	seed   []*types.Node

	lm         *storage.LockManager
	forest     []*types.Node
	codec      *ids.Codec
	graph      *refgraph.Graph
	diags      []types.Diagnostic
	selectedID string
	revision   uint64
	closed     bool

	subMu sync.Mutex
	subs  []subscriber

	// pending holds committed states not yet broadcast, in revision
	// order. One goroutine at a time drains it.
	deliverMu  sync.Mutex
	pending    []State
	delivering bool
}

// New creates a session. With WithForest the forest is installed through
// SetTree and New fails if SetTree would.
func New(opts ...Option) (*Session, error) {
	s := &Session{
		id:     uuid.New(),
		logger: slog.New(slog.DiscardHandler),
		lm:     storage.NewLockManager(),
		codec:  ids.NewCodec(),
		graph:  refgraph.Build(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session", s.id.String())
	if s.seed != nil {
		if err := s.SetTree(s.seed); err != nil {
			return nil, err
		}
		s.seed = nil
	}
	return s, nil
}

// ID identifies the session in logs.
func (s *Session) ID() uuid.UUID { return s.id }

// Close detaches every subscriber. Later operations fail with ErrClosed.
func (s *Session) Close() error {
	err := s.lm.Execute(storage.WriteOperation, func() error {
		s.closed = true
		return nil
	})
	s.subMu.Lock()
	s.subs = nil
	s.subMu.Unlock()
	return err
}

// Subscribe registers fn for every future state.
func (s *Session) Subscribe(fn Listener) Subscription {
	sub := subscriber{id: uuid.New(), fn: fn}
	s.subMu.Lock()
	s.subs = append(s.subs, sub)
	s.subMu.Unlock()
	return Subscription{ID: sub.id, session: s}
}

func (s *Session) unsubscribe(id uuid.UUID) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// Snapshot returns the current state.
func (s *Session) Snapshot() State {
	st, _ := storage.ExecuteWithResult(s.lm, storage.ReadOperation, func() (State, error) {
		return s.stateLocked(), nil
	})
	return st
}

func (s *Session) stateLocked() State {
	return State{
		Forest:      s.forest,
		SelectedID:  s.selectedID,
		Revision:    s.revision,
		Diagnostics: s.diags,
	}.clone()
}

func (st State) clone() State {
	out := st
	out.Forest = types.CloneForest(st.Forest)
	if len(st.Diagnostics) > 0 {
		out.Diagnostics = append([]types.Diagnostic(nil), st.Diagnostics...)
	} else {
		out.Diagnostics = nil
	}
	return out
}

// write runs fn under the write lock. When fn reports a change the
// revision advances and the resulting state is queued for delivery, which
// happens once the lock is released.
func (s *Session) write(fn func() (bool, error)) error {
	var owner bool
	err := s.lm.Execute(storage.WriteOperation, func() error {
		if s.closed {
			return ErrClosed
		}
		changed, err := fn()
		if err != nil || !changed {
			return err
		}
		s.revision++
		owner = s.enqueue(s.stateLocked())
		return nil
	})
	if owner {
		s.drain()
	}
	return err
}

// enqueue appends st to the pending states. It reports whether the caller
// must drain the queue; false means another call is already draining and
// will deliver st too.
func (s *Session) enqueue(st State) bool {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	s.pending = append(s.pending, st)
	if s.delivering {
		return false
	}
	s.delivering = true
	return true
}

// drain broadcasts pending states until none are left. If a listener
// panics, the states still queued go out with the next committed change.
func (s *Session) drain() {
	finished := false
	defer func() {
		if !finished {
			s.deliverMu.Lock()
			s.delivering = false
			s.deliverMu.Unlock()
		}
	}()
	for {
		s.deliverMu.Lock()
		if len(s.pending) == 0 {
			s.delivering = false
			s.deliverMu.Unlock()
			finished = true
			return
		}
		st := s.pending[0]
		s.pending[0] = State{}
		s.pending = s.pending[1:]
		s.deliverMu.Unlock()

		s.broadcast(st)
	}
}

func (s *Session) broadcast(state State) {
	s.subMu.Lock()
	subs := append([]subscriber(nil), s.subs...)
	s.subMu.Unlock()
	for i, sub := range subs {
		if i == len(subs)-1 {
			sub.fn(state)
			break
		}
		sub.fn(state.clone())
	}
}
