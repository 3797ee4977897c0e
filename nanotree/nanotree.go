// Package nanotree edits hierarchical UI documents: forests of nodes whose
// IDs encode their position, where a named root doubles as a reusable type
// that reference nodes elsewhere can embed.
//
// Open is the entry point for applications. It loads a document file, wraps
// it in a store.Session and keeps the file up to date through a debounced
// autosave:
//
//	ed, err := nanotree.Open("screens.json")
//	if err != nil {
//		return err
//	}
//	defer ed.Close()
//
//	s := ed.Session()
//	id, _ := s.NextRootID()
//	err = s.AddRoot(nanotree.NewStandard(id, "Card", "Card"))
package nanotree

import (
	"errors"
	"log/slog"
	"time"

	"github.com/arthur-debert/nanotree/nanotree/autosave"
	"github.com/arthur-debert/nanotree/nanotree/storage"
	"github.com/arthur-debert/nanotree/nanotree/store"
	"github.com/arthur-debert/nanotree/types"
)

// Node is one element of a document.
type Node = types.Node

// NodeUpdate is a partial update of a node.
type NodeUpdate = types.NodeUpdate

// Command is one entry of the mutation vocabulary.
type Command = types.Command

// State is what session subscribers receive.
type State = store.State

// Session is an open, in-memory document.
type Session = store.Session

// Policy governs deletion of referenced roots.
type Policy = store.Policy

const (
	PolicyWarn   = store.PolicyWarn
	PolicyReject = store.PolicyReject
)

// NewStandard returns a node that owns its children.
func NewStandard(id, name, typ string, children ...*Node) *Node {
	return types.NewStandard(id, name, typ, children...)
}

// NewReference returns a node embedding the root registered as rootType.
func NewReference(id, name, typ, rootType string) *Node {
	return types.NewReference(id, name, typ, rootType)
}

// DefaultAutosaveDelay is how long an Editor waits after the last change
// before saving.
const DefaultAutosaveDelay = 500 * time.Millisecond

type config struct {
	logger        *slog.Logger
	policy        Policy
	autosaveDelay time.Duration
	storageOpts   []storage.Option
}

// Option configures Open.
type Option func(*config)

// WithLogger sets the logger used by the session and the autosaver.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithDanglingPolicy sets the session's Policy.
func WithDanglingPolicy(p Policy) Option {
	return func(c *config) { c.policy = p }
}

// WithAutosaveDelay sets the autosave debounce delay. Zero saves after
// every change; a negative delay turns autosave off.
func WithAutosaveDelay(d time.Duration) Option {
	return func(c *config) { c.autosaveDelay = d }
}

// WithStorageOptions passes options through to storage.Open.
func WithStorageOptions(opts ...storage.Option) Option {
	return func(c *config) { c.storageOpts = append(c.storageOpts, opts...) }
}

// Editor ties a session to the document file it was loaded from.
type Editor struct {
	doc       *storage.DocumentFile
	session   *store.Session
	autosaver *autosave.Autosaver
	sub       store.Subscription
}

// Open loads the document at path (a missing file is an empty document)
// and returns an Editor over it.
func Open(path string, opts ...Option) (*Editor, error) {
	cfg := config{
		logger:        slog.New(slog.DiscardHandler),
		autosaveDelay: DefaultAutosaveDelay,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	doc, err := storage.Open(path, cfg.storageOpts...)
	if err != nil {
		return nil, err
	}
	forest, err := doc.Load()
	if err != nil {
		return nil, errors.Join(err, doc.Close())
	}
	session, err := store.New(
		store.WithLogger(cfg.logger),
		store.WithDanglingPolicy(cfg.policy),
		store.WithForest(forest),
	)
	if err != nil {
		return nil, errors.Join(err, doc.Close())
	}

	ed := &Editor{doc: doc, session: session}
	if cfg.autosaveDelay >= 0 {
		ed.autosaver = autosave.New(doc, cfg.autosaveDelay, cfg.logger)
		ed.sub = session.Subscribe(ed.autosaver.Notify)
	}
	cfg.logger.Debug("document opened", "path", path, "nodes", types.CountNodes(forest), "session", session.ID().String())
	return ed, nil
}

// Session returns the editor's session.
func (e *Editor) Session() *store.Session { return e.session }

// Path returns the document path.
func (e *Editor) Path() string { return e.doc.Path() }

// Save writes the current forest now. It reports whether the file changed.
func (e *Editor) Save() (bool, error) {
	return e.doc.Save(e.session.Forest())
}

// Digest returns the blake3 digest of the current forest.
func (e *Editor) Digest() (string, error) {
	return storage.Digest(e.session.Forest())
}

// Close flushes pending autosaves and releases the session and the file.
// It does not save changes made with autosave turned off.
func (e *Editor) Close() error {
	var errs []error
	if e.autosaver != nil {
		e.sub.Unsubscribe()
		errs = append(errs, e.autosaver.Close())
	}
	errs = append(errs, e.session.Close(), e.doc.Close())
	return errors.Join(errs...)
}
