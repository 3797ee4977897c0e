// Package storage persists a forest as a JSON document on disk. Loads and
// saves take a cross-process file lock, saves are atomic, and a blake3
// digest of the last known content lets Save skip unchanged documents.
package storage

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/arthur-debert/nanotree/types"
	"lukechampine.com/blake3"
)

const (
	lockTimeout    = 3 * time.Second
	lockMaxRetries = 3
	lockRetryDelay = 100 * time.Millisecond
)

// Option configures a DocumentFile.
type Option func(*DocumentFile)

// WithFileSystem replaces the os-backed file system.
func WithFileSystem(fsys FileSystem) Option {
	return func(d *DocumentFile) {
		d.fs = fsys
	}
}

// WithFileLockFactory replaces the flock-backed lock factory.
func WithFileLockFactory(factory FileLockFactory) Option {
	return func(d *DocumentFile) {
		d.lockFactory = factory
	}
}

// DocumentFile is one document on disk.
type DocumentFile struct {
	path        string
	fs          FileSystem
	lockFactory FileLockFactory
	lock        FileLock

	mu     sync.Mutex
	digest string // digest of the content last loaded or written
}

// Open prepares path for loading and saving. The file need not exist.
func Open(path string, opts ...Option) (*DocumentFile, error) {
	if path == "" {
		return nil, errors.New("document path is empty")
	}
	d := &DocumentFile{path: path}
	for _, opt := range opts {
		opt(d)
	}
	if d.fs == nil {
		d.fs = OSFileSystem{}
	}
	if d.lockFactory == nil {
		d.lockFactory = FlockFactory{}
	}
	d.lock = d.lockFactory.New(path + ".lock")
	return d, nil
}

// Path returns the document path.
func (d *DocumentFile) Path() string { return d.path }

// Load reads the document. A missing or empty file is an empty forest.
func (d *DocumentFile) Load() ([]*types.Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var forest []*types.Node
	err := d.withLock(func() error {
		if _, err := d.fs.Stat(d.path); errors.Is(err, fs.ErrNotExist) {
			d.digest = ""
			return nil
		}
		data, err := d.fs.ReadFile(d.path)
		if err != nil {
			return fmt.Errorf("failed to read document: %w", err)
		}
		if len(data) == 0 {
			d.digest = ""
			return nil
		}
		forest, err = types.DecodeDocument(data)
		if err != nil {
			return err
		}
		d.digest = digestBytes(data)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return forest, nil
}

// Save writes forest unless its encoding matches what was last loaded or
// written. It reports whether the file was written.
func (d *DocumentFile) Save(forest []*types.Node) (bool, error) {
	data, err := types.EncodeDocument(forest)
	if err != nil {
		return false, err
	}
	sum := digestBytes(data)

	d.mu.Lock()
	defer d.mu.Unlock()
	if sum == d.digest {
		return false, nil
	}

	err = d.withLock(func() error {
		tmp := d.path + ".tmp"
		if err := d.fs.WriteFile(tmp, data, 0o644); err != nil {
			return fmt.Errorf("failed to write temp file: %w", err)
		}
		if err := d.fs.Rename(tmp, d.path); err != nil {
			_ = d.fs.Remove(tmp)
			return fmt.Errorf("failed to replace document: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	d.digest = sum
	return true, nil
}

// LastDigest returns the digest of the content last loaded or written, or
// "" when nothing has been.
func (d *DocumentFile) LastDigest() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.digest
}

// Close removes the lock file. The document itself is left alone.
func (d *DocumentFile) Close() error {
	err := d.fs.Remove(d.path + ".lock")
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Digest returns the hex blake3-256 digest of forest's canonical JSON
// encoding.
func Digest(forest []*types.Node) (string, error) {
	data, err := types.EncodeDocument(forest)
	if err != nil {
		return "", err
	}
	return digestBytes(data), nil
}

func digestBytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (d *DocumentFile) withLock(fn func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()
	if err := d.acquire(ctx); err != nil {
		return err
	}
	defer func() { _ = d.lock.Unlock() }()
	return fn()
}

func (d *DocumentFile) acquire(ctx context.Context) error {
	for i := 0; i < lockMaxRetries; i++ {
		locked, err := d.lock.TryLockContext(ctx, lockRetryDelay)
		if err != nil {
			return fmt.Errorf("failed to lock %s: %w", d.path, err)
		}
		if locked {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}
	return fmt.Errorf("failed to lock %s after %d attempts", d.path, lockMaxRetries)
}
