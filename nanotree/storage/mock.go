package storage

import (
	"context"
	"io/fs"
	"path"
	"sync"
	"time"
)

// MockFileSystem is an in-memory FileSystem. Setting one of the *Err
// fields makes the matching operation fail with it.
type MockFileSystem struct {
	mu    sync.RWMutex
	files map[string]memFile

	StatErr   error
	ReadErr   error
	WriteErr  error
	RenameErr error
	RemoveErr error

	// Writes counts successful WriteFile calls.
	Writes int
}

type memFile struct {
	data    []byte
	mode    fs.FileMode
	modTime time.Time
}

type memInfo struct {
	name string
	file memFile
}

func (i memInfo) Name() string       { return i.name }
func (i memInfo) Size() int64        { return int64(len(i.file.data)) }
func (i memInfo) Mode() fs.FileMode  { return i.file.mode }
func (i memInfo) ModTime() time.Time { return i.file.modTime }
func (i memInfo) IsDir() bool        { return false }
func (i memInfo) Sys() any           { return nil }

// NewMockFileSystem returns an empty in-memory file system.
func NewMockFileSystem() *MockFileSystem {
	return &MockFileSystem{files: make(map[string]memFile)}
}

func (m *MockFileSystem) Stat(name string) (fs.FileInfo, error) {
	if m.StatErr != nil {
		return nil, m.StatErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[name]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return memInfo{name: path.Base(name), file: f}, nil
}

func (m *MockFileSystem) ReadFile(name string) ([]byte, error) {
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[name]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return append([]byte(nil), f.data...), nil
}

func (m *MockFileSystem) WriteFile(name string, data []byte, perm fs.FileMode) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = memFile{data: append([]byte(nil), data...), mode: perm, modTime: time.Now()}
	m.Writes++
	return nil
}

func (m *MockFileSystem) Rename(oldpath, newpath string) error {
	if m.RenameErr != nil {
		return m.RenameErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[oldpath]
	if !ok {
		return fs.ErrNotExist
	}
	m.files[newpath] = f
	delete(m.files, oldpath)
	return nil
}

func (m *MockFileSystem) Remove(name string) error {
	if m.RemoveErr != nil {
		return m.RemoveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[name]; !ok {
		return fs.ErrNotExist
	}
	delete(m.files, name)
	return nil
}

// Exists reports whether name is present.
func (m *MockFileSystem) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[name]
	return ok
}

// Content returns a copy of name's bytes.
func (m *MockFileSystem) Content(name string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[name]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), f.data...), true
}

// MockFileLock is a FileLock that never blocks. A held lock makes further
// TryLockContext calls report false.
type MockFileLock struct {
	mu        sync.Mutex
	held      bool
	LockErr   error
	UnlockErr error

	Acquired int
	Released int
}

func (l *MockFileLock) TryLockContext(_ context.Context, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.LockErr != nil {
		return false, l.LockErr
	}
	if l.held {
		return false, nil
	}
	l.held = true
	l.Acquired++
	return true, nil
}

func (l *MockFileLock) Unlock() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.UnlockErr != nil {
		return l.UnlockErr
	}
	l.held = false
	l.Released++
	return nil
}

// Held reports whether the lock is currently taken.
func (l *MockFileLock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

// MockFileLockFactory returns one MockFileLock per path.
type MockFileLockFactory struct {
	mu    sync.Mutex
	locks map[string]*MockFileLock
}

// NewMockFileLockFactory returns an empty factory.
func NewMockFileLockFactory() *MockFileLockFactory {
	return &MockFileLockFactory{locks: make(map[string]*MockFileLock)}
}

func (f *MockFileLockFactory) New(path string) FileLock {
	return f.Lock(path)
}

// Lock returns the mock lock for path, creating it on first use.
func (f *MockFileLockFactory) Lock(path string) *MockFileLock {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.locks[path]
	if !ok {
		l = &MockFileLock{}
		f.locks[path] = l
	}
	return l
}
