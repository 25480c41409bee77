package mocks

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/user/slicerec/pkg/ports"
)

// FileSystem is an in-memory ports.FileSystem. Paths are cleaned before use,
// so "/rec/slice_0/" and "/rec/slice_0" name the same directory.
// Each Func field, when set, replaces the in-memory behavior of its method.
type FileSystem struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]bool

	ReadFileFunc  func(path string) ([]byte, error)
	WriteFileFunc func(path string, data []byte) error
	AppendFunc    func(path string) (io.WriteCloser, error)
	MkdirAllFunc  func(path string) error
	ExistsFunc    func(path string) (bool, error)
	SizeFunc      func(path string) (int64, error)
	RemoveFunc    func(path string) error
	RemoveAllFunc func(path string) error

	// Directory calls in the order they were made, including failed ones.
	MkdirAllCalls  []string
	RemoveAllCalls []string
}

// NewFileSystem creates an empty FileSystem.
func NewFileSystem() *FileSystem {
	return &FileSystem{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

func (m *FileSystem) ReadFile(path string) ([]byte, error) {
	if m.ReadFileFunc != nil {
		return m.ReadFileFunc(path)
	}
	data, ok := m.File(path)
	if !ok {
		return nil, notFound(path)
	}
	return append([]byte(nil), data...), nil
}

func (m *FileSystem) WriteFile(path string, data []byte) error {
	if m.WriteFileFunc != nil {
		return m.WriteFileFunc(path, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[filepath.Clean(path)] = append([]byte(nil), data...)
	return nil
}

func (m *FileSystem) Append(path string) (io.WriteCloser, error) {
	if m.AppendFunc != nil {
		return m.AppendFunc(path)
	}
	path = filepath.Clean(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[path]; !ok {
		m.files[path] = nil
	}
	return &appendWriter{fs: m, path: path}, nil
}

func (m *FileSystem) MkdirAll(path string) error {
	m.record(&m.MkdirAllCalls, path)
	if m.MkdirAllFunc != nil {
		return m.MkdirAllFunc(path)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[filepath.Clean(path)] = true
	return nil
}

func (m *FileSystem) Exists(path string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(path)
	}
	path = filepath.Clean(path)
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, isFile := m.files[path]
	return isFile || m.dirs[path], nil
}

func (m *FileSystem) Size(path string) (int64, error) {
	if m.SizeFunc != nil {
		return m.SizeFunc(path)
	}
	data, ok := m.File(path)
	if !ok {
		return 0, notFound(path)
	}
	return int64(len(data)), nil
}

func (m *FileSystem) Remove(path string) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(path)
	}
	path = filepath.Clean(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	delete(m.dirs, path)
	return nil
}

func (m *FileSystem) RemoveAll(path string) error {
	m.record(&m.RemoveAllCalls, path)
	if m.RemoveAllFunc != nil {
		return m.RemoveAllFunc(path)
	}
	path = filepath.Clean(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	for p := range m.files {
		if within(p, path) {
			delete(m.files, p)
		}
	}
	for p := range m.dirs {
		if within(p, path) {
			delete(m.dirs, p)
		}
	}
	return nil
}

// File returns the contents of a file.
func (m *FileSystem) File(path string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[filepath.Clean(path)]
	return data, ok
}

// Files returns a snapshot of every file.
func (m *FileSystem) Files() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string][]byte, len(m.files))
	for k, v := range m.files {
		result[k] = v
	}
	return result
}

// HasDir reports whether a directory was created and not removed.
func (m *FileSystem) HasDir(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dirs[filepath.Clean(path)]
}

func (m *FileSystem) record(calls *[]string, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	*calls = append(*calls, path)
}

// within reports whether p is root or lies below it.
func within(p, root string) bool {
	return p == root || strings.HasPrefix(p, strings.TrimSuffix(root, "/")+"/")
}

func notFound(path string) error {
	return fmt.Errorf("file not found: %s", path)
}

type appendWriter struct {
	fs   *FileSystem
	path string
}

func (w *appendWriter) Write(p []byte) (int, error) {
	w.fs.mu.Lock()
	defer w.fs.mu.Unlock()
	w.fs.files[w.path] = append(w.fs.files[w.path], p...)
	return len(p), nil
}

func (w *appendWriter) Close() error {
	return nil
}

var _ ports.FileSystem = (*FileSystem)(nil)
