package filesystem

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// Operation names accepted by SimulateError and Calls.
const (
	OpReadFile  = "ReadFile"
	OpWriteFile = "WriteFile"
	OpStat      = "Stat"
	OpMkdirAll  = "MkdirAll"
	OpRemove    = "Remove"
	OpRename    = "Rename"
)

// MockFileSystem is an in-memory FileSystem for tests.
//
// It embeds testify's mock.Mock: when a test registers expectations with On,
// the matching calls are recorded and their configured error (if any) is
// returned. Without expectations it behaves like a plain in-memory disk.
type MockFileSystem struct {
	mock.Mock
	mu       sync.RWMutex
	files    map[string][]byte
	infos    map[string]*mockFileInfo
	failures map[string]map[string]error // op -> path -> error
	calls    map[string]map[string]int   // op -> path -> count
}

// NewMockFileSystem creates an empty MockFileSystem containing only "/".
func NewMockFileSystem() *MockFileSystem {
	mfs := &MockFileSystem{
		files:    make(map[string][]byte),
		infos:    make(map[string]*mockFileInfo),
		failures: make(map[string]map[string]error),
		calls:    make(map[string]map[string]int),
	}
	mfs.infos[string(filepath.Separator)] = newDirInfo(string(filepath.Separator), time.Now(), 0755)
	return mfs
}

type mockFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
}

func newDirInfo(name string, modTime time.Time, perm fs.FileMode) *mockFileInfo {
	return &mockFileInfo{name: name, mode: perm | fs.ModeDir, modTime: modTime}
}

func (mfi *mockFileInfo) Name() string       { return mfi.name }
func (mfi *mockFileInfo) Size() int64        { return mfi.size }
func (mfi *mockFileInfo) Mode() fs.FileMode  { return mfi.mode }
func (mfi *mockFileInfo) ModTime() time.Time { return mfi.modTime }
func (mfi *mockFileInfo) IsDir() bool        { return mfi.mode.IsDir() }
func (mfi *mockFileInfo) Sys() interface{}   { return nil }

func clean(p string) string {
	return filepath.Clean(p)
}

// --- Setup helpers ---

// AddFile stores a file, creating its parent directories.
func (mfs *MockFileSystem) AddFile(path string, content []byte) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	p := clean(path)
	mfs.mkdirAllLocked(filepath.Dir(p), 0755)
	mfs.files[p] = content
	mfs.infos[p] = &mockFileInfo{name: filepath.Base(p), size: int64(len(content)), mode: 0644, modTime: time.Now()}
}

// AddDir stores a directory and its parents.
func (mfs *MockFileSystem) AddDir(path string) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	mfs.mkdirAllLocked(clean(path), 0755)
}

// SimulateError makes every later op call on path fail with err.
func (mfs *MockFileSystem) SimulateError(op, path string, err error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	if mfs.failures[op] == nil {
		mfs.failures[op] = make(map[string]error)
	}
	mfs.failures[op][clean(path)] = err
}

// Calls returns how many times op was invoked on path.
func (mfs *MockFileSystem) Calls(op, path string) int {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()
	return mfs.calls[op][clean(path)]
}

// Paths lists every stored file, sorted.
func (mfs *MockFileSystem) Paths() []string {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()
	out := make([]string, 0, len(mfs.files))
	for p := range mfs.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// AssertWriteCalled fails the test if WriteFile never targeted path.
func (mfs *MockFileSystem) AssertWriteCalled(t *testing.T, path string) {
	t.Helper()
	assert.Greater(t, mfs.Calls(OpWriteFile, path), 0, "WriteFile was not called for %s", path)
}

// AssertWriteNotCalled fails the test if WriteFile targeted path.
func (mfs *MockFileSystem) AssertWriteNotCalled(t *testing.T, path string) {
	t.Helper()
	assert.Equal(t, 0, mfs.Calls(OpWriteFile, path), "WriteFile should not have been called for %s", path)
}

// --- internals ---

// begin counts the call, consults testify expectations and simulated
// failures, and returns the error the operation must fail with, if any.
func (mfs *MockFileSystem) begin(op, path string, arguments ...interface{}) error {
	var expected error
	if mfs.hasExpectation(op) {
		args := mfs.MethodCalled(op, arguments...)
		if len(args) > 0 {
			expected = args.Error(len(args) - 1)
		}
	}

	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	if mfs.calls[op] == nil {
		mfs.calls[op] = make(map[string]int)
	}
	mfs.calls[op][path]++
	if expected != nil {
		return expected
	}
	return mfs.failures[op][path]
}

func (mfs *MockFileSystem) hasExpectation(op string) bool {
	for _, c := range mfs.ExpectedCalls {
		if c.Method == op {
			return true
		}
	}
	return false
}

func (mfs *MockFileSystem) mkdirAllLocked(p string, perm fs.FileMode) error {
	if info, ok := mfs.infos[p]; ok {
		if !info.IsDir() {
			return &fs.PathError{Op: "mkdir", Path: p, Err: fmt.Errorf("not a directory")}
		}
		return nil
	}
	parent := filepath.Dir(p)
	if parent != p {
		if err := mfs.mkdirAllLocked(parent, perm); err != nil {
			return err
		}
	}
	mfs.infos[p] = newDirInfo(filepath.Base(p), time.Now(), perm)
	return nil
}

func (mfs *MockFileSystem) hasChildrenLocked(dir string) bool {
	prefix := dir + string(filepath.Separator)
	if dir == string(filepath.Separator) {
		prefix = dir
	}
	for p := range mfs.infos {
		if p != dir && strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// --- FileSystem implementation ---

func (mfs *MockFileSystem) ReadFile(name string) ([]byte, error) {
	p := clean(name)
	if err := mfs.begin(OpReadFile, p, name); err != nil {
		return nil, err
	}
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()
	if info, ok := mfs.infos[p]; ok && info.IsDir() {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fmt.Errorf("is a directory")}
	}
	content, ok := mfs.files[p]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
	}
	out := make([]byte, len(content))
	copy(out, content)
	return out, nil
}

func (mfs *MockFileSystem) WriteFile(name string, data []byte, perm fs.FileMode) error {
	p := clean(name)
	if err := mfs.begin(OpWriteFile, p, name, data, perm); err != nil {
		return err
	}
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	parent, ok := mfs.infos[filepath.Dir(p)]
	if !ok || !parent.IsDir() {
		return &fs.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
	}
	if info, ok := mfs.infos[p]; ok && info.IsDir() {
		return &fs.PathError{Op: "open", Path: name, Err: fmt.Errorf("is a directory")}
	}
	stored := make([]byte, len(data))
	copy(stored, data)
	mfs.files[p] = stored
	mfs.infos[p] = &mockFileInfo{name: filepath.Base(p), size: int64(len(data)), mode: perm, modTime: time.Now()}
	return nil
}

func (mfs *MockFileSystem) Stat(name string) (fs.FileInfo, error) {
	p := clean(name)
	if err := mfs.begin(OpStat, p, name); err != nil {
		return nil, err
	}
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()
	info, ok := mfs.infos[p]
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: name, Err: os.ErrNotExist}
	}
	return info, nil
}

func (mfs *MockFileSystem) MkdirAll(path string, perm fs.FileMode) error {
	p := clean(path)
	if err := mfs.begin(OpMkdirAll, p, path, perm); err != nil {
		return err
	}
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	return mfs.mkdirAllLocked(p, perm)
}

func (mfs *MockFileSystem) Remove(name string) error {
	p := clean(name)
	if err := mfs.begin(OpRemove, p, name); err != nil {
		return err
	}
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	info, ok := mfs.infos[p]
	if !ok {
		return &fs.PathError{Op: "remove", Path: name, Err: os.ErrNotExist}
	}
	if info.IsDir() && mfs.hasChildrenLocked(p) {
		return &fs.PathError{Op: "remove", Path: name, Err: fmt.Errorf("directory not empty")}
	}
	delete(mfs.files, p)
	delete(mfs.infos, p)
	return nil
}

func (mfs *MockFileSystem) Rename(oldpath, newpath string) error {
	from, to := clean(oldpath), clean(newpath)
	if err := mfs.begin(OpRename, from, oldpath, newpath); err != nil {
		return err
	}
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	info, ok := mfs.infos[from]
	if !ok {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: os.ErrNotExist}
	}
	if info.IsDir() {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: fmt.Errorf("directory rename not supported by mock")}
	}
	if dst, ok := mfs.infos[to]; ok && dst.IsDir() {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: fmt.Errorf("file exists")}
	}
	if parent, ok := mfs.infos[filepath.Dir(to)]; !ok || !parent.IsDir() {
		return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: os.ErrNotExist}
	}

	mfs.files[to] = mfs.files[from]
	moved := *info
	moved.name = filepath.Base(to)
	mfs.infos[to] = &moved
	delete(mfs.files, from)
	delete(mfs.infos, from)
	return nil
}
