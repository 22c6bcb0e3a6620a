package filesystem

import (
	"io/fs"
	"os"
)

// RealFileSystem implements the FileSystem interface using the os package.
type RealFileSystem struct{}

// NewRealFileSystem creates a new instance of RealFileSystem.
func NewRealFileSystem() *RealFileSystem {
	return &RealFileSystem{}
}

func (rfs *RealFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (rfs *RealFileSystem) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (rfs *RealFileSystem) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}

func (rfs *RealFileSystem) MkdirAll(path string, perm fs.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (rfs *RealFileSystem) Remove(name string) error {
	return os.Remove(name)
}

func (rfs *RealFileSystem) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}
