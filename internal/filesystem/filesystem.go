package filesystem

import (
	"io/fs"
)

// FileSystem is the narrow view of the host disk that vterm needs: reading
// seed files and scripts, and persisting session reports. The simulated tree
// never touches it; keeping host access behind this interface lets config,
// seed loading and reporting be tested against MockFileSystem.
type FileSystem interface {
	// ReadFile reads the named file and returns the contents.
	ReadFile(name string) ([]byte, error)

	// WriteFile writes data to the named file, creating it if necessary.
	WriteFile(name string, data []byte, perm fs.FileMode) error

	// Stat returns a FileInfo describing the named file.
	Stat(name string) (fs.FileInfo, error)

	// MkdirAll creates a directory named path along with any necessary parents.
	MkdirAll(path string, perm fs.FileMode) error

	// Remove removes the named file or (empty) directory.
	Remove(name string) error

	// Rename renames (moves) oldpath to newpath, replacing newpath if it is a file.
	Rename(oldpath, newpath string) error
}
