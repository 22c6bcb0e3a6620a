package filesystem

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Helper to create a temporary file with content for real filesystem tests
func createRealTempFile(t *testing.T, dir, filename, content string) string {
	t.Helper()
	path := filepath.Join(dir, filename)
	err := os.WriteFile(path, []byte(content), 0644)
	require.NoError(t, err, "Failed to create temp file for real FS test")
	return path
}

// --- RealFileSystem Tests ---

func TestRealFileSystem_ReadWrite(t *testing.T) {
	rfs := NewRealFileSystem()
	tempDir := t.TempDir()

	t.Run("ReadExisting", func(t *testing.T) {
		filePath := createRealTempFile(t, tempDir, "seed.yaml", "home: /home/alumno")
		data, err := rfs.ReadFile(filePath)
		assert.NoError(t, err)
		assert.Equal(t, []byte("home: /home/alumno"), data)
	})

	t.Run("ReadNonExisting", func(t *testing.T) {
		_, err := rfs.ReadFile(filepath.Join(tempDir, "nonexistent.txt"))
		assert.True(t, errors.Is(err, os.ErrNotExist), "Expected os.ErrNotExist")
	})

	t.Run("WriteThenStat", func(t *testing.T) {
		p := filepath.Join(tempDir, "report.yaml")
		require.NoError(t, rfs.WriteFile(p, []byte("cwd: /"), 0644))
		info, err := rfs.Stat(p)
		require.NoError(t, err)
		assert.Equal(t, int64(len("cwd: /")), info.Size())
		assert.False(t, info.IsDir())
	})
}

func TestRealFileSystem_MkdirRenameRemove(t *testing.T) {
	rfs := NewRealFileSystem()
	tempDir := t.TempDir()

	nested := filepath.Join(tempDir, "a", "b")
	require.NoError(t, rfs.MkdirAll(nested, 0755))
	require.NoError(t, rfs.MkdirAll(nested, 0755), "MkdirAll on an existing dir succeeds")

	src := createRealTempFile(t, nested, "report.tmp", "data")
	dst := filepath.Join(nested, "report.yaml")
	require.NoError(t, rfs.Rename(src, dst))

	_, err := os.Stat(src)
	assert.ErrorIs(t, err, os.ErrNotExist)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), data)

	require.NoError(t, rfs.Remove(dst))
	assert.ErrorIs(t, rfs.Remove(dst), os.ErrNotExist)
}

// --- MockFileSystem Tests ---

func TestMockFileSystem_InMemoryDisk(t *testing.T) {
	mfs := NewMockFileSystem()
	mfs.AddFile("/work/seed.toml", []byte("home = '/home/alumno'"))

	data, err := mfs.ReadFile("/work/seed.toml")
	require.NoError(t, err)
	assert.Equal(t, "home = '/home/alumno'", string(data))

	info, err := mfs.Stat("/work")
	require.NoError(t, err)
	assert.True(t, info.IsDir(), "AddFile creates parent directories")

	_, err = mfs.ReadFile("/work/missing")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = mfs.ReadFile("/work")
	assert.Error(t, err, "reading a directory fails")

	err = mfs.WriteFile("/nowhere/report.yaml", []byte("x"), 0644)
	assert.ErrorIs(t, err, os.ErrNotExist, "WriteFile requires the parent directory")

	assert.Error(t, mfs.Remove("/work"), "removing a non-empty directory fails")
}

func TestMockFileSystem_RenameReplacesFile(t *testing.T) {
	mfs := NewMockFileSystem()
	mfs.AddFile("/out/report.yaml", []byte("old"))
	mfs.AddFile("/out/report.yaml.tmp", []byte("new"))

	require.NoError(t, mfs.Rename("/out/report.yaml.tmp", "/out/report.yaml"))
	data, err := mfs.ReadFile("/out/report.yaml")
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
	assert.Equal(t, []string{"/out/report.yaml"}, mfs.Paths())

	var linkErr *os.LinkError
	err = mfs.Rename("/out/ghost", "/out/x")
	require.True(t, errors.As(err, &linkErr))
	assert.ErrorIs(t, linkErr.Err, os.ErrNotExist)
}

func TestMockFileSystem_SimulatedErrorsAndCalls(t *testing.T) {
	mfs := NewMockFileSystem()
	mfs.AddDir("/out")
	diskFull := errors.New("disk full")
	mfs.SimulateError(OpWriteFile, "/out/report.yaml", diskFull)

	err := mfs.WriteFile("/out/report.yaml", []byte("x"), 0644)
	assert.ErrorIs(t, err, diskFull)
	mfs.AssertWriteCalled(t, "/out/report.yaml")
	mfs.AssertWriteNotCalled(t, "/out/other.yaml")
	assert.Equal(t, 1, mfs.Calls(OpWriteFile, "/out/report.yaml"))
}

func TestMockFileSystem_TestifyExpectations(t *testing.T) {
	mfs := NewMockFileSystem()
	mfs.AddFile("/seed.yaml", []byte("tree: {}"))
	denied := &fs.PathError{Op: "open", Path: "/seed.yaml", Err: fs.ErrPermission}
	mfs.On(OpReadFile, "/seed.yaml").Return(nil, denied).Once()

	_, err := mfs.ReadFile("/seed.yaml")
	assert.ErrorIs(t, err, fs.ErrPermission)
	mfs.AssertExpectations(t)
	mfs.AssertCalled(t, OpReadFile, mock.Anything)
}
