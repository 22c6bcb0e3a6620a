package template

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackvity/vterm/internal/filesystem"
)

func TestNewPromptData(t *testing.T) {
	tests := []struct {
		cwd, home, want string
	}{
		{"/home/alumno", "/home/alumno", "~"},
		{"/home/alumno/Docs/misc", "/home/alumno", "~/Docs/misc"},
		{"/home/alumnos", "/home/alumno", "/home/alumnos"},
		{"/tmp", "/home/alumno", "/tmp"},
		{"/", "/home/alumno", "/"},
	}
	for _, tt := range tests {
		t.Run(tt.cwd, func(t *testing.T) {
			data := NewPromptData("alumno", "aula", tt.cwd, tt.home)
			assert.Equal(t, tt.want, data.Dir)
			assert.Equal(t, tt.cwd, data.Cwd)
		})
	}
}

func TestNewExecutor(t *testing.T) {
	t.Run("DefaultWhenEmpty", func(t *testing.T) {
		e, err := NewExecutor("")
		require.NoError(t, err)
		out, err := e.Execute(NewPromptData("alumno", "aula", "/home/alumno/Docs", "/home/alumno"))
		require.NoError(t, err)
		assert.Equal(t, "alumno@aula:~/Docs$", out)
	})

	t.Run("CustomWithFuncs", func(t *testing.T) {
		e, err := NewExecutor("[{{upper .User}} {{base .Cwd}}]#")
		require.NoError(t, err)
		assert.Equal(t, "[ALUMNO misc]#", e.MustExecute(NewPromptData("alumno", "aula", "/home/alumno/Docs/misc", "/home/alumno")))
		assert.Equal(t, "[ALUMNO /]#", e.MustExecute(NewPromptData("alumno", "aula", "/", "/home/alumno")))
	})

	t.Run("SyntaxError", func(t *testing.T) {
		e, err := NewExecutor("{{.User")
		assert.Error(t, err)
		assert.Nil(t, e)
		assert.Contains(t, err.Error(), "template:")
	})

	t.Run("UnknownField", func(t *testing.T) {
		e, err := NewExecutor("{{.Shell}}$")
		assert.Error(t, err)
		assert.Nil(t, e)
		assert.Contains(t, err.Error(), "Shell")
	})

	t.Run("UnknownFunction", func(t *testing.T) {
		_, err := NewExecutor("{{title .User}}")
		assert.Error(t, err)
	})
}

func TestNewExecutorFromFile(t *testing.T) {
	mockFS := filesystem.NewMockFileSystem()

	t.Run("Valid", func(t *testing.T) {
		mockFS.AddFile("/cfg/prompt.tmpl", []byte("{{.Host}}:{{.Dir}}>\n"))

		e, err := NewExecutorFromFile("/cfg/prompt.tmpl", mockFS)
		require.NoError(t, err)
		assert.Equal(t, "aula:~>", e.MustExecute(NewPromptData("alumno", "aula", "/home/alumno", "/home/alumno")), "trailing newline is trimmed")
	})

	t.Run("Missing", func(t *testing.T) {
		e, err := NewExecutorFromFile("/cfg/missing.tmpl", mockFS)
		assert.Nil(t, e)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("ReadError", func(t *testing.T) {
		readErr := errors.New("permission denied")
		mockFS.AddFile("/cfg/locked.tmpl", []byte("{{.User}}"))
		mockFS.SimulateError(filesystem.OpReadFile, "/cfg/locked.tmpl", readErr)

		_, err := NewExecutorFromFile("/cfg/locked.tmpl", mockFS)
		assert.ErrorIs(t, err, readErr)
		assert.Equal(t, 1, mockFS.Calls(filesystem.OpReadFile, "/cfg/locked.tmpl"))
	})
}

func TestExecutor_MustExecuteFallsBack(t *testing.T) {
	e, err := NewExecutor(`{{if eq .User "boom"}}{{call .User}}{{end}}ok$`)
	require.NoError(t, err)

	assert.Equal(t, "ok$", e.MustExecute(NewPromptData("alumno", "aula", "/", "/")))
	assert.Equal(t, "boom@aula:/$", e.MustExecute(NewPromptData("boom", "aula", "/", "/")))
}
