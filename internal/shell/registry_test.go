package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(_ *Interpreter, _ Env, _ []string) Result { return Result{} }

func TestRegistry_Register(t *testing.T) {
	r := newRegistry()
	require.NoError(t, r.register(Command{Name: "zz", Run: noop}))
	require.NoError(t, r.register(Command{Name: "aa", Run: noop, MaxArgs: 1}))

	assert.Error(t, r.register(Command{Name: " ", Run: noop}), "empty name")
	assert.Error(t, r.register(Command{Name: "nil"}), "nil handler")
	assert.Error(t, r.register(Command{Name: "zz", Run: noop}), "duplicate")
	assert.Error(t, r.register(Command{Name: "bad", Run: noop, MinArgs: 2, MaxArgs: 1}), "inverted arity")

	assert.Equal(t, []string{"aa", "zz"}, r.Names())
	cmds := r.Commands()
	require.Len(t, cmds, 2)
	assert.Equal(t, "zz", cmds[0].Name, "registration order is kept")
}

func TestRegistry_Builtins(t *testing.T) {
	reg := New(nil).Registry()

	assert.Equal(t, []string{"cat", "cd", "clear", "help", "ls", "mv", "pwd", "reset"}, reg.Names())

	_, ok := reg.Resolve("LS")
	assert.False(t, ok, "names are case-sensitive")
	cmd, ok := reg.Resolve("mv")
	require.True(t, ok)
	assert.Equal(t, 2, cmd.MinArgs)
	assert.Equal(t, 2, cmd.MaxArgs)

	assert.Equal(t, []string{"cat", "cd", "clear"}, reg.Matches("c"))
	assert.Equal(t, []string{"clear"}, reg.Matches("cl"))
	assert.Empty(t, reg.Matches("x"))
	assert.Len(t, reg.Matches(""), 8)
}
