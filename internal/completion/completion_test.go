package completion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackvity/vterm/internal/shell"
	"github.com/stackvity/vterm/internal/vfs"
)

const home = "/home/alumno"

func setup(t *testing.T) (*Engine, *vfs.Tree) {
	t.Helper()
	tree, err := vfs.DefaultSeed().Build()
	require.NoError(t, err)
	return New(shell.New(nil).Registry()), tree
}

func tab(e *Engine, tree *vfs.Tree, line string) Result {
	return e.Complete(Request{Line: line, Cursor: len([]rune(line)), Cwd: home, Tree: tree})
}

func TestComplete_NoCandidates(t *testing.T) {
	e, tree := setup(t)

	res := tab(e, tree, "xyz")
	assert.Equal(t, "xyz", res.Line)
	assert.False(t, res.Changed)
	assert.Empty(t, res.Listing)
	assert.Equal(t, Idle{}, e.State())

	res = tab(e, tree, "cd Nothing/")
	assert.Equal(t, "cd Nothing/", res.Line)
	assert.Empty(t, res.Listing)
}

func TestComplete_CommandPosition(t *testing.T) {
	e, tree := setup(t)

	res := tab(e, tree, "pw")
	assert.Equal(t, "pwd", res.Line)
	assert.Equal(t, 3, res.Cursor)
	assert.Empty(t, res.Listing)

	e.Reset()
	res = tab(e, tree, "  he")
	assert.Equal(t, "  help", res.Line, "leading whitespace keeps command position")

	e.Reset()
	res = tab(e, tree, "c")
	assert.Equal(t, "c", res.Line)
	assert.Equal(t, []string{"cat", "cd", "clear"}, res.Listing)

	e.Reset()
	res = tab(e, tree, "Pw")
	assert.False(t, res.Changed, "command names match case-sensitively")
}

func TestComplete_BlanksMatchTokenizer(t *testing.T) {
	e, tree := setup(t)

	for _, line := range []string{"cd\u00a0Pi", "cd\vPi"} {
		e.Reset()
		res := tab(e, tree, line)
		assert.Equal(t, strings.TrimSuffix(line, "Pi")+"Pics/", res.Line)

		tokens, err := shell.Tokenize(res.Line)
		require.NoError(t, err)
		assert.Equal(t, []string{"cd", "Pics/"}, tokens)
	}
}

func TestComplete_UniqueMatchIsStable(t *testing.T) {
	e, tree := setup(t)

	res := tab(e, tree, "cd Pi")
	require.Equal(t, "cd Pics/", res.Line)
	assert.Equal(t, Offered{Candidates: []string{"Pics/"}, Index: 0, Token: "Pics/"}, e.State())

	for i := 0; i < 3; i++ {
		again := tab(e, tree, res.Line)
		assert.Equal(t, "cd Pics/", again.Line)
		assert.False(t, again.Changed)
		assert.Empty(t, again.Listing)
	}
}

func TestComplete_CommonPrefix(t *testing.T) {
	e, tree := setup(t)

	res := tab(e, tree, "ls D")
	assert.Equal(t, "ls Do", res.Line)
	assert.True(t, res.Changed)
	assert.Equal(t, []string{"Docs/", "Downloads/"}, res.Listing)

	off, ok := e.State().(Offered)
	require.True(t, ok)
	assert.Equal(t, Offered{Candidates: []string{"Docs/", "Downloads/"}, Index: 0, Token: "Do"}, off)
}

func TestComplete_Cycling(t *testing.T) {
	e, tree := setup(t)

	res := tab(e, tree, "cd Do")
	assert.Equal(t, "cd Do", res.Line)
	assert.Equal(t, []string{"Docs/", "Downloads/"}, res.Listing)

	res = tab(e, tree, res.Line)
	assert.Equal(t, "cd Downloads/", res.Line, "the first repeat advances past index 0")
	assert.Empty(t, res.Listing, "cycling prints nothing")
	assert.Equal(t, Offered{Candidates: []string{"Docs/", "Downloads/"}, Index: 1, Token: "Downloads/"}, e.State())

	res = tab(e, tree, res.Line)
	assert.Equal(t, "cd Docs/", res.Line, "wraps around")

	res = tab(e, tree, res.Line)
	assert.Equal(t, "cd Downloads/", res.Line)
}

func TestComplete_ResetStopsCycling(t *testing.T) {
	e, tree := setup(t)

	tab(e, tree, "cd Do")
	e.Reset()
	res := tab(e, tree, "cd Do")
	assert.Equal(t, "cd Do", res.Line)
	assert.Equal(t, []string{"Docs/", "Downloads/"}, res.Listing, "fresh press lists again")
}

func TestComplete_ChangedTokenRecomputes(t *testing.T) {
	e, tree := setup(t)

	tab(e, tree, "cd Do")
	res := tab(e, tree, "cd Doc")
	assert.Equal(t, "cd Docs/", res.Line)
}

func TestComplete_Paths(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    string
		listing []string
	}{
		{"nested directory part", "cat Docs/misc/re", "cat Docs/misc/readme.txt", nil},
		{"case-insensitive base", "cd pics", "cd Pics/", nil},
		{"absolute", "ls /ho", "ls /home/", nil},
		{"parent", "ls ../al", "ls ../alumno/", nil},
		{"synthetic entries", "cd .", "cd .", []string{"../", "./"}},
		{"empty base lists all", "ls Pics/", "ls Pics/", []string{"Pics/../", "Pics/./", "Pics/Renovables/", "Pics/vacaciones.png"}},
		{"second argument", "mv Docs/misc/granja_solar.jpg Pics/Re", "mv Docs/misc/granja_solar.jpg Pics/Renovables/", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, tree := setup(t)
			res := tab(e, tree, tt.line)
			assert.Equal(t, tt.want, res.Line)
			assert.Equal(t, tt.listing, res.Listing)
		})
	}
}

func TestComplete_CursorInsideLine(t *testing.T) {
	e, tree := setup(t)

	res := e.Complete(Request{Line: "cd Pi && more", Cursor: 5, Cwd: home, Tree: tree})
	assert.Equal(t, "cd Pics/ && more", res.Line)
	assert.Equal(t, 8, res.Cursor)
}

func TestComplete_QuotedToken(t *testing.T) {
	e, tree := setup(t)
	require.NoError(t, tree.Move(home+"/Docs/informe.txt", home+"/Docs/nota final.txt"))

	res := tab(e, tree, "cat Docs/no")
	assert.Equal(t, `cat "Docs/nota final.txt`, res.Line)

	e.Reset()
	res = tab(e, tree, `cat "Docs/nota f`)
	assert.Equal(t, `cat "Docs/nota final.txt`, res.Line, "whitespace inside quotes stays in the token")
}

func TestCommonPrefix(t *testing.T) {
	assert.Equal(t, "", commonPrefix(nil))
	assert.Equal(t, "Do", commonPrefix([]string{"Docs/", "Downloads/"}))
	assert.Equal(t, "abc", commonPrefix([]string{"abc"}))
	assert.Equal(t, "é", commonPrefix([]string{"éa", "éb"}))
}
