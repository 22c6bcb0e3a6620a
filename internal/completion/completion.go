// Package completion implements Tab completion of command names and paths
// with cycling through candidates on repeated presses.
package completion

import (
	"sort"
	"strings"

	"github.com/stackvity/vterm/internal/shell"
	"github.com/stackvity/vterm/internal/vfs"
	"github.com/stackvity/vterm/internal/vpath"
)

// Synthetic entries offered alongside a directory's children.
var synthetic = []string{"./", "../"}

// Commands supplies command names for the first token of a line.
type Commands interface {
	Matches(prefix string) []string
}

// Dir is the read side of the tree that path completion needs.
type Dir interface {
	Stat(p string) (vfs.Kind, error)
	List(p string) []string
}

// State is the completion state machine: Idle or Offered.
type State interface{ isState() }

// Idle means no candidates are remembered.
type Idle struct{}

// Offered remembers the candidates computed for Token. Index starts at 0 and
// each repeated press advances it before inserting.
type Offered struct {
	Candidates []string
	Index      int
	Token      string
}

func (Idle) isState()    {}
func (Offered) isState() {}

// Request is one Tab press. Cursor counts runes.
type Request struct {
	Line   string
	Cursor int
	Cwd    string
	Tree   Dir
}

// Result is the edited line. Listing is non-empty when several candidates
// should be shown to the user.
type Result struct {
	Line    string
	Cursor  int
	Listing []string
	Changed bool
}

// Engine computes completions and carries the cycling state between presses.
type Engine struct {
	commands Commands
	state    State
}

func New(commands Commands) *Engine {
	return &Engine{commands: commands, state: Idle{}}
}

// State returns the current state.
func (e *Engine) State() State { return e.state }

// Reset forgets any offered candidates. Callers invoke it on every key other
// than Tab.
func (e *Engine) Reset() { e.state = Idle{} }

// Complete handles one Tab press.
func (e *Engine) Complete(req Request) Result {
	line := []rune(req.Line)
	cursor := min(max(req.Cursor, 0), len(line))
	start := tokenStart(line[:cursor])
	raw := string(line[start:cursor])

	unchanged := Result{Line: req.Line, Cursor: cursor}

	if off, ok := e.state.(Offered); ok && off.Token == raw && len(off.Candidates) > 0 {
		off.Index = (off.Index + 1) % len(off.Candidates)
		repl := render(off.Candidates[off.Index], raw)
		off.Token = repl
		e.state = off
		return splice(line, start, cursor, repl)
	}

	var cands []string
	if strings.TrimSpace(string(line[:start])) == "" {
		cands = e.commands.Matches(unquote(raw))
	} else {
		cands = paths(req.Tree, req.Cwd, unquote(raw))
	}

	switch len(cands) {
	case 0:
		e.state = Idle{}
		return unchanged
	case 1:
		repl := render(cands[0], raw)
		e.state = Offered{Candidates: cands, Index: 0, Token: repl}
		return splice(line, start, cursor, repl)
	}

	res := unchanged
	token := raw
	if prefix := commonPrefix(cands); len([]rune(prefix)) > len([]rune(unquote(raw))) {
		token = render(prefix, raw)
		res = splice(line, start, cursor, token)
	}
	res.Listing = cands
	e.state = Offered{Candidates: cands, Index: 0, Token: token}
	return res
}

// paths lists the entries of the directory named by token's directory part
// whose names start with its base, ignoring case.
func paths(tree Dir, cwd, token string) []string {
	if tree == nil {
		return nil
	}
	dir, base := vpath.SplitToken(token)
	resolved := vpath.Resolve(cwd, dir)
	if kind, err := tree.Stat(resolved); err != nil || kind != vfs.KindDir {
		return nil
	}

	want := strings.ToLower(base)
	var out []string
	for _, name := range append(tree.List(resolved), synthetic...) {
		if strings.HasPrefix(strings.ToLower(name), want) {
			out = append(out, dir+name)
		}
	}
	sort.Strings(out)
	return out
}

// tokenStart returns the index just past the last whitespace outside quotes.
func tokenStart(before []rune) int {
	start := 0
	var quote rune
	for i, r := range before {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case shell.IsBlank(r):
			start = i + 1
		}
	}
	return start
}

func unquote(token string) string {
	return strings.NewReplacer(`"`, "", `'`, "").Replace(token)
}

// render writes a candidate back as a token, opening a quote when the
// candidate needs one or the user had already opened one.
func render(cand, raw string) string {
	if strings.HasPrefix(raw, `'`) {
		return `'` + cand
	}
	if strings.HasPrefix(raw, `"`) || strings.ContainsAny(cand, " \t") {
		return `"` + cand
	}
	return cand
}

func splice(line []rune, start, end int, repl string) Result {
	out := make([]rune, 0, len(line)+len(repl))
	out = append(out, line[:start]...)
	out = append(out, []rune(repl)...)
	cursor := len(out)
	out = append(out, line[end:]...)
	return Result{Line: string(out), Cursor: cursor, Changed: string(out) != string(line)}
}

func commonPrefix(words []string) string {
	if len(words) == 0 {
		return ""
	}
	prefix := []rune(words[0])
	for _, w := range words[1:] {
		r := []rune(w)
		n := 0
		for n < len(prefix) && n < len(r) && prefix[n] == r[n] {
			n++
		}
		prefix = prefix[:n]
	}
	return string(prefix)
}
