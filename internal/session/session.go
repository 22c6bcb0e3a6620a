// Package session is the terminal REPL: it owns the filesystem tree, the
// transcript, the input line and the answer fields, and notifies a render
// callback after every transition.
package session

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/stackvity/vterm/internal/completion"
	"github.com/stackvity/vterm/internal/history"
	"github.com/stackvity/vterm/internal/shell"
	"github.com/stackvity/vterm/internal/template"
	"github.com/stackvity/vterm/internal/vfs"
)

const (
	DefaultUser = "alumno"
	DefaultHost = "aula"

	interruptMark = "^C"
)

// View is what the view layer draws.
type View struct {
	Lines  []string
	Prompt string
	Input  string
	Cursor int // in runes
}

// RenderFunc receives the view after every state change.
type RenderFunc func(View)

// Config configures a Session. Zero values select the built-in exercise.
type Config struct {
	Seed     *vfs.Seed
	User     string
	Host     string
	Prompt   *template.Executor
	Expected *Answers
	Answers  Answers
	Logger   *slog.Logger
	Render   RenderFunc
}

// Session is not safe for concurrent use; callers serialize access.
type Session struct {
	pristine *vfs.Tree
	tree     *vfs.Tree
	home     string
	startCwd string
	cwd      string

	transcript []string
	input      []rune
	cursor     int

	history *history.Log
	interp  *shell.Interpreter
	comp    *completion.Engine

	user     string
	host     string
	prompt   *template.Executor
	expected Answers
	initial  Answers // answers supplied by Config
	answers  Answers

	logger *slog.Logger
	render RenderFunc
}

// New builds the tree from the seed and returns an active session.
func New(cfg Config) (*Session, error) {
	seed := vfs.DefaultSeed()
	if cfg.Seed != nil {
		seed = *cfg.Seed
	}
	tree, err := seed.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build filesystem from seed: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	prompt := cfg.Prompt
	if prompt == nil {
		if prompt, err = template.NewExecutor(""); err != nil {
			return nil, err
		}
	}
	expected := DefaultExpected()
	if cfg.Expected != nil {
		expected = *cfg.Expected
	}

	interp := shell.New(logger)
	s := &Session{
		pristine: tree,
		tree:     tree.Clone(),
		home:     seed.Home,
		startCwd: seed.Cwd,
		cwd:      seed.Cwd,
		history:  history.New(),
		interp:   interp,
		comp:     completion.New(interp.Registry()),
		user:     valueOr(cfg.User, DefaultUser),
		host:     valueOr(cfg.Host, DefaultHost),
		prompt:   prompt,
		expected: expected,
		initial:  cfg.Answers,
		answers:  cfg.Answers,
		logger:   logger,
		render:   cfg.Render,
	}
	return s, nil
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// OnRender replaces the render callback.
func (s *Session) OnRender(fn RenderFunc) { s.render = fn }

// HandleKey applies one key press and re-renders.
func (s *Session) HandleKey(k Key) {
	if k.Type != KeyTab {
		s.comp.Reset()
	}

	switch k.Type {
	case KeyRune:
		s.insert([]rune{k.Rune})
	case KeyEnter:
		_ = s.submit()
	case KeyTab:
		s.complete()
	case KeyUp:
		if line, ok := s.history.Up(); ok {
			s.setInput(line)
		}
	case KeyDown:
		if line, ok := s.history.Down(); ok {
			s.setInput(line)
		}
	case KeyLeft:
		if s.cursor > 0 {
			s.cursor--
		}
	case KeyRight:
		if s.cursor < len(s.input) {
			s.cursor++
		}
	case KeyHome:
		s.cursor = 0
	case KeyEnd:
		s.cursor = len(s.input)
	case KeyBackspace:
		if s.cursor > 0 {
			s.input = append(s.input[:s.cursor-1], s.input[s.cursor:]...)
			s.cursor--
		}
	case KeyDelete:
		if s.cursor < len(s.input) {
			s.input = append(s.input[:s.cursor], s.input[s.cursor+1:]...)
		}
	case KeyInterrupt:
		s.transcript = append(s.transcript, s.echo(string(s.input))+interruptMark)
		s.setInput("")
	case KeyClearScreen:
		s.transcript = nil
	default:
		s.logger.Debug("Ignoring key", "key", k.Type.String())
		return
	}
	s.notify()
}

// Type inserts text at the cursor as if typed, rendering once.
func (s *Session) Type(text string) {
	s.comp.Reset()
	s.insert([]rune(text))
	s.notify()
}

// Submit replaces the input line with line and presses Enter. The returned
// error is the command's failure, already reported in the transcript.
func (s *Session) Submit(line string) error {
	s.comp.Reset()
	s.setInput(line)
	err := s.submit()
	s.notify()
	return err
}

func (s *Session) insert(rs []rune) {
	out := make([]rune, 0, len(s.input)+len(rs))
	out = append(out, s.input[:s.cursor]...)
	out = append(out, rs...)
	out = append(out, s.input[s.cursor:]...)
	s.input = out
	s.cursor += len(rs)
}

func (s *Session) setInput(line string) {
	s.input = []rune(line)
	s.cursor = len(s.input)
}

func (s *Session) submit() error {
	line := string(s.input)
	s.setInput("")
	if strings.TrimSpace(line) == "" {
		return nil
	}

	s.transcript = append(s.transcript, s.echo(line))
	s.history.Add(line)

	res := s.interp.Execute(shell.Env{Tree: s.tree, Cwd: s.cwd}, line)
	s.transcript = append(s.transcript, res.Output...)
	s.cwd = res.Cwd

	switch res.Effect {
	case shell.EffectClear:
		s.transcript = nil
	case shell.EffectReset:
		s.reset()
	}
	return res.Err
}

func (s *Session) complete() {
	res := s.comp.Complete(completion.Request{
		Line:   string(s.input),
		Cursor: s.cursor,
		Cwd:    s.cwd,
		Tree:   s.tree,
	})
	if len(res.Listing) > 0 {
		s.transcript = append(s.transcript, strings.Join(res.Listing, " "))
	}
	s.input = []rune(res.Line)
	s.cursor = res.Cursor
}

func (s *Session) echo(line string) string {
	return s.Prompt() + " " + line
}

// Reset restores the seed tree and clears cwd, transcript, input, history
// and completion state. Answers are kept.
func (s *Session) Reset() {
	s.reset()
	s.notify()
}

func (s *Session) reset() {
	s.tree = s.pristine.Clone()
	s.cwd = s.startCwd
	s.transcript = nil
	s.setInput("")
	s.history.Clear()
	s.comp.Reset()
	s.logger.Debug("Session reset", "cwd", s.cwd, "digest", s.tree.Digest())
}

func (s *Session) notify() {
	if s.render != nil {
		s.render(s.View())
	}
}

// Prompt renders the prompt for the current directory.
func (s *Session) Prompt() string {
	return s.prompt.MustExecute(template.NewPromptData(s.user, s.host, s.cwd, s.home))
}

// View returns a snapshot of what should be on screen.
func (s *Session) View() View {
	return View{
		Lines:  append([]string(nil), s.transcript...),
		Prompt: s.Prompt(),
		Input:  string(s.input),
		Cursor: s.cursor,
	}
}

func (s *Session) Cwd() string  { return s.cwd }
func (s *Session) Home() string { return s.home }

// Tree returns the live tree. Callers must not modify it.
func (s *Session) Tree() *vfs.Tree { return s.tree }

// History returns the submitted lines, oldest first.
func (s *Session) History() []string { return s.history.Entries() }

// SetAnswer records the value of one answer field.
func (s *Session) SetAnswer(f Field, value string) error {
	return s.answers.set(f, value)
}

// RestoreAnswers drops answers set since New and goes back to the ones given
// in Config.
func (s *Session) RestoreAnswers() { s.answers = s.initial }

func (s *Session) Answers() Answers  { return s.answers }
func (s *Session) Expected() Answers { return s.expected }

// Evaluate reports whether the recorded answers match the expected ones. It
// never changes session state.
func (s *Session) Evaluate() bool {
	ok := s.expected.Matches(s.answers)
	s.logger.Debug("Answers evaluated", "correct", ok)
	return ok
}
