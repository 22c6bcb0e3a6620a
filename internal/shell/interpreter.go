// Package shell interprets command lines against a virtual filesystem.
//
// The interpreter never touches session state directly: handlers receive an
// Env and describe their outcome as a Result, which the caller applies.
package shell

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/stackvity/vterm/internal/vfs"
)

// Effect is a session-level side effect requested by a command.
type Effect uint8

const (
	EffectNone Effect = iota
	EffectClear
	EffectReset
)

func (e Effect) String() string {
	switch e {
	case EffectClear:
		return "clear"
	case EffectReset:
		return "reset"
	default:
		return "none"
	}
}

// Env is what a command may read and mutate: the tree and the working
// directory it resolves relative paths against.
type Env struct {
	Tree *vfs.Tree
	Cwd  string
}

// Result is the outcome of one command line.
type Result struct {
	Output []string // transcript lines, in order
	Cwd    string   // working directory after the command
	Effect Effect
	Err    error // set when the command failed; its message is already in Output
}

// Interpreter tokenizes and dispatches command lines.
type Interpreter struct {
	reg    *Registry
	logger *slog.Logger
}

// New returns an interpreter with the builtin commands registered.
func New(logger *slog.Logger) *Interpreter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	in := &Interpreter{reg: newRegistry(), logger: logger}
	for _, cmd := range builtins() {
		if err := in.reg.register(cmd); err != nil {
			// The builtin table is static; a failure here is a programming error.
			panic(err)
		}
	}
	return in
}

// Registry exposes the command table, e.g. for completion.
func (in *Interpreter) Registry() *Registry { return in.reg }

// Execute runs one raw command line. Blank lines produce an empty Result
// that leaves the working directory unchanged.
func (in *Interpreter) Execute(env Env, line string) Result {
	if strings.TrimSpace(line) == "" {
		return Result{Cwd: env.Cwd}
	}

	args, err := Tokenize(line)
	if err != nil {
		return failure(env, fmt.Errorf("syntax error: %w", err))
	}
	if len(args) == 0 {
		return Result{Cwd: env.Cwd}
	}

	name, args := args[0], args[1:]
	cmd, ok := in.reg.Resolve(name)
	if !ok {
		in.logger.Debug("Unknown command", "command", name)
		return failure(env, fmt.Errorf("%s: command not found", name))
	}
	if len(args) < cmd.MinArgs || len(args) > cmd.MaxArgs {
		return failure(env, fmt.Errorf("usage: %s", cmd.Usage))
	}

	res := cmd.Run(in, env, args)
	if res.Cwd == "" {
		res.Cwd = env.Cwd
	}
	in.logger.Debug("Command executed", "command", name, "args", args, "cwd", res.Cwd, "effect", res.Effect.String(), "failed", res.Err != nil)
	return res
}

func failure(env Env, err error) Result {
	return Result{Output: []string{err.Error()}, Cwd: env.Cwd, Err: err}
}

// treeError is a command failure caused by a tree operation. Its message is
// the transcript line; the tree error stays reachable through errors.Is.
type treeError struct {
	msg   string
	cause error
}

func (e *treeError) Error() string { return e.msg }
func (e *treeError) Unwrap() error { return e.cause }

// treeFailure reports cause as "<prefix>: <reason>".
func treeFailure(env Env, cause error, format string, args ...any) Result {
	msg := fmt.Sprintf(format, args...) + ": " + reason(cause)
	return failure(env, &treeError{msg: msg, cause: cause})
}

// reason renders a tree error the way a conventional shell does.
func reason(err error) string {
	switch {
	case errors.Is(err, vfs.ErrNotExist):
		return "No such file or directory"
	case errors.Is(err, vfs.ErrExist):
		return "File exists"
	case errors.Is(err, vfs.ErrNotDir):
		return "Not a directory"
	case errors.Is(err, vfs.ErrIsDir):
		return "Is a directory"
	case errors.Is(err, vfs.ErrInvalid):
		return "Invalid argument"
	default:
		return err.Error()
	}
}
