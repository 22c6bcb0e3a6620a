package shell

import (
	"fmt"
	"strings"

	"github.com/stackvity/vterm/internal/vfs"
	"github.com/stackvity/vterm/internal/vpath"
)

// lsSeparator joins the entries of one ls listing.
const lsSeparator = "  "

func builtins() []Command {
	return []Command{
		{Name: "help", Usage: "help", Desc: "Show this help.", Run: cmdHelp},
		{Name: "pwd", Usage: "pwd", Desc: "Print the current directory.", Run: cmdPwd},
		{Name: "ls", Usage: "ls [path]", Desc: "List directory entries.", MaxArgs: 1, Run: cmdLs},
		{Name: "cd", Usage: "cd <path>", Desc: "Change the current directory.", MinArgs: 1, MaxArgs: 1, Run: cmdCd},
		{Name: "cat", Usage: "cat <path>", Desc: "Print a file.", MinArgs: 1, MaxArgs: 1, Run: cmdCat},
		{Name: "mv", Usage: "mv <src> <dst>", Desc: "Move or rename a file or directory.", MinArgs: 2, MaxArgs: 2, Run: cmdMv},
		{Name: "clear", Usage: "clear", Desc: "Clear the screen.", Run: cmdClear},
		{Name: "reset", Usage: "reset", Desc: "Restore the initial files and session.", Run: cmdReset},
	}
}

func cmdHelp(in *Interpreter, env Env, _ []string) Result {
	cmds := in.reg.Commands()
	width := 0
	for _, c := range cmds {
		if len(c.Usage) > width {
			width = len(c.Usage)
		}
	}
	out := make([]string, 0, len(cmds)+1)
	out = append(out, "Available commands:")
	for _, c := range cmds {
		out = append(out, fmt.Sprintf("  %-*s  %s", width, c.Usage, c.Desc))
	}
	return Result{Output: out}
}

func cmdPwd(_ *Interpreter, env Env, _ []string) Result {
	return Result{Output: []string{env.Cwd}}
}

func cmdLs(_ *Interpreter, env Env, args []string) Result {
	arg := "."
	if len(args) == 1 {
		arg = args[0]
	}
	target := vpath.Resolve(env.Cwd, arg)

	kind, err := env.Tree.Stat(target)
	if err != nil {
		return treeFailure(env, err, "ls: cannot access '%s'", arg)
	}
	if kind == vfs.KindFile {
		return Result{Output: []string{arg}}
	}

	entries := env.Tree.List(target)
	if len(entries) == 0 {
		return Result{}
	}
	return Result{Output: []string{strings.Join(entries, lsSeparator)}}
}

func cmdCd(_ *Interpreter, env Env, args []string) Result {
	target := vpath.Resolve(env.Cwd, args[0])

	kind, err := env.Tree.Stat(target)
	if err != nil {
		return treeFailure(env, err, "cd: %s", args[0])
	}
	if kind != vfs.KindDir {
		return treeFailure(env, vfs.ErrNotDir, "cd: %s", args[0])
	}
	return Result{Cwd: target}
}

func cmdCat(_ *Interpreter, env Env, args []string) Result {
	content, err := env.Tree.Read(vpath.Resolve(env.Cwd, args[0]))
	if err != nil {
		return treeFailure(env, err, "cat: %s", args[0])
	}
	if content == "" {
		return Result{}
	}
	return Result{Output: strings.Split(strings.TrimSuffix(content, "\n"), "\n")}
}

func cmdMv(_ *Interpreter, env Env, args []string) Result {
	src := vpath.Resolve(env.Cwd, args[0])
	dst := vpath.Resolve(env.Cwd, args[1])

	if _, err := env.Tree.Stat(src); err != nil {
		return treeFailure(env, err, "mv: cannot stat '%s'", args[0])
	}
	moved := dst
	if kind, err := env.Tree.Stat(dst); err == nil && kind == vfs.KindDir {
		_, name := vpath.Parent(src)
		moved = vpath.Join(append(vpath.Segments(dst), name))
	}
	if err := env.Tree.Move(src, dst); err != nil {
		return treeFailure(env, err, "mv: cannot move '%s' to '%s'", args[0], args[1])
	}

	// The working directory follows a moved ancestor.
	if vpath.HasPrefix(env.Cwd, src) {
		rest := vpath.Segments(env.Cwd)[len(vpath.Segments(src)):]
		return Result{Cwd: vpath.Join(append(vpath.Segments(moved), rest...))}
	}
	return Result{}
}

func cmdClear(_ *Interpreter, _ Env, _ []string) Result {
	return Result{Effect: EffectClear}
}

func cmdReset(_ *Interpreter, _ Env, _ []string) Result {
	return Result{Effect: EffectReset}
}
