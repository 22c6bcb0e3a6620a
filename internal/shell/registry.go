package shell

import (
	"fmt"
	"sort"
	"strings"
)

type cmdFunc func(in *Interpreter, env Env, args []string) Result

// Command is one entry of the dispatch table.
type Command struct {
	Name    string
	Usage   string
	Desc    string
	MinArgs int
	MaxArgs int
	Run     cmdFunc
}

// Registry holds commands by name and remembers registration order for help.
type Registry struct {
	byName map[string]Command
	order  []string
}

func newRegistry() *Registry {
	return &Registry{byName: make(map[string]Command)}
}

func (r *Registry) register(cmd Command) error {
	cmd.Name = strings.TrimSpace(cmd.Name)
	if cmd.Name == "" {
		return fmt.Errorf("shell registry: empty command name")
	}
	if cmd.Run == nil {
		return fmt.Errorf("shell registry: %q has no handler", cmd.Name)
	}
	if _, ok := r.byName[cmd.Name]; ok {
		return fmt.Errorf("shell registry: duplicate command %q", cmd.Name)
	}
	if cmd.MaxArgs < cmd.MinArgs {
		return fmt.Errorf("shell registry: %q accepts at most %d but at least %d arguments", cmd.Name, cmd.MaxArgs, cmd.MinArgs)
	}
	r.byName[cmd.Name] = cmd
	r.order = append(r.order, cmd.Name)
	return nil
}

// Resolve looks a command up by its exact, case-sensitive name.
func (r *Registry) Resolve(name string) (Command, bool) {
	cmd, ok := r.byName[name]
	return cmd, ok
}

// Names returns every command name, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for name := range r.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Matches returns the sorted names that start with prefix. An empty prefix
// matches every command.
func (r *Registry) Matches(prefix string) []string {
	var out []string
	for _, name := range r.Names() {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out
}

// Commands returns the commands in registration order.
func (r *Registry) Commands() []Command {
	out := make([]Command, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}
