// Package template renders the shell prompt from a Go text/template.
package template

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/stackvity/vterm/internal/filesystem"
	"github.com/stackvity/vterm/internal/vpath"
)

// DefaultPrompt renders as user@host:~/Docs$.
const DefaultPrompt = "{{.User}}@{{.Host}}:{{.Dir}}$"

// PromptData is the context a prompt template is executed with.
type PromptData struct {
	User string
	Host string
	Dir  string // Cwd with the home directory abbreviated to "~"
	Cwd  string
	Home string
}

// NewPromptData fills Dir from cwd and home.
func NewPromptData(user, host, cwd, home string) PromptData {
	return PromptData{User: user, Host: host, Dir: vpath.Abbreviate(cwd, home), Cwd: cwd, Home: home}
}

var funcs = template.FuncMap{
	// base is the last segment of a path, "/" for the root.
	"base": func(p string) string {
		_, name := vpath.Parent(p)
		if name == "" {
			return vpath.Separator
		}
		return name
	},
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
}

// Executor holds a parsed prompt template.
type Executor struct {
	template *template.Template
	source   string // inline text or file path, for error messages
}

// NewExecutor parses an inline prompt template. An empty text selects
// DefaultPrompt.
func NewExecutor(text string) (*Executor, error) {
	if text == "" {
		text = DefaultPrompt
	}
	return parse("prompt", text)
}

// NewExecutorFromFile parses the prompt template stored at path.
func NewExecutorFromFile(path string, fs filesystem.FileSystem) (*Executor, error) {
	content, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt template '%s': %w", path, err)
	}
	return parse(path, strings.TrimRight(string(content), "\r\n"))
}

func parse(source, text string) (*Executor, error) {
	tmpl, err := template.New(source).Funcs(funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse prompt template '%s': %w", source, err)
	}
	e := &Executor{template: tmpl, source: source}
	// Catch references to unknown fields now rather than on every keystroke.
	if _, err := e.Execute(NewPromptData("user", "host", "/home/user", "/home/user")); err != nil {
		return nil, err
	}
	return e, nil
}

// Execute renders the prompt.
func (e *Executor) Execute(data PromptData) (string, error) {
	var rendered bytes.Buffer
	if err := e.template.Execute(&rendered, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template '%s': %w", e.source, err)
	}
	return rendered.String(), nil
}

// MustExecute renders the prompt, falling back to the default layout if the
// template fails at run time.
func (e *Executor) MustExecute(data PromptData) string {
	out, err := e.Execute(data)
	if err != nil {
		return data.User + "@" + data.Host + ":" + data.Dir + "$"
	}
	return out
}
