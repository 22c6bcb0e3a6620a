package engine

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/stackvity/vterm/internal/session"
)

// StepKind distinguishes shell input from script directives.
type StepKind uint8

const (
	StepCommand StepKind = iota
	StepAnswer
)

// Step is one executable line of a script.
type Step struct {
	Line  int // 1-based line number in the script
	Kind  StepKind
	Text  string // the command line for StepCommand
	Field session.Field
	Value string
}

const (
	commentPrefix   = "#"
	directivePrefix = "!"
	answerDirective = "answer"
)

// ParseScript reads a replay script. Each non-blank line is a command line,
// except for "#" comments and "!answer <field> <value>" directives that fill
// an answer field.
func ParseScript(data []byte) ([]Step, error) {
	var (
		steps []Step
		errs  []error
	)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for n := 1; sc.Scan(); n++ {
		raw := strings.TrimRight(sc.Text(), "\r")
		line := strings.TrimSpace(raw)
		switch {
		case line == "", strings.HasPrefix(line, commentPrefix):
			continue
		case strings.HasPrefix(line, directivePrefix):
			step, err := parseDirective(n, strings.TrimPrefix(line, directivePrefix))
			if err != nil {
				errs = append(errs, err)
				continue
			}
			steps = append(steps, step)
		default:
			steps = append(steps, Step{Line: n, Kind: StepCommand, Text: raw})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan script: %w", err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return steps, nil
}

func parseDirective(n int, body string) (Step, error) {
	name, rest, _ := strings.Cut(strings.TrimSpace(body), " ")
	if name != answerDirective {
		return Step{}, fmt.Errorf("line %d: unknown directive '%s%s'", n, directivePrefix, name)
	}
	fieldName, value, ok := strings.Cut(strings.TrimSpace(rest), " ")
	if !ok {
		return Step{}, fmt.Errorf("line %d: usage: %s%s <field> <value>", n, directivePrefix, answerDirective)
	}
	field, err := session.ParseField(fieldName)
	if err != nil {
		return Step{}, fmt.Errorf("line %d: %w", n, err)
	}
	return Step{Line: n, Kind: StepAnswer, Field: field, Value: strings.TrimSpace(value)}, nil
}
