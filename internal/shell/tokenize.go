package shell

import (
	"errors"
	"unicode"
)

// ErrUnterminatedQuote is returned by Tokenize when a quote is never closed.
var ErrUnterminatedQuote = errors.New("unterminated quote")

// IsBlank reports whether r separates tokens outside quotes. Completion
// uses the same rule to find the token under the cursor.
func IsBlank(r rune) bool { return unicode.IsSpace(r) }

// Tokenize splits line on blanks (see IsBlank). Text inside matching single or
// double quotes belongs to the surrounding token with the quotes removed,
// so `mv "mi archivo" x` yields three tokens and `""` yields an empty one.
func Tokenize(line string) ([]string, error) {
	type state uint8
	const (
		stNone state = iota
		stSingle
		stDouble
	)

	var (
		tokens  []string
		cur     []rune
		started bool
	)
	st := stNone

	flush := func() {
		if !started {
			return
		}
		tokens = append(tokens, string(cur))
		cur = cur[:0]
		started = false
	}

	for _, r := range line {
		switch st {
		case stSingle:
			if r == '\'' {
				st = stNone
				continue
			}
			cur = append(cur, r)
			continue
		case stDouble:
			if r == '"' {
				st = stNone
				continue
			}
			cur = append(cur, r)
			continue
		}

		switch {
		case r == '\'':
			st = stSingle
			started = true
		case r == '"':
			st = stDouble
			started = true
		case IsBlank(r):
			flush()
		default:
			cur = append(cur, r)
			started = true
		}
	}
	if st != stNone {
		return nil, ErrUnterminatedQuote
	}
	flush()
	return tokens, nil
}
