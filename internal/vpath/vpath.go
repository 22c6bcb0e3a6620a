// Package vpath implements the path arithmetic of the virtual filesystem.
// Every function is pure and total: malformed input normalizes to something
// that later lookups will simply fail to find.
package vpath

import "strings"

// Separator is the only path separator understood by the virtual filesystem.
const Separator = "/"

const (
	current = "."
	parent  = ".."
)

// Normalize collapses repeated separators and strips a trailing separator.
// The root stays "/". Dot segments are left untouched.
func Normalize(p string) string {
	if p == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(p))
	prevSep := false
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c == '/' {
			if prevSep {
				continue
			}
			prevSep = true
		} else {
			prevSep = false
		}
		b.WriteByte(c)
	}

	out := b.String()
	if len(out) > 1 && strings.HasSuffix(out, Separator) {
		out = out[:len(out)-1]
	}
	return out
}

// Segments normalizes p and splits it into its names, dropping empty ones.
func Segments(p string) []string {
	p = Normalize(p)
	if p == "" || p == Separator {
		return nil
	}
	parts := strings.Split(p, Separator)
	out := parts[:0]
	for _, s := range parts {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// IsAbs reports whether p starts at the root.
func IsAbs(p string) bool {
	return strings.HasPrefix(p, Separator)
}

// Join renders segments as an absolute path.
func Join(segments []string) string {
	return Separator + strings.Join(segments, Separator)
}

// Resolve interprets input relative to cwd and returns an absolute path.
// "." segments are ignored and ".." pops the previous segment, stopping at
// the root.
func Resolve(cwd, input string) string {
	if input == "" || input == current {
		return cwd
	}

	var stack []string
	if !IsAbs(input) {
		stack = append(stack, Segments(cwd)...)
	}
	for _, seg := range Segments(input) {
		switch seg {
		case current:
		case parent:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, seg)
		}
	}
	return Join(stack)
}

// Parent returns the absolute parent of an absolute path and its last
// segment. The root is its own parent and has an empty name.
func Parent(abs string) (dir, name string) {
	segs := Segments(abs)
	if len(segs) == 0 {
		return Separator, ""
	}
	return Join(segs[:len(segs)-1]), segs[len(segs)-1]
}

// SplitToken splits a partially typed path into the directory part (up to
// and including the last separator, possibly empty) and the base remainder.
func SplitToken(token string) (dir, base string) {
	i := strings.LastIndex(token, Separator)
	if i < 0 {
		return "", token
	}
	return token[:i+1], token[i+1:]
}

// HasPrefix reports whether the absolute path p equals prefix or lies below
// it, comparing whole segments.
func HasPrefix(p, prefix string) bool {
	ps, pre := Segments(p), Segments(prefix)
	if len(pre) > len(ps) {
		return false
	}
	for i := range pre {
		if ps[i] != pre[i] {
			return false
		}
	}
	return true
}

// Abbreviate replaces a leading home directory with "~".
func Abbreviate(p, home string) string {
	if home == "" || Normalize(home) == Separator {
		return p
	}
	if !HasPrefix(p, home) {
		return p
	}
	rest := Segments(p)[len(Segments(home)):]
	if len(rest) == 0 {
		return "~"
	}
	return "~" + Join(rest)
}
