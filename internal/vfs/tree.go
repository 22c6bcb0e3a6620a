package vfs

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/stackvity/vterm/internal/vpath"
)

// DirSuffix marks directory entries in listings and completion candidates.
const DirSuffix = "/"

// Tree is a rooted filesystem. Paths given to its methods are absolute;
// a missing leading separator is tolerated and read from the root.
type Tree struct {
	root *Node
}

// NewTree wraps root, which must be a directory.
func NewTree(root *Node) *Tree {
	if root == nil || !root.IsDir() {
		root = NewDir()
	}
	return &Tree{root: root}
}

// Root returns the root directory node.
func (t *Tree) Root() *Node { return t.root }

// Clone returns a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	return &Tree{root: t.root.clone()}
}

// Lookup walks p segment by segment from the root. It reports the owning
// parent, the name under which it holds the node, and the node itself. The
// root has no parent and an empty name.
func (t *Tree) Lookup(p string) (parent *Node, name string, node *Node, ok bool) {
	node = t.root
	for _, seg := range vpath.Segments(p) {
		child, found := node.Child(seg)
		if !found {
			return nil, "", nil, false
		}
		parent, name, node = node, seg, child
	}
	return parent, name, node, true
}

// Stat reports the kind of the node at p.
func (t *Tree) Stat(p string) (Kind, error) {
	_, _, n, ok := t.Lookup(p)
	if !ok {
		return 0, &fs.PathError{Op: "stat", Path: p, Err: ErrNotExist}
	}
	return n.Kind(), nil
}

// List returns the sorted entry names of the directory at p, with
// directories suffixed by DirSuffix. Missing paths and files yield nil.
func (t *Tree) List(p string) []string {
	_, _, n, ok := t.Lookup(p)
	if !ok || !n.IsDir() {
		return nil
	}
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		if n.children[name].IsDir() {
			names[i] = name + DirSuffix
		}
	}
	return names
}

// Read returns the content of the file at p.
func (t *Tree) Read(p string) (string, error) {
	_, _, n, ok := t.Lookup(p)
	if !ok {
		return "", &fs.PathError{Op: "read", Path: p, Err: ErrNotExist}
	}
	if n.IsDir() {
		return "", &fs.PathError{Op: "read", Path: p, Err: ErrIsDir}
	}
	return n.Content(), nil
}

// Move relinks the node at src.
//
// If dst is an existing directory the node keeps its name and moves inside
// it. Otherwise the parent of dst must be an existing directory and the node
// is renamed to the last segment of dst. An existing file at dst is a
// collision, never overwritten. All checks complete before the tree is
// touched, so a failed Move leaves it unchanged.
func (t *Tree) Move(src, dst string) error {
	srcParent, srcName, node, ok := t.Lookup(src)
	if !ok {
		return &fs.PathError{Op: "move", Path: src, Err: ErrNotExist}
	}
	if srcParent == nil {
		return &fs.PathError{Op: "move", Path: src, Err: ErrInvalid}
	}

	var (
		target    *Node
		targetDir string
		newName   string
	)
	if _, _, d, exists := t.Lookup(dst); exists {
		if !d.IsDir() {
			return &fs.PathError{Op: "move", Path: dst, Err: ErrExist}
		}
		target, targetDir, newName = d, dst, srcName
	} else {
		dir, name := vpath.Parent(dst)
		_, _, d, exists := t.Lookup(dir)
		switch {
		case !exists:
			return &fs.PathError{Op: "move", Path: dst, Err: ErrNotExist}
		case !d.IsDir():
			return &fs.PathError{Op: "move", Path: dst, Err: ErrNotDir}
		}
		target, targetDir, newName = d, dir, name
	}

	if node.IsDir() && vpath.HasPrefix(targetDir, src) {
		return &fs.PathError{Op: "move", Path: dst, Err: ErrInvalid}
	}
	if _, taken := target.children[newName]; taken {
		return &fs.PathError{Op: "move", Path: vpath.Join(append(vpath.Segments(targetDir), newName)), Err: ErrExist}
	}

	delete(srcParent.children, srcName)
	target.add(newName, node)
	return nil
}

// WalkFunc is called for every node in depth-first, name-sorted order.
type WalkFunc func(p string, n *Node) error

// Walk visits the root and every descendant. Returning an error stops the
// walk and is passed back to the caller.
func (t *Tree) Walk(fn WalkFunc) error {
	return walk(vpath.Separator, nil, t.root, fn)
}

func walk(p string, segs []string, n *Node, fn WalkFunc) error {
	if err := fn(p, n); err != nil {
		return err
	}
	if !n.IsDir() {
		return nil
	}
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		childSegs := append(append([]string(nil), segs...), name)
		if err := walk(vpath.Join(childSegs), childSegs, n.children[name], fn); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot renders the tree as nested maps: directories become
// map[string]any, files become their content string. It is the same shape a
// Seed's Tree field accepts.
func (t *Tree) Snapshot() map[string]any {
	return snapshot(t.root)
}

func snapshot(n *Node) map[string]any {
	out := make(map[string]any, len(n.children))
	for name, c := range n.children {
		if c.IsDir() {
			out[name] = snapshot(c)
		} else {
			out[name] = c.content
		}
	}
	return out
}

// Digest is a stable fingerprint of the tree's shape and contents.
func (t *Tree) Digest() string {
	h := sha256.New()
	_ = t.Walk(func(p string, n *Node) error {
		sum := sha256.Sum256([]byte(n.content))
		fmt.Fprintf(h, "%s\t%s\t%s\n", p, n.Kind(), hex.EncodeToString(sum[:]))
		return nil
	})
	return hex.EncodeToString(h.Sum(nil))
}

// String renders the tree one path per line, directories suffixed.
func (t *Tree) String() string {
	var b strings.Builder
	_ = t.Walk(func(p string, n *Node) error {
		b.WriteString(p)
		if n.IsDir() && p != vpath.Separator {
			b.WriteString(DirSuffix)
		}
		b.WriteByte('\n')
		return nil
	})
	return b.String()
}
