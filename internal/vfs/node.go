// Package vfs is the in-memory filesystem tree behind the simulated shell.
//
// A Tree exclusively owns its nodes: every directory owns its children map
// and a node is reachable from exactly one parent. Nodes carry no name or
// identity of their own; a name is the key under which the parent holds it.
package vfs

import (
	"errors"
	"io/fs"
)

// Kind distinguishes directories from files.
type Kind uint8

const (
	KindDir Kind = iota + 1
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// Errors reported by tree operations, always wrapped in *fs.PathError.
var (
	ErrNotExist = fs.ErrNotExist
	ErrExist    = fs.ErrExist
	ErrInvalid  = fs.ErrInvalid
	ErrNotDir   = errors.New("not a directory")
	ErrIsDir    = errors.New("is a directory")
)

// Node is either a directory (children non-nil) or a file (content).
type Node struct {
	kind     Kind
	children map[string]*Node
	content  string
}

// NewDir returns an empty directory node.
func NewDir() *Node {
	return &Node{kind: KindDir, children: make(map[string]*Node)}
}

// NewFile returns a file node holding content.
func NewFile(content string) *Node {
	return &Node{kind: KindFile, content: content}
}

// Kind reports whether n is a directory or a file.
func (n *Node) Kind() Kind { return n.kind }

// IsDir reports whether n is a directory.
func (n *Node) IsDir() bool { return n.kind == KindDir }

// Content returns the text of a file. Directories have none.
func (n *Node) Content() string { return n.content }

// Len returns the number of children of a directory, 0 for files.
func (n *Node) Len() int { return len(n.children) }

// Child returns the named child of a directory.
func (n *Node) Child(name string) (*Node, bool) {
	if n.kind != KindDir {
		return nil, false
	}
	c, ok := n.children[name]
	return c, ok
}

// add links child under name. The caller guarantees n is a directory, the
// name is free and child has no other parent.
func (n *Node) add(name string, child *Node) {
	n.children[name] = child
}

func (n *Node) clone() *Node {
	if n.kind == KindFile {
		return NewFile(n.content)
	}
	out := NewDir()
	for name, c := range n.children {
		out.children[name] = c.clone()
	}
	return out
}
