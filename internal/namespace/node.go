// Package namespace implements the hierarchical directory tree of the
// virtual disk: a tagged tree of directory and file nodes, path
// resolution, and the mkdir/cd/ls/create/delete/mv/search operations.
package namespace

import "sort"

// Kind tags a Node as either a directory or a file. A Node is a tagged
// variant rather than two separate types so the tree can be walked
// uniformly; see spec §3/§9.
type Kind uint8

const (
	KindDir Kind = iota
	KindFile
)

// Node is one entry in the namespace tree.
type Node struct {
	Name   string
	Kind   Kind
	Parent *Node

	// Valid when Kind == KindDir.
	Children map[string]*Node

	// Valid when Kind == KindFile.
	Size       int64
	FirstBlock int
}

func newDir(name string, parent *Node) *Node {
	return &Node{Name: name, Kind: KindDir, Parent: parent, Children: make(map[string]*Node)}
}

func newFile(name string, parent *Node) *Node {
	return &Node{Name: name, Kind: KindFile, Parent: parent, FirstBlock: -1}
}

// NewDir constructs a standalone directory node, for callers (e.g. the
// persistence layer) rebuilding a tree outside of normal Mkdir calls.
func NewDir(name string, parent *Node) *Node { return newDir(name, parent) }

// NewFile constructs a standalone file node with the given size and first
// block, for callers rebuilding a tree outside of normal Create/Write
// calls.
func NewFile(name string, parent *Node, size int64, firstBlock int) *Node {
	n := newFile(name, parent)
	n.Size = size
	n.FirstBlock = firstBlock
	return n
}

// FromRoot returns a Namespace wrapping an already-built tree, with the
// current directory set to root.
func FromRoot(root *Node) *Namespace {
	return &Namespace{Root: root, cwd: root}
}

// sortedChildren returns the node's children ordered by name, for
// deterministic listing/search output.
func (n *Node) sortedChildren() []*Node {
	out := make([]*Node, 0, len(n.Children))
	for _, c := range n.Children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Path returns the absolute slash-separated path from the root to n.
func (n *Node) Path() string {
	if n.Parent == nil {
		return "/"
	}
	var parts []string
	for cur := n; cur.Parent != nil; cur = cur.Parent {
		parts = append([]string{cur.Name}, parts...)
	}
	out := "/"
	for i, p := range parts {
		if i > 0 {
			out += "/"
		}
		out += p
	}
	return out
}
