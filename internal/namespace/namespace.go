package namespace

import (
	"fmt"
	"strings"

	"github.com/mbarda/vdisk/internal/alloc"
	"github.com/mbarda/vdisk/internal/bdev"
	"github.com/mbarda/vdisk/internal/errs"
)

// Namespace is the in-memory tree of directory and file nodes rooted at
// "/", plus the current working directory. It is not safe for concurrent
// use (spec.md §5: single-threaded, non-suspending model).
type Namespace struct {
	Root *Node
	cwd  *Node
}

// New returns a Namespace containing only the root directory, with the
// current directory set to root.
func New() *Namespace {
	root := newDir("/", nil)
	return &Namespace{Root: root, cwd: root}
}

// Cwd returns the current working directory node.
func (ns *Namespace) Cwd() *Node { return ns.cwd }

// CwdPath returns the absolute path of the current working directory, for
// display in the prompt (spec.md §6).
func (ns *Namespace) CwdPath() string { return ns.cwd.Path() }

// splitPath splits a slash-separated path into components, dropping empty
// components produced by leading/trailing/doubled slashes.
func splitPath(p string) []string {
	raw := strings.Split(p, "/")
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// resolveDir walks components starting from start, following only
// directory children. Returns errs.ErrNotFound or errs.ErrNotADirectory as
// appropriate.
func resolveDir(start *Node, components []string) (*Node, error) {
	cur := start
	for _, c := range components {
		child, ok := cur.Children[c]
		if !ok {
			return nil, fmt.Errorf("%w: %s", errs.ErrNotFound, c)
		}
		if child.Kind != KindDir {
			return nil, fmt.Errorf("%w: %s", errs.ErrNotADirectory, c)
		}
		cur = child
	}
	return cur, nil
}

// Mkdir creates a new empty subdirectory named name under the current
// directory.
func (ns *Namespace) Mkdir(name string) error {
	if _, exists := ns.cwd.Children[name]; exists {
		return fmt.Errorf("%w: %s", errs.ErrAlreadyExists, name)
	}
	ns.cwd.Children[name] = newDir(name, ns.cwd)
	return nil
}

// Cd changes the current directory per spec.md §4.3: "/" resets to root,
// ".." pops one level (a no-op at root), any other name is looked up as a
// child directory (relative) or an absolute path if it starts with "/".
func (ns *Namespace) Cd(arg string) error {
	if arg == "/" {
		ns.cwd = ns.Root
		return nil
	}
	if arg == ".." {
		if ns.cwd.Parent != nil {
			ns.cwd = ns.cwd.Parent
		}
		return nil
	}

	var start *Node
	var components []string
	if strings.HasPrefix(arg, "/") {
		start = ns.Root
		components = splitPath(arg)
	} else {
		start = ns.cwd
		components = splitPath(arg)
	}
	target, err := resolveDir(start, components)
	if err != nil {
		return err
	}
	ns.cwd = target
	return nil
}

// Entry is one line of an Ls() listing.
type Entry struct {
	Name  string
	IsDir bool
	Size  int64
}

// Ls lists the children of the current directory, ordered by name.
func (ns *Namespace) Ls() []Entry {
	children := ns.cwd.sortedChildren()
	out := make([]Entry, 0, len(children))
	for _, c := range children {
		out = append(out, Entry{Name: c.Name, IsDir: c.Kind == KindDir, Size: c.Size})
	}
	return out
}

// Create inserts a new empty file named name under the current directory.
func (ns *Namespace) Create(name string) (*Node, error) {
	if _, exists := ns.cwd.Children[name]; exists {
		return nil, fmt.Errorf("%w: %s", errs.ErrAlreadyExists, name)
	}
	n := newFile(name, ns.cwd)
	ns.cwd.Children[name] = n
	return n, nil
}

// Lookup returns the named child of the current directory.
func (ns *Namespace) Lookup(name string) (*Node, error) {
	n, ok := ns.cwd.Children[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errs.ErrNotFound, name)
	}
	return n, nil
}

// Delete removes the named child of the current directory. Directories
// must be empty. Files have their block chain freed via table/dev.
func (ns *Namespace) Delete(name string, table *alloc.Table, dev *bdev.Device) error {
	n, ok := ns.cwd.Children[name]
	if !ok {
		return fmt.Errorf("%w: %s", errs.ErrNotFound, name)
	}
	if n.Kind == KindDir {
		if len(n.Children) > 0 {
			return fmt.Errorf("%w: %s", errs.ErrNotEmpty, name)
		}
	} else {
		if err := table.Free(n.FirstBlock, dev); err != nil {
			return err
		}
	}
	delete(ns.cwd.Children, name)
	return nil
}

// SearchResult is one match reported by Search.
type SearchResult struct {
	Path  string
	IsDir bool
}

// Search performs a depth-first scan of the whole tree, collecting every
// node whose local name exactly equals query.
func (ns *Namespace) Search(query string) []SearchResult {
	var out []SearchResult
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.Name == query && n.Parent != nil {
			out = append(out, SearchResult{Path: n.Path(), IsDir: n.Kind == KindDir})
		}
		if n.Kind == KindDir {
			for _, c := range n.sortedChildren() {
				walk(c)
			}
		}
	}
	walk(ns.Root)
	return out
}
