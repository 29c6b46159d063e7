package namespace

import (
	"fmt"
	"strings"

	"github.com/mbarda/vdisk/internal/errs"
)

// implicitCloseNoteFmt is the spec.md §4.3/§9 "Note:" line printed when a
// move implicitly drops the moved file's open handle.
const implicitCloseNoteFmt = "Note: %s was open and has been closed by the move."

// resolveEntry splits path into its parent directory and basename and
// looks the basename up as a child of that parent. It fails with
// errs.ErrNotFound if any component along the way, or the final entry
// itself, does not exist.
func (ns *Namespace) resolveEntry(path string) (parent, node *Node, err error) {
	components := splitPath(path)
	if len(components) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", errs.ErrInvalidDestination, path)
	}
	start := ns.cwd
	if strings.HasPrefix(path, "/") {
		start = ns.Root
	}
	parentDir, err := resolveDir(start, components[:len(components)-1])
	if err != nil {
		return nil, nil, err
	}
	name := components[len(components)-1]
	n, ok := parentDir.Children[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", errs.ErrNotFound, name)
	}
	return parentDir, n, nil
}

// resolveDestination implements the five-way classification of spec.md
// §4.3 mv for the dst argument, given src's resolved basename.
func (ns *Namespace) resolveDestination(dst, srcBasename string) (targetDir *Node, targetName string, err error) {
	switch dst {
	case "/":
		return ns.Root, srcBasename, nil
	case ".":
		return ns.cwd, srcBasename, nil
	}

	components := splitPath(dst)
	if len(components) == 0 {
		return nil, "", fmt.Errorf("%w: %s", errs.ErrInvalidDestination, dst)
	}
	start := ns.cwd
	if strings.HasPrefix(dst, "/") {
		start = ns.Root
	}
	parentDir, err := resolveDir(start, components[:len(components)-1])
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s", errs.ErrInvalidDestination, err)
	}
	final := components[len(components)-1]

	if existing, ok := parentDir.Children[final]; ok {
		if existing.Kind == KindDir {
			return existing, srcBasename, nil
		}
		return nil, "", fmt.Errorf("%w: %s", errs.ErrAlreadyExists, final)
	}
	return parentDir, final, nil
}

// Mv implements spec.md §4.3's move/rename operation. oft is consulted (and
// its matching entry dropped, with a note returned) because a move detaches
// and renames the node a handle may reference; oft may be nil if the caller
// has no open-file table keyed by basename to consult.
func (ns *Namespace) Mv(src, dst string, oft OpenChecker) (note string, err error) {
	srcParent, node, err := ns.resolveEntry(src)
	if err != nil {
		return "", err
	}
	srcBasename := node.Name

	targetDir, targetName, err := ns.resolveDestination(dst, srcBasename)
	if err != nil {
		return "", err
	}

	if _, exists := targetDir.Children[targetName]; exists {
		return "", fmt.Errorf("%w: %s", errs.ErrAlreadyExists, targetName)
	}

	delete(srcParent.Children, node.Name)
	node.Name = targetName
	node.Parent = targetDir
	targetDir.Children[targetName] = node

	if oft != nil && oft.IsOpen(srcBasename) {
		oft.ForceClose(srcBasename)
		return fmt.Sprintf(implicitCloseNoteFmt, srcBasename), nil
	}
	return "", nil
}

// OpenChecker lets Mv query and drop an open-file-table entry without
// namespace importing the oft package (which itself depends on namespace
// for *Node).
type OpenChecker interface {
	IsOpen(name string) bool
	ForceClose(name string)
}
