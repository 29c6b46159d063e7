// Package oft implements the open-file table: the ephemeral, non-persisted
// mapping from a file's basename to an active handle, and the read/write
// operations that require a handle to be open (spec.md §4.4/§4.5/§4.6).
package oft

import (
	"fmt"

	"github.com/mbarda/vdisk/internal/alloc"
	"github.com/mbarda/vdisk/internal/bdev"
	"github.com/mbarda/vdisk/internal/errs"
	"github.com/mbarda/vdisk/internal/namespace"
)

// entry is one open-file handle. Position is tracked for API completeness
// but is advisory only: spec.md §4.5 mandates that every write starts at
// offset 0.
type entry struct {
	position int64
	node     *namespace.Node
}

// Table is the open-file table. Keyed by bare basename (spec.md §9 Open
// Question 3); two files of the same name in different directories share
// one entry, a documented limitation rather than a bug.
type Table struct {
	entries map[string]*entry
}

// New returns an empty open-file table.
func New() *Table {
	return &Table{entries: make(map[string]*entry)}
}

// IsOpen reports whether name has an active entry. Implements
// namespace.OpenChecker so Mv can drop a stale handle without the
// namespace package importing oft.
func (t *Table) IsOpen(name string) bool {
	_, ok := t.entries[name]
	return ok
}

// ForceClose drops name's entry unconditionally, without requiring it to
// have been open (no-op if it wasn't). Used by Mv's implicit-close rule.
func (t *Table) ForceClose(name string) {
	delete(t.entries, name)
}

// Open registers node (looked up by the caller in the current directory)
// as open under name.
func (t *Table) Open(name string, node *namespace.Node) error {
	if node.Kind == namespace.KindDir {
		return fmt.Errorf("%w: %s", errs.ErrIsADirectory, name)
	}
	if _, exists := t.entries[name]; exists {
		return fmt.Errorf("%w: %s", errs.ErrAlreadyOpen, name)
	}
	t.entries[name] = &entry{position: 0, node: node}
	return nil
}

// Close removes name's entry. Fails errs.ErrNotOpen if it wasn't open.
func (t *Table) Close(name string) error {
	if _, exists := t.entries[name]; !exists {
		return fmt.Errorf("%w: %s", errs.ErrNotOpen, name)
	}
	delete(t.entries, name)
	return nil
}

func (t *Table) lookup(name string) (*entry, error) {
	e, exists := t.entries[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", errs.ErrNotOpen, name)
	}
	return e, nil
}

// Write implements spec.md §4.5: it replaces the file's content entirely
// from offset 0, extending (never shrinking) the block chain as needed.
func (t *Table) Write(name string, data []byte, table *alloc.Table, dev *bdev.Device) error {
	e, err := t.lookup(name)
	if err != nil {
		return err
	}
	node := e.node

	blocksNeeded := ceilDiv(len(data), bdev.BlockSize)
	if len(data) == 0 {
		blocksNeeded = 1 // spec.md §4.5/§9: empty payloads still reserve one block.
	}

	chain := table.Traverse(node.FirstBlock)
	if blocksNeeded > len(chain) {
		newFirst, err := table.Extend(node.FirstBlock, blocksNeeded-len(chain))
		if err != nil {
			return fmt.Errorf("%w", errs.ErrNoSpace)
		}
		node.FirstBlock = newFirst
		chain = table.Traverse(node.FirstBlock)
	}

	for i, b := range chain {
		lo := i * bdev.BlockSize
		hi := lo + bdev.BlockSize
		var slice []byte
		if lo < len(data) {
			end := hi
			if end > len(data) {
				end = len(data)
			}
			slice = data[lo:end]
		}
		if err := dev.WriteBlock(b, slice); err != nil {
			return err
		}
	}

	node.Size = int64(len(data))
	e.position = 0
	return nil
}

// Read implements spec.md §4.6: concatenates the file's blocks in chain
// order, trimming the final block to the file's recorded size.
func (t *Table) Read(name string, table *alloc.Table, dev *bdev.Device) ([]byte, error) {
	e, err := t.lookup(name)
	if err != nil {
		return nil, err
	}
	return ReadNode(e.node, table, dev)
}

// ReadNode reads a node's full content directly, without requiring an open
// handle. The normal CS path always goes through Read (which enforces
// spec.md §4.4's "must be open" rule); ReadNode exists for read-only
// collaborators such as fuseview that present the tree without an
// open/close lifecycle of their own.
func ReadNode(node *namespace.Node, table *alloc.Table, dev *bdev.Device) ([]byte, error) {
	if node.FirstBlock == -1 || node.Size == 0 {
		return []byte{}, nil
	}

	chain := table.Traverse(node.FirstBlock)
	out := make([]byte, 0, node.Size)
	remaining := node.Size
	for _, b := range chain {
		block, err := dev.ReadBlock(b)
		if err != nil {
			return nil, err
		}
		take := int64(bdev.BlockSize)
		if remaining < take {
			take = remaining
		}
		if take <= 0 {
			break
		}
		out = append(out, block[:take]...)
		remaining -= take
	}
	return out, nil
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
