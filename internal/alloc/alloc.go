// Package alloc implements the File Allocation Table and free-block map
// that track per-file block chains on top of a fixed-size block device.
package alloc

import (
	"errors"
	"fmt"
	"log"

	"github.com/mbarda/vdisk/internal/bdev"
)

// Sentinel FAT entry values, per spec.md §3.
const (
	Free       = -2
	EndOfChain = -1
)

// ErrNoSpace is returned when an allocation cannot be satisfied.
var ErrNoSpace = errors.New("alloc: not enough free blocks")

// Table owns the free-map and FAT for a NumBlocks-sized device. The zero
// value is not usable; construct with New.
type Table struct {
	free [bdev.NumBlocks]bool
	fat  [bdev.NumBlocks]int

	Logger *log.Logger
}

// New returns a Table with every block marked free.
func New() *Table {
	t := &Table{Logger: log.Default()}
	for i := range t.free {
		t.free[i] = true
		t.fat[i] = Free
	}
	return t
}

// FreeMap returns a copy of the free-map, in block-index order.
func (t *Table) FreeMap() []bool {
	out := make([]bool, bdev.NumBlocks)
	copy(out, t.free[:])
	return out
}

// FAT returns a copy of the FAT, in block-index order.
func (t *Table) FAT() []int {
	out := make([]int, bdev.NumBlocks)
	copy(out, t.fat[:])
	return out
}

// Load installs a free-map and FAT previously obtained from FreeMap/FAT,
// e.g. when restoring a persisted snapshot.
func (t *Table) Load(free []bool, fat []int) error {
	if len(free) != bdev.NumBlocks || len(fat) != bdev.NumBlocks {
		return fmt.Errorf("alloc: expected %d entries, got free=%d fat=%d", bdev.NumBlocks, len(free), len(fat))
	}
	copy(t.free[:], free)
	copy(t.fat[:], fat)
	return nil
}

// FreeCount returns the number of currently free blocks.
func (t *Table) FreeCount() int {
	n := 0
	for _, f := range t.free {
		if f {
			n++
		}
	}
	return n
}

// allocate picks the n lowest-numbered free blocks, chains them together
// (each entry pointing to the next, the last set to EndOfChain), and marks
// them used. It does not touch any existing chain. Returns ErrNoSpace and
// leaves the table unchanged if fewer than n blocks are free.
func (t *Table) allocate(n int) ([]int, error) {
	if n <= 0 {
		return nil, nil
	}
	picked := make([]int, 0, n)
	for i := 0; i < bdev.NumBlocks && len(picked) < n; i++ {
		if t.free[i] {
			picked = append(picked, i)
		}
	}
	if len(picked) < n {
		return nil, fmt.Errorf("%w: need %d, have %d", ErrNoSpace, n, len(picked))
	}
	for idx, b := range picked {
		t.free[b] = false
		if idx+1 < len(picked) {
			t.fat[b] = picked[idx+1]
		} else {
			t.fat[b] = EndOfChain
		}
	}
	t.Logger.Printf("alloc: allocated %d block(s) starting at %d", len(picked), picked[0])
	return picked, nil
}

// Allocate reserves n fresh blocks and returns the chain head (picked[0]).
func (t *Table) Allocate(n int) (int, error) {
	picked, err := t.allocate(n)
	if err != nil {
		return -1, err
	}
	return picked[0], nil
}

// Extend grows the chain rooted at firstBlock by k additional blocks and
// returns the (possibly new) chain head. Pass firstBlock=-1 for a file with
// no blocks yet; the new chain's head becomes the returned first block.
// On failure the table is left exactly as it was (no partial allocation).
func (t *Table) Extend(firstBlock, k int) (int, error) {
	if k <= 0 {
		if firstBlock == -1 {
			return -1, nil
		}
		return firstBlock, nil
	}
	picked, err := t.allocate(k)
	if err != nil {
		return -1, err
	}
	if firstBlock == -1 {
		return picked[0], nil
	}
	tail := firstBlock
	for {
		next := t.fat[tail]
		if next == EndOfChain || next == Free {
			break
		}
		tail = next
	}
	t.fat[tail] = picked[0]
	return firstBlock, nil
}

// Traverse follows the chain from firstBlock until EndOfChain (or Free,
// treated defensively as a truncated/corrupt chain) and returns the
// visited block indices in order. firstBlock=-1 yields an empty chain.
func (t *Table) Traverse(firstBlock int) []int {
	if firstBlock == -1 {
		return nil
	}
	var out []int
	seen := make(map[int]bool, 8)
	b := firstBlock
	for b != EndOfChain {
		if b == Free || seen[b] {
			// Corruption: defensively treat as end-of-chain.
			break
		}
		seen[b] = true
		out = append(out, b)
		b = t.fat[b]
	}
	return out
}

// Free walks the chain from firstBlock, marking every visited block free,
// resetting its FAT entry, and zeroing its bytes on dev.
func (t *Table) Free(firstBlock int, dev *bdev.Device) error {
	if firstBlock == -1 {
		return nil
	}
	b := firstBlock
	for {
		if b == Free {
			break
		}
		next := t.fat[b]
		t.free[b] = true
		t.fat[b] = Free
		if dev != nil {
			if err := dev.WriteBlock(b, nil); err != nil {
				return err
			}
		}
		if next == EndOfChain || next == Free {
			break
		}
		b = next
	}
	return nil
}
