package alloc

import (
	"testing"

	"github.com/mbarda/vdisk/internal/bdev"
)

func TestAllocateLowestIndexFirst(t *testing.T) {
	table := New()
	head, err := table.Allocate(3)
	if err != nil {
		t.Fatalf("Allocate: %s", err)
	}
	if head != 0 {
		t.Errorf("expected chain head 0, got %d", head)
	}
	chain := table.Traverse(head)
	if len(chain) != 3 {
		t.Fatalf("expected chain length 3, got %d", len(chain))
	}
	for i, b := range chain {
		if b != i {
			t.Errorf("expected block %d at position %d, got %d", i, i, b)
		}
	}
	if table.FreeCount() != bdev.NumBlocks-3 {
		t.Errorf("expected %d free blocks, got %d", bdev.NumBlocks-3, table.FreeCount())
	}
}

func TestAllocateOutOfSpace(t *testing.T) {
	table := New()
	before := table.FreeCount()
	if _, err := table.Allocate(bdev.NumBlocks + 1); err == nil {
		t.Fatal("expected ErrNoSpace")
	}
	if table.FreeCount() != before {
		t.Errorf("allocation failure must not change free count")
	}
}

func TestExtendChainFromScratch(t *testing.T) {
	table := New()
	first, err := table.Extend(-1, 2)
	if err != nil {
		t.Fatalf("Extend: %s", err)
	}
	if first != 0 {
		t.Errorf("expected new head 0, got %d", first)
	}
	if got := table.Traverse(first); len(got) != 2 {
		t.Errorf("expected chain of 2, got %v", got)
	}
}

func TestExtendChainAppendsToTail(t *testing.T) {
	table := New()
	first, _ := table.Extend(-1, 2)
	first, err := table.Extend(first, 3)
	if err != nil {
		t.Fatalf("Extend: %s", err)
	}
	chain := table.Traverse(first)
	if len(chain) != 5 {
		t.Fatalf("expected chain of 5, got %d: %v", len(chain), chain)
	}
	for i, b := range chain {
		if b != i {
			t.Errorf("expected contiguous chain, position %d was block %d", i, b)
		}
	}
}

func TestFreeChainReclaimsAndZeroes(t *testing.T) {
	dev := bdev.New()
	table := New()
	first, _ := table.Extend(-1, 4)
	for _, b := range table.Traverse(first) {
		dev.WriteBlock(b, []byte("payload"))
	}
	before := table.FreeCount()

	if err := table.Free(first, dev); err != nil {
		t.Fatalf("Free: %s", err)
	}
	if table.FreeCount() != before+4 {
		t.Errorf("expected %d blocks reclaimed, got delta %d", 4, table.FreeCount()-before)
	}
	for i := 0; i < 4; i++ {
		b, _ := dev.ReadBlock(i)
		for _, c := range b {
			if c != 0 {
				t.Fatalf("expected block %d zeroed after free", i)
			}
		}
	}
}

func TestFreeMapAndFatAgreement(t *testing.T) {
	table := New()
	table.Extend(-1, 5)
	free := table.FreeMap()
	fat := table.FAT()
	for i := range free {
		if free[i] && fat[i] != Free {
			t.Fatalf("block %d: free map true but FAT != Free", i)
		}
		if !free[i] && fat[i] == Free {
			t.Fatalf("block %d: free map false but FAT == Free", i)
		}
	}
}

func TestTraverseStopsOnCorruption(t *testing.T) {
	table := New()
	first, _ := table.Extend(-1, 3)
	// simulate a cycle: point the last block back at the head.
	fat := table.FAT()
	free := table.FreeMap()
	fat[first+2] = first
	table.Load(free, fat)

	chain := table.Traverse(first)
	if len(chain) != 3 {
		t.Fatalf("expected corrupted cycle to be truncated to 3, got %d", len(chain))
	}
}
