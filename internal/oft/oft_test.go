package oft

import (
	"bytes"
	"errors"
	"testing"

	"github.com/mbarda/vdisk/internal/alloc"
	"github.com/mbarda/vdisk/internal/bdev"
	"github.com/mbarda/vdisk/internal/errs"
	"github.com/mbarda/vdisk/internal/namespace"
)

func setup() (*namespace.Namespace, *alloc.Table, *bdev.Device) {
	return namespace.New(), alloc.New(), bdev.New()
}

func TestOpenCloseLifecycle(t *testing.T) {
	ns, _, _ := setup()
	node, _ := ns.Create("a.txt")
	table := New()

	if err := table.Open("a.txt", node); err != nil {
		t.Fatalf("Open: %s", err)
	}
	if err := table.Open("a.txt", node); !errors.Is(err, errs.ErrAlreadyOpen) {
		t.Fatalf("expected ErrAlreadyOpen, got %v", err)
	}
	if err := table.Close("a.txt"); err != nil {
		t.Fatalf("Close: %s", err)
	}
	if err := table.Close("a.txt"); !errors.Is(err, errs.ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen, got %v", err)
	}
}

func TestOpenDirectoryFails(t *testing.T) {
	ns, _, _ := setup()
	ns.Mkdir("docs")
	node, _ := ns.Lookup("docs")
	table := New()
	if err := table.Open("docs", node); !errors.Is(err, errs.ErrIsADirectory) {
		t.Fatalf("expected ErrIsADirectory, got %v", err)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	ns, alloct, dev := setup()
	node, _ := ns.Create("a.txt")
	table := New()
	table.Open("a.txt", node)

	payload := []byte("hello from the RAM disk")
	if err := table.Write("a.txt", payload, alloct, dev); err != nil {
		t.Fatalf("Write: %s", err)
	}
	got, err := table.Read("a.txt", alloct, dev)
	if err != nil {
		t.Fatalf("Read: %s", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round trip mismatch: got %q want %q", got, payload)
	}
}

func TestWriteRequiresOpen(t *testing.T) {
	ns, alloct, dev := setup()
	ns.Create("a.txt")
	table := New()
	if err := table.Write("a.txt", []byte("x"), alloct, dev); !errors.Is(err, errs.ErrNotOpen) {
		t.Fatalf("expected ErrNotOpen, got %v", err)
	}
}

func TestEmptyWriteReservesOneBlock(t *testing.T) {
	ns, alloct, dev := setup()
	node, _ := ns.Create("a.txt")
	table := New()
	table.Open("a.txt", node)

	if err := table.Write("a.txt", nil, alloct, dev); err != nil {
		t.Fatalf("Write: %s", err)
	}
	chain := alloct.Traverse(node.FirstBlock)
	if len(chain) != 1 {
		t.Fatalf("expected 1 reserved block for empty payload, got %d", len(chain))
	}
	if node.Size != 0 {
		t.Fatalf("expected size 0, got %d", node.Size)
	}
}

func TestWriteNeverShrinksChain(t *testing.T) {
	ns, alloct, dev := setup()
	node, _ := ns.Create("a.txt")
	table := New()
	table.Open("a.txt", node)

	big := bytes.Repeat([]byte{'x'}, bdev.BlockSize*3)
	table.Write("a.txt", big, alloct, dev)
	longChainLen := len(alloct.Traverse(node.FirstBlock))

	small := []byte("short")
	table.Write("a.txt", small, alloct, dev)
	if got := len(alloct.Traverse(node.FirstBlock)); got != longChainLen {
		t.Fatalf("expected chain to remain length %d, got %d", longChainLen, got)
	}
	got, _ := table.Read("a.txt", alloct, dev)
	if !bytes.Equal(got, small) {
		t.Fatalf("expected read to return only the new, shorter content")
	}
}

func TestWriteOutOfSpaceLeavesFileUntouched(t *testing.T) {
	ns, alloct, dev := setup()
	node, _ := ns.Create("a.txt")
	table := New()
	table.Open("a.txt", node)

	huge := make([]byte, bdev.DiskSize+1)
	err := table.Write("a.txt", huge, alloct, dev)
	if !errors.Is(err, errs.ErrNoSpace) {
		t.Fatalf("expected ErrNoSpace, got %v", err)
	}
	if node.Size != 0 || node.FirstBlock != -1 {
		t.Fatalf("expected file untouched on failed write, got size=%d firstBlock=%d", node.Size, node.FirstBlock)
	}
}
