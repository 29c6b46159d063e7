package persist

import (
	"bytes"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/mbarda/vdisk/internal/bdev"
	"github.com/mbarda/vdisk/internal/errs"
)

func newCoordinator(t *testing.T) *Coordinator {
	dir := t.TempDir()
	return &Coordinator{
		ImagePath: filepath.Join(dir, "virtual_disk.bin"),
		MetaPath:  filepath.Join(dir, "metadata.json"),
		Logger:    log.New(io.Discard, "", 0),
	}
}

func TestLoadFreshStartInitializesPristine(t *testing.T) {
	c := newCoordinator(t)
	ns, table, dev, err := c.Load()
	if err != nil {
		t.Fatalf("Load: %s", err)
	}
	if len(ns.Root.Children) != 0 {
		t.Fatalf("expected empty root, got %d children", len(ns.Root.Children))
	}
	if table.FreeCount() != bdev.NumBlocks {
		t.Fatalf("expected all blocks free, got %d", table.FreeCount())
	}
	if !bytes.Equal(dev.Bytes(), make([]byte, bdev.DiskSize)) {
		t.Fatalf("expected zeroed device")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	c := newCoordinator(t)
	ns, table, dev, err := c.Load()
	if err != nil {
		t.Fatalf("Load: %s", err)
	}

	ns.Mkdir("docs")
	ns.Cd("docs")
	node, _ := ns.Create("notes.txt")
	node.FirstBlock, _ = table.Extend(-1, 2)
	node.Size = 10
	dev.WriteBlock(node.FirstBlock, []byte("round trip"))

	if err := c.Save(ns, table, dev); err != nil {
		t.Fatalf("Save: %s", err)
	}

	ns2, table2, dev2, err := c.Load()
	if err != nil {
		t.Fatalf("reload: %s", err)
	}
	if len(ns2.Root.Children) != 1 {
		t.Fatalf("expected docs under reloaded root")
	}
	docs := ns2.Root.Children["docs"]
	notes := docs.Children["notes.txt"]
	if notes == nil || notes.Size != 10 || notes.FirstBlock != node.FirstBlock {
		t.Fatalf("reloaded file metadata mismatch: %+v", notes)
	}
	if !reflect.DeepEqual(table.FreeMap(), table2.FreeMap()) {
		t.Fatalf("free map did not round-trip")
	}
	if !bytes.Equal(dev.Bytes(), dev2.Bytes()) {
		t.Fatalf("device image did not round-trip")
	}
}

func TestNewWithOptionsAppliesOverrides(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "custom.img")
	meta := filepath.Join(dir, "custom.json")
	logger := log.New(io.Discard, "", 0)

	c := NewWithOptions(WithImagePath(img), WithMetaPath(meta), WithLogger(logger))
	if c.ImagePath != img || c.MetaPath != meta || c.Logger != logger {
		t.Fatalf("options did not apply: %+v", c)
	}
}

func TestConfigurationMismatchIsFatal(t *testing.T) {
	c := newCoordinator(t)
	ns, table, dev, err := c.Load()
	if err != nil {
		t.Fatalf("Load: %s", err)
	}
	if err := c.Save(ns, table, dev); err != nil {
		t.Fatalf("Save: %s", err)
	}

	raw, err := os.ReadFile(c.MetaPath)
	if err != nil {
		t.Fatalf("read metadata: %s", err)
	}
	corrupted := bytes.Replace(raw, []byte(`"block_size": 512`), []byte(`"block_size": 256`), 1)
	if bytes.Equal(raw, corrupted) {
		t.Fatalf("test setup failed to corrupt block_size")
	}
	if err := os.WriteFile(c.MetaPath, corrupted, 0o644); err != nil {
		t.Fatalf("write corrupted metadata: %s", err)
	}

	if _, _, _, err := c.Load(); !errors.Is(err, errs.ErrConfigurationMismatch) {
		t.Fatalf("expected ErrConfigurationMismatch, got %v", err)
	}
}
