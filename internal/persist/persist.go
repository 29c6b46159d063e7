// Package persist implements the Persistence Coordinator: it captures a
// consistent snapshot of the namespace tree, FAT, and free-map to a JSON
// metadata document, and dumps the block device verbatim to a binary
// image file (spec.md §4.7).
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/mbarda/vdisk/internal/alloc"
	"github.com/mbarda/vdisk/internal/bdev"
	"github.com/mbarda/vdisk/internal/errs"
	"github.com/mbarda/vdisk/internal/namespace"
)

// Default file names (spec.md §6).
const (
	DefaultImagePath = "virtual_disk.bin"
	DefaultMetaPath  = "metadata.json"
)

// Coordinator owns the paths of the two on-disk files and performs
// save/load. Logger defaults to log.Default(), mirroring the teacher's use
// of the standard log package for diagnostic detail (see super.go).
type Coordinator struct {
	ImagePath string
	MetaPath  string
	Logger    *log.Logger
}

// New returns a Coordinator using the default file names.
func New() *Coordinator {
	return &Coordinator{ImagePath: DefaultImagePath, MetaPath: DefaultMetaPath, Logger: log.Default()}
}

// Option configures a Coordinator, mirroring the teacher's WriterOption
// pattern in writer.go (WithBlockSize, WithCompression, WithModTime).
type Option func(*Coordinator)

// WithImagePath overrides the binary image file path.
func WithImagePath(path string) Option {
	return func(c *Coordinator) { c.ImagePath = path }
}

// WithMetaPath overrides the metadata document file path.
func WithMetaPath(path string) Option {
	return func(c *Coordinator) { c.MetaPath = path }
}

// WithLogger overrides the diagnostic logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Coordinator) { c.Logger = l }
}

// NewWithOptions returns a Coordinator using the default file names, then
// applies opts in order.
func NewWithOptions(opts ...Option) *Coordinator {
	c := New()
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// nodeDoc is the JSON shape of one namespace.Node, per spec.md §6.
type nodeDoc struct {
	Name       string              `json:"name"`
	Type       string              `json:"type"` // "dir" or "file"
	Children   map[string]*nodeDoc `json:"children,omitempty"`
	Size       int64               `json:"size,omitempty"`
	FirstBlock int                 `json:"first_block,omitempty"`
}

// metaDoc is the full JSON document written to MetaPath.
type metaDoc struct {
	BlockSize int      `json:"block_size"`
	NumBlocks int      `json:"num_blocks"`
	Root      *nodeDoc `json:"root"`
	FreeMap   []bool   `json:"free_map"`
	Fat       []int    `json:"fat"`
}

func toDoc(n *namespace.Node) *nodeDoc {
	if n.Kind == namespace.KindDir {
		children := make(map[string]*nodeDoc, len(n.Children))
		for name, c := range n.Children {
			children[name] = toDoc(c)
		}
		return &nodeDoc{Name: n.Name, Type: "dir", Children: children}
	}
	return &nodeDoc{Name: n.Name, Type: "file", Size: n.Size, FirstBlock: n.FirstBlock}
}

func fromDoc(d *nodeDoc, parent *namespace.Node) (*namespace.Node, error) {
	switch d.Type {
	case "dir":
		n := namespace.NewDir(d.Name, parent)
		for name, cd := range d.Children {
			c, err := fromDoc(cd, n)
			if err != nil {
				return nil, err
			}
			n.Children[name] = c
		}
		return n, nil
	case "file":
		return namespace.NewFile(d.Name, parent, d.Size, d.FirstBlock), nil
	default:
		return nil, fmt.Errorf("persist: unknown node type %q", d.Type)
	}
}

// Save writes metadata.json (root tree + free-map + FAT) and dumps dev
// verbatim to virtual_disk.bin. Neither the open-file table nor the
// current directory path is persisted (spec.md §4.7).
func (c *Coordinator) Save(ns *namespace.Namespace, table *alloc.Table, dev *bdev.Device) error {
	doc := metaDoc{
		BlockSize: bdev.BlockSize,
		NumBlocks: bdev.NumBlocks,
		Root:      toDoc(ns.Root),
		FreeMap:   table.FreeMap(),
		Fat:       table.FAT(),
	}
	buf, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.MetaPath, buf, 0o644); err != nil {
		return err
	}
	if err := dev.Save(c.ImagePath); err != nil {
		return err
	}
	c.Logger.Printf("persist: saved %s and %s", c.MetaPath, c.ImagePath)
	return nil
}

// Load implements spec.md §4.7's startup protocol: the image is loaded (or
// zeroed if absent), and the metadata is loaded and validated (or the
// whole state is reset to pristine and immediately saved if absent).
// A block_size mismatch between the stored document and this build's
// constants is a fatal errs.ErrConfigurationMismatch.
func (c *Coordinator) Load() (*namespace.Namespace, *alloc.Table, *bdev.Device, error) {
	dev := bdev.New()
	if err := dev.Load(c.ImagePath); err != nil {
		return nil, nil, nil, err
	}

	buf, err := os.ReadFile(c.MetaPath)
	if errors.Is(err, os.ErrNotExist) {
		dev = bdev.New()
		ns := namespace.New()
		table := alloc.New()
		table.Logger = c.Logger
		if err := c.Save(ns, table, dev); err != nil {
			return nil, nil, nil, err
		}
		return ns, table, dev, nil
	} else if err != nil {
		return nil, nil, nil, err
	}

	var doc metaDoc
	if err := json.Unmarshal(buf, &doc); err != nil {
		return nil, nil, nil, fmt.Errorf("persist: %s: %w", c.MetaPath, err)
	}
	if doc.BlockSize != bdev.BlockSize {
		return nil, nil, nil, fmt.Errorf("%w: metadata block_size=%d, expected %d", errs.ErrConfigurationMismatch, doc.BlockSize, bdev.BlockSize)
	}

	root, err := fromDoc(doc.Root, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	root.Name = "/"
	ns := namespace.FromRoot(root)

	table := alloc.New()
	table.Logger = c.Logger
	if err := table.Load(doc.FreeMap, doc.Fat); err != nil {
		return nil, nil, nil, err
	}

	c.Logger.Printf("persist: loaded %s and %s", c.MetaPath, c.ImagePath)
	return ns, table, dev, nil
}
