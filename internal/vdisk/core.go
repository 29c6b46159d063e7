// Package vdisk wires the block device, allocation layer, namespace, and
// open-file table into the single-owner core instance described in
// spec.md §9: "initialize → serve commands → shutdown with final save".
// Every mutating operation persists before returning (spec.md §4.7); cd,
// ls, read, open, and close do not.
package vdisk

import (
	"github.com/mbarda/vdisk/internal/alloc"
	"github.com/mbarda/vdisk/internal/bdev"
	"github.com/mbarda/vdisk/internal/namespace"
	"github.com/mbarda/vdisk/internal/oft"
	"github.com/mbarda/vdisk/internal/persist"
)

// Core is the single, process-owned instance of the virtual disk. Do not
// make it a package-level global (spec.md §9); the command surface owns
// one value for the lifetime of the session.
type Core struct {
	NS    *namespace.Namespace
	Table *alloc.Table
	Dev   *bdev.Device
	OFT   *oft.Table
	PC    *persist.Coordinator
}

// Open loads (or initializes) a Core from pc's configured files.
func Open(pc *persist.Coordinator) (*Core, error) {
	ns, table, dev, err := pc.Load()
	if err != nil {
		return nil, err
	}
	return &Core{NS: ns, Table: table, Dev: dev, OFT: oft.New(), PC: pc}, nil
}

func (c *Core) save() error {
	return c.PC.Save(c.NS, c.Table, c.Dev)
}

// Mkdir implements spec.md §4.3 mkdir.
func (c *Core) Mkdir(name string) error {
	if err := c.NS.Mkdir(name); err != nil {
		return err
	}
	return c.save()
}

// Cd implements spec.md §4.3 cd. Non-mutating: no save.
func (c *Core) Cd(name string) error {
	return c.NS.Cd(name)
}

// Ls implements spec.md §4.3 ls. Non-mutating: no save.
func (c *Core) Ls() []namespace.Entry {
	return c.NS.Ls()
}

// Create implements spec.md §4.3 create.
func (c *Core) Create(name string) error {
	if _, err := c.NS.Create(name); err != nil {
		return err
	}
	return c.save()
}

// Delete implements spec.md §4.3 delete, including dropping any matching
// open-file-table entry.
func (c *Core) Delete(name string) error {
	if err := c.NS.Delete(name, c.Table, c.Dev); err != nil {
		return err
	}
	c.OFT.ForceClose(name)
	return c.save()
}

// Mv implements spec.md §4.3 mv. note is non-empty when the move
// implicitly closed an open handle (spec.md §9 Open Question 4).
func (c *Core) Mv(src, dst string) (note string, err error) {
	note, err = c.NS.Mv(src, dst, c.OFT)
	if err != nil {
		return "", err
	}
	if err := c.save(); err != nil {
		return "", err
	}
	return note, nil
}

// Search implements spec.md §4.3 search. Non-mutating: no save.
func (c *Core) Search(name string) []namespace.SearchResult {
	return c.NS.Search(name)
}

// OpenFile implements spec.md §4.4 open. Non-mutating: no save.
func (c *Core) OpenFile(name string) error {
	node, err := c.NS.Lookup(name)
	if err != nil {
		return err
	}
	return c.OFT.Open(name, node)
}

// CloseFile implements spec.md §4.4 close. Non-mutating: no save.
func (c *Core) CloseFile(name string) error {
	return c.OFT.Close(name)
}

// Write implements spec.md §4.5.
func (c *Core) Write(name string, data []byte) error {
	if err := c.OFT.Write(name, data, c.Table, c.Dev); err != nil {
		return err
	}
	return c.save()
}

// Read implements spec.md §4.6. Non-mutating: no save.
func (c *Core) Read(name string) ([]byte, error) {
	return c.OFT.Read(name, c.Table, c.Dev)
}

// Shutdown runs the final save path (spec.md §5 "Cancellation").
func (c *Core) Shutdown() error {
	return c.save()
}
