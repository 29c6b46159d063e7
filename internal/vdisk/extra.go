package vdisk

import (
	"github.com/mbarda/vdisk/fuseview"
	"github.com/mbarda/vdisk/internal/alloc"
	"github.com/mbarda/vdisk/internal/bdev"
	"github.com/mbarda/vdisk/internal/namespace"
	"github.com/mbarda/vdisk/internal/oft"
	"github.com/mbarda/vdisk/snapshot"
)

// Format resets the namespace, allocation table, and block device to a
// pristine empty state and saves, without deleting the host image/metadata
// files (SPEC_FULL.md's supplemented "format" command). This exposes, as a
// command, the same reset spec.md §4.7 performs automatically at startup
// when the metadata file is absent.
func (c *Core) Format() error {
	c.NS = namespace.New()
	c.Table = alloc.New()
	c.Dev = bdev.New()
	c.OFT = oft.New()
	return c.save()
}

// Export bundles the current on-disk image and metadata files into a
// compressed archive (SPEC_FULL.md DOMAIN STACK). It saves first so the
// archive reflects the in-memory state. codecName is one of "gzip", "xz",
// "zstd".
func (c *Core) Export(archivePath, codecName string) error {
	if err := c.save(); err != nil {
		return err
	}
	return snapshot.Export(c.PC.MetaPath, c.PC.ImagePath, archivePath, codecName)
}

// Import restores the image and metadata files from a previously exported
// archive and reloads the in-memory state from them. codecName must match
// the one passed to Export.
func (c *Core) Import(archivePath, codecName string) error {
	if err := snapshot.Import(archivePath, c.PC.MetaPath, c.PC.ImagePath, codecName); err != nil {
		return err
	}
	ns, table, dev, err := c.PC.Load()
	if err != nil {
		return err
	}
	c.NS, c.Table, c.Dev = ns, table, dev
	c.OFT = oft.New()
	return nil
}

// MountFuse exposes the namespace read-only at hostPath via FUSE (builds
// without -tags fuse return fuseview.ErrNotBuilt). The returned unmount
// function is not tracked by Core; callers invoke it directly when done.
func (c *Core) MountFuse(hostPath string) (unmount func() error, err error) {
	return fuseview.Mount(c.NS, c.Table, c.Dev, hostPath)
}
