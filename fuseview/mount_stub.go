//go:build !fuse

package fuseview

import (
	"errors"

	"github.com/mbarda/vdisk/internal/alloc"
	"github.com/mbarda/vdisk/internal/bdev"
	"github.com/mbarda/vdisk/internal/namespace"
)

// ErrNotBuilt is returned when this binary was built without the "fuse"
// build tag, mirroring the teacher's own //go:build fuse gating in
// inode_fuse.go.
var ErrNotBuilt = errors.New("fuseview: binary was not built with -tags fuse")

// Mount always fails in builds without the fuse tag.
func Mount(ns *namespace.Namespace, table *alloc.Table, dev *bdev.Device, hostPath string) (func() error, error) {
	return nil, ErrNotBuilt
}
