//go:build fuse

package fuseview

import (
	"context"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/mbarda/vdisk/internal/alloc"
	"github.com/mbarda/vdisk/internal/bdev"
	"github.com/mbarda/vdisk/internal/namespace"
	"github.com/mbarda/vdisk/internal/oft"
)

// vNode adapts a namespace.Node to go-fuse's high-level node API. It holds
// a reference to the allocation table and block device only to serve file
// reads (via oft.ReadNode); it never writes to either.
type vNode struct {
	fs.Inode
	node  *namespace.Node
	table *alloc.Table
	dev   *bdev.Device
}

var (
	_ fs.NodeGetattrer = (*vNode)(nil)
	_ fs.NodeLookuper  = (*vNode)(nil)
	_ fs.NodeReaddirer = (*vNode)(nil)
	_ fs.NodeOpener    = (*vNode)(nil)
)

func (n *vNode) Getattr(ctx context.Context, _ fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = unixMode(n.node.Kind == namespace.KindDir)
	out.Size = uint64(n.node.Size)
	return 0
}

func (n *vNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	if n.node.Kind != namespace.KindDir {
		return nil, syscall.ENOTDIR
	}
	child, ok := n.node.Children[name]
	if !ok {
		return nil, syscall.ENOENT
	}
	out.Mode = unixMode(child.Kind == namespace.KindDir)
	out.Size = uint64(child.Size)

	childVNode := &vNode{node: child, table: n.table, dev: n.dev}
	stable := fs.StableAttr{Mode: unixMode(child.Kind == namespace.KindDir)}
	return n.NewInode(ctx, childVNode, stable), 0
}

func (n *vNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	if n.node.Kind != namespace.KindDir {
		return nil, syscall.ENOTDIR
	}
	entries := make([]fuse.DirEntry, 0, len(n.node.Children))
	for name, c := range n.node.Children {
		entries = append(entries, fuse.DirEntry{Name: name, Mode: unixMode(c.Kind == namespace.KindDir)})
	}
	return fs.NewListDirStream(entries), 0
}

func (n *vNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	if n.node.Kind == namespace.KindDir {
		return nil, 0, syscall.EISDIR
	}
	data, err := oft.ReadNode(n.node, n.table, n.dev)
	if err != nil {
		return nil, 0, syscall.EIO
	}
	return &fileHandle{data: data}, fuse.FOPEN_KEEP_CACHE, 0
}

// fileHandle serves reads from an already-materialized byte slice; the
// virtual disk has no seek-based partial writes to worry about (spec.md
// §1 non-goals), so a read-only snapshot suffices.
type fileHandle struct{ data []byte }

var _ fs.FileReader = (*fileHandle)(nil)

func (f *fileHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	if off < 0 || off > int64(len(f.data)) {
		return fuse.ReadResultData(nil), 0
	}
	end := off + int64(len(dest))
	if end > int64(len(f.data)) {
		end = int64(len(f.data))
	}
	return fuse.ReadResultData(f.data[off:end]), 0
}

// Mount mounts ns read-only at hostPath and returns an unmount function.
func Mount(ns *namespace.Namespace, table *alloc.Table, dev *bdev.Device, hostPath string) (func() error, error) {
	root := &vNode{node: ns.Root, table: table, dev: dev}
	server, err := fs.Mount(hostPath, root, &fs.Options{})
	if err != nil {
		return nil, err
	}
	return func() error {
		return server.Unmount()
	}, nil
}
