// Package fuseview optionally exposes the virtual disk's namespace
// read-only at a host path via FUSE (build with -tags fuse). It never
// mutates the namespace, allocation table, or block device: the core's
// single-writer model (spec.md §5) is preserved.
package fuseview

// Unix file-type bits, reused from the teacher's mode.go (UnixToMode)
// rather than the private git.atonline.com/azusa/apkg/apkgfs the
// teacher's inode_linux.go depended on for the same conversion — see
// DESIGN.md.
const (
	sIFDIR = 0o040000
	sIFREG = 0o100000
)

func unixMode(isDir bool) uint32 {
	if isDir {
		return sIFDIR | 0o555
	}
	return sIFREG | 0o444
}
