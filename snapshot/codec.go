// Package snapshot implements compressed export/import of a virtual disk's
// on-disk files, as an additive backup/transfer mechanism layered on top
// of (never replacing) the mandatory raw persistence in internal/persist.
//
// The Codec registry mirrors the teacher's comp.go CompHandler/
// RegisterCompHandler pattern, rebound from SquashFS block decompression to
// whole-archive compression.
package snapshot

import (
	"fmt"
	"io"
)

// Codec compresses and decompresses a single archive stream.
type Codec struct {
	Compress   func(w io.Writer) (io.WriteCloser, error)
	Decompress func(r io.Reader) (io.ReadCloser, error)
}

var registry = map[string]*Codec{}

// Register adds a codec under name, for use by Export/Import and the init
// functions in codec_gzip.go / codec_xz.go / codec_zstd.go.
func Register(name string, c *Codec) {
	registry[name] = c
}

func lookup(name string) (*Codec, error) {
	c, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("snapshot: unknown codec %q", name)
	}
	return c, nil
}
