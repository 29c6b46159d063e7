package snapshot

import (
	"io"

	"github.com/klauspost/compress/gzip"
)

func init() {
	Register("gzip", &Codec{
		Compress: func(w io.Writer) (io.WriteCloser, error) {
			return gzip.NewWriter(w), nil
		},
		Decompress: func(r io.Reader) (io.ReadCloser, error) {
			gr, err := gzip.NewReader(r)
			if err != nil {
				return nil, err
			}
			return gr, nil
		},
	})
}
