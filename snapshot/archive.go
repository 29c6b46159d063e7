package snapshot

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// magic identifies a vdisk snapshot archive, mirroring the teacher's
// little/big-endian magic-sniffing in super.go's UnmarshalBinary.
var magic = [4]byte{'v', 'd', 's', 'k'}

// Export bundles metaPath and imagePath into one archive at archivePath,
// compressed with the named codec ("gzip", "xz", or "zstd"). This is
// strictly additive to the mandatory raw persistence in internal/persist:
// it never replaces virtual_disk.bin/metadata.json as the source of truth.
func Export(metaPath, imagePath, archivePath, codecName string) error {
	codec, err := lookup(codecName)
	if err != nil {
		return err
	}
	meta, err := os.ReadFile(metaPath)
	if err != nil {
		return err
	}
	image, err := os.ReadFile(imagePath)
	if err != nil {
		return err
	}

	out, err := os.Create(archivePath)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := out.Write(magic[:]); err != nil {
		return err
	}

	cw, err := codec.Compress(out)
	if err != nil {
		return err
	}

	if err := writeFramed(cw, meta); err != nil {
		cw.Close()
		return err
	}
	if err := writeFramed(cw, image); err != nil {
		cw.Close()
		return err
	}
	return cw.Close()
}

// Import restores metaPath and imagePath from an archive previously
// produced by Export.
func Import(archivePath, metaPath, imagePath, codecName string) error {
	codec, err := lookup(codecName)
	if err != nil {
		return err
	}
	in, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer in.Close()

	var gotMagic [4]byte
	if _, err := io.ReadFull(in, gotMagic[:]); err != nil {
		return err
	}
	if gotMagic != magic {
		return fmt.Errorf("snapshot: %s is not a vdisk archive", archivePath)
	}

	cr, err := codec.Decompress(in)
	if err != nil {
		return err
	}
	defer cr.Close()

	meta, err := readFramed(cr)
	if err != nil {
		return err
	}
	image, err := readFramed(cr)
	if err != nil {
		return err
	}

	if err := os.WriteFile(metaPath, meta, 0o644); err != nil {
		return err
	}
	return os.WriteFile(imagePath, image, 0o644)
}

func writeFramed(w io.Writer, data []byte) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

func readFramed(r io.Reader) ([]byte, error) {
	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	_, err := io.ReadFull(r, buf)
	return buf, err
}
