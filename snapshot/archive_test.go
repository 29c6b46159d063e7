package snapshot

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestExportImportRoundTrip(t *testing.T) {
	for _, codec := range []string{"gzip", "xz", "zstd"} {
		t.Run(codec, func(t *testing.T) {
			dir := t.TempDir()
			meta := filepath.Join(dir, "metadata.json")
			image := filepath.Join(dir, "virtual_disk.bin")
			archive := filepath.Join(dir, "backup.vdsk")

			metaContent := []byte(`{"block_size":512}`)
			imageContent := bytes.Repeat([]byte{0x42}, 4096)
			if err := os.WriteFile(meta, metaContent, 0o644); err != nil {
				t.Fatalf("setup meta: %s", err)
			}
			if err := os.WriteFile(image, imageContent, 0o644); err != nil {
				t.Fatalf("setup image: %s", err)
			}

			if err := Export(meta, image, archive, codec); err != nil {
				t.Fatalf("Export: %s", err)
			}

			restoreMeta := filepath.Join(dir, "restored-metadata.json")
			restoreImage := filepath.Join(dir, "restored-image.bin")
			if err := Import(archive, restoreMeta, restoreImage, codec); err != nil {
				t.Fatalf("Import: %s", err)
			}

			gotMeta, err := os.ReadFile(restoreMeta)
			if err != nil {
				t.Fatalf("read restored meta: %s", err)
			}
			if !bytes.Equal(gotMeta, metaContent) {
				t.Fatalf("metadata mismatch after round trip")
			}
			gotImage, err := os.ReadFile(restoreImage)
			if err != nil {
				t.Fatalf("read restored image: %s", err)
			}
			if !bytes.Equal(gotImage, imageContent) {
				t.Fatalf("image mismatch after round trip")
			}
		})
	}
}

func TestImportRejectsUnknownCodec(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "backup.vdsk")
	os.WriteFile(archive, []byte("not a real archive"), 0o644)

	if err := Import(archive, filepath.Join(dir, "m"), filepath.Join(dir, "i"), "lz4-for-real"); err == nil {
		t.Fatalf("expected error for unknown codec")
	}
}
