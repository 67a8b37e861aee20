package pack

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zip"
)

// archiveEpoch is stamped on every entry so identical inputs produce
// identical archive bytes.
var archiveEpoch = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

// writeArchive zips entries, in the given order, to a temp file in the
// destination directory and renames it to dest once complete.
func writeArchive(ctx context.Context, dest string, entries []source) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	zw := zip.NewWriter(tmp)
	for _, e := range entries {
		if err = ctx.Err(); err != nil {
			return err
		}
		if err = addEntry(zw, e); err != nil {
			return fmt.Errorf("failed to add %s: %w", e.Rel, err)
		}
	}
	if err = zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close archive: %w", err)
	}
	if err = os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("failed to move archive into place: %w", err)
	}
	return nil
}

func addEntry(zw *zip.Writer, e source) error {
	hdr := &zip.FileHeader{
		Name:     e.Rel,
		Method:   zip.Deflate,
		Modified: archiveEpoch,
	}
	hdr.SetMode(0o644)

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}
	f, err := os.Open(e.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}
