package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"table-manager/core/utils"
	"table-manager/feature/pack"

	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"
)

// ErrUnsafePath is returned for archive entries that would escape the
// output directory.
var ErrUnsafePath = errors.New("archive entry escapes output directory")

// Result summarizes a snapshot build.
type Result struct {
	BaselineFiles int
	Applied       []int
	Missing       []int
	FilesWritten  int
}

// Builder reconstructs the client file tree at the latest published version.
type Builder struct {
	indexName string
	logger    *zap.Logger
}

// NewBuilder creates a Builder reading the index named by cfg.
func NewBuilder(cfg pack.Config, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	name := cfg.IndexName
	if name == "" {
		name = "patches.json"
	}
	return &Builder{indexName: name, logger: logger}
}

// Build copies the baseline tree at importPath into outputDir and replays
// every indexed patch from patchesDir in ascending version order. Archives
// that are not present locally are counted and skipped.
func (b *Builder) Build(ctx context.Context, importPath, patchesDir, outputDir string) (*Result, error) {
	if !utils.DirExists(importPath) {
		return nil, fmt.Errorf("baseline directory %s does not exist", importPath)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	copied, err := utils.CopyTree(importPath, outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to copy baseline: %w", err)
	}
	res := &Result{BaselineFiles: copied, Applied: []int{}, Missing: []int{}}

	idx, found, err := pack.LoadIndex(filepath.Join(patchesDir, b.indexName))
	if err != nil {
		return nil, err
	}
	if !found {
		b.logger.Warn("No patch index found, snapshot equals baseline", zap.String("dir", patchesDir))
	}

	for _, e := range idx.Ascending() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		archive := filepath.Join(patchesDir, path.Base(e.URL))
		if _, err := os.Stat(archive); os.IsNotExist(err) {
			b.logger.Warn("Patch archive missing, skipped", zap.Int("version", e.Version), zap.String("archive", archive))
			res.Missing = append(res.Missing, e.Version)
			continue
		}
		n, err := extract(archive, outputDir)
		if err != nil {
			return nil, fmt.Errorf("failed to apply patch %d: %w", e.Version, err)
		}
		res.Applied = append(res.Applied, e.Version)
		res.FilesWritten += n
		b.logger.Debug("Patch applied", zap.Int("version", e.Version), zap.Int("files", n))
	}

	b.logger.Info("Snapshot built",
		zap.Int("baseline_files", res.BaselineFiles),
		zap.Int("applied", len(res.Applied)),
		zap.Int("missing", len(res.Missing)))
	return res, nil
}

// extract writes every file of the archive under dest, replacing existing
// files, and returns the number written.
func extract(archive, dest string) (int, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	root, err := filepath.Abs(dest)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		target := filepath.Join(root, filepath.FromSlash(f.Name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return n, fmt.Errorf("%s: %w", f.Name, ErrUnsafePath)
		}
		if err := writeEntry(f, target); err != nil {
			return n, fmt.Errorf("%s: %w", f.Name, err)
		}
		n++
	}
	return n, nil
}

func writeEntry(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
