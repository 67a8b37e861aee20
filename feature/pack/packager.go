package pack

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// Request describes one packaging run for a single environment.
type Request struct {
	// Env names the environment, for logging only.
	Env string
	// BuildDir holds the freshly built tables.
	BuildDir string
	// OverrideDir holds hand-maintained files that replace built ones.
	// It may be empty or absent.
	OverrideDir string
	// OutputDir receives archives and the patch index.
	OutputDir string
	// ManifestPath is the environment's persisted manifest.
	ManifestPath string
	// BaseURL prefixes archive file names in index entries. Empty means the
	// bare file name is recorded.
	BaseURL string
}

// Result summarizes a packaging run.
type Result struct {
	NoChanges   bool
	Version     int
	Total       int
	Changed     []string
	Removed     int
	ArchivePath string
	Entry       *Entry
}

// Summary renders a one-line human description of the run.
func (r *Result) Summary() string {
	if r.NoChanges {
		return fmt.Sprintf("no changes since version %d (%d files tracked)", r.Version, r.Total)
	}
	return fmt.Sprintf("version %d: %d of %d files changed, %s archive at %s",
		r.Version, len(r.Changed), r.Total, humanize.Bytes(uint64(r.Entry.SizeBytes)), r.ArchivePath)
}

// Packager produces incremental patch archives.
type Packager struct {
	cfg    Config
	logger *zap.Logger
}

// NewPackager creates a Packager. A nil logger disables logging.
func NewPackager(cfg Config, logger *zap.Logger) *Packager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Packager{cfg: cfg.withDefaults(), logger: logger}
}

// ArchiveName returns the archive file name for version.
func (p *Packager) ArchiveName(version int) string {
	return fmt.Sprintf("%s%d.zip", p.cfg.ArchivePrefix, version)
}

// IndexPath returns the index location inside outputDir.
func (p *Packager) IndexPath(outputDir string) string {
	return filepath.Join(outputDir, p.cfg.IndexName)
}

// Pack hashes the build tree layered under the override tree, compares it
// with the manifest and, when anything changed, writes the next patch
// archive, appends it to the index and then persists the new manifest.
func (p *Packager) Pack(ctx context.Context, req Request) (*Result, error) {
	log := p.logger.With(zap.String("env", req.Env))

	prev, err := LoadManifest(req.ManifestPath)
	if err != nil {
		return nil, err
	}
	indexPath := p.IndexPath(req.OutputDir)
	idx, _, err := LoadIndex(indexPath)
	if err != nil {
		return nil, err
	}

	files, err := collect(req.BuildDir, req.OverrideDir)
	if err != nil {
		return nil, err
	}
	sources, err := hashAll(ctx, files, p.cfg.Workers)
	if err != nil {
		return nil, err
	}
	current := make(map[string]string, len(sources))
	for rel, s := range sources {
		current[rel] = s.Hash
	}

	changed, removed := prev.Diff(current)
	if removed > 0 {
		log.Warn("Files removed since last manifest are not expressible in a patch",
			zap.Int("removed", removed))
	}
	if len(changed) == 0 {
		log.Info("No changes to package", zap.Int("version", prev.Version), zap.Int("files", len(current)))
		return &Result{NoChanges: true, Version: prev.Version, Total: len(current), Removed: removed}, nil
	}

	version := max(prev.Version, idx.LatestVersion) + 1
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	entries := make([]source, 0, len(changed))
	for _, rel := range changed {
		entries = append(entries, sources[rel])
	}
	name := p.ArchiveName(version)
	archivePath := filepath.Join(req.OutputDir, name)
	if err := writeArchive(ctx, archivePath, entries); err != nil {
		return nil, err
	}
	sum, size, err := hashFile(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to hash archive: %w", err)
	}

	entry := Entry{
		Version:   version,
		URL:       archiveURL(req.BaseURL, name),
		SHA256:    sum,
		FileCount: len(changed),
		SizeBytes: size,
	}
	idx.Append(entry)
	if err := idx.Save(indexPath); err != nil {
		return nil, fmt.Errorf("failed to save patch index: %w", err)
	}

	next := &Manifest{Version: version, Files: current}
	if err := next.Save(req.ManifestPath); err != nil {
		return nil, fmt.Errorf("failed to save manifest: %w", err)
	}

	log.Info("Patch packaged",
		zap.Int("version", version),
		zap.Int("changed", len(changed)),
		zap.Int("files", len(current)),
		zap.String("size", humanize.Bytes(uint64(size))),
		zap.String("sha256", sum))

	return &Result{
		Version:     version,
		Total:       len(current),
		Changed:     changed,
		Removed:     removed,
		ArchivePath: archivePath,
		Entry:       &entry,
	}, nil
}

// Baseline writes a version 0 manifest describing sourceDir, so the first
// pack only ships what differs from the installed client.
func (p *Packager) Baseline(ctx context.Context, sourceDir, manifestPath string) (*Manifest, error) {
	sums, err := HashTree(ctx, p.cfg.Workers, sourceDir)
	if err != nil {
		return nil, err
	}
	m := &Manifest{Version: 0, Files: sums}
	if err := m.Save(manifestPath); err != nil {
		return nil, fmt.Errorf("failed to save baseline manifest: %w", err)
	}
	p.logger.Info("Baseline manifest written", zap.String("path", manifestPath), zap.Int("files", len(sums)))
	return m, nil
}

func archiveURL(base, name string) string {
	if base == "" {
		return name
	}
	return strings.TrimRight(base, "/") + "/" + name
}
