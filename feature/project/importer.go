package project

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"table-manager/core/envmerge"
	"table-manager/core/table"
	"table-manager/core/utils"

	"go.uber.org/zap"
)

// ImportSummary reports what an import run did.
type ImportSummary struct {
	Tables    int
	Files     int
	Conflicts int
	Warnings  int
	// Failed maps a table name to the error that excluded it.
	Failed map[string]error
}

// Importer decodes every environment's import tree, merges the copies of
// each table and saves the result.
type Importer struct {
	project *Project
	store   Store
	logger  *zap.Logger
}

// NewImporter creates an Importer.
func NewImporter(p *Project, store Store, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{project: p, store: store, logger: logger}
}

type envCopy struct {
	env  string
	file *table.File
}

// Import runs the import. A table that fails to decode or merge is skipped
// and reported in the summary; other tables are still imported.
func (im *Importer) Import(ctx context.Context) (*ImportSummary, error) {
	sum := &ImportSummary{Failed: map[string]error{}}
	copies := map[string][]envCopy{}

	for _, env := range im.project.Environments {
		n, err := im.decodeEnv(env, copies, sum)
		if err != nil {
			return nil, err
		}
		sum.Files += n
	}

	names := make([]string, 0, len(copies))
	for name := range copies {
		if _, failed := sum.Failed[name]; !failed {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		merged, err := im.mergeTable(name, copies[name], sum)
		if err != nil {
			im.logger.Error("Table merge failed", zap.String("table", name), zap.Error(err))
			sum.Failed[name] = err
			continue
		}
		if err := im.store.Save(ctx, merged); err != nil {
			return nil, err
		}
		sum.Tables++
	}

	im.logger.Info("Import finished",
		zap.Int("tables", sum.Tables),
		zap.Int("files", sum.Files),
		zap.Int("conflicts", sum.Conflicts),
		zap.Int("warnings", sum.Warnings),
		zap.Int("failed", len(sum.Failed)))
	return sum, nil
}

func (im *Importer) decodeEnv(env Environment, copies map[string][]envCopy, sum *ImportSummary) (int, error) {
	log := im.logger.With(zap.String("env", env.Name))
	if !utils.DirExists(env.ImportDir) {
		log.Warn("Import directory missing, environment skipped", zap.String("dir", env.ImportDir))
		return 0, nil
	}
	c, err := env.Codec()
	if err != nil {
		return 0, err
	}
	paths, err := tableFiles(env.ImportDir, im.project.Extension)
	if err != nil {
		return 0, fmt.Errorf("failed to scan %s: %w", env.ImportDir, err)
	}

	n := 0
	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if prev := copies[name]; len(prev) > 0 && prev[len(prev)-1].env == env.Name {
			log.Warn("Duplicate table name in environment, keeping first", zap.String("table", name), zap.String("path", path))
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return n, fmt.Errorf("failed to read %s: %w", path, err)
		}
		f, err := c.Decode(name, data)
		if err != nil {
			log.Error("Table decode failed", zap.String("path", path), zap.Error(err))
			sum.Failed[name] = err
			continue
		}
		rel, err := filepath.Rel(env.ImportDir, filepath.Dir(path))
		if err != nil {
			return n, err
		}
		if rel == "." {
			rel = ""
		}
		f.Metadata.RelativeDirectory = filepath.ToSlash(rel)
		copies[name] = append(copies[name], envCopy{env: env.Name, file: f})
		n++
	}
	log.Debug("Environment decoded", zap.Int("files", n))
	return n, nil
}

func (im *Importer) mergeTable(name string, copies []envCopy, sum *ImportSummary) (*table.File, error) {
	merged := envmerge.Seed(copies[0].file, copies[0].env)
	opts := envmerge.Options{
		Join:   im.project.JoinFor(name),
		Policy: im.project.PolicyFor(name),
	}
	for _, cp := range copies[1:] {
		opts.SourceEnv = cp.env
		res, err := envmerge.Merge(merged, cp.file, opts)
		if err != nil {
			return nil, err
		}
		for _, c := range res.Conflicts {
			im.logger.Debug("Value conflict",
				zap.String("table", name),
				zap.String("env", cp.env),
				zap.String("key", c.JoinKey),
				zap.String("column", c.Column),
				zap.Stringer("target", c.Target),
				zap.Stringer("source", c.Source))
		}
		for _, w := range res.Warnings {
			im.logger.Warn("Merge warning", zap.String("table", name), zap.String("env", cp.env), zap.Stringer("warning", w))
		}
		sum.Conflicts += len(res.Conflicts)
		sum.Warnings += len(res.Warnings)
		merged = res.Table
	}
	return merged, nil
}
