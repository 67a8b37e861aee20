package project

import (
	"context"
	"fmt"
	"path/filepath"

	"table-manager/core/envmerge"
	"table-manager/core/table"
	"table-manager/core/utils"

	"go.uber.org/zap"
)

// BuildSummary reports what a build run wrote.
type BuildSummary struct {
	Files int
	Bytes int64
	// PerEnv counts written files by environment.
	PerEnv map[string]int
}

// Builder splits stored tables back into per-environment binary files.
type Builder struct {
	project *Project
	store   Store
	logger  *zap.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(p *Project, store Store, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{project: p, store: store, logger: logger}
}

// Build writes every stored table for each environment it was imported
// from. A non-empty only restricts the build to that environment.
func (b *Builder) Build(ctx context.Context, only string) (*BuildSummary, error) {
	if only != "" {
		if _, err := b.project.Env(only); err != nil {
			return nil, err
		}
	}
	tables, err := b.store.List(ctx)
	if err != nil {
		return nil, err
	}

	sum := &BuildSummary{PerEnv: map[string]int{}}
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		merged, err := b.store.Load(ctx, t.Name)
		if err != nil {
			return nil, err
		}
		for _, envName := range merged.EnvironmentNames() {
			if only != "" && envName != only {
				continue
			}
			env, err := b.project.Env(envName)
			if err != nil {
				b.logger.Warn("Stored table references undeclared environment",
					zap.String("table", t.Name), zap.String("env", envName))
				continue
			}
			n, err := b.buildOne(merged, env)
			if err != nil {
				return nil, fmt.Errorf("failed to build %s for %s: %w", t.Name, envName, err)
			}
			sum.Files++
			sum.Bytes += n
			sum.PerEnv[envName]++
		}
	}

	b.logger.Info("Build finished", zap.Int("files", sum.Files), zap.Int64("bytes", sum.Bytes))
	return sum, nil
}

func (b *Builder) buildOne(merged *table.File, env *Environment) (int64, error) {
	view, err := envmerge.Split(merged, env.Name, nil)
	if err != nil {
		return 0, err
	}
	c, err := env.Codec()
	if err != nil {
		return 0, err
	}
	data, err := c.Encode(view)
	if err != nil {
		return 0, err
	}
	path := filepath.Join(env.BuildDir, filepath.FromSlash(view.Metadata.RelativeDirectory), view.TableName+b.project.Extension)
	if err := utils.WriteFileAtomic(path, data, 0o644); err != nil {
		return 0, err
	}
	b.logger.Debug("Table built", zap.String("env", env.Name), zap.String("path", path))
	return int64(len(data)), nil
}
