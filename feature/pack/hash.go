package pack

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"
)

// source is one distributable file resolved from the layered roots.
type source struct {
	Rel  string
	Path string
	Hash string
	Size int64
}

// collect walks roots in order and maps every regular file's forward-slash
// relative path to its absolute path. Later roots replace earlier ones, so
// overrides are passed last. Missing roots are skipped.
func collect(roots ...string) (map[string]string, error) {
	files := map[string]string{}
	for _, root := range roots {
		if root == "" {
			continue
		}
		if _, err := os.Stat(root); os.IsNotExist(err) {
			continue
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.Type().IsRegular() {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			files[filepath.ToSlash(rel)] = path
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to walk %s: %w", root, err)
		}
	}
	return files, nil
}

// hashAll computes the SHA-256 of every file with at most workers
// concurrent readers.
func hashAll(ctx context.Context, files map[string]string, workers int) (map[string]source, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	out := make(map[string]source, len(files))

	for rel, path := range files {
		rel, path := rel, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sum, size, err := hashFile(path)
			if err != nil {
				return fmt.Errorf("failed to hash %s: %w", rel, err)
			}
			mu.Lock()
			out[rel] = source{Rel: rel, Path: path, Hash: sum, Size: size}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// hashFile returns the lowercase hex SHA-256 and size of the file at path.
func hashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// HashTree hashes the layered roots and returns path -> hash.
func HashTree(ctx context.Context, workers int, roots ...string) (map[string]string, error) {
	files, err := collect(roots...)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = 1
	}
	sources, err := hashAll(ctx, files, workers)
	if err != nil {
		return nil, err
	}
	sums := make(map[string]string, len(sources))
	for rel, s := range sources {
		sums[rel] = s.Hash
	}
	return sums, nil
}
