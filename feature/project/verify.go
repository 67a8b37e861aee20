package project

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"table-manager/core/codec"
	"table-manager/core/envmerge"
	"table-manager/core/reconcile"
)

// Verify reconciles env's view of the table store against its import and
// build trees. Every table should be present in all three with the same
// record count, column count and file tag.
func Verify(ctx context.Context, p *Project, store Store, envName string) (*reconcile.Report, error) {
	env, err := p.Env(envName)
	if err != nil {
		return nil, err
	}
	return reconcile.Reconcile(ctx,
		storeSource(store, env.Name),
		treeSource("import", env.ImportDir, p.Extension),
		treeSource("build", env.BuildDir, p.Extension),
	)
}

// storeSource indexes env's split view of every stored table.
func storeSource(store Store, env string) reconcile.Source {
	return reconcile.SourceFunc{Label: "store", Fn: func(ctx context.Context) (map[string]reconcile.Item, error) {
		list, err := store.List(ctx)
		if err != nil {
			return nil, err
		}
		idx := map[string]reconcile.Item{}
		for _, s := range list {
			if !slices.Contains(s.Environments, env) {
				continue
			}
			merged, err := store.Load(ctx, s.Name)
			if err != nil {
				return nil, err
			}
			view, err := envmerge.Split(merged, env, nil)
			if err != nil {
				return nil, err
			}
			idx[s.Name] = reconcile.Item{
				Records: len(view.Rows),
				Attrs: map[string]string{
					"columns": strconv.Itoa(len(view.Columns)),
					"tag":     strconv.FormatUint(uint64(view.Metadata.Format.Tag), 10),
				},
			}
		}
		return idx, nil
	}}
}

// treeSource indexes the table files under dir by peeking their headers.
// A missing directory is an empty index.
func treeSource(label, dir, ext string) reconcile.Source {
	return reconcile.SourceFunc{Label: label, Fn: func(ctx context.Context) (map[string]reconcile.Item, error) {
		idx := map[string]reconcile.Item{}
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			return idx, nil
		}
		paths, err := tableFiles(dir, ext)
		if err != nil {
			return nil, err
		}
		for _, path := range paths {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			idx[name] = peekItem(path)
		}
		return idx, nil
	}}
}

func peekItem(path string) reconcile.Item {
	f, err := os.Open(path)
	if err != nil {
		return reconcile.Item{Records: -1, Attrs: map[string]string{"readable": "false"}}
	}
	defer f.Close()

	h, err := codec.PeekHeader(f)
	if err != nil {
		return reconcile.Item{Records: -1, Attrs: map[string]string{"readable": "false"}}
	}
	return reconcile.Item{
		Records: h.Records,
		Attrs: map[string]string{
			"columns": strconv.Itoa(h.Columns),
			"tag":     strconv.FormatUint(uint64(h.Tag), 10),
		},
	}
}
