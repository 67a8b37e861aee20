package reconcile

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Reconcile loads every source concurrently, builds the union of keys and
// returns one result per key indicating presence and mismatches.
func Reconcile(ctx context.Context, sources ...Source) (*Report, error) {
	indices := make([]map[string]Item, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			idx, err := src.Load(gctx)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", src.Name(), err)
			}
			indices[i] = idx
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := make([]string, len(sources))
	for i, src := range sources {
		names[i] = src.Name()
	}

	union := buildUnion(indices)
	report := &Report{
		Sources: names,
		Results: make([]Result, 0, len(union)),
		Summary: Summary{Total: len(union), Missing: map[string]int{}},
	}
	for _, key := range union {
		res := buildResult(key, names, indices)
		for _, name := range res.Missing(names) {
			report.Summary.Missing[name]++
		}
		if len(res.Mismatch) > 0 {
			report.Summary.Mismatches++
		}
		report.Results = append(report.Results, res)
	}
	return report, nil
}

// buildUnion returns the sorted union of all keys.
func buildUnion(indices []map[string]Item) []string {
	seen := make(map[string]struct{})
	for _, idx := range indices {
		for key := range idx {
			seen[key] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// buildResult creates a Result for a single key.
func buildResult(key string, names []string, indices []map[string]Item) Result {
	res := Result{Key: key, Present: make(map[string]bool, len(names)), Mismatch: []string{}}

	var have []int
	for i, idx := range indices {
		_, ok := idx[key]
		res.Present[names[i]] = ok
		if ok {
			have = append(have, i)
		}
	}
	if len(have) < 2 {
		return res
	}

	if m := compareRecords(key, names, indices, have); m != "" {
		res.Mismatch = append(res.Mismatch, m)
	}
	res.Mismatch = append(res.Mismatch, compareAttrs(key, names, indices, have)...)
	return res
}

func compareRecords(key string, names []string, indices []map[string]Item, have []int) string {
	first := -1
	differs := false
	desc := ""
	for _, i := range have {
		n := indices[i][key].Records
		if n < 0 {
			continue
		}
		if first < 0 {
			first = n
		} else if n != first {
			differs = true
		}
		desc += fmt.Sprintf(" %s=%d", names[i], n)
	}
	if !differs {
		return ""
	}
	return "records:" + desc
}

func compareAttrs(key string, names []string, indices []map[string]Item, have []int) []string {
	attrs := map[string]struct{}{}
	for _, i := range have {
		for a := range indices[i][key].Attrs {
			attrs[a] = struct{}{}
		}
	}
	sorted := make([]string, 0, len(attrs))
	for a := range attrs {
		sorted = append(sorted, a)
	}
	sort.Strings(sorted)

	var out []string
	for _, a := range sorted {
		var first *string
		differs := false
		desc := ""
		for _, i := range have {
			v, ok := indices[i][key].Attrs[a]
			if !ok {
				continue
			}
			if first == nil {
				first = &v
			} else if v != *first {
				differs = true
			}
			desc += fmt.Sprintf(" %s=%s", names[i], v)
		}
		if differs {
			out = append(out, a+":"+desc)
		}
	}
	return out
}
