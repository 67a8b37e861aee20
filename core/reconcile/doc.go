// Package reconcile compares several sources of truth about the same set of
// entities and reports which source lacks an entity and where the sources
// disagree.
//
// Each Source loads its full index once; indices are built concurrently and
// the engine works on the in-memory union of keys, so no source is queried
// per entity.
//
// # Usage Example
//
//	report, err := reconcile.Reconcile(ctx, storeSource, importSource, buildSource)
//	for _, r := range report.Problems() {
//	    fmt.Println(r.Key, r.Missing(report.Sources), r.Mismatch)
//	}
package reconcile
