package reconcile

import "context"

// Item is one entity as seen by a single source.
type Item struct {
	// Records is the entity's record count, or -1 when the source cannot tell.
	Records int `json:"records"`
	// Attrs holds source-specific descriptive fields compared across sources.
	Attrs map[string]string `json:"attrs,omitempty"`
}

// Source loads the full index of one side of a reconciliation.
type Source interface {
	// Name labels the source in results (e.g. "store", "build").
	Name() string
	// Load returns every entity the source knows, keyed by entity key.
	Load(ctx context.Context) (map[string]Item, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc struct {
	Label string
	Fn    func(ctx context.Context) (map[string]Item, error)
}

func (s SourceFunc) Name() string { return s.Label }

func (s SourceFunc) Load(ctx context.Context) (map[string]Item, error) { return s.Fn(ctx) }

// Result is the reconciliation output for a single entity.
type Result struct {
	// Key is the entity key shared by all sources.
	Key string `json:"key"`
	// Present maps a source name to whether it has the entity.
	Present map[string]bool `json:"present"`
	// Mismatch describes disagreements between sources that have the entity,
	// e.g. "records: store=3 build=2".
	Mismatch []string `json:"mismatch"`
}

// Missing returns the sources, in reconciliation order, lacking the entity.
func (r Result) Missing(order []string) []string {
	var out []string
	for _, name := range order {
		if !r.Present[name] {
			out = append(out, name)
		}
	}
	return out
}

// OK reports whether every source has the entity and all agree.
func (r Result) OK() bool {
	for _, p := range r.Present {
		if !p {
			return false
		}
	}
	return len(r.Mismatch) == 0
}

// Summary provides aggregate counts for a report.
type Summary struct {
	// Total is the number of unique entities.
	Total int `json:"total"`
	// Missing counts entities absent from each source.
	Missing map[string]int `json:"missing"`
	// Mismatches counts entities with field discrepancies.
	Mismatches int `json:"mismatches"`
}

// Report is the outcome of a reconciliation.
type Report struct {
	// Sources lists source names in the order they were given.
	Sources []string `json:"sources"`
	Results []Result `json:"results"`
	Summary Summary  `json:"summary"`
}

// Problems returns the results that are not OK.
func (r *Report) Problems() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.OK() {
			out = append(out, res)
		}
	}
	return out
}
