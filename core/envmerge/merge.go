package envmerge

import (
	"fmt"
	"maps"
	"strconv"

	"table-manager/core/table"
)

type originKind uint8

const (
	fromBoth originKind = iota
	fromTarget
	fromSource
)

// origin records where a merged row came from, for conflict backfill.
type origin struct {
	kind   originKind
	source int
}

// columnPlan is the outcome of column reconciliation.
type columnPlan struct {
	columns []table.Column
	// sourceNames maps a source column name to its merged column name.
	sourceNames map[string]string
	shared      map[string]bool
	// prior is the visibility a shared column had before this merge.
	prior     map[string]table.Visibility
	order     []string
	overrides map[string]table.ColumnOverride
	renames   map[string]string
}

// Seed turns a freshly imported table into a single-environment merged table.
func Seed(f *table.File, env string) *table.File {
	out := cloneFile(f)
	out.Metadata.Environments = map[string]*table.EnvMergeMetadata{
		env: {
			ColumnOrder:             f.ColumnNames(),
			SourceRelativeDirectory: f.Metadata.RelativeDirectory,
			Format:                  f.Metadata.Format.Clone(),
		},
	}
	return out
}

// Merge folds source, taken from opts.SourceEnv, into target. Neither input is
// modified.
func Merge(target, source *table.File, opts Options) (*Result, error) {
	env := opts.SourceEnv
	if env == "" {
		return nil, fmt.Errorf("merge %s: source environment is required", target.TableName)
	}
	if source.IsMerged() {
		return nil, fmt.Errorf("merge %s: source table: %w", target.TableName, ErrAlreadyMerged)
	}
	if _, ok := target.Metadata.Environments[env]; ok {
		return nil, fmt.Errorf("merge %s: environment %s: %w", target.TableName, env, ErrAlreadyMerged)
	}
	join := opts.Join
	if join.SourceColumn == "" {
		join.SourceColumn = join.TargetColumn
	}
	if _, ok := target.Column(join.TargetColumn); !ok {
		return nil, fmt.Errorf("merge %s: target join column %q: %w", target.TableName, join.TargetColumn, ErrUnknownColumn)
	}
	if _, ok := source.Column(join.SourceColumn); !ok {
		return nil, fmt.Errorf("merge %s: source join column %q: %w", target.TableName, join.SourceColumn, ErrUnknownColumn)
	}

	targetEnvs := target.EnvironmentNames()
	if len(targetEnvs) == 0 && opts.TargetEnv != "" {
		targetEnvs = []string{opts.TargetEnv}
	}
	targetVis := table.RestrictedTo(targetEnvs...)

	plan := planColumns(target, source, env, targetVis)

	res := &Result{}
	rows, vis, origins := mergeRows(target, source, join, env, targetVis, plan, res)

	if opts.Policy == PolicySplit && len(res.Conflicts) > 0 {
		splitConflicts(source, env, plan, rows, origins, res.Conflicts)
	}

	envs := make(map[string]*table.EnvMergeMetadata, len(target.Metadata.Environments)+1)
	for name, m := range target.Metadata.Environments {
		envs[name] = m.Clone()
	}
	if len(envs) == 0 && opts.TargetEnv != "" {
		envs[opts.TargetEnv] = &table.EnvMergeMetadata{
			ColumnOrder:             target.ColumnNames(),
			SourceRelativeDirectory: target.Metadata.RelativeDirectory,
			Format:                  target.Metadata.Format.Clone(),
		}
	}
	envs[env] = &table.EnvMergeMetadata{
		ColumnOrder:             plan.order,
		ColumnOverrides:         nilIfEmpty(plan.overrides),
		ColumnRenames:           nilIfEmpty(plan.renames),
		SourceRelativeDirectory: source.Metadata.RelativeDirectory,
		Format:                  source.Metadata.Format.Clone(),
	}

	res.Table = &table.File{
		TableName:      target.TableName,
		SourceFormatID: target.SourceFormatID,
		Metadata: table.Metadata{
			Format:            target.Metadata.Format.Clone(),
			RelativeDirectory: target.Metadata.RelativeDirectory,
			Environments:      envs,
			Extra:             maps.Clone(target.Metadata.Extra),
		},
		Columns:       plan.columns,
		Rows:          rows,
		RowVisibility: vis,
	}
	res.Environments = envs
	return res, nil
}

func planColumns(target, source *table.File, env string, targetVis table.Visibility) *columnPlan {
	p := &columnPlan{
		sourceNames: make(map[string]string, len(source.Columns)),
		shared:      make(map[string]bool),
		prior:       make(map[string]table.Visibility),
		overrides:   make(map[string]table.ColumnOverride),
		renames:     make(map[string]string),
	}
	index := make(map[string]int, len(target.Columns)+len(source.Columns))
	for _, c := range target.Columns {
		index[c.Name] = len(p.columns)
		p.columns = append(p.columns, c.Clone())
	}
	targetCount := len(p.columns)

	for _, s := range source.Columns {
		pos, exists := index[s.Name]
		switch {
		case exists && p.columns[pos].Type == s.Type:
			t := &p.columns[pos]
			p.shared[s.Name] = true
			p.prior[s.Name] = t.Visibility
			p.sourceNames[s.Name] = s.Name
			t.Visibility = t.Visibility.With(env)
			if !t.SameLayout(s) {
				p.overrides[s.Name] = layoutOverride(*t, s)
			}
			p.order = append(p.order, s.Name)
		case exists:
			name := uniqueName(SplitName(s.Name, env), index)
			c := s.Clone()
			c.Name = name
			c.Visibility = table.RestrictedTo(env)
			index[name] = len(p.columns)
			p.columns = append(p.columns, c)
			p.sourceNames[s.Name] = name
			p.renames[name] = s.Name
			p.order = append(p.order, name)
		default:
			c := s.Clone()
			c.Visibility = table.RestrictedTo(env)
			index[s.Name] = len(p.columns)
			p.columns = append(p.columns, c)
			p.sourceNames[s.Name] = s.Name
			p.order = append(p.order, s.Name)
		}
	}

	for i := 0; i < targetCount; i++ {
		c := &p.columns[i]
		if !p.shared[c.Name] && c.Visibility.IsShared() {
			c.Visibility = targetVis
		}
	}
	return p
}

func layoutOverride(merged, source table.Column) table.ColumnOverride {
	var o table.ColumnOverride
	if merged.Length != source.Length {
		l := source.Length
		o.Length = &l
	}
	if source.SourceTypeCode != nil && (merged.SourceTypeCode == nil || *merged.SourceTypeCode != *source.SourceTypeCode) {
		o.SourceTypeCode = table.TypeCode(*source.SourceTypeCode)
	}
	return o
}

func mergeRows(target, source *table.File, join JoinClause, env string, targetVis table.Visibility, plan *columnPlan, res *Result) ([]table.Row, []table.Visibility, []origin) {
	queue := make(map[string][]int)
	var keyOrder []string
	for i, row := range source.Rows {
		key := row.Get(join.SourceColumn).String()
		if _, seen := queue[key]; !seen {
			keyOrder = append(keyOrder, key)
		}
		queue[key] = append(queue[key], i)
	}
	for _, key := range keyOrder {
		if n := len(queue[key]); n > 1 {
			res.Warnings = append(res.Warnings, Warning{Kind: WarningDuplicateJoinKey, JoinKey: key, Count: n})
		}
	}

	total := len(target.Rows) + len(source.Rows)
	rows := make([]table.Row, 0, total)
	vis := make([]table.Visibility, 0, total)
	origins := make([]origin, 0, total)
	consumed := make([]bool, len(source.Rows))

	for ti, trow := range target.Rows {
		prev := table.Shared()
		if target.RowVisibility != nil {
			prev = target.RowVisibility[ti]
		}
		key := trow.Get(join.TargetColumn).String()
		q := queue[key]
		if len(q) == 0 {
			if prev.IsShared() {
				prev = targetVis
			}
			rows = append(rows, trow.Clone())
			vis = append(vis, prev)
			origins = append(origins, origin{kind: fromTarget})
			continue
		}

		si := q[0]
		queue[key] = q[1:]
		consumed[si] = true
		srow := source.Rows[si]
		row := trow.Clone()
		for _, sc := range source.Columns {
			merged := plan.sourceNames[sc.Name]
			sv := srow.Get(sc.Name)
			// A column the target row's environments never saw holds no
			// value to compare against.
			if plan.shared[merged] && plan.prior[merged].Overlaps(prev) {
				if tv := trow.Get(merged); !tv.Equal(sv) {
					res.Conflicts = append(res.Conflicts, Conflict{JoinKey: key, Column: merged, Target: tv, Source: sv})
				}
				continue
			}
			setValue(row, merged, sv)
		}
		rows = append(rows, row)
		vis = append(vis, prev.With(env))
		origins = append(origins, origin{kind: fromBoth, source: si})
	}

	for si, srow := range source.Rows {
		if consumed[si] {
			continue
		}
		row := make(table.Row, len(source.Columns))
		for _, sc := range source.Columns {
			setValue(row, plan.sourceNames[sc.Name], srow.Get(sc.Name))
		}
		rows = append(rows, row)
		vis = append(vis, table.RestrictedTo(env))
		origins = append(origins, origin{kind: fromSource, source: si})
	}
	return rows, vis, origins
}

// splitConflicts adds a source copy of every column that had a value conflict
// and points the source environment at it.
func splitConflicts(source *table.File, env string, plan *columnPlan, rows []table.Row, origins []origin, conflicts []Conflict) {
	conflicted := make(map[string]bool)
	for _, c := range conflicts {
		conflicted[c.Column] = true
	}
	index := make(map[string]int, len(plan.columns))
	for i, c := range plan.columns {
		index[c.Name] = i
	}

	for _, sc := range source.Columns {
		if !conflicted[sc.Name] {
			continue
		}
		name := uniqueName(SplitName(sc.Name, env), index)
		c := sc.Clone()
		c.Name = name
		c.Visibility = table.RestrictedTo(env)
		index[name] = len(plan.columns)
		plan.columns = append(plan.columns, c)

		for i, o := range origins {
			switch o.kind {
			case fromBoth:
				setValue(rows[i], name, source.Rows[o.source].Get(sc.Name))
			case fromSource:
				setValue(rows[i], name, rows[i].Get(sc.Name))
			}
		}

		for i, n := range plan.order {
			if n == sc.Name {
				plan.order[i] = name
			}
		}
		plan.renames[name] = sc.Name
		delete(plan.overrides, sc.Name)
	}
}

func setValue(row table.Row, col string, v table.Value) {
	if v.IsNull() {
		delete(row, col)
		return
	}
	row[col] = v
}

func uniqueName(name string, taken map[string]int) string {
	if _, ok := taken[name]; !ok {
		return name
	}
	for n := 2; ; n++ {
		candidate := name + strconv.Itoa(n)
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
	}
}

func nilIfEmpty[V any](m map[string]V) map[string]V {
	if len(m) == 0 {
		return nil
	}
	return m
}

func cloneFile(f *table.File) *table.File {
	out := &table.File{
		TableName:      f.TableName,
		SourceFormatID: f.SourceFormatID,
		Metadata: table.Metadata{
			Format:            f.Metadata.Format.Clone(),
			RelativeDirectory: f.Metadata.RelativeDirectory,
			Extra:             maps.Clone(f.Metadata.Extra),
		},
		Columns: make([]table.Column, len(f.Columns)),
		Rows:    make([]table.Row, len(f.Rows)),
	}
	for i, c := range f.Columns {
		out.Columns[i] = c.Clone()
	}
	for i, r := range f.Rows {
		out.Rows[i] = r.Clone()
	}
	if f.RowVisibility != nil {
		out.RowVisibility = append([]table.Visibility(nil), f.RowVisibility...)
	}
	if f.Metadata.Environments != nil {
		out.Metadata.Environments = make(map[string]*table.EnvMergeMetadata, len(f.Metadata.Environments))
		for k, m := range f.Metadata.Environments {
			out.Metadata.Environments[k] = m.Clone()
		}
	}
	return out
}
