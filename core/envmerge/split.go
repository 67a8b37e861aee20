package envmerge

import (
	"fmt"
	"maps"

	"table-manager/core/table"
)

// Split recovers env's standalone table from a merged table. When meta is nil
// the metadata stored in the merged table is used. The result carries no
// merge metadata and no row visibility.
func Split(merged *table.File, env string, meta *table.EnvMergeMetadata) (*table.File, error) {
	if meta == nil {
		meta = merged.Metadata.Environments[env]
		if meta == nil {
			return nil, fmt.Errorf("split %s: environment %s: %w", merged.TableName, env, ErrUnknownEnvironment)
		}
	}

	index := make(map[string]int, len(merged.Columns))
	for i, c := range merged.Columns {
		index[c.Name] = i
	}

	type mapping struct{ from, to string }
	var (
		columns  []table.Column
		mappings []mapping
	)
	for _, name := range meta.ColumnOrder {
		pos, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("split %s: environment %s column %q: %w", merged.TableName, env, name, ErrUnknownColumn)
		}
		src := merged.Columns[pos]
		if !src.Visibility.Includes(env) {
			continue
		}

		c := src.Clone()
		c.Visibility = table.Shared()
		if original, ok := meta.ColumnRenames[name]; ok {
			c.Name = original
		}
		if o, ok := meta.ColumnOverrides[name]; ok {
			if o.Length != nil {
				c.Length = *o.Length
			}
			if o.SourceTypeCode != nil {
				c.SourceTypeCode = table.TypeCode(*o.SourceTypeCode)
			}
		}
		columns = append(columns, c)
		mappings = append(mappings, mapping{from: name, to: c.Name})
	}

	rows := make([]table.Row, 0, len(merged.Rows))
	for i, row := range merged.Rows {
		if !merged.RowVisible(i, env) {
			continue
		}
		out := make(table.Row, len(mappings))
		for _, m := range mappings {
			if v, ok := row[m.from]; ok {
				out[m.to] = v
			}
		}
		rows = append(rows, out)
	}

	return &table.File{
		TableName:      merged.TableName,
		SourceFormatID: merged.SourceFormatID,
		Metadata: table.Metadata{
			Format:            meta.Format.Clone(),
			RelativeDirectory: meta.SourceRelativeDirectory,
			Extra:             maps.Clone(merged.Metadata.Extra),
		},
		Columns: columns,
		Rows:    rows,
	}, nil
}
