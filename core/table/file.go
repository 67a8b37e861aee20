package table

import (
	"bytes"
	"maps"
)

// Row maps a column name to its value.
type Row map[string]Value

// Get returns the value for col, null if absent.
func (r Row) Get(col string) Value { return r[col] }

// Clone returns a shallow copy; values are immutable so this is a full copy.
func (r Row) Clone() Row { return maps.Clone(r) }

// FormatMetadata is codec round-trip data for one environment's file.
type FormatMetadata struct {
	// Header is the opaque block preceding the ciphered payload.
	Header []byte `json:"header,omitempty"`
	// Tag is the 4-byte file tag at the start of the payload.
	Tag uint32 `json:"tag"`
	// Trailer is any payload data found after the last row.
	Trailer []byte `json:"trailer,omitempty"`
}

// Clone returns a deep copy.
func (m FormatMetadata) Clone() FormatMetadata {
	return FormatMetadata{
		Header:  bytes.Clone(m.Header),
		Tag:     m.Tag,
		Trailer: bytes.Clone(m.Trailer),
	}
}

// ColumnOverride records the layout one environment uses for a column that is
// type-identical but layout-different from the merged definition.
type ColumnOverride struct {
	Length         *int    `json:"length,omitempty"`
	SourceTypeCode *uint32 `json:"sourceTypeCode,omitempty"`
}

// EnvMergeMetadata is everything needed to rebuild one environment's view.
type EnvMergeMetadata struct {
	ColumnOrder             []string                  `json:"columnOrder"`
	ColumnOverrides         map[string]ColumnOverride `json:"columnOverrides,omitempty"`
	ColumnRenames           map[string]string         `json:"columnRenames,omitempty"`
	SourceRelativeDirectory string                    `json:"sourceRelativeDirectory"`
	Format                  FormatMetadata            `json:"formatMetadata"`
}

// Clone returns a deep copy.
func (m *EnvMergeMetadata) Clone() *EnvMergeMetadata {
	if m == nil {
		return nil
	}
	out := &EnvMergeMetadata{
		ColumnOrder:             append([]string(nil), m.ColumnOrder...),
		ColumnOverrides:         maps.Clone(m.ColumnOverrides),
		ColumnRenames:           maps.Clone(m.ColumnRenames),
		SourceRelativeDirectory: m.SourceRelativeDirectory,
		Format:                  m.Format.Clone(),
	}
	return out
}

// Metadata carries per-file data that is not part of the rows.
type Metadata struct {
	Format FormatMetadata `json:"format"`
	// RelativeDirectory is the directory of the source file relative to its
	// environment's import root.
	RelativeDirectory string `json:"relativeDirectory,omitempty"`
	// Environments is set on merged tables only.
	Environments map[string]*EnvMergeMetadata `json:"environments,omitempty"`
	// Extra holds opaque round-trip blobs nothing in the pipeline reads.
	Extra map[string]string `json:"extra,omitempty"`
}

// File is one table: schema, rows and optional row visibility.
type File struct {
	TableName      string   `json:"tableName"`
	SourceFormatID string   `json:"sourceFormatId"`
	Metadata       Metadata `json:"metadata"`
	Columns        []Column `json:"columns"`
	Rows           []Row    `json:"rows"`
	// RowVisibility is parallel to Rows when the table has been merged, nil
	// otherwise.
	RowVisibility []Visibility `json:"rowVisibility,omitempty"`
}

// Column returns the column named name.
func (f *File) Column(name string) (Column, bool) {
	for _, c := range f.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the names of all columns in order.
func (f *File) ColumnNames() []string {
	out := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		out[i] = c.Name
	}
	return out
}

// IsMerged reports whether the file carries per-environment merge metadata.
func (f *File) IsMerged() bool { return len(f.Metadata.Environments) > 0 }

// RowVisible reports whether row i is part of env's view.
func (f *File) RowVisible(i int, env string) bool {
	if f.RowVisibility == nil {
		return true
	}
	return f.RowVisibility[i].Includes(env)
}

// EnvironmentNames returns the environments recorded in the metadata, sorted.
func (f *File) EnvironmentNames() []string {
	return sortedKeys(f.Metadata.Environments)
}
