// Package table defines the in-memory tabular model shared by the codec, the
// environment merge engine and the build pipeline.
//
// # Values
//
// Cells are Value instances, a closed tagged union of null, signed integer,
// unsigned integer, float and string. Rows map a column name to its Value; a
// missing key reads as null.
//
// # Visibility
//
// Columns and rows of a merged table carry a Visibility: Shared (present in
// every merged environment) or RestrictedTo a set of environment identifiers.
// A File whose RowVisibility slice is nil has never been merged.
//
// # Metadata
//
// Metadata holds the fields the pipeline consumes (format header, source
// directory, per-environment merge metadata). Anything else that must survive
// a round trip goes to Metadata.Extra.
package table
