package envmerge

import (
	"errors"
	"fmt"

	"table-manager/core/table"
)

var (
	// ErrUnknownColumn means a join column or a column named in metadata does
	// not exist.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrUnknownEnvironment means no merge metadata exists for an environment.
	ErrUnknownEnvironment = errors.New("unknown environment")
	// ErrAlreadyMerged means the source is itself a merged table, or the
	// source environment is already part of the target.
	ErrAlreadyMerged = errors.New("environment already merged")
)

// ConflictPolicy decides what happens to source values that disagree with
// the target in a shared column.
type ConflictPolicy string

const (
	// PolicyKeepTarget keeps the target value and only reports the conflict.
	PolicyKeepTarget ConflictPolicy = "target"
	// PolicySplit also keeps the source value in a Name__<env> column.
	PolicySplit ConflictPolicy = "split"
)

// ParsePolicy validates a policy name. Empty means PolicyKeepTarget.
func ParsePolicy(s string) (ConflictPolicy, error) {
	switch ConflictPolicy(s) {
	case "", PolicyKeepTarget:
		return PolicyKeepTarget, nil
	case PolicySplit:
		return PolicySplit, nil
	}
	return "", fmt.Errorf("unknown conflict policy %q", s)
}

// JoinClause names the column used to pair rows on each side.
type JoinClause struct {
	TargetColumn string
	SourceColumn string
}

// JoinOn returns a clause using the same column name on both sides.
func JoinOn(column string) JoinClause {
	return JoinClause{TargetColumn: column, SourceColumn: column}
}

// Options configures one Merge.
type Options struct {
	Join JoinClause
	// SourceEnv identifies the environment the source table came from.
	SourceEnv string
	// TargetEnv identifies the target when it has not been merged before.
	// Ignored when the target already carries environment metadata.
	TargetEnv string
	Policy    ConflictPolicy
}

// Conflict is a matched row whose shared column differs between sides.
type Conflict struct {
	JoinKey string
	Column  string
	Target  table.Value
	Source  table.Value
}

// WarningKind classifies merge warnings.
type WarningKind string

const WarningDuplicateJoinKey WarningKind = "duplicateJoinKey"

// Warning is a non-fatal observation made during a merge.
type Warning struct {
	Kind    WarningKind
	JoinKey string
	// Count is how many source rows share the key.
	Count int
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: key %q occurs %d times in source", w.Kind, w.JoinKey, w.Count)
}

// Result is the outcome of a Merge.
type Result struct {
	Table        *table.File
	Conflicts    []Conflict
	Warnings     []Warning
	Environments map[string]*table.EnvMergeMetadata
}

// SplitName returns the column name used for env's copy of column name.
func SplitName(name, env string) string {
	return name + "__" + env
}
