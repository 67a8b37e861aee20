// Package envmerge reconciles copies of one logical table taken from
// different build environments, and splits a merged table back into each
// environment's own view.
//
// # Merge
//
// Merge folds a source environment into a target table. Columns with the same
// name and semantic type are shared; a layout difference (width or type code)
// becomes a per-environment override. The same name with a different semantic
// type keeps the target column and adds Name__<env> for the source.
//
// Rows are paired on a join column in FIFO order. Target order is kept, rows
// only the source has are appended in source order. Shared columns keep the
// target's value; differing source values are reported as conflicts and, with
// PolicySplit, preserved in a suffixed column.
//
// # Split
//
// Split rebuilds one environment's table from the merged table and that
// environment's EnvMergeMetadata. For a merge without conflicts, Split of each
// environment returns exactly the columns, order and rows that went in.
//
// # Usage
//
//	merged := envmerge.Seed(serverTable, "server")
//	res, err := envmerge.Merge(merged, clientTable, envmerge.Options{
//	    Join:      envmerge.JoinOn("ID"),
//	    SourceEnv: "client",
//	    Policy:    envmerge.PolicySplit,
//	})
//	clientView, err := envmerge.Split(res.Table, "client", nil)
package envmerge
