// Package snapshot rebuilds the full client file tree from the baseline
// import tree plus every published patch archive.
package snapshot
