// Package publish mirrors a patch output directory to an object-store bucket.
//
// Archives already present in the bucket are skipped. The patch index is
// uploaded last and refused when the bucket holds a newer index than the
// local one.
package publish
