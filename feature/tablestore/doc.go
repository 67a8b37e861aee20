// Package tablestore persists merged tables in a relational database.
//
// Import writes one row per table; build reads them back. The payload keeps
// the tagged value encoding so integers, floats and strings survive the
// round trip without coercion.
package tablestore
