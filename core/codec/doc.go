// Package codec reads and writes the legacy binary table format.
//
// # File Layout
//
//	[32-byte opaque header][int32 cipheredLength+36][ciphered payload]
//
// The payload, once decrypted with package cipher, holds a file tag, the
// record count, the default record length and the column count, followed by
// one 56-byte descriptor per column (48-byte name, type code, byte length) and
// then the rows. Each row starts with its own 2-byte length.
//
// # Type Codes
//
// Each on-disk type code maps to a field kind in a dispatch table. Exactly one
// kind, code 26, is a variable-length null-terminated string whose extent is
// derived from the row length. Unknown codes are fatal: every later offset
// depends on consuming the stream correctly.
//
// # Round Trip
//
// Decode keeps the header, the file tag and any bytes after the last row in
// the table's format metadata so that Encode reproduces an unmodified file byte for
// byte. Encode requires every column to carry its source type code.
package codec
