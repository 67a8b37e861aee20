// Package cipher implements the position-keyed XOR stream transform used by
// the legacy binary table files.
//
// The transform walks the window from its last byte to its first. The key for
// each step depends only on the byte position and the previous key, never on
// the data, so applying the transform twice restores the input and the key for
// any position can be computed without touching the payload.
//
// # Usage
//
//	cipher.Transform(buf, 0, len(buf)) // encrypt or decrypt in place
//	head := cipher.Peek(prefix, total, 8) // decrypt only the first 8 bytes
package cipher
