package cipher

import "fmt"

// Transform XORs buf[offset:offset+length] in place with the table key stream.
// It is its own inverse. Invalid arguments panic because there is no
// recoverable path for a caller that got the window wrong.
func Transform(buf []byte, offset, length int) {
	checkWindow(buf, offset, length)

	key := byte(length)
	for i := offset + length - 1; i >= offset; i-- {
		buf[i] ^= key
		key = nextKey(i-offset, key)
	}
}

// KeyAt returns the key applied to the byte at relative position pos of a
// window of the given length, without reading any data.
func KeyAt(length, pos int) byte {
	if length <= 0 || pos < 0 || pos >= length {
		panic(fmt.Sprintf("cipher: position %d outside window of length %d", pos, length))
	}
	key := byte(length)
	for rel := length - 1; rel > pos; rel-- {
		key = nextKey(rel, key)
	}
	return key
}

// Peek decrypts the first n bytes of a window of the given total length,
// reading only prefix. The key schedule is fast-forwarded over the rest of the
// window, so callers can peek a payload they have not fully read.
func Peek(prefix []byte, length, n int) []byte {
	if length <= 0 || n < 0 || n > length || n > len(prefix) {
		panic(fmt.Sprintf("cipher: peek of %d bytes from window of %d with %d bytes available", n, length, len(prefix)))
	}

	out := make([]byte, n)
	if n == 0 {
		return out
	}
	key := KeyAt(length, n-1)
	for i := n - 1; i >= 0; i-- {
		out[i] = prefix[i] ^ key
		key = nextKey(i, key)
	}
	return out
}

func nextKey(rel int, key byte) byte {
	return byte((rel&0x0F)+0x55) ^ byte(rel*11) ^ key ^ 0xAA
}

func checkWindow(buf []byte, offset, length int) {
	if buf == nil {
		panic("cipher: nil buffer")
	}
	if length <= 0 {
		panic(fmt.Sprintf("cipher: non-positive length %d", length))
	}
	if offset < 0 || offset+length > len(buf) {
		panic(fmt.Sprintf("cipher: window [%d:%d] outside buffer of %d bytes", offset, offset+length, len(buf)))
	}
}
