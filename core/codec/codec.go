package codec

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

const (
	// FormatID identifies this codec in table.File.SourceFormatID.
	FormatID = "legacy-binary"

	// HeaderSize is the opaque block before the length field.
	HeaderSize = 32
	// lengthBias is added to the ciphered length in the length field.
	lengthBias = HeaderSize + 4
	// nameSize is the padded width of a column name.
	nameSize = 48
	// descriptorSize is name, type code and byte length.
	descriptorSize = nameSize + 8
	// payloadPrefix is tag, record count, default record length and column count.
	payloadPrefix = 16
	// rowPrefix is the per-row length field.
	rowPrefix = 2
)

// Options configures a Codec.
type Options struct {
	// Charset is the legacy character set for names and strings, as accepted
	// by the WHATWG encoding index (e.g. "euc-kr", "windows-1252"). Empty
	// means bytes are used as-is.
	Charset string
}

// Codec decodes and encodes binary table files.
type Codec struct {
	enc encoding.Encoding
}

// New returns a codec for the given options.
func New(opts Options) (*Codec, error) {
	c := &Codec{}
	if opts.Charset != "" {
		enc, err := htmlindex.Get(opts.Charset)
		if err != nil {
			return nil, fmt.Errorf("unknown charset %q: %w", opts.Charset, err)
		}
		c.enc = enc
	}
	return c, nil
}

func (c *Codec) decodeText(b []byte) (string, error) {
	if c.enc == nil {
		return string(b), nil
	}
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (c *Codec) encodeText(s string) ([]byte, error) {
	if c.enc == nil {
		return []byte(s), nil
	}
	return c.enc.NewEncoder().Bytes([]byte(s))
}
