package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"table-manager/core/cipher"
	"table-manager/core/table"
)

// undefinedPrefix names columns whose stored name is blank.
const undefinedPrefix = "Undefined"

// Decode parses a complete binary table file. name becomes the table name and
// is used in errors. On any structural violation no rows are returned.
func (c *Codec) Decode(name string, data []byte) (*table.File, error) {
	payload, header, err := unwrap(name, data)
	if err != nil {
		return nil, err
	}
	cipher.Transform(payload, 0, len(payload))

	r := &reader{buf: payload}
	tag, _ := r.u32()
	recordCount, _ := r.u32()
	defaultLen, _ := r.u32()
	columnCount, err := r.u32()
	if err != nil {
		return nil, fail(name, -1, "", err)
	}
	if uint64(columnCount)*descriptorSize > uint64(r.remaining()) {
		return nil, fail(name, -1, "", fmt.Errorf("%w: %d column descriptors", ErrTruncated, columnCount))
	}

	columns := make([]table.Column, 0, columnCount)
	variable := -1
	sum := rowPrefix
	for i := 0; i < int(columnCount); i++ {
		col, err := c.readColumn(r, i)
		if err != nil {
			return nil, fail(name, -1, col.Name, err)
		}
		if IsVariable(col) {
			if variable >= 0 {
				return nil, fail(name, -1, col.Name, ErrMultipleVariable)
			}
			variable = i
		}
		sum += col.Length
		columns = append(columns, col)
	}
	if uint32(sum) != defaultLen {
		return nil, fail(name, -1, "", fmt.Errorf("%w: columns span %d bytes, header declares %d", ErrRecordLength, sum, defaultLen))
	}
	if uint64(recordCount)*rowPrefix > uint64(r.remaining()) {
		return nil, fail(name, -1, "", fmt.Errorf("%w: %d records", ErrTruncated, recordCount))
	}

	rows := make([]table.Row, 0, recordCount)
	for i := 0; i < int(recordCount); i++ {
		row, err := c.readRow(r, columns, variable, int(defaultLen))
		if err != nil {
			var ce *Error
			if errors.As(err, &ce) {
				ce.Table, ce.Row = name, i
				return nil, ce
			}
			return nil, fail(name, i, "", err)
		}
		rows = append(rows, row)
	}

	f := &table.File{
		TableName:      name,
		SourceFormatID: FormatID,
		Metadata: table.Metadata{
			Format: table.FormatMetadata{Header: header, Tag: tag},
		},
		Columns: columns,
		Rows:    rows,
	}
	if r.remaining() > 0 {
		f.Metadata.Format.Trailer = bytes.Clone(r.buf[r.pos:])
	}
	return f, nil
}

// Header is the fixed payload prefix of a table file.
type Header struct {
	Tag          uint32
	Records      int
	RecordLength int
	Columns      int
}

// PeekHeader reads only the first bytes of a table file and returns its
// payload prefix, fast-forwarding the cipher key instead of decrypting the
// payload.
func PeekHeader(rd io.Reader) (Header, error) {
	prefix := make([]byte, lengthBias+payloadPrefix)
	if _, err := io.ReadFull(rd, prefix); err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	cipherLen := int(int32(binary.LittleEndian.Uint32(prefix[HeaderSize:lengthBias]))) - lengthBias
	if cipherLen < payloadPrefix {
		return Header{}, fmt.Errorf("%w: ciphered length %d", ErrTruncated, cipherLen)
	}
	head := cipher.Peek(prefix[lengthBias:], cipherLen, payloadPrefix)
	return Header{
		Tag:          binary.LittleEndian.Uint32(head[0:4]),
		Records:      int(binary.LittleEndian.Uint32(head[4:8])),
		RecordLength: int(binary.LittleEndian.Uint32(head[8:12])),
		Columns:      int(binary.LittleEndian.Uint32(head[12:16])),
	}, nil
}

// PeekRecordCount returns the record count without decoding the table.
func PeekRecordCount(rd io.Reader) (int, error) {
	h, err := PeekHeader(rd)
	return h.Records, err
}

// unwrap validates the framing and returns a private copy of the still
// encrypted payload plus the opaque header.
func unwrap(name string, data []byte) (payload, header []byte, err error) {
	if len(data) < lengthBias {
		return nil, nil, fail(name, -1, "", fmt.Errorf("%w: %d byte file", ErrTruncated, len(data)))
	}
	cipherLen := int(int32(binary.LittleEndian.Uint32(data[HeaderSize:lengthBias]))) - lengthBias
	if cipherLen < payloadPrefix {
		return nil, nil, fail(name, -1, "", fmt.Errorf("%w: ciphered length %d", ErrTruncated, cipherLen))
	}
	if lengthBias+cipherLen != len(data) {
		return nil, nil, fail(name, -1, "", fmt.Errorf("%w: length field says %d bytes, file has %d", ErrTruncated, lengthBias+cipherLen, len(data)))
	}
	header = bytes.Clone(data[:HeaderSize])
	payload = bytes.Clone(data[lengthBias:])
	return payload, header, nil
}

func (c *Codec) readColumn(r *reader, index int) (table.Column, error) {
	raw, err := r.take(nameSize)
	if err != nil {
		return table.Column{}, err
	}
	code, _ := r.u32()
	width, err := r.u32()
	if err != nil {
		return table.Column{}, err
	}

	name, err := c.decodeText(trimNull(raw))
	if err != nil {
		return table.Column{}, fmt.Errorf("column %d name: %w", index, err)
	}
	if trimmed := strings.TrimSpace(name); utf8.RuneCountInString(trimmed) <= 1 {
		name = undefinedPrefix + strconv.Itoa(index)
	}

	col := table.Column{
		Name:           name,
		Length:         int(width),
		SourceTypeCode: table.TypeCode(code),
	}
	k, err := lookupKind(col)
	if err != nil {
		return col, fmt.Errorf("%w: type code %d, width %d", err, code, width)
	}
	col.Type = k.semantic
	return col, nil
}

func (c *Codec) readRow(r *reader, columns []table.Column, variable, defaultLen int) (table.Row, error) {
	start := r.pos
	rowLen16, err := r.u16()
	if err != nil {
		return nil, err
	}
	rowLen := int(rowLen16)

	varLen := 0
	if variable >= 0 {
		varLen = rowLen - defaultLen + columns[variable].Length
		if varLen < 0 {
			return nil, fmt.Errorf("%w: row length %d below default %d", ErrRecordLength, rowLen, defaultLen)
		}
	} else if rowLen != defaultLen {
		return nil, fmt.Errorf("%w: row length %d, default %d", ErrRecordLength, rowLen, defaultLen)
	}

	row := make(table.Row, len(columns))
	for i, col := range columns {
		width := col.Length
		if i == variable {
			width = varLen
		}
		v, err := c.readField(r, col, width)
		if err != nil {
			return nil, &Error{Column: col.Name, Err: err}
		}
		row[col.Name] = v
	}
	if r.pos-start != rowLen {
		return nil, fmt.Errorf("%w: consumed %d bytes, row declares %d", ErrRecordLength, r.pos-start, rowLen)
	}
	return row, nil
}

func (c *Codec) readField(r *reader, col table.Column, width int) (table.Value, error) {
	switch col.Type {
	case table.TypeByte:
		v, err := r.u8()
		return table.Uint(uint64(v)), err
	case table.TypeSByte:
		v, err := r.u8()
		return table.Int(int64(int8(v))), err
	case table.TypeUInt16:
		v, err := r.u16()
		return table.Uint(uint64(v)), err
	case table.TypeInt16:
		v, err := r.u16()
		return table.Int(int64(int16(v))), err
	case table.TypeUInt32:
		v, err := r.u32()
		return table.Uint(uint64(v)), err
	case table.TypeInt32:
		v, err := r.u32()
		return table.Int(int64(int32(v))), err
	case table.TypeUInt64:
		v, err := r.u64()
		return table.Uint(v), err
	case table.TypeFloat:
		v, err := r.u32()
		return table.Float(float64(math.Float32frombits(v))), err
	case table.TypeString:
		b, err := r.take(width)
		if err != nil {
			return table.Null(), err
		}
		s, err := c.decodeText(trimNull(b))
		if err != nil {
			return table.Null(), err
		}
		return table.String(s), nil
	}
	return table.Null(), fmt.Errorf("%w: semantic type %s", ErrUnknownTypeCode, col.Type)
}

func trimNull(b []byte) []byte {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return b[:i]
	}
	return b
}
