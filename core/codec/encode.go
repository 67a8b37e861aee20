package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"regexp"

	"table-manager/core/cipher"
	"table-manager/core/table"
)

var undefinedName = regexp.MustCompile(`^` + undefinedPrefix + `\d+$`)

// Encode writes f in the binary table format. Every column must carry a
// source type code; strings longer than their fixed width are rejected.
func (c *Codec) Encode(f *table.File) ([]byte, error) {
	name := f.TableName

	header := f.Metadata.Format.Header
	switch len(header) {
	case 0:
		header = make([]byte, HeaderSize)
	case HeaderSize:
	default:
		return nil, fail(name, -1, "", fmt.Errorf("format header is %d bytes, want %d", len(header), HeaderSize))
	}

	variable := -1
	defaultLen := rowPrefix
	for i, col := range f.Columns {
		k, err := lookupKind(col)
		if err != nil {
			return nil, fail(name, -1, col.Name, err)
		}
		if k.variable {
			if variable >= 0 {
				return nil, fail(name, -1, col.Name, ErrMultipleVariable)
			}
			variable = i
		}
		defaultLen += col.Length
	}

	w := &writer{}
	w.u32(f.Metadata.Format.Tag)
	w.u32(uint32(len(f.Rows)))
	w.u32(uint32(defaultLen))
	w.u32(uint32(len(f.Columns)))

	for _, col := range f.Columns {
		if err := c.writeColumn(w, col); err != nil {
			return nil, fail(name, -1, col.Name, err)
		}
	}

	for i, row := range f.Rows {
		start := w.len()
		w.u16(0)
		for j, col := range f.Columns {
			if err := c.writeField(w, col, row.Get(col.Name), j == variable); err != nil {
				return nil, fail(name, i, col.Name, err)
			}
		}
		rowLen := w.len() - start
		if rowLen > math.MaxUint16 {
			return nil, fail(name, i, "", fmt.Errorf("%w: row is %d bytes", ErrRecordLength, rowLen))
		}
		w.patchU16(start, uint16(rowLen))
	}

	w.bytes(f.Metadata.Format.Trailer)

	payload := w.buf
	cipher.Transform(payload, 0, len(payload))

	out := make([]byte, 0, lengthBias+len(payload))
	out = append(out, header...)
	out = binary.LittleEndian.AppendUint32(out, uint32(int32(len(payload)+lengthBias)))
	out = append(out, payload...)
	return out, nil
}

func (c *Codec) writeColumn(w *writer, col table.Column) error {
	var raw []byte
	if undefinedName.MatchString(col.Name) || len(bytes.TrimSpace([]byte(col.Name))) == 0 {
		raw = []byte(" ")
	} else {
		var err error
		if raw, err = c.encodeText(col.Name); err != nil {
			return fmt.Errorf("column name: %w", err)
		}
	}
	if len(raw) > nameSize {
		return fmt.Errorf("%w: name is %d bytes, limit %d", ErrStringTooLong, len(raw), nameSize)
	}
	w.bytes(raw)
	w.zeros(nameSize - len(raw))
	w.u32(*col.SourceTypeCode)
	w.u32(uint32(col.Length))
	return nil
}

func (c *Codec) writeField(w *writer, col table.Column, v table.Value, variable bool) error {
	switch col.Type {
	case table.TypeString:
		s, ok := v.Str()
		if !ok && !v.IsNull() {
			s = v.String()
		}
		b, err := c.encodeText(s)
		if err != nil {
			return err
		}
		if variable {
			w.bytes(b)
			w.u8(0)
			return nil
		}
		if len(b) > col.Length {
			return fmt.Errorf("%w: %d bytes, width %d", ErrStringTooLong, len(b), col.Length)
		}
		w.bytes(b)
		w.zeros(col.Length - len(b))
		return nil
	case table.TypeFloat:
		f, ok := v.Float64()
		if !ok && !v.IsNull() {
			return fmt.Errorf("%w: %s value for %s", ErrValueRange, v.Kind(), col.Type)
		}
		w.f32(float32(f))
		return nil
	case table.TypeByte, table.TypeUInt16, table.TypeUInt32, table.TypeUInt64:
		u, err := unsignedValue(v, col.Type)
		if err != nil {
			return err
		}
		switch col.Type {
		case table.TypeByte:
			w.u8(uint8(u))
		case table.TypeUInt16:
			w.u16(uint16(u))
		case table.TypeUInt32:
			w.u32(uint32(u))
		default:
			w.u64(u)
		}
		return nil
	case table.TypeSByte, table.TypeInt16, table.TypeInt32:
		i, err := signedValue(v, col.Type)
		if err != nil {
			return err
		}
		switch col.Type {
		case table.TypeSByte:
			w.u8(uint8(int8(i)))
		case table.TypeInt16:
			w.u16(uint16(int16(i)))
		default:
			w.u32(uint32(int32(i)))
		}
		return nil
	}
	return fmt.Errorf("%w: semantic type %s", ErrUnknownTypeCode, col.Type)
}

var unsignedMax = map[table.SemanticType]uint64{
	table.TypeByte:   math.MaxUint8,
	table.TypeUInt16: math.MaxUint16,
	table.TypeUInt32: math.MaxUint32,
	table.TypeUInt64: math.MaxUint64,
}

var signedRange = map[table.SemanticType][2]int64{
	table.TypeSByte: {math.MinInt8, math.MaxInt8},
	table.TypeInt16: {math.MinInt16, math.MaxInt16},
	table.TypeInt32: {math.MinInt32, math.MaxInt32},
}

func unsignedValue(v table.Value, t table.SemanticType) (uint64, error) {
	if v.IsNull() {
		return 0, nil
	}
	u, ok := v.Uint64()
	if !ok || u > unsignedMax[t] {
		return 0, fmt.Errorf("%w: %s %q for %s", ErrValueRange, v.Kind(), v.String(), t)
	}
	return u, nil
}

func signedValue(v table.Value, t table.SemanticType) (int64, error) {
	if v.IsNull() {
		return 0, nil
	}
	i, ok := v.Int64()
	r := signedRange[t]
	if !ok || i < r[0] || i > r[1] {
		return 0, fmt.Errorf("%w: %s %q for %s", ErrValueRange, v.Kind(), v.String(), t)
	}
	return i, nil
}
