package table

import "fmt"

// SemanticType is the logical type of a column, independent of its on-disk tag.
type SemanticType uint8

const (
	TypeByte SemanticType = iota + 1
	TypeSByte
	TypeUInt16
	TypeInt16
	TypeUInt32
	TypeInt32
	TypeUInt64
	TypeFloat
	TypeString
)

var semanticNames = map[SemanticType]string{
	TypeByte:   "Byte",
	TypeSByte:  "SByte",
	TypeUInt16: "UInt16",
	TypeInt16:  "Int16",
	TypeUInt32: "UInt32",
	TypeInt32:  "Int32",
	TypeUInt64: "UInt64",
	TypeFloat:  "Float",
	TypeString: "String",
}

func (t SemanticType) String() string {
	if n, ok := semanticNames[t]; ok {
		return n
	}
	return fmt.Sprintf("SemanticType(%d)", uint8(t))
}

func (t SemanticType) MarshalText() ([]byte, error) {
	n, ok := semanticNames[t]
	if !ok {
		return nil, fmt.Errorf("table: unknown semantic type %d", uint8(t))
	}
	return []byte(n), nil
}

func (t *SemanticType) UnmarshalText(text []byte) error {
	for k, n := range semanticNames {
		if n == string(text) {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("table: unknown semantic type %q", text)
}

// Column describes one column of a table.
type Column struct {
	Name string       `json:"name"`
	Type SemanticType `json:"type"`
	// Length is the declared on-disk byte width.
	Length int `json:"length"`
	// SourceTypeCode is the on-disk type tag. Encoding requires it.
	SourceTypeCode *uint32    `json:"sourceTypeCode,omitempty"`
	Visibility     Visibility `json:"visibility"`
}

// TypeCode returns a pointer suitable for Column.SourceTypeCode.
func TypeCode(code uint32) *uint32 { return &code }

// Clone returns a deep copy of the column.
func (c Column) Clone() Column {
	out := c
	if c.SourceTypeCode != nil {
		out.SourceTypeCode = TypeCode(*c.SourceTypeCode)
	}
	return out
}

// SameLayout reports whether both columns have the same width and type tag.
func (c Column) SameLayout(o Column) bool {
	if c.Length != o.Length {
		return false
	}
	switch {
	case c.SourceTypeCode == nil && o.SourceTypeCode == nil:
		return true
	case c.SourceTypeCode == nil || o.SourceTypeCode == nil:
		return false
	}
	return *c.SourceTypeCode == *o.SourceTypeCode
}
