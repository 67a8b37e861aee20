package codec

import "table-manager/core/table"

// VariableStringCode is the type code of the null-terminated variable string.
const VariableStringCode uint32 = 26

type fieldKind struct {
	semantic table.SemanticType
	// size is the fixed byte width, 0 when the declared column length is used.
	size     int
	variable bool
}

var fieldKinds = map[uint32]fieldKind{
	1:  {semantic: table.TypeByte, size: 1},
	12: {semantic: table.TypeByte, size: 1},
	16: {semantic: table.TypeByte, size: 1},
	2:  {semantic: table.TypeUInt16, size: 2},
	3:  {semantic: table.TypeUInt32, size: 4},
	11: {semantic: table.TypeUInt32, size: 4},
	18: {semantic: table.TypeUInt32, size: 4},
	27: {semantic: table.TypeUInt32, size: 4},
	5:  {semantic: table.TypeFloat, size: 4},
	9:  {semantic: table.TypeString},
	24: {semantic: table.TypeString},
	13: {semantic: table.TypeInt16, size: 2},
	21: {semantic: table.TypeInt16, size: 2},
	20: {semantic: table.TypeSByte, size: 1},
	22: {semantic: table.TypeInt32, size: 4},
	26: {semantic: table.TypeString, variable: true},
	29: {semantic: table.TypeUInt64, size: 8},
}

// IsVariable reports whether the column is the variable-length string kind.
func IsVariable(c table.Column) bool {
	return c.SourceTypeCode != nil && fieldKinds[*c.SourceTypeCode].variable
}

func lookupKind(c table.Column) (fieldKind, error) {
	if c.SourceTypeCode == nil {
		return fieldKind{}, ErrMissingTypeCode
	}
	k, ok := fieldKinds[*c.SourceTypeCode]
	if !ok {
		return fieldKind{}, ErrUnknownTypeCode
	}
	if k.size != 0 && c.Length != k.size {
		return fieldKind{}, ErrColumnWidth
	}
	return k, nil
}
