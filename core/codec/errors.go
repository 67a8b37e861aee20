package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncated means the stream ended before a structure was complete.
	ErrTruncated = errors.New("truncated table data")
	// ErrRecordLength means a declared record length disagrees with the columns.
	ErrRecordLength = errors.New("record length mismatch")
	// ErrUnknownTypeCode means a column uses a type code with no decoder.
	ErrUnknownTypeCode = errors.New("unknown column type code")
	// ErrColumnWidth means a fixed-width kind was declared with the wrong width.
	ErrColumnWidth = errors.New("column width does not match type")
	// ErrMultipleVariable means more than one variable-length column was declared.
	ErrMultipleVariable = errors.New("more than one variable-length column")
	// ErrMissingTypeCode means a column has no source type code to encode with.
	ErrMissingTypeCode = errors.New("column has no source type code")
	// ErrStringTooLong means a string does not fit its fixed width.
	ErrStringTooLong = errors.New("string exceeds column width")
	// ErrValueRange means a value cannot be represented by the column type.
	ErrValueRange = errors.New("value out of range for column")
)

// Error locates a codec failure. Row is -1 when the failure is not inside a row.
type Error struct {
	Table  string
	Row    int
	Column string
	Err    error
}

func (e *Error) Error() string {
	msg := "table " + e.Table
	if e.Row >= 0 {
		msg += fmt.Sprintf(" row %d", e.Row)
	}
	if e.Column != "" {
		msg += " column " + e.Column
	}
	return msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func fail(tableName string, row int, column string, err error) error {
	return &Error{Table: tableName, Row: row, Column: column, Err: err}
}
