package record

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Delimiter separates fields in a row line and names in schema lines.
const Delimiter = ","

var (
	ErrSchemaMismatch = errors.New("record: row does not match table schema")
	ErrBadHexField    = errors.New("record: field is not valid hex")
)

// SchemaError reports which part of a row violated the table schema.
// Field is -1 when the row as a whole has the wrong arity.
type SchemaError struct {
	Field  int
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Field < 0 {
		return fmt.Sprintf("%v: %s", ErrSchemaMismatch, e.Reason)
	}
	return fmt.Sprintf("%v: field %d (%s): %s", ErrSchemaMismatch, e.Field, e.Column, e.Reason)
}

func (e *SchemaError) Unwrap() error { return ErrSchemaMismatch }

// DecodeError reports the first component of a line that failed to decode.
type DecodeError struct {
	Index int
	Token string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v: component %d %q: %v", ErrBadHexField, e.Index, e.Token, e.Err)
}

func (e *DecodeError) Unwrap() error { return ErrBadHexField }

func EncodeField(f Field) string {
	return hex.EncodeToString(f.Data)
}

// EncodeRow renders a row as one page line: hex fields joined by Delimiter.
func EncodeRow(r Row) string {
	parts := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		parts[i] = EncodeField(f)
	}
	return strings.Join(parts, Delimiter)
}

// EncodeValues encodes raw field values the same way EncodeRow does.
func EncodeValues(values [][]byte) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = hex.EncodeToString(v)
	}
	return strings.Join(parts, Delimiter)
}

// DecodeLine splits a page line and hex-decodes every component.
// A single bad component invalidates the whole line.
func DecodeLine(line string) ([][]byte, error) {
	parts := strings.Split(line, Delimiter)
	values := make([][]byte, 0, len(parts))
	for i, p := range parts {
		b, err := hex.DecodeString(strings.TrimSpace(p))
		if err != nil {
			return nil, &DecodeError{Index: i, Token: p, Err: err}
		}
		values = append(values, b)
	}
	return values, nil
}
