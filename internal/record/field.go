package record

import (
	"fmt"
	"strconv"
	"unicode/utf8"
)

// Field is a single typed value. Data holds the raw bytes as stored on disk.
type Field struct {
	Type FieldType
	Data []byte
}

func NewField(t FieldType, data []byte) Field {
	return Field{Type: t, Data: cloneBytes(data)}
}

// Validate checks that Data is a legal value for Type.
func (f Field) Validate() error {
	switch f.Type {
	case String:
		return nil
	case Integer:
		if _, err := strconv.ParseInt(string(f.Data), 10, 64); err != nil {
			return fmt.Errorf("not a base-10 integer: %q", f.Data)
		}
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrUnknownFieldType, uint8(f.Type))
	}
}

// Int returns the integer value of an Integer field.
func (f Field) Int() (int64, error) {
	if f.Type != Integer {
		return 0, fmt.Errorf("record: field is %s, not Integer", f.Type)
	}
	return strconv.ParseInt(string(f.Data), 10, 64)
}

func (f Field) String() string {
	if utf8.Valid(f.Data) {
		return string(f.Data)
	}
	return fmt.Sprintf("%v", f.Data)
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
