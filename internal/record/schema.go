package record

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownFieldType = errors.New("record: unknown field type")

type FieldType uint8

const (
	String FieldType = iota + 1
	Integer
)

func (t FieldType) String() string {
	switch t {
	case String:
		return "String"
	case Integer:
		return "Integer"
	default:
		return fmt.Sprintf("FieldType(%d)", uint8(t))
	}
}

// ParseFieldType maps a type name as written in a metadata page to a FieldType.
func ParseFieldType(name string) (FieldType, error) {
	switch strings.TrimSpace(name) {
	case "String":
		return String, nil
	case "Integer":
		return Integer, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFieldType, name)
	}
}

// ParseSchema parses a comma-delimited list of type names, e.g. "String,Integer".
func ParseSchema(line string) ([]FieldType, error) {
	parts := strings.Split(line, Delimiter)
	types := make([]FieldType, 0, len(parts))
	for _, p := range parts {
		ft, err := ParseFieldType(p)
		if err != nil {
			return nil, err
		}
		types = append(types, ft)
	}
	return types, nil
}

func FormatSchema(types []FieldType) string {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = t.String()
	}
	return strings.Join(names, Delimiter)
}

// ParseColumnNames splits a comma-delimited column name line.
func ParseColumnNames(line string) []string {
	parts := strings.Split(line, Delimiter)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
