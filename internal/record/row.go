package record

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Row is an ordered list of fields plus an identifier that never changes
// for the lifetime of the row.
type Row struct {
	ID     string
	Fields []Field
}

// TableNamespace returns the UUID namespace row ids of one table live in.
// It depends only on the dataspace and table names, so ids are unique within
// one data directory; two stores with the same names produce the same ids.
func TableNamespace(dataspace, table string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mikedb://"+dataspace+"/"+table))
}

// RowID derives the identifier of the row at ordinal position seq of a table.
// The same table position always yields the same id, so rows replayed from
// disk keep the id they were given when first inserted.
func RowID(ns uuid.UUID, seq uint64) string {
	return uuid.NewSHA1(ns, []byte(strconv.FormatUint(seq, 10))).String()
}

func NewRow(id string, fields []Field) Row {
	return Row{ID: id, Fields: fields}
}

// Clone returns a deep copy so callers can't mutate stored rows.
func (r Row) Clone() Row {
	fields := make([]Field, len(r.Fields))
	for i, f := range r.Fields {
		fields[i] = NewField(f.Type, f.Data)
	}
	return Row{ID: r.ID, Fields: fields}
}

// Values returns a copy of the raw bytes of every field.
func (r Row) Values() [][]byte {
	out := make([][]byte, len(r.Fields))
	for i, f := range r.Fields {
		out[i] = cloneBytes(f.Data)
	}
	return out
}

func (r Row) String() string {
	parts := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		parts[i] = f.String()
	}
	return fmt.Sprintf("(%s: [%s])", r.ID, strings.Join(parts, " "))
}
