package heap

import (
	"fmt"
	"strings"

	"github.com/tuannm99/mikedb/internal/record"
)

// index is a non-unique secondary index over an ordered set of columns.
// Keys are the hex row encoding of the indexed values.
type index struct {
	columns   []string
	positions []int
	entries   map[string][]int
}

func indexName(columns []string) string {
	return strings.Join(columns, record.Delimiter)
}

func (ix *index) key(row record.Row) string {
	values := make([][]byte, len(ix.positions))
	for i, p := range ix.positions {
		values[i] = row.Fields[p].Data
	}
	return record.EncodeValues(values)
}

func (ix *index) add(row record.Row, pos int) {
	k := ix.key(row)
	ix.entries[k] = append(ix.entries[k], pos)
}

// CreateIndex adds a secondary index on columns and fills it from the
// current rows. Every later insert keeps it up to date.
func (t *Table) CreateIndex(columns []string) error {
	if len(columns) == 0 {
		return fmt.Errorf("%w: index needs at least one column", ErrUnknownColumn)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.findIndex(columns) != nil {
		return fmt.Errorf("%w: %s", ErrIndexExists, indexName(columns))
	}

	ix := &index{
		columns: append([]string(nil), columns...),
		entries: make(map[string][]int),
	}
	seen := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		if _, dup := seen[c]; dup {
			return fmt.Errorf("%w: column %q repeated in index", ErrUnknownColumn, c)
		}
		seen[c] = struct{}{}
		pos, ok := t.columnPos(c)
		if !ok {
			return fmt.Errorf("%w: %q in %s.%s", ErrUnknownColumn, c, t.Dataspace, t.Name)
		}
		ix.positions = append(ix.positions, pos)
	}

	for i, r := range t.rows {
		ix.add(r, i)
	}
	t.indexes = append(t.indexes, ix)
	return nil
}

// DropIndex removes the index on columns.
func (t *Table) DropIndex(columns []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	name := indexName(columns)
	for i, ix := range t.indexes {
		if indexName(ix.columns) == name {
			t.indexes = append(t.indexes[:i], t.indexes[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s on %s.%s", ErrIndexNotFound, name, t.Dataspace, t.Name)
}

// Indexes lists the column sets of every maintained index, in creation order.
func (t *Table) Indexes() [][]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([][]string, len(t.indexes))
	for i, ix := range t.indexes {
		out[i] = append([]string(nil), ix.columns...)
	}
	return out
}

// Lookup returns the rows whose values at columns equal values.
func (t *Table) Lookup(columns []string, values [][]byte) ([]record.Row, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ix := t.findIndex(columns)
	if ix == nil {
		return nil, fmt.Errorf("%w: %s on %s.%s", ErrIndexNotFound, indexName(columns), t.Dataspace, t.Name)
	}
	if len(values) != len(columns) {
		return nil, &record.SchemaError{
			Field:  -1,
			Reason: fmt.Sprintf("index %s takes %d values, got %d", indexName(columns), len(columns), len(values)),
		}
	}

	positions := ix.entries[record.EncodeValues(values)]
	out := make([]record.Row, 0, len(positions))
	for _, p := range positions {
		out = append(out, t.rows[p].Clone())
	}
	return out, nil
}

func (t *Table) findIndex(columns []string) *index {
	name := indexName(columns)
	for _, ix := range t.indexes {
		if indexName(ix.columns) == name {
			return ix
		}
	}
	return nil
}
