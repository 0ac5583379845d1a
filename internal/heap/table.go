package heap

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/tuannm99/mikedb/internal/record"
)

// DefaultPageSize is the byte threshold after which inserts roll to a new page.
const DefaultPageSize = 1 << 13

var (
	ErrSchemaDefinition = errors.New("heap: invalid table schema")
	ErrUnknownColumn    = errors.New("heap: unknown column")
	ErrIndexExists      = errors.New("heap: index already exists")
	ErrIndexNotFound    = errors.New("heap: index not found")
)

// Meta is what the metadata page (page 0) of a table records.
type Meta struct {
	PageCount uint64
	Types     []record.FieldType
	Names     []string
}

// PageWriter persists inserted rows. page is 1-based; fresh means the page
// file is being started and any previous content must be discarded.
type PageWriter interface {
	AppendRow(page uint64, line string, fresh bool) error
	WriteMeta(meta Meta) error
}

// Table holds one table's schema and every materialized row.
type Table struct {
	Dataspace string
	Name      string

	mu    sync.RWMutex
	types []record.FieldType
	names []string
	rows  []record.Row

	// pageCount is the number of data pages on disk, 0 = none written yet.
	pageCount       uint64
	currentPageSize int64
	pageLimit       int64
	writer          PageWriter

	indexes []*index
	ns      uuid.UUID

	// seqs[i] is the ordinal of rows[i]. skipped holds the raw text of page
	// lines that were rejected on load, keyed by ordinal, so rewriting the
	// pages keeps every row at its position.
	seqs    []uint64
	skipped map[uint64]string
	nextSeq uint64
}

func NewTable(dataspace, name string, types []record.FieldType, names []string, pageCount uint64) (*Table, error) {
	if len(types) != len(names) {
		return nil, fmt.Errorf("%w: %d column types but %d column names", ErrSchemaDefinition, len(types), len(names))
	}
	if len(types) == 0 {
		return nil, fmt.Errorf("%w: no columns", ErrSchemaDefinition)
	}
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if err := validateColumnName(n); err != nil {
			return nil, err
		}
		if _, dup := seen[n]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrSchemaDefinition, n)
		}
		seen[n] = struct{}{}
	}

	return &Table{
		Dataspace: dataspace,
		Name:      name,
		types:     append([]record.FieldType(nil), types...),
		names:     append([]string(nil), names...),
		pageCount: pageCount,
		pageLimit: DefaultPageSize,
		ns:        record.TableNamespace(dataspace, name),
		skipped:   make(map[uint64]string),
	}, nil
}

// validateColumnName rejects names that would not survive the metadata page
// and index file formats.
func validateColumnName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty column name", ErrSchemaDefinition)
	}
	if strings.TrimSpace(name) != name || strings.ContainsAny(name, ",:\n\r") {
		return fmt.Errorf("%w: invalid column name %q", ErrSchemaDefinition, name)
	}
	return nil
}

// AttachWriter makes every following Insert append to the table's pages.
func (t *Table) AttachWriter(w PageWriter, pageLimit int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writer = w
	if pageLimit > 0 {
		t.pageLimit = pageLimit
	}
}

func (t *Table) ColumnTypes() []record.FieldType {
	return append([]record.FieldType(nil), t.types...)
}

func (t *Table) ColumnNames() []string {
	return append([]string(nil), t.names...)
}

func (t *Table) Meta() Meta {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.meta()
}

func (t *Table) meta() Meta {
	return Meta{PageCount: t.pageCount, Types: t.ColumnTypes(), Names: t.ColumnNames()}
}

func (t *Table) PageCount() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pageCount
}

func (t *Table) CurrentPageSize() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.currentPageSize
}

func (t *Table) PageLimit() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pageLimit
}

// SetPageLayout overrides page bookkeeping after pages were read or rewritten.
func (t *Table) SetPageLayout(pageCount uint64, currentPageSize int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pageCount = pageCount
	t.currentPageSize = currentPageSize
}

func (t *Table) RowCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Rows returns a copy of every row in insertion order.
func (t *Table) Rows() []record.Row {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]record.Row, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Clone()
	}
	return out
}

// Insert validates values against the schema and appends a new row.
// Nothing is mutated when validation or the page write fails.
func (t *Table) Insert(values [][]byte) (record.Row, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	row, err := t.buildRow(values)
	if err != nil {
		return record.Row{}, err
	}
	if t.writer != nil {
		if err := t.persist(row); err != nil {
			return record.Row{}, err
		}
	}
	t.appendRow(row)
	return row.Clone(), nil
}

// Load appends a row replayed from the page line raw. It validates like
// Insert but never writes. A rejected line keeps its ordinal and its text.
func (t *Table) Load(values [][]byte, raw string) (record.Row, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	row, err := t.buildRow(values)
	if err != nil {
		t.skip(raw)
		return record.Row{}, err
	}
	t.appendRow(row)
	return row.Clone(), nil
}

// SkipLine keeps a page line that could not be decoded at its position.
func (t *Table) SkipLine(raw string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.skip(raw)
}

func (t *Table) skip(raw string) {
	t.skipped[t.nextSeq] = raw
	t.nextSeq++
}

// PageLines returns every page line in ordinal order: encoded rows with the
// rejected lines left where they were read.
func (t *Table) PageLines() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	lines := make([]string, 0, len(t.rows)+len(t.skipped))
	next := 0
	for seq := uint64(0); seq < t.nextSeq; seq++ {
		if raw, ok := t.skipped[seq]; ok {
			lines = append(lines, raw)
			continue
		}
		if next < len(t.rows) && t.seqs[next] == seq {
			lines = append(lines, record.EncodeRow(t.rows[next]))
			next++
		}
	}
	return lines
}

// SelectByRowID is a linear scan; no index covers row ids.
func (t *Table) SelectByRowID(id string) (record.Row, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, r := range t.rows {
		if r.ID == id {
			return r.Clone(), true
		}
	}
	return record.Row{}, false
}

func (t *Table) buildRow(values [][]byte) (record.Row, error) {
	if len(values) != len(t.types) {
		return record.Row{}, &record.SchemaError{
			Field:  -1,
			Reason: fmt.Sprintf("expected %d values, got %d", len(t.types), len(values)),
		}
	}
	fields := make([]record.Field, len(values))
	for i, v := range values {
		f := record.NewField(t.types[i], v)
		if err := f.Validate(); err != nil {
			return record.Row{}, &record.SchemaError{Field: i, Column: t.names[i], Reason: err.Error()}
		}
		fields[i] = f
	}
	return record.NewRow(record.RowID(t.ns, t.nextSeq), fields), nil
}

func (t *Table) appendRow(row record.Row) {
	t.rows = append(t.rows, row)
	t.seqs = append(t.seqs, t.nextSeq)
	t.nextSeq++
	pos := len(t.rows) - 1
	for _, idx := range t.indexes {
		idx.add(row, pos)
	}
}

func (t *Table) persist(row record.Row) error {
	line := record.EncodeRow(row)
	n := int64(len(line)) + 1

	prevCount, prevSize := t.pageCount, t.currentPageSize
	fresh := false
	switch {
	case t.pageCount == 0:
		t.pageCount, t.currentPageSize, fresh = 1, 0, true
	case t.currentPageSize > 0 && t.currentPageSize+n > t.pageLimit:
		t.pageCount, t.currentPageSize, fresh = t.pageCount+1, 0, true
	}

	page := t.pageCount
	if err := t.writer.AppendRow(page, line, fresh); err != nil {
		t.pageCount, t.currentPageSize = prevCount, prevSize
		return fmt.Errorf("heap: append row to %s.%s page %d: %w", t.Dataspace, t.Name, page, err)
	}
	if t.pageCount != prevCount {
		if err := t.writer.WriteMeta(t.meta()); err != nil {
			t.pageCount, t.currentPageSize = prevCount, prevSize
			return fmt.Errorf("heap: write %s.%s metadata: %w", t.Dataspace, t.Name, err)
		}
	}
	t.currentPageSize += n
	return nil
}

func (t *Table) columnPos(name string) (int, bool) {
	for i, n := range t.names {
		if n == name {
			return i, true
		}
	}
	return -1, false
}
