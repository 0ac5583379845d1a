package heap

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/mikedb/internal/record"
)

// memWriter records page writes in memory.
type memWriter struct {
	pages     map[uint64][]string
	metas     []Meta
	failAfter int // fail the n-th AppendRow (1-based), 0 = never
	calls     int
	failMeta  bool
}

func newMemWriter() *memWriter {
	return &memWriter{pages: make(map[uint64][]string)}
}

func (w *memWriter) AppendRow(page uint64, line string, fresh bool) error {
	w.calls++
	if w.failAfter > 0 && w.calls >= w.failAfter {
		return errors.New("disk full")
	}
	if fresh {
		w.pages[page] = nil
	}
	w.pages[page] = append(w.pages[page], line)
	return nil
}

func (w *memWriter) WriteMeta(meta Meta) error {
	if w.failMeta {
		return errors.New("meta write failed")
	}
	w.metas = append(w.metas, meta)
	return nil
}

func newPeopleTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := NewTable("shop", "people",
		[]record.FieldType{record.String, record.Integer},
		[]string{"name", "age"}, 0)
	require.NoError(t, err)
	return tbl
}

func TestNewTable_InvalidSchema(t *testing.T) {
	_, err := NewTable("ds", "t", []record.FieldType{record.String}, []string{"a", "b"}, 0)
	require.ErrorIs(t, err, ErrSchemaDefinition)

	_, err = NewTable("ds", "t", []record.FieldType{record.String, record.String}, []string{"a", "a"}, 0)
	require.ErrorIs(t, err, ErrSchemaDefinition)

	_, err = NewTable("ds", "t", nil, nil, 0)
	require.ErrorIs(t, err, ErrSchemaDefinition)
}

func TestNewTable_InvalidColumnNames(t *testing.T) {
	for _, name := range []string{"", "a,b", " a", "a ", "a:b", "a\nb", "a\rb"} {
		_, err := NewTable("ds", "t", []record.FieldType{record.String, record.String}, []string{name, "c"}, 0)
		require.ErrorIs(t, err, ErrSchemaDefinition, "%q", name)
	}

	_, err := NewTable("ds", "t", []record.FieldType{record.String}, []string{"first name"}, 0)
	require.NoError(t, err)
}

func TestTable_InsertAndSelect(t *testing.T) {
	tbl := newPeopleTable(t)

	row, err := tbl.Insert([][]byte{[]byte("Ada"), []byte("37")})
	require.NoError(t, err)
	require.Equal(t, "Ada", row.Fields[0].String())
	require.Equal(t, record.Integer, row.Fields[1].Type)

	got, ok := tbl.SelectByRowID(row.ID)
	require.True(t, ok)
	require.Equal(t, row, got)

	_, ok = tbl.SelectByRowID("missing")
	require.False(t, ok)
}

func TestTable_InsertManyUniqueIDs(t *testing.T) {
	tbl := newPeopleTable(t)
	ids := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		row, err := tbl.Insert([][]byte{[]byte(fmt.Sprintf("user-%d", i)), []byte(fmt.Sprint(i))})
		require.NoError(t, err)
		ids[row.ID] = struct{}{}

		got, ok := tbl.SelectByRowID(row.ID)
		require.True(t, ok)
		require.Equal(t, row.Values(), got.Values())
	}
	require.Len(t, ids, 50)
	require.Equal(t, 50, tbl.RowCount())
}

func TestTable_InsertSchemaMismatch(t *testing.T) {
	tbl := newPeopleTable(t)

	cases := [][][]byte{
		{[]byte("Ada")},
		{},
		{[]byte("Ada"), []byte("37"), []byte("extra")},
	}
	for _, values := range cases {
		before := tbl.RowCount()
		_, err := tbl.Insert(values)
		require.ErrorIs(t, err, record.ErrSchemaMismatch)
		require.Equal(t, before, tbl.RowCount())
	}
}

func TestTable_InsertBadInteger(t *testing.T) {
	tbl := newPeopleTable(t)

	_, err := tbl.Insert([][]byte{[]byte("Ada"), []byte("thirty")})
	require.ErrorIs(t, err, record.ErrSchemaMismatch)

	var se *record.SchemaError
	require.True(t, errors.As(err, &se))
	require.Equal(t, 1, se.Field)
	require.Equal(t, "age", se.Column)
	require.Zero(t, tbl.RowCount())
}

func TestTable_InsertReturnsCopy(t *testing.T) {
	tbl := newPeopleTable(t)
	values := [][]byte{[]byte("Ada"), []byte("37")}

	row, err := tbl.Insert(values)
	require.NoError(t, err)

	values[0][0] = 'X'
	row.Fields[0].Data[0] = 'Y'

	got, ok := tbl.SelectByRowID(row.ID)
	require.True(t, ok)
	require.Equal(t, "Ada", got.Fields[0].String())
}

func TestTable_RowIDsStableAcrossReplay(t *testing.T) {
	a := newPeopleTable(t)
	b := newPeopleTable(t)

	r1, err := a.Insert([][]byte{[]byte("Ada"), []byte("37")})
	require.NoError(t, err)
	r2, err := a.Insert([][]byte{[]byte("Bob"), []byte("41")})
	require.NoError(t, err)

	l1, err := b.Load(r1.Values(), "")
	require.NoError(t, err)
	l2, err := b.Load(r2.Values(), "")
	require.NoError(t, err)

	require.Equal(t, r1.ID, l1.ID)
	require.Equal(t, r2.ID, l2.ID)
}

func TestTable_LoadRejectKeepsOrdinal(t *testing.T) {
	a := newPeopleTable(t)
	_, err := a.Load([][]byte{[]byte("bad")}, "626164")
	require.Error(t, err)
	r, err := a.Load([][]byte{[]byte("Ada"), []byte("37")}, "")
	require.NoError(t, err)

	b := newPeopleTable(t)
	b.SkipLine("zz")
	r2, err := b.Load([][]byte{[]byte("Ada"), []byte("37")}, "")
	require.NoError(t, err)
	require.Equal(t, r.ID, r2.ID)
}

func TestTable_PageLinesKeepRejectedLines(t *testing.T) {
	tbl := newPeopleTable(t)
	_, err := tbl.Load([][]byte{[]byte("Ada"), []byte("37")}, "")
	require.NoError(t, err)
	tbl.SkipLine("zz")
	_, err = tbl.Load([][]byte{[]byte("Bob"), []byte("x")}, "426f62,78")
	require.Error(t, err)
	_, err = tbl.Insert([][]byte{[]byte("Cy"), []byte("39")})
	require.NoError(t, err)

	require.Equal(t, []string{"416461,3337", "zz", "426f62,78", "4379,3339"}, tbl.PageLines())
	require.Equal(t, 2, tbl.RowCount())
}

func TestTable_PageWritesAndRolling(t *testing.T) {
	tbl := newPeopleTable(t)
	w := newMemWriter()
	// "416461,3337\n" is 12 bytes, so two rows fit in a 24 byte page.
	tbl.AttachWriter(w, 24)

	for i := 0; i < 5; i++ {
		_, err := tbl.Insert([][]byte{[]byte("Ada"), []byte("37")})
		require.NoError(t, err)
	}

	require.Equal(t, uint64(3), tbl.PageCount())
	require.Equal(t, int64(12), tbl.CurrentPageSize())
	require.Len(t, w.pages[1], 2)
	require.Len(t, w.pages[2], 2)
	require.Len(t, w.pages[3], 1)
	require.Equal(t, "416461,3337", w.pages[1][0])

	// metadata rewritten each time a page is opened
	require.Len(t, w.metas, 3)
	require.Equal(t, uint64(3), w.metas[2].PageCount)
	require.Equal(t, []string{"name", "age"}, w.metas[2].Names)
}

func TestTable_OversizedRowGetsOwnPage(t *testing.T) {
	tbl := newPeopleTable(t)
	w := newMemWriter()
	tbl.AttachWriter(w, 4)

	_, err := tbl.Insert([][]byte{[]byte("Ada"), []byte("1")})
	require.NoError(t, err)
	_, err = tbl.Insert([][]byte{[]byte("Bob"), []byte("2")})
	require.NoError(t, err)

	require.Equal(t, uint64(2), tbl.PageCount())
	require.Len(t, w.pages[1], 1)
	require.Len(t, w.pages[2], 1)
}

func TestTable_WriteFailureLeavesTableUntouched(t *testing.T) {
	tbl := newPeopleTable(t)
	w := newMemWriter()
	w.failAfter = 2
	tbl.AttachWriter(w, 1024)

	_, err := tbl.Insert([][]byte{[]byte("Ada"), []byte("37")})
	require.NoError(t, err)
	size := tbl.CurrentPageSize()

	_, err = tbl.Insert([][]byte{[]byte("Bob"), []byte("41")})
	require.Error(t, err)
	require.Equal(t, 1, tbl.RowCount())
	require.Equal(t, uint64(1), tbl.PageCount())
	require.Equal(t, size, tbl.CurrentPageSize())
}

func TestTable_MetaFailureRestoresPageCount(t *testing.T) {
	tbl := newPeopleTable(t)
	w := newMemWriter()
	w.failMeta = true
	tbl.AttachWriter(w, 1024)

	_, err := tbl.Insert([][]byte{[]byte("Ada"), []byte("37")})
	require.Error(t, err)
	require.Zero(t, tbl.RowCount())
	require.Zero(t, tbl.PageCount())
}
