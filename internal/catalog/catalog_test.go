package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuannm99/mikedb/internal/heap"
	"github.com/tuannm99/mikedb/internal/record"
)

func newTable(t *testing.T, ds, name string) *heap.Table {
	t.Helper()
	tbl, err := heap.NewTable(ds, name, []record.FieldType{record.String}, []string{"name"}, 0)
	require.NoError(t, err)
	return tbl
}

func TestDBMS_LookupChain(t *testing.T) {
	d := NewDBMS("data")
	ds := NewDataspace("shop")
	require.NoError(t, d.AddDataspace(ds))
	users := newTable(t, "shop", "users")
	require.NoError(t, ds.AddTable(users))

	got, err := d.Table("shop", "users")
	require.NoError(t, err)
	require.Same(t, users, got)

	_, err = d.Table("nope", "users")
	require.ErrorIs(t, err, ErrDataspaceNotFound)
	require.ErrorIs(t, err, ErrNotFound)
	require.False(t, errors.Is(err, ErrTableNotFound))

	_, err = d.Table("shop", "nope")
	require.ErrorIs(t, err, ErrTableNotFound)
	require.ErrorIs(t, err, ErrNotFound)
	require.False(t, errors.Is(err, ErrDataspaceNotFound))
}

func TestDBMS_AlreadyExistsKeepsOriginal(t *testing.T) {
	d := NewDBMS("data")
	first := NewDataspace("shop")
	require.NoError(t, d.AddDataspace(first))
	require.ErrorIs(t, d.AddDataspace(NewDataspace("shop")), ErrAlreadyExists)

	got, err := d.Dataspace("shop")
	require.NoError(t, err)
	require.Same(t, first, got)

	users := newTable(t, "shop", "users")
	require.NoError(t, first.AddTable(users))
	require.ErrorIs(t, first.AddTable(newTable(t, "shop", "users")), ErrAlreadyExists)

	tbl, err := first.Table("users")
	require.NoError(t, err)
	require.Same(t, users, tbl)
}

func TestCatalog_Unavailable(t *testing.T) {
	d := NewDBMS("data")
	cause := errors.New("bad metadata")
	require.NoError(t, d.MarkDataspaceUnavailable("broken", cause))
	require.ErrorIs(t, d.AddDataspace(NewDataspace("broken")), ErrAlreadyExists)

	_, err := d.Dataspace("broken")
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, err, cause)

	ds := NewDataspace("shop")
	require.NoError(t, d.AddDataspace(ds))
	require.NoError(t, ds.AddTable(newTable(t, "shop", "users")))
	require.NoError(t, ds.MarkTableUnavailable("orders", cause))

	_, err = d.Table("shop", "orders")
	require.ErrorIs(t, err, ErrUnavailable)

	require.Equal(t, []string{"orders", "users"}, ds.TableNames())
	require.Len(t, ds.Tables(), 1)
	require.Equal(t, []string{"broken", "shop"}, d.DataspaceNames())
	require.Len(t, d.Dataspaces(), 1)
	require.Contains(t, ds.UnavailableTables(), "orders")
}

func TestValidateName(t *testing.T) {
	for _, ok := range []string{"shop", "users_2024", "Ünïcode"} {
		require.NoError(t, ValidateName(ok), ok)
	}
	for _, bad := range []string{"", " shop", "a.b", "a/b", "a,b", "a:b", "a\nb"} {
		require.ErrorIs(t, ValidateName(bad), ErrInvalidName, bad)
	}
}
