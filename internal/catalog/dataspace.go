package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tuannm99/mikedb/internal/heap"
)

// Dataspace is a named group of tables.
type Dataspace struct {
	Name string

	tables      map[string]*heap.Table
	unavailable map[string]error
}

func NewDataspace(name string) *Dataspace {
	return &Dataspace{
		Name:        name,
		tables:      make(map[string]*heap.Table),
		unavailable: make(map[string]error),
	}
}

// ValidateName rejects names that can't be used as part of a file name
// or a line in a catalog file.
func ValidateName(name string) error {
	if name == "" || strings.TrimSpace(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if strings.ContainsAny(name, "./\\,:\n\r") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func (ds *Dataspace) AddTable(t *heap.Table) error {
	if ds.has(t.Name) {
		return fmt.Errorf("%w: table %s.%s", ErrAlreadyExists, ds.Name, t.Name)
	}
	ds.tables[t.Name] = t
	return nil
}

// MarkTableUnavailable keeps name listed but refuses access to it.
func (ds *Dataspace) MarkTableUnavailable(name string, cause error) error {
	if ds.has(name) {
		return fmt.Errorf("%w: table %s.%s", ErrAlreadyExists, ds.Name, name)
	}
	ds.unavailable[name] = cause
	return nil
}

func (ds *Dataspace) Table(name string) (*heap.Table, error) {
	if t, ok := ds.tables[name]; ok {
		return t, nil
	}
	if cause, ok := ds.unavailable[name]; ok {
		return nil, &UnavailableError{Name: ds.Name + "." + name, Cause: cause}
	}
	return nil, fmt.Errorf("%w: %s.%s", ErrTableNotFound, ds.Name, name)
}

// Tables returns the loaded tables sorted by name.
func (ds *Dataspace) Tables() []*heap.Table {
	out := make([]*heap.Table, 0, len(ds.tables))
	for _, name := range sortedKeys(ds.tables) {
		out = append(out, ds.tables[name])
	}
	return out
}

// TableNames lists every table of the dataspace, unavailable ones included.
func (ds *Dataspace) TableNames() []string {
	names := sortedKeys(ds.tables)
	names = append(names, sortedKeys(ds.unavailable)...)
	sort.Strings(names)
	return names
}

func (ds *Dataspace) UnavailableTables() map[string]error {
	out := make(map[string]error, len(ds.unavailable))
	for k, v := range ds.unavailable {
		out[k] = v
	}
	return out
}

func (ds *Dataspace) has(name string) bool {
	_, ok := ds.tables[name]
	_, bad := ds.unavailable[name]
	return ok || bad
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
