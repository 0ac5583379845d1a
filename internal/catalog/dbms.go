package catalog

import (
	"fmt"
	"sort"

	"github.com/tuannm99/mikedb/internal/heap"
)

// DBMS owns every dataspace rooted at DataDir.
type DBMS struct {
	DataDir string

	dataspaces  map[string]*Dataspace
	unavailable map[string]error
}

func NewDBMS(dataDir string) *DBMS {
	return &DBMS{
		DataDir:     dataDir,
		dataspaces:  make(map[string]*Dataspace),
		unavailable: make(map[string]error),
	}
}

func (d *DBMS) AddDataspace(ds *Dataspace) error {
	if d.has(ds.Name) {
		return fmt.Errorf("%w: dataspace %s", ErrAlreadyExists, ds.Name)
	}
	d.dataspaces[ds.Name] = ds
	return nil
}

func (d *DBMS) MarkDataspaceUnavailable(name string, cause error) error {
	if d.has(name) {
		return fmt.Errorf("%w: dataspace %s", ErrAlreadyExists, name)
	}
	d.unavailable[name] = cause
	return nil
}

func (d *DBMS) Dataspace(name string) (*Dataspace, error) {
	if ds, ok := d.dataspaces[name]; ok {
		return ds, nil
	}
	if cause, ok := d.unavailable[name]; ok {
		return nil, &UnavailableError{Name: name, Cause: cause}
	}
	return nil, fmt.Errorf("%w: %s", ErrDataspaceNotFound, name)
}

// Table walks DBMS -> Dataspace -> Table. The error says which level is missing.
func (d *DBMS) Table(dataspace, table string) (*heap.Table, error) {
	ds, err := d.Dataspace(dataspace)
	if err != nil {
		return nil, err
	}
	return ds.Table(table)
}

// Dataspaces returns the loaded dataspaces sorted by name.
func (d *DBMS) Dataspaces() []*Dataspace {
	out := make([]*Dataspace, 0, len(d.dataspaces))
	for _, name := range sortedKeys(d.dataspaces) {
		out = append(out, d.dataspaces[name])
	}
	return out
}

// DataspaceNames lists every dataspace, unavailable ones included.
func (d *DBMS) DataspaceNames() []string {
	names := sortedKeys(d.dataspaces)
	names = append(names, sortedKeys(d.unavailable)...)
	sort.Strings(names)
	return names
}

func (d *DBMS) has(name string) bool {
	_, ok := d.dataspaces[name]
	_, bad := d.unavailable[name]
	return ok || bad
}
