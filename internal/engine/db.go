package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/spf13/afero"

	"github.com/tuannm99/mikedb/internal/catalog"
	"github.com/tuannm99/mikedb/internal/heap"
	"github.com/tuannm99/mikedb/internal/record"
	"github.com/tuannm99/mikedb/internal/storage"
)

var ErrNotLoaded = errors.New("mikedb: catalog not loaded")

type DatabaseOperation interface {
	LoadAll() error
	Save() error
	CreateDataspace(name string) error
	CreateTable(dataspace, table string, types []record.FieldType, names []string) (*heap.Table, error)
	Insert(table, dataspace string, values [][]byte) (record.Row, error)
	SelectByRowID(table, dataspace, id string) (record.Row, bool, error)
	CreateIndex(dataspace, table string, columns []string) error
	Lookup(dataspace, table string, columns []string, values [][]byte) ([]record.Row, error)
}

var _ DatabaseOperation = (*DBMS)(nil)

// DBMS is the single handle an embedding process passes around. It owns
// the catalog; there is no package level state.
type DBMS struct {
	DataDir string

	mu      sync.RWMutex
	driver  *storage.Driver
	catalog *catalog.DBMS
}

// New creates a handle on the OS filesystem without touching it.
func New(dataDir string, pageSize int64) *DBMS {
	return NewWithFs(afero.NewOsFs(), dataDir, pageSize)
}

func NewWithFs(fs afero.Fs, dataDir string, pageSize int64) *DBMS {
	return &DBMS{
		DataDir: dataDir,
		driver:  storage.NewDriver(fs, dataDir, pageSize),
	}
}

// LoadAll replaces the in-memory catalog with what is on disk.
func (db *DBMS) LoadAll() error {
	c, err := db.driver.LoadAll()
	if err != nil {
		return fmt.Errorf("load %s: %w", db.DataDir, err)
	}

	db.mu.Lock()
	db.catalog = c
	db.mu.Unlock()

	slog.Info("dbms loaded", "data_dir", db.DataDir, "dataspaces", len(c.DataspaceNames()))
	return nil
}

func (db *DBMS) Save() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.catalog == nil {
		return ErrNotLoaded
	}
	return db.driver.Save(db.catalog)
}

// CreateDataspace writes an empty table list, then lists the dataspace in
// the info file, then registers it in memory.
func (db *DBMS) CreateDataspace(name string) error {
	if err := catalog.ValidateName(name); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if db.catalog == nil {
		return ErrNotLoaded
	}
	if _, err := db.catalog.Dataspace(name); !errors.Is(err, catalog.ErrDataspaceNotFound) {
		return fmt.Errorf("%w: dataspace %s", catalog.ErrAlreadyExists, name)
	}

	if err := db.driver.WriteTableList(name, nil); err != nil {
		return err
	}
	if err := db.driver.WriteInfo(append(db.catalog.DataspaceNames(), name)); err != nil {
		return err
	}
	return db.catalog.AddDataspace(catalog.NewDataspace(name))
}

// CreateTable registers an empty table. Its metadata page is written with a
// page count of 0 before the table is listed in the dataspace. An index file
// left over from an earlier table of the same name is removed.
func (db *DBMS) CreateTable(dataspace, table string, types []record.FieldType, names []string) (*heap.Table, error) {
	if err := catalog.ValidateName(table); err != nil {
		return nil, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if db.catalog == nil {
		return nil, ErrNotLoaded
	}
	ds, err := db.catalog.Dataspace(dataspace)
	if err != nil {
		return nil, err
	}
	if _, err := ds.Table(table); !errors.Is(err, catalog.ErrTableNotFound) {
		return nil, fmt.Errorf("%w: table %s.%s", catalog.ErrAlreadyExists, dataspace, table)
	}

	tbl, err := heap.NewTable(dataspace, table, types, names, 0)
	if err != nil {
		return nil, err
	}
	if err := db.driver.RemoveIndexes(dataspace, table); err != nil {
		return nil, err
	}
	pages := db.driver.TablePages(dataspace, table)
	if err := pages.WriteMeta(tbl.Meta()); err != nil {
		return nil, err
	}
	if err := db.driver.WriteTableList(dataspace, append(ds.TableNames(), table)); err != nil {
		return nil, err
	}
	tbl.AttachWriter(pages, db.driver.PageSize)
	if err := ds.AddTable(tbl); err != nil {
		return nil, err
	}
	slog.Info("create table", "dataspace", dataspace, "table", table)
	return tbl, nil
}

// table resolves dataspace.table. Callers hold db.mu for reading for the
// whole row operation so Save never sees a table mid-insert.
func (db *DBMS) table(dataspace, table string) (*heap.Table, error) {
	if db.catalog == nil {
		return nil, ErrNotLoaded
	}
	return db.catalog.Table(dataspace, table)
}

// Insert appends one row to dataspace.table. On error nothing was added.
func (db *DBMS) Insert(table, dataspace string, values [][]byte) (record.Row, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	tbl, err := db.table(dataspace, table)
	if err != nil {
		return record.Row{}, err
	}
	return tbl.Insert(values)
}

func (db *DBMS) SelectByRowID(table, dataspace, id string) (record.Row, bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	tbl, err := db.table(dataspace, table)
	if err != nil {
		return record.Row{}, false, err
	}
	row, ok := tbl.SelectByRowID(id)
	return row, ok, nil
}

// CreateIndex builds the index in memory and rewrites the table's index file.
// If the file can't be written the index is dropped again.
func (db *DBMS) CreateIndex(dataspace, table string, columns []string) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	tbl, err := db.table(dataspace, table)
	if err != nil {
		return err
	}
	if err := tbl.CreateIndex(columns); err != nil {
		return err
	}
	if err := db.driver.WriteIndexes(tbl); err != nil {
		if dropErr := tbl.DropIndex(columns); dropErr != nil {
			slog.Error("create index:: rollback", "dataspace", dataspace, "table", table, "err", dropErr)
		}
		return err
	}
	return nil
}

func (db *DBMS) Lookup(dataspace, table string, columns []string, values [][]byte) ([]record.Row, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	tbl, err := db.table(dataspace, table)
	if err != nil {
		return nil, err
	}
	return tbl.Lookup(columns, values)
}

// Dataspaces lists every dataspace name, including ones that failed to load.
func (db *DBMS) Dataspaces() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.catalog == nil {
		return nil
	}
	return db.catalog.DataspaceNames()
}

func (db *DBMS) Tables(dataspace string) ([]string, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.catalog == nil {
		return nil, ErrNotLoaded
	}
	ds, err := db.catalog.Dataspace(dataspace)
	if err != nil {
		return nil, err
	}
	return ds.TableNames(), nil
}
