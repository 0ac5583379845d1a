package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/tuannm99/mikedb/internal/catalog"
	"github.com/tuannm99/mikedb/internal/heap"
	"github.com/tuannm99/mikedb/internal/record"
)

// Driver reads and writes the catalog, table pages and index files.
type Driver struct {
	Files    FileSet
	PageSize int64
}

func NewDriver(fs afero.Fs, dir string, pageSize int64) *Driver {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Driver{Files: NewFileSet(fs, dir), PageSize: pageSize}
}

// LoadAll rebuilds the whole catalog from disk. Only a failure on the info
// file is returned; broken dataspaces and tables are logged and kept in the
// catalog as unavailable.
func (d *Driver) LoadAll() (*catalog.DBMS, error) {
	names, err := d.readInfo()
	if err != nil {
		return nil, err
	}

	dbms := catalog.NewDBMS(d.Files.Dir)
	for _, name := range names {
		if err := catalog.ValidateName(name); err != nil {
			slog.Error("load dbms:: skip dataspace", "name", name, "err", err)
			continue
		}
		ds, err := d.LoadDataspace(name)
		if err != nil {
			slog.Error("load dbms:: dataspace unavailable", "dataspace", name, "err", err)
			err = dbms.MarkDataspaceUnavailable(name, err)
		} else {
			err = dbms.AddDataspace(ds)
		}
		if err != nil {
			slog.Warn("load dbms:: duplicate dataspace in info file", "dataspace", name)
		}
	}
	return dbms, nil
}

func (d *Driver) readInfo() ([]string, error) {
	path := d.Files.InfoPath()
	lines, err := d.Files.ReadLines(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("load dbms:: creating info file", "path", path)
		if err := d.Files.WriteLines(path, nil); err != nil {
			return nil, fmt.Errorf("create info file %s: %w", path, err)
		}
		return nil, nil
	}
	if err != nil {
		return nil, &FileReadError{Path: path, Err: err}
	}
	return nonBlank(lines), nil
}

// LoadDataspace reads <dataspace>.tables and loads each listed table.
func (d *Driver) LoadDataspace(name string) (*catalog.Dataspace, error) {
	slog.Info("load dataspace", "dataspace", name)

	path := d.Files.TablesPath(name)
	lines, err := d.Files.ReadLines(path)
	if err != nil {
		return nil, &FileReadError{Path: path, Err: err}
	}

	ds := catalog.NewDataspace(name)
	for _, tableName := range nonBlank(lines) {
		if err := catalog.ValidateName(tableName); err != nil {
			slog.Error("load dataspace:: skip table", "dataspace", name, "table", tableName, "err", err)
			continue
		}
		tbl, err := d.LoadTable(name, tableName)
		if err != nil {
			slog.Error("load dataspace:: table unavailable", "dataspace", name, "table", tableName, "err", err)
			err = ds.MarkTableUnavailable(tableName, err)
		} else {
			err = ds.AddTable(tbl)
		}
		if err != nil {
			slog.Warn("load dataspace:: duplicate table in table list", "dataspace", name, "table", tableName)
		}
	}
	return ds, nil
}

// LoadTable reads the metadata page, replays every data page and rebuilds
// the table's indexes. The returned table appends new rows to its pages.
func (d *Driver) LoadTable(dataspace, name string) (*heap.Table, error) {
	slog.Info("load table", "dataspace", dataspace, "table", name)

	meta, err := d.readMeta(dataspace, name)
	if err != nil {
		return nil, err
	}
	tbl, err := heap.NewTable(dataspace, name, meta.Types, meta.Names, meta.PageCount)
	if err != nil {
		return nil, &TableLoadError{
			Path:   d.Files.PagePath(dataspace, name, metaPage),
			Reason: "invalid schema",
			Err:    err,
		}
	}

	d.loadRows(tbl, meta.PageCount)
	d.loadIndexes(tbl)
	tbl.AttachWriter(d.TablePages(dataspace, name), d.PageSize)
	return tbl, nil
}

func (d *Driver) readMeta(dataspace, name string) (heap.Meta, error) {
	path := d.Files.PagePath(dataspace, name, metaPage)
	lines, err := d.Files.ReadLines(path)
	if err != nil {
		return heap.Meta{}, &FileReadError{Path: path, Err: err}
	}

	if len(lines) < 1 {
		return heap.Meta{}, &TableLoadError{Path: path, Reason: "missing page count"}
	}
	pageCount, err := strconv.ParseUint(strings.TrimSpace(lines[0]), 10, 64)
	if err != nil {
		return heap.Meta{}, &TableLoadError{Path: path, Reason: "invalid page count", Err: err}
	}

	if len(lines) < 2 {
		return heap.Meta{}, &TableLoadError{Path: path, Reason: "missing field type data"}
	}
	types, err := record.ParseSchema(lines[1])
	if err != nil {
		return heap.Meta{}, &TableLoadError{Path: path, Reason: "invalid field type data", Err: err}
	}

	if len(lines) < 3 {
		return heap.Meta{}, &TableLoadError{Path: path, Reason: "missing column names"}
	}
	return heap.Meta{
		PageCount: pageCount,
		Types:     types,
		Names:     record.ParseColumnNames(lines[2]),
	}, nil
}

func encodeMeta(meta heap.Meta) []string {
	return []string{
		strconv.FormatUint(meta.PageCount, 10),
		record.FormatSchema(meta.Types),
		strings.Join(meta.Names, record.Delimiter),
	}
}

// loadRows replays pages 1..pageCount. Bad lines and missing pages are
// logged and skipped so the rest of the table still loads.
func (d *Driver) loadRows(tbl *heap.Table, pageCount uint64) {
	var lastSize int64
	for page := uint64(1); page <= pageCount; page++ {
		path := d.Files.PagePath(tbl.Dataspace, tbl.Name, page)
		lines, err := d.Files.ReadLines(path)
		if err != nil {
			slog.Error("load table:: skip data page", "path", path, "err", err)
			lastSize = 0
			continue
		}

		for i, line := range lines {
			values, err := record.DecodeLine(line)
			if err != nil {
				slog.Error("load table:: skip undecodable row", "path", path, "line", i+1, "err", err)
				tbl.SkipLine(line)
				continue
			}
			if _, err := tbl.Load(values, line); err != nil {
				slog.Error("load table:: skip row", "path", path, "line", i+1, "err", err)
			}
		}

		if lastSize, err = d.Files.Size(path); err != nil {
			slog.Warn("load table:: stat data page", "path", path, "err", err)
			lastSize = 0
		}
	}
	tbl.SetPageLayout(pageCount, lastSize)
	slog.Debug("load table:: rows loaded", "dataspace", tbl.Dataspace, "table", tbl.Name, "rows", tbl.RowCount())
}

// loadIndexes reads "col[,col...]:" definitions. Index entries are derived
// from the rows, so anything after the separator is ignored.
func (d *Driver) loadIndexes(tbl *heap.Table) {
	path := d.Files.IndexPath(tbl.Dataspace, tbl.Name)
	lines, err := d.Files.ReadLines(path)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil {
		slog.Error("load table:: skip index file", "path", path, "err", err)
		return
	}

	for i, line := range nonBlank(lines) {
		def, _, ok := strings.Cut(line, indexSeparator)
		if !ok {
			slog.Error("load table:: malformed index definition", "path", path, "entry", i+1, "line", line)
			continue
		}
		if err := tbl.CreateIndex(record.ParseColumnNames(def)); err != nil {
			slog.Error("load table:: skip index", "path", path, "entry", i+1, "err", err)
		}
	}
}

func encodeIndexes(indexes [][]string) []string {
	lines := make([]string, len(indexes))
	for i, cols := range indexes {
		lines[i] = strings.Join(cols, record.Delimiter) + indexSeparator
	}
	return lines
}

func nonBlank(lines []string) []string {
	out := lines[:0:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
