package storage

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/tuannm99/mikedb/internal/catalog"
	"github.com/tuannm99/mikedb/internal/heap"
)

type stagedFile struct {
	tmp  string
	path string
}

// Save persists every loaded table, every table list and the info file.
// Each table is written to temporary files first and only renamed into
// place once all of its files were written. A failing table does not stop
// the others; all errors are joined.
func (d *Driver) Save(dbms *catalog.DBMS) error {
	var errs []error
	for _, ds := range dbms.Dataspaces() {
		for _, tbl := range ds.Tables() {
			if err := d.SaveTable(tbl); err != nil {
				slog.Error("save table", "dataspace", tbl.Dataspace, "table", tbl.Name, "err", err)
				errs = append(errs, err)
			}
		}
		if err := d.WriteTableList(ds.Name, ds.TableNames()); err != nil {
			errs = append(errs, err)
		}
	}
	if err := d.WriteInfo(dbms.DataspaceNames()); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (d *Driver) WriteInfo(dataspaces []string) error {
	if err := d.Files.WriteLines(d.Files.InfoPath(), dataspaces); err != nil {
		return fmt.Errorf("write info file: %w", err)
	}
	return nil
}

func (d *Driver) WriteTableList(dataspace string, tables []string) error {
	if err := d.Files.WriteLines(d.Files.TablesPath(dataspace), tables); err != nil {
		return fmt.Errorf("write table list of %s: %w", dataspace, err)
	}
	return nil
}

// WriteIndexes rewrites the index definition file of tbl.
func (d *Driver) WriteIndexes(tbl *heap.Table) error {
	path := d.Files.IndexPath(tbl.Dataspace, tbl.Name)
	if err := d.Files.WriteLines(path, encodeIndexes(tbl.Indexes())); err != nil {
		return fmt.Errorf("write indexes of %s.%s: %w", tbl.Dataspace, tbl.Name, err)
	}
	return nil
}

// RemoveIndexes deletes the index file of dataspace.table if there is one.
func (d *Driver) RemoveIndexes(dataspace, table string) error {
	path := d.Files.IndexPath(dataspace, table)
	ok, err := d.Files.Exists(path)
	if err != nil || !ok {
		return err
	}
	if err := d.Files.Fs.Remove(path); err != nil {
		return fmt.Errorf("remove indexes of %s.%s: %w", dataspace, table, err)
	}
	return nil
}

// SaveTable rewrites all pages of tbl. Data pages are renamed first and the
// metadata page last, so page 0 never counts pages that are not there yet.
func (d *Driver) SaveTable(tbl *heap.Table) error {
	lines := tbl.PageLines()
	pages, lastSize := paginate(lines, tbl.PageLimit())
	prevCount := tbl.PageCount()

	var staged []stagedFile
	discard := func() {
		for _, s := range staged {
			_ = d.Files.Fs.Remove(s.tmp)
		}
	}
	stage := func(path string, lines []string) error {
		tmp, err := d.Files.stage(path, lines)
		if err != nil {
			discard()
			return fmt.Errorf("stage %s: %w", path, err)
		}
		staged = append(staged, stagedFile{tmp: tmp, path: path})
		return nil
	}

	for i, lines := range pages {
		if err := stage(d.Files.PagePath(tbl.Dataspace, tbl.Name, uint64(i+1)), lines); err != nil {
			return err
		}
	}

	indexes := tbl.Indexes()
	indexPath := d.Files.IndexPath(tbl.Dataspace, tbl.Name)
	if len(indexes) > 0 {
		if err := stage(indexPath, encodeIndexes(indexes)); err != nil {
			return err
		}
	}

	meta := tbl.Meta()
	meta.PageCount = uint64(len(pages))
	if err := stage(d.Files.PagePath(tbl.Dataspace, tbl.Name, metaPage), encodeMeta(meta)); err != nil {
		return err
	}

	for i, s := range staged {
		if err := d.Files.commit(s.tmp, s.path); err != nil {
			staged = staged[i+1:]
			discard()
			return fmt.Errorf("commit %s: %w", s.path, err)
		}
	}

	if len(indexes) == 0 {
		d.removeIfExists(indexPath)
	}
	for page := meta.PageCount + 1; page <= prevCount; page++ {
		d.removeIfExists(d.Files.PagePath(tbl.Dataspace, tbl.Name, page))
	}

	tbl.SetPageLayout(meta.PageCount, lastSize)
	slog.Debug("save table", "dataspace", tbl.Dataspace, "table", tbl.Name, "pages", meta.PageCount, "lines", len(lines))
	return nil
}

func (d *Driver) removeIfExists(path string) {
	ok, err := d.Files.Exists(path)
	if err != nil || !ok {
		return
	}
	if err := d.Files.Fs.Remove(path); err != nil {
		slog.Warn("save table:: remove stale file", "path", path, "err", err)
	}
}

// paginate splits page lines using the same rule as inserts: a page is
// closed when the next line would push it over limit, unless the page is
// still empty.
func paginate(lines []string, limit int64) ([][]string, int64) {
	var (
		pages [][]string
		cur   []string
		size  int64
	)
	for _, line := range lines {
		n := int64(len(line)) + 1
		if len(cur) > 0 && size+n > limit {
			pages = append(pages, cur)
			cur, size = nil, 0
		}
		cur = append(cur, line)
		size += n
	}
	if len(cur) > 0 {
		pages = append(pages, cur)
	}
	return pages, size
}
