package storage

import (
	"github.com/tuannm99/mikedb/internal/heap"
)

var _ heap.PageWriter = (*TablePages)(nil)

// TablePages is the heap.PageWriter of one table.
type TablePages struct {
	files     FileSet
	dataspace string
	table     string
}

func (d *Driver) TablePages(dataspace, table string) *TablePages {
	return &TablePages{files: d.Files, dataspace: dataspace, table: table}
}

func (p *TablePages) AppendRow(page uint64, line string, fresh bool) error {
	return p.files.AppendLine(p.files.PagePath(p.dataspace, p.table, page), line, fresh)
}

// WriteMeta rewrites page 0 in place via a temporary file.
func (p *TablePages) WriteMeta(meta heap.Meta) error {
	return p.files.WriteLines(p.files.PagePath(p.dataspace, p.table, metaPage), encodeMeta(meta))
}
