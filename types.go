// Package mikedb is the top-level facade for the mikedb table store.
package mikedb

import (
	"github.com/tuannm99/mikedb/internal/engine"
	"github.com/tuannm99/mikedb/internal/record"
)

type (
	DBMS      = engine.DBMS
	Row       = record.Row
	Field     = record.Field
	FieldType = record.FieldType
)

const (
	String  = record.String
	Integer = record.Integer
)

// Open returns a DBMS rooted at dataDir on the OS filesystem. Call LoadAll
// before using it.
func Open(dataDir string, pageSize int64) *DBMS {
	return engine.New(dataDir, pageSize)
}
