package storage

import (
	"errors"
	"fmt"
)

const (
	OneKB = 1 << 10

	// DefaultPageSize is the soft limit of a data page file.
	DefaultPageSize = OneKB * 8
)

const (
	FileMode0644 = 0o644
	FileMode0755 = 0o755
)

const (
	infoFileName   = "info.mike_db"
	tablesExt      = ".tables"
	tableExt       = ".table"
	indexesExt     = ".indexes"
	tmpExt         = ".tmp"
	metaPage       = 0
	indexSeparator = ":"
)

var (
	ErrFileRead   = errors.New("storage: file read error")
	ErrCorruption = errors.New("storage: table metadata is corrupted")
)

// FileReadError wraps an I/O failure on one catalog or page file.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrFileRead, e.Path, e.Err)
}

func (e *FileReadError) Unwrap() []error { return []error{ErrFileRead, e.Err} }

// TableLoadError means a metadata page exists but can't be understood.
type TableLoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *TableLoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %s: %v", ErrCorruption, e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("%v: %s: %s", ErrCorruption, e.Path, e.Reason)
}

func (e *TableLoadError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrCorruption, e.Err}
	}
	return []error{ErrCorruption}
}
