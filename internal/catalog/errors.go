package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("catalog: not found")
	ErrAlreadyExists = errors.New("catalog: already exists")
	ErrUnavailable   = errors.New("catalog: failed to load")
	ErrInvalidName   = errors.New("catalog: invalid name")

	ErrDataspaceNotFound = fmt.Errorf("dataspace does not exist: %w", ErrNotFound)
	ErrTableNotFound     = fmt.Errorf("table does not exist: %w", ErrNotFound)
)

// UnavailableError is returned for an entry that is listed on disk but
// could not be loaded.
type UnavailableError struct {
	Name  string
	Cause error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrUnavailable, e.Name, e.Cause)
}

func (e *UnavailableError) Unwrap() []error { return []error{ErrUnavailable, e.Cause} }
