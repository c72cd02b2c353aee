package curriculum

import (
	"errors"
	"fmt"
)

var (
	// ErrRead wraps failures to open or read the source document
	ErrRead = errors.New("read curriculum document")
	// ErrParse wraps source documents that are not valid JSON
	ErrParse = errors.New("parse curriculum document")
	// ErrNoRows is returned by backends whose insert response carried no row
	ErrNoRows = errors.New("backend returned no data")
)

// SchemaError reports a document node that does not have the shape the
// loader accesses directly: a missing required key, a non-numeric year level
// or a value of the wrong JSON type.
type SchemaError struct {
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error at %s: %s", e.Path, e.Reason)
}

// InsertFailure reports a row the backend did not create.
type InsertFailure struct {
	Entity Entity
	Name   string
	Err    error
}

func (e *InsertFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("insert %s %q: %v", e.Entity, e.Name, e.Err)
	}
	return fmt.Sprintf("insert %s %q: backend returned no data", e.Entity, e.Name)
}

func (e *InsertFailure) Unwrap() error {
	return e.Err
}
