// Package etlerr defines the failure categories of a preparation run.
package etlerr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind names a failure category. It is persisted in the run ledger.
type ErrorKind string

const (
	KindNone         ErrorKind = ""
	KindMissingInput ErrorKind = "missing_input"
	KindSchema       ErrorKind = "schema"
	KindWrite        ErrorKind = "write"
	KindUnknown      ErrorKind = "unknown"
)

// MissingInputError reports a required input file or workbook sheet that is absent
// or unreadable.
type MissingInputError struct {
	What string // "workbook", "sheet", "shapefile", ...
	Name string
	Err  error
}

func (e *MissingInputError) Error() string {
	msg := fmt.Sprintf("missing input: %s %q", e.What, e.Name)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MissingInputError) Unwrap() error { return e.Err }

// NewMissingInput wraps err as a MissingInputError.
func NewMissingInput(what, name string, err error) *MissingInputError {
	return &MissingInputError{What: what, Name: name, Err: err}
}

// SchemaError reports an expected column that is absent, or an output schema that
// violates a naming constraint.
type SchemaError struct {
	Table   string
	Columns []string
	Reason  string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("schema: ")
	if e.Table != "" {
		fmt.Fprintf(&b, "%s: ", e.Table)
	}
	b.WriteString(e.Reason)
	if len(e.Columns) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(e.Columns, ", "))
	}
	return b.String()
}

// NewMissingColumns builds a SchemaError listing columns absent from a table.
func NewMissingColumns(table string, cols ...string) *SchemaError {
	return &SchemaError{Table: table, Columns: cols, Reason: "missing columns"}
}

// WriteError reports that the output file set could not be persisted.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// NewWriteError wraps err as a WriteError for path.
func NewWriteError(path string, err error) *WriteError {
	return &WriteError{Path: path, Err: err}
}

// CoverageWarning describes a merge in which few or no boundary features matched a
// master record. It is logged, never returned as a fatal error.
type CoverageWarning struct {
	Matched int
	Total   int
	Minimum float64
}

func (w *CoverageWarning) Error() string {
	if w.Matched == 0 {
		return fmt.Sprintf("no boundary features matched a master record (0/%d)", w.Total)
	}
	return fmt.Sprintf("low match coverage %d/%d (%.1f%%, minimum %.1f%%)",
		w.Matched, w.Total, w.Fraction()*100, w.Minimum*100)
}

// Fraction returns matched/total, or 0 for an empty boundary set.
func (w *CoverageWarning) Fraction() float64 {
	if w.Total == 0 {
		return 0
	}
	return float64(w.Matched) / float64(w.Total)
}

// Kind classifies err by walking its wrap chain.
func Kind(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var mi *MissingInputError
	if errors.As(err, &mi) {
		return KindMissingInput
	}
	var se *SchemaError
	if errors.As(err, &se) {
		return KindSchema
	}
	var we *WriteError
	if errors.As(err, &we) {
		return KindWrite
	}
	return KindUnknown
}
