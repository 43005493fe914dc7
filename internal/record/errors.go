package record

import (
	"errors"
	"fmt"
)

// OpenError reports a source that could not be opened or read.
type OpenError struct {
	Location string
	Err      error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("cannot open %s: %v", e.Location, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// ParseError reports a field that could not be decoded, or a configured
// column name that is absent from the source's header.
type ParseError struct {
	Location string
	Record   int    // 1-based record number; 0 for header-level errors
	Column   string // column name, when known
	Message  string
	Err      error // underlying cause (optional)
}

func (e *ParseError) Error() string {
	if e.Record > 0 {
		return fmt.Sprintf("%s: record %d, column %q: %s", e.Location, e.Record, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Location, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err is (or wraps) a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

func missingColumn(location, column string) *ParseError {
	return &ParseError{
		Location: location,
		Column:   column,
		Message:  fmt.Sprintf("%q is not a valid column", column),
	}
}
