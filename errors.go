package xlrecord

import (
	"errors"
	"fmt"
)

// ErrEmptyMapping indicates a mapping with no row templates.
var ErrEmptyMapping = errors.New("mapping has no row templates")

// ExtractionError represents a failure reading one field of one record.
type ExtractionError struct {
	Sheet string
	Row   int // 1-based row the record starts at
	Field string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract field %q at sheet %q row %d: %v", e.Field, e.Sheet, e.Row, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewExtractionError creates a new ExtractionError.
func NewExtractionError(sheet string, row int, field string, err error) *ExtractionError {
	return &ExtractionError{
		Sheet: sheet,
		Row:   row,
		Field: field,
		Err:   err,
	}
}
