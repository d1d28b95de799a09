package ingest

import (
	"fmt"

	"github.com/JonMunkholm/fundingdata/internal/validate"
)

// ValidationError carries every validation failure of a submission.
type ValidationError struct {
	Failures []validate.Failure
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("workbook validation failed: %d failures", len(e.Failures))
}

// MappingError is a row the loader could not turn into an entity. The
// validator should have caught it, so it is an engineering failure.
type MappingError struct {
	Table  string
	Row    int // zero-based row in the canonical table
	Column string
	Reason string
}

func (e *MappingError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("map %s row %d: %s", e.Table, e.Row, e.Reason)
	}
	return fmt.Sprintf("map %s row %d column %q: %s", e.Table, e.Row, e.Column, e.Reason)
}

// InternalError is an ingest that failed for reasons the submitter cannot
// fix. ID is logged with the cause and returned to the caller for support.
type InternalError struct {
	ID  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("ingest failed (id %s): %v", e.ID, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }
