package app

import "fmt"

// FormatError marks a structurally invalid document: a missing required
// array or field that makes the whole file unprocessable. The file is
// marked FAILED and no further records from it are applied; the batch
// continues with the next file.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return e.Reason
}

func formatErrorf(format string, args ...any) *FormatError {
	return &FormatError{Reason: fmt.Sprintf(format, args...)}
}

// RecordError marks one malformed record inside an otherwise well-formed
// document. The record is skipped, the file stays eligible for SUCCESS, and
// the error string lands in the batch-level error list.
type RecordError struct {
	Reason string
	Err    error
}

func (e *RecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

func recordErrorf(format string, args ...any) *RecordError {
	return &RecordError{Reason: fmt.Sprintf(format, args...)}
}
