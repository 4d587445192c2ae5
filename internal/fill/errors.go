package fill

import (
	"fmt"
	"strings"
)

// ValidationError reports required fields that have no value. Fill is
// not attempted while any remain; the caller surfaces the error to the
// user for correction.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) == 1 {
		return fmt.Sprintf("1 required field is missing a value: %s", e.Missing[0])
	}
	return fmt.Sprintf("%d required fields are missing values: %s",
		len(e.Missing), strings.Join(e.Missing, ", "))
}

// Count returns the number of unfilled required fields.
func (e *ValidationError) Count() int {
	return len(e.Missing)
}

// ProcessingError reports that the document content could not be
// transformed. No partial artifact is produced; the operation may be
// retried.
type ProcessingError struct {
	Op  string
	Err error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing failed during %s: %v", e.Op, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}
