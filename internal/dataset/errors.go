package dataset

import (
	"errors"
	"fmt"
)

// ErrDataUnavailable is matched by every loader failure
var ErrDataUnavailable = errors.New("data unavailable")

// DataUnavailableError reports why the snapshot could not be produced.
// Line is the 1-based file line (or sheet row) of a malformed record, 0 when
// the failure is not tied to a record.
type DataUnavailableError struct {
	Path   string
	Line   int
	Reason string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	msg := fmt.Sprintf("data unavailable: %s", e.Path)
	if e.Line > 0 {
		msg = fmt.Sprintf("%s (line %d)", msg, e.Line)
	}
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *DataUnavailableError) Unwrap() error {
	return e.Err
}

// Is matches ErrDataUnavailable
func (e *DataUnavailableError) Is(target error) bool {
	return target == ErrDataUnavailable
}

// UserMessage is the blocking message shown in place of the dashboard
func (e *DataUnavailableError) UserMessage() string {
	return fmt.Sprintf("Could not find or read the data file %q. Run the data generation step first, then restart the dashboard.", e.Path)
}

func unavailable(path string, line int, reason string, err error) *DataUnavailableError {
	return &DataUnavailableError{Path: path, Line: line, Reason: reason, Err: err}
}
