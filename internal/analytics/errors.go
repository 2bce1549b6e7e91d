package analytics

import (
	"errors"
	"fmt"
)

// ErrNoHistory is matched by NoHistoryError
var ErrNoHistory = errors.New("no observed history")

// NoHistoryError reports an entity with predicted rows but no observed rows
type NoHistoryError struct {
	Entity    string
	Predicted int
}

func (e *NoHistoryError) Error() string {
	if e.Entity == "" {
		return "no observed history to anchor the prediction"
	}
	return fmt.Sprintf("entity %q has %d predicted points but no observed history", e.Entity, e.Predicted)
}

// Is matches ErrNoHistory
func (e *NoHistoryError) Is(target error) bool {
	return target == ErrNoHistory
}
