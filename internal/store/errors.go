package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an operation targets a record id that does
// not exist.
var ErrNotFound = errors.New("wine not found")

// ValidationError reports rejected form input. The caller surfaces it as a
// 4xx response; nothing was written.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
