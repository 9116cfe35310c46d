package graph

import (
	"errors"
	"fmt"
)

// ErrNodeNotFound reports a node id absent from the graph
var ErrNodeNotFound = errors.New("node not found")

// Error provides structured error information for store operations.
type Error struct {
	Op     string // Operation that failed (e.g., "RemoveNode")
	Entity string // Entity type ("node", "edge", "graph")
	ID     string // Entity ID (if applicable)
	Cause  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s %q: %v", e.Op, e.Entity, e.ID, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}
