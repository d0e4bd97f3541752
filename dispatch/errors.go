package dispatch

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrDuplicateHandler is the sentinel matched by
	// DuplicateHandlerError values.
	ErrDuplicateHandler = errors.New("duplicate handler")
	// ErrHandlerNotFound is the sentinel matched by
	// HandlerNotFoundError values.
	ErrHandlerNotFound = errors.New("handler not found")
)

// DuplicateHandlerError is returned at table build time when two
// handlers on the same actor type accept the same message type,
// regardless of which embedding level declared them.
// This indicates a programming defect in the handler declarations and
// is never retried.
type DuplicateHandlerError struct {
	// Actor type the table was being built for
	Object reflect.Type
	// Message type both handlers accept
	Message reflect.Type
}

func (e *DuplicateHandlerError) Error() string {
	return fmt.Sprintf("duplicate handler for message type %s on actor type %s", typeName(e.Message), typeName(e.Object))
}

func (e *DuplicateHandlerError) Is(target error) bool {
	return target == ErrDuplicateHandler
}

// HandlerNotFoundError is returned by Dispatch when no handler is
// registered for the message's type and no fallback was supplied.
type HandlerNotFoundError struct {
	// Type of the dispatch target
	Target reflect.Type
	// Type of the message
	Message reflect.Type
}

func (e *HandlerNotFoundError) Error() string {
	return fmt.Sprintf("handler not found for message type %s on target type %s", typeName(e.Message), typeName(e.Target))
}

func (e *HandlerNotFoundError) Is(target error) bool {
	return target == ErrHandlerNotFound
}
