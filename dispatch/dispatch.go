// Package dispatch resolves incoming messages to handler methods on
// actor types.
//
// Handlers are discovered by naming convention across an actor struct
// and its embedded types, compiled once into a uniform invocation
// shape, and stored in an immutable table keyed by message type.
// Dispatching a message is then a map lookup plus a single call, with
// no per-message introspection.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"time"

	"k8s.io/utils/clock"

	"github.com/JangoCity/Orleankka/actor"
)

// Handler is the uniform shape every handler method is compiled into.
// A nil result with a nil error means the handler completed without a
// value.
type Handler func(ctx context.Context, target any, msg any) (any, error)

// Fallback is invoked by Dispatch when no handler is registered for the
// message's type.
type Fallback func(ctx context.Context, msg any) (any, error)

// DefaultConventions returns the method name prefixes that identify
// handler methods when no override is configured.
func DefaultConventions() []string {
	return []string{"On", "Handle", "Answer", "Apply"}
}

// DefaultRoots returns the types at which embedded-type traversal stops
// when no override is configured.
func DefaultRoots() []reflect.Type {
	return []reflect.Type{reflect.TypeFor[actor.Base]()}
}

// Options is the type for the options for the New and NewBuilder
// methods.
type Options struct {
	// Method name prefixes that identify handler methods
	// Defaults to the values returned by DefaultConventions
	Conventions []string
	// Types at which embedded-type traversal stops
	// Defaults to the values returned by DefaultRoots
	Roots []reflect.Type
	// Instance of a slog.Logger
	Logger *slog.Logger
	// Handlers that take longer than this to complete cause a warning
	// log to be emitted
	// Defaults to 0, which disables the check
	SlowHandlerThreshold time.Duration

	// Allows setting a clock for testing
	clock clock.PassiveClock
}

func (o *Options) Validate() error {
	if len(o.Conventions) == 0 {
		o.Conventions = DefaultConventions()
	}
	for _, c := range o.Conventions {
		if c == "" || !isExportedName(c) {
			return fmt.Errorf("option Conventions contains invalid name prefix '%s': must be a non-empty exported identifier", c)
		}
	}

	if len(o.Roots) == 0 {
		o.Roots = DefaultRoots()
	}
	for _, r := range o.Roots {
		if r == nil {
			return errors.New("option Roots must not contain nil types")
		}
	}

	// Set a default logger, which sends logs to /dev/null, if none is passed
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}

	if o.SlowHandlerThreshold < 0 {
		return errors.New("option SlowHandlerThreshold must not be negative")
	}

	// Init a real clock if none is passed
	if o.clock == nil {
		o.clock = clock.RealClock{}
	}

	return nil
}

// Dispatcher routes messages to the handlers of one actor type.
// It is immutable after construction and safe for concurrent use.
type Dispatcher struct {
	objectType reflect.Type
	table      *table

	log           *slog.Logger
	slowThreshold time.Duration
	clock         clock.PassiveClock
}

// New builds a Dispatcher for the target's type.
// The target can be an instance, a pointer to an instance, or a
// reflect.Type.
func New(target any, opts Options) (*Dispatcher, error) {
	return NewBuilder(target, opts).Build()
}

// ObjectType returns the actor type the dispatcher was built for.
func (d *Dispatcher) ObjectType() reflect.Type {
	return d.objectType
}

// CanHandle returns true if a handler is registered for exactly this
// message type. There is no polymorphic matching: a handler for an
// interface or base type does not answer for its implementations.
func (d *Dispatcher) CanHandle(msgType reflect.Type) bool {
	_, ok := d.table.entries[msgType]
	return ok
}

// MessageTypes returns the message types the dispatcher has handlers
// for, in a stable order.
func (d *Dispatcher) MessageTypes() []reflect.Type {
	return slices.Clone(d.table.types)
}

// Dispatch routes msg to the handler registered for its exact runtime
// type and returns the handler's result and error unchanged.
// If no handler matches and fallback is non-nil, the fallback is
// invoked instead; with no fallback, a HandlerNotFoundError is
// returned.
func (d *Dispatcher) Dispatch(ctx context.Context, target any, msg any, fallback Fallback) (any, error) {
	if msg == nil {
		return nil, errors.New("message must not be nil")
	}

	msgType := reflect.TypeOf(msg)
	handler, ok := d.table.entries[msgType]
	if !ok {
		if fallback != nil {
			return fallback(ctx, msg)
		}
		return nil, &HandlerNotFoundError{Target: d.objectType, Message: msgType}
	}

	return d.invoke(ctx, handler, target, msgType, msg)
}

// DispatchAs routes a message by an explicit message type, with a body
// that may still be in an erased representation (for example, a map
// decoded from a wire payload). The handler converts the body to its
// declared parameter type.
// DispatchAs has no fallback: an unregistered type returns a
// HandlerNotFoundError.
func (d *Dispatcher) DispatchAs(ctx context.Context, target any, msgType reflect.Type, body any) (any, error) {
	if msgType == nil {
		return nil, errors.New("message type must not be nil")
	}

	handler, ok := d.table.entries[msgType]
	if !ok {
		return nil, &HandlerNotFoundError{Target: d.objectType, Message: msgType}
	}

	return d.invoke(ctx, handler, target, msgType, body)
}

func (d *Dispatcher) invoke(ctx context.Context, handler Handler, target any, msgType reflect.Type, msg any) (any, error) {
	if d.slowThreshold <= 0 {
		return handler(ctx, target, msg)
	}

	start := d.clock.Now()
	res, err := handler(ctx, target, msg)
	if elapsed := d.clock.Since(start); elapsed > d.slowThreshold {
		d.log.WarnContext(ctx, "Slow handler",
			slog.String("actorType", typeName(d.objectType)),
			slog.String("messageType", typeName(msgType)),
			slog.Duration("elapsed", elapsed),
		)
	}

	return res, err
}

// normalizeObjectType resolves the struct type dispatch tables are
// keyed by, accepting an instance, a pointer to one, or a reflect.Type.
func normalizeObjectType(target any) (reflect.Type, error) {
	var t reflect.Type
	switch x := target.(type) {
	case nil:
		return nil, errors.New("target must not be nil")
	case reflect.Type:
		t = x
	default:
		t = reflect.TypeOf(target)
	}

	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("target must be a struct or a pointer to struct; got %s", t)
	}

	return t, nil
}

// typeName returns a stable, human-readable name for a type.
func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

func isExportedName(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}
