package dispatch

import (
	"reflect"
	"slices"
	"strings"
)

// table is the immutable mapping from message type to compiled handler
// for one actor type.
type table struct {
	entries map[reflect.Type]Handler
	// Keys of entries, sorted by type name for deterministic iteration
	types []reflect.Type
}

// Builder assembles the dispatch table for one actor type from scanned
// convention methods and explicitly registered typed handlers.
type Builder struct {
	target any
	opts   Options
	regs   []registration
}

// registration is a handler bound through the typed Register API.
type registration struct {
	msgType reflect.Type
	handler Handler
}

// NewBuilder returns a Builder for the target's type.
// The target can be an instance, a pointer to an instance, or a
// reflect.Type.
func NewBuilder(target any, opts Options) *Builder {
	return &Builder{
		target: target,
		opts:   opts,
	}
}

// Build scans the target type, compiles every discovered handler,
// merges in registered handlers, and returns the Dispatcher.
// Two handlers for the same message type, no matter how either was
// declared, fail the build with a DuplicateHandlerError.
//
// Building is deterministic: building twice for the same type and
// options yields tables with identical key sets and behaviorally
// equivalent handlers.
func (b *Builder) Build() (*Dispatcher, error) {
	err := b.opts.Validate()
	if err != nil {
		return nil, err
	}

	objType, err := normalizeObjectType(b.target)
	if err != nil {
		return nil, err
	}

	tbl, err := buildTable(objType, b.opts, b.regs)
	if err != nil {
		return nil, err
	}

	return &Dispatcher{
		objectType:    objType,
		table:         tbl,
		log:           b.opts.Logger,
		slowThreshold: b.opts.SlowHandlerThreshold,
		clock:         b.opts.clock,
	}, nil
}

func buildTable(objType reflect.Type, opts Options, regs []registration) (*table, error) {
	tbl := &table{
		entries: make(map[reflect.Type]Handler),
	}

	add := func(msgType reflect.Type, handler Handler) error {
		if _, ok := tbl.entries[msgType]; ok {
			return &DuplicateHandlerError{Object: objType, Message: msgType}
		}
		tbl.entries[msgType] = handler
		tbl.types = append(tbl.types, msgType)
		return nil
	}

	for _, reg := range regs {
		err := add(reg.msgType, reg.handler)
		if err != nil {
			return nil, err
		}
	}

	for _, desc := range scan(objType, opts.Conventions, opts.Roots) {
		err := add(desc.msgType, compile(objType, desc))
		if err != nil {
			return nil, err
		}
	}

	slices.SortFunc(tbl.types, func(a, b reflect.Type) int {
		return strings.Compare(typeName(a), typeName(b))
	})

	return tbl, nil
}
