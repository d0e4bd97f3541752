package dispatch

import (
	"context"

	"github.com/alphadose/haxmap"
)

const defaultRegistryMapSize = 64

// Registry caches one Dispatcher per actor type, building each table
// on first use.
//
// Multiple goroutines may race to build the table for the same type
// the first time it is needed; builds are deterministic, so redundant
// builds are simply discarded in favor of the one that lands in the
// map first. Once stored, a dispatcher is immutable and shared by all
// callers.
type Registry struct {
	dispatchers *haxmap.Map[string, *Dispatcher]
	opts        Options
}

// NewRegistry returns a Registry that builds dispatchers with the
// given options.
func NewRegistry(opts Options) (*Registry, error) {
	err := opts.Validate()
	if err != nil {
		return nil, err
	}

	return &Registry{
		dispatchers: haxmap.New[string, *Dispatcher](defaultRegistryMapSize),
		opts:        opts,
	}, nil
}

// For returns the dispatcher for the target's type, building it on
// first use. Build errors are returned to the caller and not cached,
// as they indicate a defect in the handler declarations.
func (r *Registry) For(target any) (*Dispatcher, error) {
	objType, err := normalizeObjectType(target)
	if err != nil {
		return nil, err
	}

	key := typeName(objType)
	d, ok := r.dispatchers.Get(key)
	if ok {
		return d, nil
	}

	d, err = New(objType, r.opts)
	if err != nil {
		return nil, err
	}

	// If another goroutine won the race, use its dispatcher
	actual, _ := r.dispatchers.GetOrSet(key, d)
	return actual, nil
}

// Dispatch resolves the dispatcher for the target's type and
// dispatches msg through it.
func (r *Registry) Dispatch(ctx context.Context, target any, msg any, fallback Fallback) (any, error) {
	d, err := r.For(target)
	if err != nil {
		return nil, err
	}
	return d.Dispatch(ctx, target, msg, fallback)
}
