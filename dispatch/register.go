package dispatch

import (
	"context"
	"reflect"
)

// Register binds a typed handler for messages of type M on the
// builder. The handler receives the dispatch target and performs no
// reflection on the hot path. Registered handlers share the dispatch
// table with scanned convention methods, so registering M while a
// convention method also accepts M fails the build.
func Register[M any](b *Builder, fn func(ctx context.Context, target any, msg M) (any, error)) {
	msgType := reflect.TypeFor[M]()
	b.regs = append(b.regs, registration{
		msgType: msgType,
		handler: func(ctx context.Context, target any, msg any) (any, error) {
			m, ok := msg.(M)
			if !ok {
				// Erased payload from DispatchAs
				mv, err := messageValue(msgType, msg)
				if err != nil {
					return nil, err
				}
				m, _ = mv.Interface().(M)
			}
			return fn(ctx, target, m)
		},
	})
}

// RegisterFunc binds a handler that ignores the dispatch target, the
// equivalent of a static handler method.
func RegisterFunc[M any](b *Builder, fn func(ctx context.Context, msg M) (any, error)) {
	Register(b, func(ctx context.Context, _ any, msg M) (any, error) {
		return fn(ctx, msg)
	})
}
