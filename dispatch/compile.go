package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"unsafe"

	msgpack "github.com/vmihailenco/msgpack/v5"
)

// compile transforms one descriptor into the uniform Handler shape.
// All introspection (method identity, embedded field path, argument
// layout, return shape) is resolved here, once, at table build time;
// the returned function performs a single reflective call per dispatch.
func compile(objType reflect.Type, d descriptor) Handler {
	var (
		fn         = d.method.Func
		targetType = reflect.PointerTo(objType)
		index      = d.index
		msgType    = d.msgType
		hasCtx     = d.hasCtx
		shape      = d.shape
	)

	return func(ctx context.Context, target any, msg any) (any, error) {
		recv, err := receiverValue(targetType, index, target)
		if err != nil {
			return nil, err
		}

		msgVal, err := messageValue(msgType, msg)
		if err != nil {
			return nil, err
		}

		args := make([]reflect.Value, 0, 3)
		args = append(args, recv)
		if hasCtx {
			if ctx == nil {
				ctx = context.Background()
			}
			args = append(args, reflect.ValueOf(ctx))
		}
		args = append(args, msgVal)

		out := fn.Call(args)

		switch shape {
		case shapeNone:
			return nil, nil
		case shapeValue:
			return out[0].Interface(), nil
		case shapeError:
			return nil, asError(out[0])
		default: // shapeValueError
			if err := asError(out[1]); err != nil {
				return nil, err
			}
			return out[0].Interface(), nil
		}
	}
}

// receiverValue resolves the receiver for the handler's owning type
// from the dispatch target, following the embedded field path when the
// handler was declared on an embedded type.
func receiverValue(targetType reflect.Type, index []int, target any) (reflect.Value, error) {
	if target == nil {
		return reflect.Value{}, errors.New("target must not be nil")
	}

	rv := reflect.ValueOf(target)
	if rv.Type() != targetType {
		return reflect.Value{}, fmt.Errorf("target must be of type %s; got %T", targetType, target)
	}
	if rv.IsNil() {
		return reflect.Value{}, errors.New("target must not be a nil pointer")
	}

	if len(index) == 0 {
		return rv, nil
	}

	fv, err := rv.Elem().FieldByIndexErr(index)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("failed to resolve embedded receiver: %w", err)
	}

	// Values reached through an unexported anonymous field carry
	// reflect's read-only flag and cannot be called. The field is still
	// addressable through the target pointer, so re-derive it at the
	// same address.
	if !fv.CanInterface() {
		fv = reflect.NewAt(fv.Type(), unsafe.Pointer(fv.UnsafeAddr())).Elem()
	}

	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			return reflect.Value{}, errors.New("embedded receiver is a nil pointer")
		}
		return fv, nil
	}
	return fv.Addr(), nil
}

// messageValue converts the incoming message to the handler's declared
// parameter type. The common case is an exact runtime-type match,
// guaranteed when the handler was looked up by the message's own type.
// Erased payloads (e.g. a map decoded from a wire format, dispatched
// via DispatchAs) first try direct assignment and then a msgpack
// re-encode into the declared type.
func messageValue(msgType reflect.Type, msg any) (reflect.Value, error) {
	if msg == nil {
		return reflect.Zero(msgType), nil
	}

	mv := reflect.ValueOf(msg)
	if mv.Type() == msgType {
		return mv, nil
	}

	if mv.Type().AssignableTo(msgType) {
		out := reflect.New(msgType).Elem()
		out.Set(mv)
		return out, nil
	}

	// Serialize the message using msgpack and deserialize it into the declared type
	buf := &bytes.Buffer{}
	enc := msgpack.GetEncoder()
	defer msgpack.PutEncoder(enc)
	enc.Reset(buf)
	err := enc.Encode(msg)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("failed to serialize message using msgpack: %w", err)
	}

	out := reflect.New(msgType)
	dec := msgpack.GetDecoder()
	defer msgpack.PutDecoder(dec)
	dec.Reset(buf)
	err = dec.Decode(out.Interface())
	if err != nil {
		return reflect.Value{}, fmt.Errorf("failed to convert message to %s: %w", typeName(msgType), err)
	}

	return out.Elem(), nil
}

func asError(v reflect.Value) error {
	if v.IsNil() {
		return nil
	}
	return v.Interface().(error)
}
