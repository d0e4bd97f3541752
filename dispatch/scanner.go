package dispatch

import (
	"context"
	"reflect"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	ctxType = reflect.TypeFor[context.Context]()
	errType = reflect.TypeFor[error]()
)

// returnShape identifies how a handler method reports its result.
type returnShape int

const (
	// No return values
	shapeNone returnShape = iota
	// A single non-error value
	shapeValue
	// An error only
	shapeError
	// A value and an error
	shapeValueError
)

// descriptor is one discovered handler method, before compilation.
type descriptor struct {
	// Struct type the method was found on
	owner reflect.Type
	// Method on reflect.PointerTo(owner)
	method reflect.Method
	// Field index path from the scanned type to owner; empty when the
	// method was found on the scanned type itself
	index []int
	// Declared message parameter type
	msgType reflect.Type
	// Whether the method takes a context.Context before the message
	hasCtx bool
	shape  returnShape
}

// level is one step of the embedded-type chain.
type level struct {
	typ   reflect.Type
	index []int
	depth int
}

// scan collects handler candidates from objType and its embedded
// types, most-derived level first, without descending into root
// boundary types.
//
// A candidate name claimed at a shallower depth hides same-named
// methods deeper in the chain, mirroring Go method promotion. Two
// same-named candidates at the same depth in different embedded types
// are both collected; if they accept the same message type the table
// build fails, which is the behavior Go's ambiguous-promotion rules
// would otherwise mask silently.
func scan(objType reflect.Type, conventions []string, roots []reflect.Type) []descriptor {
	levels, rootMethods := collectLevels(objType, conventions, roots)

	var out []descriptor
	claimed := make(map[string]int)
	for _, lv := range levels {
		ptr := reflect.PointerTo(lv.typ)
		for i := range ptr.NumMethod() {
			m := ptr.Method(i)
			if !matchesConvention(m.Name, conventions) {
				continue
			}

			// Methods promoted from a root boundary type are never
			// handlers. Promotion preserves the signature exactly, so a
			// same-named method with its own parameter or return types is
			// the actor's and stays in
			if rt, isRoot := rootMethods[m.Name]; isRoot && sameHandlerSignature(rt, m.Type) {
				continue
			}

			// Skip methods already claimed at a shallower depth: they are
			// either this same method seen through promotion, or shadowed
			if d, ok := claimed[m.Name]; ok && d < lv.depth {
				continue
			}

			desc, ok := describe(lv, m)
			if !ok {
				continue
			}

			claimed[m.Name] = lv.depth
			out = append(out, desc)
		}
	}

	return out
}

// collectLevels walks the embedded struct fields of objType
// breadth-first, returning the chain of types to scan plus the
// convention-matching methods contributed by root boundary types
// (which must be excluded wherever promotion makes them visible).
func collectLevels(objType reflect.Type, conventions []string, roots []reflect.Type) ([]level, map[string]reflect.Type) {
	rootSet := make(map[reflect.Type]struct{}, len(roots))
	for _, r := range roots {
		if r.Kind() == reflect.Pointer {
			r = r.Elem()
		}
		rootSet[r] = struct{}{}
	}

	rootMethods := make(map[string]reflect.Type)
	visited := make(map[reflect.Type]struct{})
	queue := []level{{typ: objType}}
	levels := make([]level, 0, 4)

	for len(queue) > 0 {
		lv := queue[0]
		queue = queue[1:]

		if _, ok := visited[lv.typ]; ok {
			continue
		}
		visited[lv.typ] = struct{}{}
		levels = append(levels, lv)

		for i := range lv.typ.NumField() {
			f := lv.typ.Field(i)
			if !f.Anonymous {
				continue
			}

			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() != reflect.Struct {
				continue
			}

			if _, isRoot := rootSet[ft]; isRoot {
				collectRootMethods(ft, conventions, rootMethods)
				continue
			}

			idx := append(slices.Clone(lv.index), i)
			queue = append(queue, level{typ: ft, index: idx, depth: lv.depth + 1})
		}
	}

	return levels, rootMethods
}

func collectRootMethods(root reflect.Type, conventions []string, methods map[string]reflect.Type) {
	ptr := reflect.PointerTo(root)
	for i := range ptr.NumMethod() {
		m := ptr.Method(i)
		if matchesConvention(m.Name, conventions) {
			methods[m.Name] = m.Type
		}
	}
}

// sameHandlerSignature reports whether two method types are identical
// apart from their receivers.
func sameHandlerSignature(a, b reflect.Type) bool {
	if a.NumIn() != b.NumIn() || a.NumOut() != b.NumOut() || a.IsVariadic() != b.IsVariadic() {
		return false
	}
	for i := 1; i < a.NumIn(); i++ {
		if a.In(i) != b.In(i) {
			return false
		}
	}
	for i := range a.NumOut() {
		if a.Out(i) != b.Out(i) {
			return false
		}
	}
	return true
}

// describe validates a convention-named method's signature and builds
// its descriptor. Methods with unsupported signatures are excluded
// here and never reach the compiler.
func describe(lv level, m reflect.Method) (descriptor, bool) {
	mt := m.Type
	if mt.IsVariadic() {
		return descriptor{}, false
	}

	// In(0) is the receiver
	var (
		msgIdx int
		hasCtx bool
	)
	switch mt.NumIn() {
	case 2:
		msgIdx = 1
	case 3:
		if mt.In(1) != ctxType {
			return descriptor{}, false
		}
		hasCtx = true
		msgIdx = 2
	default:
		return descriptor{}, false
	}

	msgType := mt.In(msgIdx)
	if msgType == ctxType {
		return descriptor{}, false
	}

	var shape returnShape
	switch mt.NumOut() {
	case 0:
		shape = shapeNone
	case 1:
		if mt.Out(0) == errType {
			shape = shapeError
		} else {
			shape = shapeValue
		}
	case 2:
		if mt.Out(1) != errType || mt.Out(0) == errType {
			return descriptor{}, false
		}
		shape = shapeValueError
	default:
		return descriptor{}, false
	}

	return descriptor{
		owner:   lv.typ,
		method:  m,
		index:   lv.index,
		msgType: msgType,
		hasCtx:  hasCtx,
		shape:   shape,
	}, true
}

// matchesConvention reports whether a method name equals a convention
// keyword or extends it at a word boundary, so "OnIncrement" matches
// "On" but "Online" does not.
func matchesConvention(name string, conventions []string) bool {
	for _, c := range conventions {
		if !strings.HasPrefix(name, c) {
			continue
		}
		rest := name[len(c):]
		if rest == "" {
			return true
		}
		r, _ := utf8.DecodeRuneInString(rest)
		if unicode.IsUpper(r) || unicode.IsDigit(r) || r == '_' {
			return true
		}
	}
	return false
}
