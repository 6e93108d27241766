package rtti

import (
	"fmt"
	"reflect"
)

// Invoker is the type-erased call-through behind every callable proxy.
// It receives one handle per argument (for member functions the instance
// handle comes first) and returns the handle of the result, or nil when
// there is none.
//
// Proxies only call an Invoker after validating arity and descriptors, so
// an Invoker may assume its arguments have the registered shapes.
type Invoker func(args []any) (any, error)

var errorType = reflect.TypeFor[error]()

// Func adapts an arbitrary Go function to an Invoker using reflection.
//
// Each handle is passed either as the pointer itself or as its pointee,
// whichever the Go parameter type accepts. A non-error result is copied into
// a fresh allocation whose pointer becomes the result handle. A trailing
// error result is returned as the Invoker error.
//
// Panics if fn is not a non-variadic function with at most one non-error
// result. Adapters are built during startup, where that is a programming
// error.
func Func(fn any) Invoker {
	return adapt(fn, false)
}

// Alloc is like Func but for allocation routines: a returned pointer is used
// as the result handle directly instead of being copied.
func Alloc(fn any) Invoker {
	return adapt(fn, true)
}

func adapt(fn any, alloc bool) Invoker {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func || fv.IsNil() {
		panic(fmt.Sprintf("rtti: cannot adapt %T: not a function", fn))
	}
	ft := fv.Type()
	if ft.IsVariadic() {
		panic(fmt.Sprintf("rtti: cannot adapt variadic function %s", ft))
	}

	hasErr := ft.NumOut() > 0 && ft.Out(ft.NumOut()-1) == errorType
	nvals := ft.NumOut()
	if hasErr {
		nvals--
	}
	if nvals > 1 {
		panic(fmt.Sprintf("rtti: cannot adapt %s: more than one result", ft))
	}

	return func(args []any) (any, error) {
		if len(args) != ft.NumIn() {
			return nil, fmt.Errorf("call %s: expected %d argument(s), got %d", ft, ft.NumIn(), len(args))
		}
		in := make([]reflect.Value, len(args))
		for i, h := range args {
			v, err := argValue(h, ft.In(i))
			if err != nil {
				return nil, fmt.Errorf("call %s: argument %d: %w", ft, i, err)
			}
			in[i] = v
		}

		out := fv.Call(in)
		if hasErr {
			if errv := out[len(out)-1]; !errv.IsNil() {
				return nil, errv.Interface().(error)
			}
		}
		if nvals == 0 {
			return nil, nil
		}
		return resultHandle(out[0], alloc)
	}
}

// argValue converts a handle to a value assignable to want.
func argValue(h any, want reflect.Type) (reflect.Value, error) {
	hv := reflect.ValueOf(h)
	if !hv.IsValid() {
		return reflect.Value{}, fmt.Errorf("nil handle")
	}
	if hv.Type().AssignableTo(want) {
		return hv, nil
	}
	if hv.Kind() == reflect.Pointer && !hv.IsNil() && hv.Type().Elem().AssignableTo(want) {
		return hv.Elem(), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot pass %s as %s", hv.Type(), want)
}

// resultHandle turns a returned value into a handle.
func resultHandle(v reflect.Value, alloc bool) (any, error) {
	if alloc && v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, fmt.Errorf("allocation returned nil %s", v.Type())
		}
		return v.Interface(), nil
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p.Interface(), nil
}

// FieldFunc returns a pointer to a field of the instance behind handle.
type FieldFunc func(handle any) (any, error)

// Field builds a FieldFunc from a typed accessor.
//
//	rtti.Field(func(c *Counter) *int { return &c.Value })
func Field[T, F any](get func(*T) *F) FieldFunc {
	return func(handle any) (any, error) {
		p, ok := handle.(*T)
		if !ok || p == nil {
			return nil, fmt.Errorf("field access: handle is %T, not *%s", handle, reflect.TypeFor[T]())
		}
		return get(p), nil
	}
}

// Destroy builds a destructor routine from a typed function. Handles of any
// other shape are ignored.
func Destroy[T any](fn func(*T)) func(handle any) {
	return func(handle any) {
		if p, ok := handle.(*T); ok {
			fn(p)
		}
	}
}

// assign copies the pointee of src into the pointee of dst.
func assign(dst, src any) error {
	dv := reflect.ValueOf(dst)
	sv := reflect.ValueOf(src)
	if !dv.IsValid() || dv.Kind() != reflect.Pointer || dv.IsNil() {
		return fmt.Errorf("assign: destination %T is not a pointer", dst)
	}
	if !sv.IsValid() || sv.Kind() != reflect.Pointer || sv.IsNil() {
		return fmt.Errorf("assign: source %T is not a pointer", src)
	}
	if !sv.Elem().Type().AssignableTo(dv.Elem().Type()) {
		return fmt.Errorf("assign: %s is not assignable to %s", sv.Elem().Type(), dv.Elem().Type())
	}
	dv.Elem().Set(sv.Elem())
	return nil
}
