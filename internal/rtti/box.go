package rtti

import (
	"fmt"
	"reflect"
)

// Box is a type-erased handle to a value of some registered type.
//
// The handle is always a pointer to the value (*T for a descriptor of T).
// A non-owning box wraps externally managed data and never affects its
// lifetime. An owning box is counted in the registry ledger: copies share
// the count, and the destructor of the owning type runs once when the last
// owning box is dropped.
//
// Boxes are not safe for concurrent use; share copies instead.
type Box struct {
	typ    *TypeDescriptor
	handle any
	owning bool
	ledger *Ledger
}

// NewBox wraps externally managed data without touching the ledger.
func (r *Registry) NewBox(td *TypeDescriptor, handle any) (*Box, error) {
	if err := checkHandle(td, handle); err != nil {
		return nil, err
	}
	return &Box{typ: td, handle: handle}, nil
}

// NewOwnedBox wraps handle and records ownership in the ledger. If the
// handle is already present, the new box becomes a co-owner of the same
// instance and the count is incremented.
func (r *Registry) NewOwnedBox(td *TypeDescriptor, handle any) (*Box, error) {
	if err := checkHandle(td, handle); err != nil {
		return nil, err
	}
	return r.owned(td, handle), nil
}

// Own allocates a copy of v and returns an owning box of td holding it.
func Own[T any](td *TypeDescriptor, v T) (*Box, error) {
	p := new(T)
	*p = v
	return td.reg.NewOwnedBox(td, p)
}

// Ref returns a non-owning box of td viewing *p.
func Ref[T any](td *TypeDescriptor, p *T) (*Box, error) {
	return td.reg.NewBox(td, p)
}

func (r *Registry) owned(td *TypeDescriptor, handle any) *Box {
	r.ledger.acquire(td, handle)
	return &Box{typ: td, handle: handle, owning: true, ledger: r.ledger}
}

func view(td *TypeDescriptor, handle any) *Box {
	return &Box{typ: td, handle: handle}
}

func voidBox(r *Registry) *Box {
	return &Box{typ: r.void}
}

// checkHandle validates that handle can stand for a value of td: a non-nil
// pointer, and a pointer to td's Go type when one is bound.
func checkHandle(td *TypeDescriptor, handle any) error {
	if td == nil {
		return &Error{Code: ErrCodeTypeMismatch, Message: "box requires a descriptor"}
	}
	hv := reflect.ValueOf(handle)
	if !hv.IsValid() || hv.Kind() != reflect.Pointer || hv.IsNil() {
		return &Error{
			Code:    ErrCodeTypeMismatch,
			Message: fmt.Sprintf("handle must be a non-nil pointer, got %T", handle),
			Type:    td.name,
		}
	}
	if td.goType != nil && hv.Type().Elem() != td.goType {
		return &Error{
			Code:    ErrCodeTypeMismatch,
			Message: fmt.Sprintf("handle %T does not point to %s", handle, td.goType),
			Type:    td.name,
		}
	}
	return nil
}

// Type returns the box's descriptor, or nil for an empty box.
func (b *Box) Type() *TypeDescriptor { return b.typ }

// Handle returns the raw handle without any type check.
func (b *Box) Handle() any { return b.handle }

// Owning reports whether the box participates in the ledger.
func (b *Box) Owning() bool { return b.owning }

// Empty reports whether the box holds nothing (moved-from, dropped, or the
// result of a function without a return value).
func (b *Box) Empty() bool { return b.typ == nil }

// Get returns the handle if the box's descriptor is exactly expected.
// No coercion or inheritance-based acceptance takes place.
func (b *Box) Get(expected *TypeDescriptor) (any, error) {
	if b.typ != expected || b.typ == nil {
		return nil, newTypeMismatchError(expected.Name(), "box access", expected, b.typ)
	}
	return b.handle, nil
}

// As returns the handle as *T after checking the descriptor is exactly expected.
func As[T any](b *Box, expected *TypeDescriptor) (*T, error) {
	h, err := b.Get(expected)
	if err != nil {
		return nil, err
	}
	p, ok := h.(*T)
	if !ok {
		return nil, &Error{
			Code:    ErrCodeTypeMismatch,
			Message: fmt.Sprintf("handle is %T, not *%s", h, reflect.TypeFor[T]()),
			Type:    expected.Name(),
		}
	}
	return p, nil
}

// Value is like As but returns a copy of the pointee.
func Value[T any](b *Box, expected *TypeDescriptor) (T, error) {
	p, err := As[T](b, expected)
	if err != nil {
		var zero T
		return zero, err
	}
	return *p, nil
}

// Interface returns the pointee as an untyped value, or nil for empty and
// void boxes.
func (b *Box) Interface() any {
	hv := reflect.ValueOf(b.handle)
	if !hv.IsValid() || hv.Kind() != reflect.Pointer || hv.IsNil() {
		return nil
	}
	return hv.Elem().Interface()
}

// Copy returns a new box referencing the same handle. If b is owning the
// copy is a co-owner and the ledger count is incremented.
func (b *Box) Copy() *Box {
	if b.typ == nil {
		return &Box{}
	}
	if b.owning {
		b.ledger.retain(b.handle)
	}
	nb := *b
	return &nb
}

// Move transfers the descriptor, handle, and ownership to a new box and
// leaves b empty. The ledger count is unchanged.
func (b *Box) Move() *Box {
	nb := *b
	*b = Box{}
	return &nb
}

// Drop releases b. If b is owning the ledger count is decremented and the
// destructor runs when it reaches zero. Drop leaves b empty and is safe to
// call more than once.
func (b *Box) Drop() {
	if b.owning && b.ledger != nil {
		b.ledger.release(b.handle)
	}
	*b = Box{}
}

// ReleaseOwnership converts an owning box to a non-owning one without
// running the destructor. Fails with OWNERSHIP_VIOLATION while another
// co-owner still depends on the data; b is unchanged in that case.
func (b *Box) ReleaseOwnership() error {
	if !b.owning {
		return nil
	}
	if err := b.ledger.disown(b.handle); err != nil {
		return err
	}
	b.owning = false
	b.ledger = nil
	return nil
}

// String implements fmt.Stringer for logs and diagnostics.
func (b *Box) String() string {
	switch {
	case b.typ == nil:
		return "Box(<empty>)"
	case b.typ.IsVoid():
		return "Box(void)"
	case b.owning:
		return fmt.Sprintf("Box(%s, owning, %v)", b.typ.name, b.Interface())
	default:
		return fmt.Sprintf("Box(%s, %v)", b.typ.name, b.Interface())
	}
}
