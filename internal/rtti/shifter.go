package rtti

import (
	"fmt"
	"reflect"
)

// Shifter adds or removes one level of pointer indirection on boxed values
// of its descriptor. Each descriptor owns at most one shifter.
type Shifter struct {
	ptr  *TypeDescriptor // descriptor of *T, target of AddIndirection
	elem *TypeDescriptor // descriptor of the pointee, target of RemoveIndirection
}

// Pointer returns the descriptor produced by AddIndirection, or nil.
func (s *Shifter) Pointer() *TypeDescriptor { return s.ptr }

// Elem returns the descriptor produced by RemoveIndirection, or nil.
func (s *Shifter) Elem() *TypeDescriptor { return s.elem }

// PointerName returns the spelling of a pointer to td. Reference qualifiers
// collapse: a pointer to T& is a pointer to T.
func PointerName(td *TypeDescriptor) string {
	return "*" + Spell(td.base, td.qual&^(LValueRef|RValueRef))
}

// AttachShifter registers the pointer spelling of td (bound to *T) and
// links the two descriptors: td gains AddIndirection and the pointer
// descriptor gains RemoveIndirection. td must describe T.
func AttachShifter[T any](td *TypeDescriptor) (*TypeDescriptor, error) {
	t := reflect.TypeFor[T]()
	if td.goType != nil && td.goType != t {
		return nil, &Error{
			Code:    ErrCodeTypeMismatch,
			Message: fmt.Sprintf("descriptor is bound to %s, not %s", td.goType, t),
			Type:    td.name,
		}
	}
	ptr := td.reg.register(PointerName(td), reflect.PointerTo(t))

	td.mu.Lock()
	if td.shifter != nil && td.shifter.ptr != nil {
		td.mu.Unlock()
		return nil, newAlreadyRegisteredError(td.name, "shifter")
	}
	if td.goType == nil {
		td.goType = t
	}
	if td.shifter == nil {
		td.shifter = &Shifter{}
	}
	td.shifter.ptr = ptr
	td.mu.Unlock()

	ptr.mu.Lock()
	if ptr.shifter == nil {
		ptr.shifter = &Shifter{}
	}
	if ptr.shifter.elem == nil {
		ptr.shifter.elem = td
	}
	ptr.mu.Unlock()
	return ptr, nil
}

// AddIndirection returns a non-owning box of the pointer descriptor whose
// value is the handle of b. Fails with UNSUPPORTED_CAST if b's descriptor has
// no shifter.
func (r *Registry) AddIndirection(b *Box) (*Box, error) {
	td := boxType(b)
	if td == nil {
		return nil, newTypeMismatchError(VoidName, "add indirection", nil, nil)
	}
	s := td.Shifter()
	if s == nil || s.ptr == nil {
		return nil, newIndirectionError(td.Name(), "add_indirection")
	}
	hv := reflect.ValueOf(b.handle)
	p := reflect.New(hv.Type())
	p.Elem().Set(hv)
	return view(s.ptr, p.Interface()), nil
}

// RemoveIndirection returns a non-owning box of the pointee descriptor.
// Fails with UNSUPPORTED_CAST if b's value is not an indirection, and with
// TYPE_MISMATCH if the pointer is nil.
func (r *Registry) RemoveIndirection(b *Box) (*Box, error) {
	td := boxType(b)
	if td == nil {
		return nil, newTypeMismatchError(VoidName, "remove indirection", nil, nil)
	}
	s := td.Shifter()
	if s == nil || s.elem == nil {
		return nil, newIndirectionError(td.Name(), "remove_indirection")
	}
	inner := reflect.ValueOf(b.handle).Elem()
	if inner.Kind() != reflect.Pointer || inner.IsNil() {
		return nil, &Error{
			Code:    ErrCodeTypeMismatch,
			Message: "cannot remove indirection from a nil pointer",
			Type:    td.Name(),
		}
	}
	return view(s.elem, inner.Interface()), nil
}

func newIndirectionError(typ, op string) *Error {
	return &Error{
		Code:    ErrCodeUnsupportedCast,
		Message: fmt.Sprintf("%s is not supported", op),
		Type:    typ,
		Details: map[string]string{"source": typ, "strategy": op},
	}
}
