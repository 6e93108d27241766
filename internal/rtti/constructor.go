package rtti

import (
	"fmt"
	"strings"
)

// Constructor allocates new instances of its owner type.
type Constructor struct {
	owner  *TypeDescriptor
	params []*TypeDescriptor
	alloc  Invoker
}

// NewConstructor binds an allocation routine to owner with the given
// ordered parameter types. Attach it with TypeDescriptor.AddConstructor.
func NewConstructor(owner *TypeDescriptor, params []*TypeDescriptor, alloc Invoker) *Constructor {
	return &Constructor{owner: owner, params: cloneTypes(params), alloc: alloc}
}

// Owner returns the descriptor of the constructed type.
func (c *Constructor) Owner() *TypeDescriptor { return c.owner }

// Params returns the declared parameter types.
func (c *Constructor) Params() []*TypeDescriptor { return cloneTypes(c.params) }

// Signature renders "Owner(param, ...)".
func (c *Constructor) Signature() string {
	return c.owner.Name() + "(" + joinTypes(c.params) + ")"
}

// Invoke checks arity and exact positional argument types, then calls the
// allocation routine and returns a new owning box of the owner type.
// Nothing is allocated when validation fails.
func (c *Constructor) Invoke(args ...*Box) (*Box, error) {
	handles, err := checkArgs(c.owner.Name(), "constructor "+c.Signature(), c.params, args)
	if err != nil {
		return nil, err
	}
	h, err := c.alloc(handles)
	if err != nil {
		return nil, fmt.Errorf("construct %s: %w", c.owner.Name(), err)
	}
	return c.owner.reg.NewOwnedBox(c.owner, h)
}

// Destructor releases resources of an instance of its owner type.
type Destructor struct {
	owner *TypeDescriptor
	fn    func(handle any)
}

// NewDestructor binds fn to owner. Attach it with TypeDescriptor.SetDestructor.
func NewDestructor(owner *TypeDescriptor, fn func(handle any)) *Destructor {
	return &Destructor{owner: owner, fn: fn}
}

// Owner returns the descriptor of the destroyed type.
func (d *Destructor) Owner() *TypeDescriptor { return d.owner }

// Invoke runs the destructor on handle. The handle is not type-checked: the
// ledger is the only caller that normally reaches this point, and it only
// passes handles it validated on entry.
func (d *Destructor) Invoke(handle any) {
	d.fn(handle)
}

// checkArgs validates arity first, then each positional descriptor, and
// returns the argument handles.
func checkArgs(owner, callee string, params []*TypeDescriptor, args []*Box) ([]any, error) {
	if len(args) != len(params) {
		return nil, newArityError(owner, callee, len(params), len(args))
	}
	handles := make([]any, len(args))
	for i, a := range args {
		var got *TypeDescriptor
		if a != nil {
			got = a.typ
		}
		if got != params[i] {
			return nil, newTypeMismatchError(owner, fmt.Sprintf("%s argument %d", callee, i), params[i], got)
		}
		handles[i] = a.handle
	}
	return handles, nil
}

func cloneTypes(ts []*TypeDescriptor) []*TypeDescriptor {
	if len(ts) == 0 {
		return nil
	}
	out := make([]*TypeDescriptor, len(ts))
	copy(out, ts)
	return out
}

func joinTypes(ts []*TypeDescriptor) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.Name()
	}
	return strings.Join(names, ", ")
}
