package rtti

import "fmt"

// MemberFunction is a method of its owner type. Its Invoker receives the
// instance handle first, followed by the argument handles.
type MemberFunction struct {
	owner  *TypeDescriptor
	name   string
	ret    *TypeDescriptor
	params []*TypeDescriptor
	fn     Invoker
}

// NewMemberFunction binds fn as method name of owner. A nil ret declares a
// function without a return value.
func NewMemberFunction(owner *TypeDescriptor, name string, ret *TypeDescriptor, params []*TypeDescriptor, fn Invoker) *MemberFunction {
	return &MemberFunction{owner: owner, name: name, ret: ret, params: cloneTypes(params), fn: fn}
}

// Owner returns the descriptor the method belongs to.
func (f *MemberFunction) Owner() *TypeDescriptor { return f.owner }

// Name returns the method name.
func (f *MemberFunction) Name() string { return f.name }

// Returns returns the declared return type, or nil.
func (f *MemberFunction) Returns() *TypeDescriptor { return f.ret }

// Params returns the declared parameter types.
func (f *MemberFunction) Params() []*TypeDescriptor { return cloneTypes(f.params) }

// Signature renders "Owner.name(param, ...) ret".
func (f *MemberFunction) Signature() string {
	return signature(f.owner.Name()+"."+f.name, f.params, f.ret)
}

// Invoke validates the instance type, then arity and positional argument
// types, and calls through. It returns an owning box of the declared return
// type, or an empty box if the method has no return value.
func (f *MemberFunction) Invoke(instance *Box, args ...*Box) (*Box, error) {
	if instance == nil || instance.typ != f.owner {
		return nil, newTypeMismatchError(f.owner.Name(), "method "+f.name+" instance", f.owner, boxType(instance))
	}
	handles, err := checkArgs(f.owner.Name(), "method "+f.Signature(), f.params, args)
	if err != nil {
		return nil, err
	}
	out, err := f.fn(append([]any{instance.handle}, handles...))
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", f.Signature(), err)
	}
	return result(f.ret, out)
}

// StaticFunction is a function scoped to its owner type without an instance.
type StaticFunction struct {
	owner  *TypeDescriptor
	name   string
	ret    *TypeDescriptor
	params []*TypeDescriptor
	fn     Invoker
}

// NewStaticFunction binds fn as static function name of owner. A nil ret
// declares a function without a return value.
func NewStaticFunction(owner *TypeDescriptor, name string, ret *TypeDescriptor, params []*TypeDescriptor, fn Invoker) *StaticFunction {
	return &StaticFunction{owner: owner, name: name, ret: ret, params: cloneTypes(params), fn: fn}
}

// Owner returns the descriptor the function belongs to.
func (f *StaticFunction) Owner() *TypeDescriptor { return f.owner }

// Name returns the function name.
func (f *StaticFunction) Name() string { return f.name }

// Returns returns the declared return type, or nil.
func (f *StaticFunction) Returns() *TypeDescriptor { return f.ret }

// Params returns the declared parameter types.
func (f *StaticFunction) Params() []*TypeDescriptor { return cloneTypes(f.params) }

// Signature renders "Owner::name(param, ...) ret".
func (f *StaticFunction) Signature() string {
	return signature(f.owner.Name()+"::"+f.name, f.params, f.ret)
}

// Invoke validates arity and positional argument types and calls through.
func (f *StaticFunction) Invoke(args ...*Box) (*Box, error) {
	handles, err := checkArgs(f.owner.Name(), "static function "+f.Signature(), f.params, args)
	if err != nil {
		return nil, err
	}
	out, err := f.fn(handles)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", f.Signature(), err)
	}
	return result(f.ret, out)
}

func result(ret *TypeDescriptor, out any) (*Box, error) {
	if ret == nil {
		return &Box{}, nil
	}
	return ret.reg.NewOwnedBox(ret, out)
}

func signature(name string, params []*TypeDescriptor, ret *TypeDescriptor) string {
	s := name + "(" + joinTypes(params) + ")"
	if ret != nil {
		s += " " + ret.Name()
	}
	return s
}
