package rtti

import "fmt"

// MemberProperty exposes one data member of its owner type.
type MemberProperty struct {
	owner *TypeDescriptor
	typ   *TypeDescriptor
	name  string
	field FieldFunc
}

// NewMemberProperty binds a field accessor to owner. The accessor must
// return a pointer to a value of typ's Go type.
func NewMemberProperty(owner *TypeDescriptor, name string, typ *TypeDescriptor, field FieldFunc) *MemberProperty {
	return &MemberProperty{owner: owner, typ: typ, name: name, field: field}
}

// Owner returns the descriptor the property belongs to.
func (p *MemberProperty) Owner() *TypeDescriptor { return p.owner }

// Type returns the declared property type.
func (p *MemberProperty) Type() *TypeDescriptor { return p.typ }

// Name returns the property name.
func (p *MemberProperty) Name() string { return p.name }

// Get returns a non-owning box viewing the property of instance. The view
// stays valid as long as the instance does.
func (p *MemberProperty) Get(instance *Box) (*Box, error) {
	if err := p.checkInstance(instance); err != nil {
		return nil, err
	}
	ptr, err := p.field(instance.handle)
	if err != nil {
		return nil, fmt.Errorf("get %s.%s: %w", p.owner.Name(), p.name, err)
	}
	return view(p.typ, ptr), nil
}

// Set copies value into the property of instance.
func (p *MemberProperty) Set(instance, value *Box) error {
	if err := p.checkInstance(instance); err != nil {
		return err
	}
	if value == nil || value.typ != p.typ {
		return newTypeMismatchError(p.owner.Name(), "property "+p.name+" value", p.typ, boxType(value))
	}
	ptr, err := p.field(instance.handle)
	if err != nil {
		return fmt.Errorf("set %s.%s: %w", p.owner.Name(), p.name, err)
	}
	if err := assign(ptr, value.handle); err != nil {
		return &Error{Code: ErrCodeTypeMismatch, Message: err.Error(), Type: p.owner.Name()}
	}
	return nil
}

func (p *MemberProperty) checkInstance(instance *Box) error {
	if instance == nil || instance.typ != p.owner {
		return newTypeMismatchError(p.owner.Name(), "property "+p.name+" instance", p.owner, boxType(instance))
	}
	return nil
}

// StaticProperty exposes storage shared by all instances of its owner type.
type StaticProperty struct {
	owner *TypeDescriptor
	typ   *TypeDescriptor
	name  string
	ptr   any
}

// NewStaticProperty binds ptr, a pointer to storage of typ's Go type, to owner.
func NewStaticProperty(owner *TypeDescriptor, name string, typ *TypeDescriptor, ptr any) *StaticProperty {
	return &StaticProperty{owner: owner, typ: typ, name: name, ptr: ptr}
}

// Owner returns the descriptor the property belongs to.
func (p *StaticProperty) Owner() *TypeDescriptor { return p.owner }

// Type returns the declared property type.
func (p *StaticProperty) Type() *TypeDescriptor { return p.typ }

// Name returns the property name.
func (p *StaticProperty) Name() string { return p.name }

// Get returns a non-owning box viewing the static storage.
func (p *StaticProperty) Get() (*Box, error) {
	return view(p.typ, p.ptr), nil
}

// Set copies value into the static storage.
func (p *StaticProperty) Set(value *Box) error {
	if value == nil || value.typ != p.typ {
		return newTypeMismatchError(p.owner.Name(), "static property "+p.name+" value", p.typ, boxType(value))
	}
	if err := assign(p.ptr, value.handle); err != nil {
		return &Error{Code: ErrCodeTypeMismatch, Message: err.Error(), Type: p.owner.Name()}
	}
	return nil
}

func boxType(b *Box) *TypeDescriptor {
	if b == nil {
		return nil
	}
	return b.typ
}
