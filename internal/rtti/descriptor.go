package rtti

import (
	"reflect"
	"slices"
	"sync"
)

// TypeDescriptor is the registry's record of one registered, qualifier
// specific type spelling. Descriptors are created by Registry.Register and
// live as long as the registry.
//
// Proxies and cast edges are attached once during startup and never
// detached. Parent/child links are informational only: property, function,
// and cast resolution always use the exact descriptor.
type TypeDescriptor struct {
	reg    *Registry
	name   string
	base   string
	qual   Qualifier
	goType reflect.Type

	mu       sync.RWMutex
	ctors    []*Constructor
	dtor     *Destructor
	props    []*MemberProperty
	methods  []*MemberFunction
	sprops   []*StaticProperty
	sfuncs   []*StaticFunction
	casts    *CastTable
	shifter  *Shifter
	parents  []*TypeDescriptor
	children []*TypeDescriptor
}

// Name returns the generated name. A nil descriptor reports "<empty>".
func (t *TypeDescriptor) Name() string {
	if t == nil {
		return "<empty>"
	}
	return t.name
}

// String implements fmt.Stringer.
func (t *TypeDescriptor) String() string { return t.Name() }

// Base returns the spelling without qualifiers.
func (t *TypeDescriptor) Base() string { return t.base }

// Qualifier returns the qualifiers of this spelling.
func (t *TypeDescriptor) Qualifier() Qualifier { return t.qual }

// GoType returns the bound Go type, or nil if the descriptor was registered
// by name only.
func (t *TypeDescriptor) GoType() reflect.Type { return t.goType }

// Registry returns the owning registry.
func (t *TypeDescriptor) Registry() *Registry { return t.reg }

// IsVoid reports whether t is the registry's void sentinel.
func (t *TypeDescriptor) IsVoid() bool {
	return t != nil && t.reg != nil && t == t.reg.void
}

// AddParent records p as a parent of t and t as a child of p.
func (t *TypeDescriptor) AddParent(p *TypeDescriptor) {
	t.mu.Lock()
	if !slices.Contains(t.parents, p) {
		t.parents = append(t.parents, p)
	}
	t.mu.Unlock()

	p.mu.Lock()
	if !slices.Contains(p.children, t) {
		p.children = append(p.children, t)
	}
	p.mu.Unlock()
}

// AddChild records c as a child of t. Equivalent to c.AddParent(t).
func (t *TypeDescriptor) AddChild(c *TypeDescriptor) {
	c.AddParent(t)
}

// Parents returns the recorded parent descriptors.
func (t *TypeDescriptor) Parents() []*TypeDescriptor {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.parents)
}

// Children returns the recorded child descriptors.
func (t *TypeDescriptor) Children() []*TypeDescriptor {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.children)
}

// attach appends p to list unless it is already present or bound elsewhere.
// Checks run before mutation so a failed attach leaves list unchanged.
func attach[P comparable](t *TypeDescriptor, list *[]P, p P, owner *TypeDescriptor, what string) error {
	if owner != t {
		return &Error{
			Code:    ErrCodeTypeMismatch,
			Message: what + " is bound to " + owner.Name(),
			Type:    t.name,
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if slices.Contains(*list, p) {
		return newAlreadyRegisteredError(t.name, what)
	}
	*list = append(*list, p)
	t.reg.logger.Debug("attached proxy", "type", t.name, "proxy", what)
	return nil
}

// AddConstructor attaches c. Fails with ALREADY_REGISTERED if c is already attached.
func (t *TypeDescriptor) AddConstructor(c *Constructor) error {
	return attach(t, &t.ctors, c, c.owner, "constructor "+c.Signature())
}

// AddProperty attaches a member property.
func (t *TypeDescriptor) AddProperty(p *MemberProperty) error {
	return attach(t, &t.props, p, p.owner, "property "+p.name)
}

// AddMethod attaches a member function.
func (t *TypeDescriptor) AddMethod(f *MemberFunction) error {
	return attach(t, &t.methods, f, f.owner, "method "+f.Signature())
}

// AddStaticProperty attaches a static property.
func (t *TypeDescriptor) AddStaticProperty(p *StaticProperty) error {
	return attach(t, &t.sprops, p, p.owner, "static property "+p.name)
}

// AddStaticFunction attaches a static function.
func (t *TypeDescriptor) AddStaticFunction(f *StaticFunction) error {
	return attach(t, &t.sfuncs, f, f.owner, "static function "+f.Signature())
}

// SetDestructor attaches the destructor invoked when the last owning box
// of a handle is dropped. A descriptor has at most one destructor.
func (t *TypeDescriptor) SetDestructor(d *Destructor) error {
	if d.owner != t {
		return &Error{
			Code:    ErrCodeTypeMismatch,
			Message: "destructor is bound to " + d.owner.Name(),
			Type:    t.name,
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dtor != nil {
		return newAlreadyRegisteredError(t.name, "destructor")
	}
	t.dtor = d
	return nil
}

// Destructor returns the attached destructor, or nil.
func (t *TypeDescriptor) Destructor() *Destructor {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.dtor
}

// Constructors returns the attached constructors in registration order.
func (t *TypeDescriptor) Constructors() []*Constructor {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.ctors)
}

// FindConstructor returns the first constructor whose parameter list is
// exactly argTypes.
func (t *TypeDescriptor) FindConstructor(argTypes ...*TypeDescriptor) (*Constructor, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, c := range t.ctors {
		if slices.Equal(c.params, argTypes) {
			return c, true
		}
	}
	return nil, false
}

// Properties returns the attached member properties in registration order.
func (t *TypeDescriptor) Properties() []*MemberProperty {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.props)
}

// Property returns the member property named name.
func (t *TypeDescriptor) Property(name string) (*MemberProperty, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, p := range t.props {
		if p.name == name {
			return p, true
		}
	}
	return nil, false
}

// StaticProperties returns the attached static properties in registration order.
func (t *TypeDescriptor) StaticProperties() []*StaticProperty {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.sprops)
}

// StaticProperty returns the static property named name.
func (t *TypeDescriptor) StaticProperty(name string) (*StaticProperty, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, p := range t.sprops {
		if p.name == name {
			return p, true
		}
	}
	return nil, false
}

// AllMethods returns every attached member function in registration order.
func (t *TypeDescriptor) AllMethods() []*MemberFunction {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.methods)
}

// Methods returns the overloads named name in registration order.
func (t *TypeDescriptor) Methods(name string) []*MemberFunction {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []*MemberFunction
	for _, f := range t.methods {
		if f.name == name {
			out = append(out, f)
		}
	}
	return out
}

// Method returns the first overload named name.
func (t *TypeDescriptor) Method(name string) (*MemberFunction, bool) {
	fs := t.Methods(name)
	if len(fs) == 0 {
		return nil, false
	}
	return fs[0], true
}

// FindMethod returns the overload named name whose parameters are exactly argTypes.
func (t *TypeDescriptor) FindMethod(name string, argTypes ...*TypeDescriptor) (*MemberFunction, bool) {
	for _, f := range t.Methods(name) {
		if slices.Equal(f.params, argTypes) {
			return f, true
		}
	}
	return nil, false
}

// StaticFunctions returns every attached static function in registration order.
func (t *TypeDescriptor) StaticFunctions() []*StaticFunction {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.sfuncs)
}

// StaticFunction returns the first static function named name.
func (t *TypeDescriptor) StaticFunction(name string) (*StaticFunction, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, f := range t.sfuncs {
		if f.name == name {
			return f, true
		}
	}
	return nil, false
}

// Casts returns the cast table, or nil if no edge has been registered.
func (t *TypeDescriptor) Casts() *CastTable {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.casts
}

// Shifter returns the indirection shifter, or nil.
func (t *TypeDescriptor) Shifter() *Shifter {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.shifter
}
