package rtti

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"
)

// CastKind selects one of the five cast strategies an edge may offer.
type CastKind int

const (
	// Dynamic is an identity-checked cast validated at cast time (a checked
	// interface assertion).
	Dynamic CastKind = iota
	// Reinterpret copies the raw bytes of the source into the destination
	// without validation.
	Reinterpret
	// Convert performs a value transformation between shapes.
	Convert
	// Qualify changes qualifiers only; the representation is unchanged.
	Qualify
	// Any applies whichever conversion the Go type system permits.
	Any

	numCastKinds
)

// CastKinds lists every strategy in declaration order.
var CastKinds = []CastKind{Dynamic, Reinterpret, Convert, Qualify, Any}

var castKindNames = [numCastKinds]string{"dynamic", "reinterpret", "convert", "qualify", "any"}

// String returns the lower-case strategy name.
func (k CastKind) String() string {
	if k < 0 || k >= numCastKinds {
		return fmt.Sprintf("CastKind(%d)", int(k))
	}
	return castKindNames[k]
}

// ParseCastKind parses a strategy name as returned by String.
func ParseCastKind(s string) (CastKind, bool) {
	for i, n := range castKindNames {
		if n == s {
			return CastKind(i), true
		}
	}
	return 0, false
}

// CastFunc performs one strategy on a box whose descriptor is the edge
// source. Unsupported strategies return a box of the void descriptor.
type CastFunc func(src *Box) (*Box, error)

// CastEdge is a directional conversion record from one descriptor to
// another. Strategy availability is fixed when the edge is registered.
type CastEdge struct {
	src, dst *TypeDescriptor
	funcs    [numCastKinds]CastFunc
	avail    [numCastKinds]bool
}

// Source returns the source descriptor.
func (e *CastEdge) Source() *TypeDescriptor { return e.src }

// Destination returns the destination descriptor.
func (e *CastEdge) Destination() *TypeDescriptor { return e.dst }

// Supports reports whether strategy k produces a value on this edge.
func (e *CastEdge) Supports(k CastKind) bool {
	return k >= 0 && k < numCastKinds && e.avail[k]
}

// Kinds returns the supported strategies in declaration order.
func (e *CastEdge) Kinds() []CastKind {
	var out []CastKind
	for _, k := range CastKinds {
		if e.avail[k] {
			out = append(out, k)
		}
	}
	return out
}

// CastTable holds every edge leaving one source descriptor.
type CastTable struct {
	owner *TypeDescriptor
	mu    sync.RWMutex
	edges map[*TypeDescriptor]*CastEdge
	order []*CastEdge
}

// Owner returns the source descriptor.
func (t *CastTable) Owner() *TypeDescriptor { return t.owner }

// Edge returns the edge to dst.
func (t *CastTable) Edge(dst *TypeDescriptor) (*CastEdge, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.edges[dst]
	return e, ok
}

// Edges returns every edge in registration order.
func (t *CastTable) Edges() []*CastEdge {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*CastEdge, len(t.order))
	copy(out, t.order)
	return out
}

// CastOption adjusts strategy probing for one edge.
type CastOption func(*castConfig)

type castConfig struct {
	converter any
	disabled  [numCastKinds]bool
}

// WithConverter supplies the value transformation used by Convert (and Any)
// when the Go types are not convertible by themselves. The function must
// have type func(S) D for the edge being registered.
func WithConverter[S, D any](fn func(S) D) CastOption {
	return func(c *castConfig) {
		c.converter = fn
	}
}

// WithoutKind declares strategy k unavailable even if probing finds it.
func WithoutKind(k CastKind) CastOption {
	return func(c *castConfig) {
		if k >= 0 && k < numCastKinds {
			c.disabled[k] = true
		}
	}
}

// RegisterCast registers the edge src -> dst for the Go pair (S, D) and
// probes each strategy once. The reverse edge is not implied.
//
// Fails with ALREADY_REGISTERED if the edge exists, and with TYPE_MISMATCH
// if a supplied converter does not have type func(S) D.
func RegisterCast[S, D any](src, dst *TypeDescriptor, opts ...CastOption) (*CastEdge, error) {
	cfg := &castConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	var conv func(S) D
	if cfg.converter != nil {
		c, ok := cfg.converter.(func(S) D)
		if !ok {
			return nil, &Error{
				Code:    ErrCodeTypeMismatch,
				Message: fmt.Sprintf("converter %T does not have type func(%s) %s", cfg.converter, reflect.TypeFor[S](), reflect.TypeFor[D]()),
				Type:    src.Name(),
			}
		}
		conv = c
	}

	edge := &CastEdge{src: src, dst: dst}
	p := prober[S, D]{src: src, dst: dst, conv: conv}
	candidates := [numCastKinds]CastFunc{
		Dynamic:     p.dynamic(),
		Reinterpret: p.reinterpret(),
		Convert:     p.convert(),
		Qualify:     p.qualify(),
	}
	for _, k := range []CastKind{Dynamic, Reinterpret, Convert, Qualify} {
		if candidates[k] != nil && !cfg.disabled[k] {
			edge.funcs[k] = candidates[k]
			edge.avail[k] = true
		}
	}
	// Any never falls back to Reinterpret: Go has no implicit conversion
	// that reinterprets bits.
	if !cfg.disabled[Any] {
		for _, k := range []CastKind{Qualify, Convert, Dynamic} {
			if edge.avail[k] {
				edge.funcs[Any] = edge.funcs[k]
				edge.avail[Any] = true
				break
			}
		}
	}
	reg := src.reg
	for k := range edge.funcs {
		if edge.funcs[k] == nil {
			edge.funcs[k] = func(*Box) (*Box, error) { return voidBox(reg), nil }
		}
	}

	src.mu.Lock()
	defer src.mu.Unlock()
	if src.casts == nil {
		src.casts = &CastTable{owner: src, edges: make(map[*TypeDescriptor]*CastEdge)}
	}
	table := src.casts
	table.mu.Lock()
	defer table.mu.Unlock()
	if _, ok := table.edges[dst]; ok {
		return nil, newAlreadyRegisteredError(src.name, "cast to "+dst.Name())
	}
	table.edges[dst] = edge
	table.order = append(table.order, edge)
	src.reg.logger.Debug("registered cast", "source", src.name, "destination", dst.Name(), "kinds", fmt.Sprint(edge.Kinds()))
	return edge, nil
}

// Cast applies strategy k of edge to value. Fails with TYPE_MISMATCH if the
// value is not of the edge source type, and with UNSUPPORTED_CAST if the
// strategy produced the void sentinel. The result has its own ownership,
// independent of value.
func Cast(edge *CastEdge, value *Box, k CastKind) (*Box, error) {
	if value == nil || value.typ != edge.src {
		return nil, newTypeMismatchError(edge.src.Name(), "cast source", edge.src, boxType(value))
	}
	if k < 0 || k >= numCastKinds {
		return nil, newUnsupportedCastError(edge.src.Name(), edge.dst.Name(), k)
	}
	out, err := edge.funcs[k](value)
	if err != nil {
		return nil, err
	}
	if out.typ.IsVoid() {
		return nil, newUnsupportedCastError(edge.src.Name(), edge.dst.Name(), k)
	}
	return out, nil
}

// Cast looks up the edge from value's type to dst and applies strategy k.
// A missing edge fails with UNSUPPORTED_CAST.
func (r *Registry) Cast(value *Box, dst *TypeDescriptor, k CastKind) (*Box, error) {
	src := boxType(value)
	if src == nil {
		return nil, newTypeMismatchError(dst.Name(), "cast source", nil, nil)
	}
	table := src.Casts()
	if table == nil {
		return nil, newUnsupportedCastError(src.Name(), dst.Name(), k)
	}
	edge, ok := table.Edge(dst)
	if !ok {
		return nil, newUnsupportedCastError(src.Name(), dst.Name(), k)
	}
	return Cast(edge, value, k)
}

// prober decides, for one concrete (S, D) pair, which strategies are
// expressible. Each method returns nil when its strategy is unavailable.
type prober[S, D any] struct {
	src, dst *TypeDescriptor
	conv     func(S) D
}

func (p prober[S, D]) source(b *Box) (*S, error) {
	h, ok := b.handle.(*S)
	if !ok {
		return nil, &Error{
			Code:    ErrCodeTypeMismatch,
			Message: fmt.Sprintf("cast source handle is %T, not *%s", b.handle, reflect.TypeFor[S]()),
			Type:    p.src.Name(),
		}
	}
	return h, nil
}

func (p prober[S, D]) emit(v D) (*Box, error) {
	out := new(D)
	*out = v
	return p.dst.reg.NewOwnedBox(p.dst, out)
}

func (p prober[S, D]) qualify() CastFunc {
	if reflect.TypeFor[S]() != reflect.TypeFor[D]() {
		return nil
	}
	return func(b *Box) (*Box, error) {
		h, err := p.source(b)
		if err != nil {
			return nil, err
		}
		d, _ := any(*h).(D)
		return p.emit(d)
	}
}

func (p prober[S, D]) convert() CastFunc {
	if p.conv != nil {
		return func(b *Box) (*Box, error) {
			h, err := p.source(b)
			if err != nil {
				return nil, err
			}
			return p.emit(p.conv(*h))
		}
	}
	st, dt := reflect.TypeFor[S](), reflect.TypeFor[D]()
	if st == dt || !st.ConvertibleTo(dt) {
		return nil
	}
	return func(b *Box) (*Box, error) {
		h, err := p.source(b)
		if err != nil {
			return nil, err
		}
		sv := reflect.ValueOf(h).Elem()
		if !sv.CanConvert(dt) {
			return nil, &Error{
				Code:    ErrCodeTypeMismatch,
				Message: fmt.Sprintf("value of %s cannot be converted to %s", st, dt),
				Type:    p.src.Name(),
			}
		}
		d, _ := sv.Convert(dt).Interface().(D)
		return p.emit(d)
	}
}

func (p prober[S, D]) dynamic() CastFunc {
	st, dt := reflect.TypeFor[S](), reflect.TypeFor[D]()
	sIface, dIface := st.Kind() == reflect.Interface, dt.Kind() == reflect.Interface
	switch {
	case sIface && (dIface || dt.Implements(st)):
	case dIface && st.Implements(dt):
	default:
		return nil
	}
	return func(b *Box) (*Box, error) {
		h, err := p.source(b)
		if err != nil {
			return nil, err
		}
		d, ok := any(*h).(D)
		if !ok {
			return nil, &Error{
				Code:    ErrCodeTypeMismatch,
				Message: fmt.Sprintf("dynamic check failed: %T is not %s", any(*h), dt),
				Type:    p.src.Name(),
				Details: map[string]string{"destination": p.dst.Name()},
			}
		}
		return p.emit(d)
	}
}

func (p prober[S, D]) reinterpret() CastFunc {
	st, dt := reflect.TypeFor[S](), reflect.TypeFor[D]()
	if !isScalar(st) || !isScalar(dt) || st.Size() != dt.Size() {
		return nil
	}
	return func(b *Box) (*Box, error) {
		h, err := p.source(b)
		if err != nil {
			return nil, err
		}
		return p.emit(*(*D)(unsafe.Pointer(h)))
	}
}

// isScalar reports whether every bit pattern of t's size is a valid value
// of t. bool is excluded: only the bytes 0 and 1 are valid bools.
func isScalar(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	}
	return false
}
