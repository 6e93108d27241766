// Package catalog produces deterministic, hashable snapshots of a registry.
//
// A Catalog lists every descriptor with its members, casts, and links. Two
// registries built by the same startup routine produce identical catalogs
// and therefore identical hashes, which lets the journal record exactly
// which registry shape a session ran against.
package catalog

import (
	"github.com/roach88/reflex/internal/rtti"
)

// Catalog is a snapshot of every registered descriptor, sorted by name.
type Catalog struct {
	Types []Type `json:"types"`
}

// Type describes one descriptor. Empty lists are omitted.
type Type struct {
	Name             string        `json:"name"`
	Base             string        `json:"base"`
	Qualifiers       string        `json:"qualifiers,omitempty"`
	GoType           string        `json:"go_type,omitempty"`
	Constructors     []Constructor `json:"constructors,omitempty"`
	Destructor       bool          `json:"destructor,omitempty"`
	Properties       []Property    `json:"properties,omitempty"`
	StaticProperties []Property    `json:"static_properties,omitempty"`
	Methods          []Function    `json:"methods,omitempty"`
	StaticFunctions  []Function    `json:"static_functions,omitempty"`
	Casts            []Cast        `json:"casts,omitempty"`
	Pointer          string        `json:"pointer,omitempty"`
	Elem             string        `json:"elem,omitempty"`
	Parents          []string      `json:"parents,omitempty"`
	Children         []string      `json:"children,omitempty"`
}

// Constructor lists the declared parameter types of one constructor.
type Constructor struct {
	Params []string `json:"params"`
}

// Property is a named member with a declared type.
type Property struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Function is a named callable. Returns is empty for functions without a
// return value.
type Function struct {
	Name    string   `json:"name"`
	Params  []string `json:"params"`
	Returns string   `json:"returns,omitempty"`
}

// Cast is one outgoing edge with its available strategies.
type Cast struct {
	Destination string   `json:"destination"`
	Kinds       []string `json:"kinds"`
}

// Snapshot describes every descriptor in reg. Members and casts keep
// registration order; types are sorted by name.
func Snapshot(reg *rtti.Registry) Catalog {
	tds := reg.Types()
	c := Catalog{Types: make([]Type, 0, len(tds))}
	for _, td := range tds {
		c.Types = append(c.Types, Describe(td))
	}
	return c
}

// Describe builds the catalog entry for one descriptor.
func Describe(td *rtti.TypeDescriptor) Type {
	t := Type{
		Name:       td.Name(),
		Base:       td.Base(),
		Qualifiers: td.Qualifier().String(),
		Destructor: td.Destructor() != nil,
		Parents:    names(td.Parents()),
		Children:   names(td.Children()),
	}
	if gt := td.GoType(); gt != nil {
		t.GoType = gt.String()
	}
	for _, c := range td.Constructors() {
		t.Constructors = append(t.Constructors, Constructor{Params: names(c.Params())})
	}
	for _, p := range td.Properties() {
		t.Properties = append(t.Properties, Property{Name: p.Name(), Type: p.Type().Name()})
	}
	for _, p := range td.StaticProperties() {
		t.StaticProperties = append(t.StaticProperties, Property{Name: p.Name(), Type: p.Type().Name()})
	}
	for _, f := range td.AllMethods() {
		t.Methods = append(t.Methods, function(f.Name(), f.Params(), f.Returns()))
	}
	for _, f := range td.StaticFunctions() {
		t.StaticFunctions = append(t.StaticFunctions, function(f.Name(), f.Params(), f.Returns()))
	}
	if table := td.Casts(); table != nil {
		for _, e := range table.Edges() {
			kinds := make([]string, 0, len(rtti.CastKinds))
			for _, k := range e.Kinds() {
				kinds = append(kinds, k.String())
			}
			t.Casts = append(t.Casts, Cast{Destination: e.Destination().Name(), Kinds: kinds})
		}
	}
	if s := td.Shifter(); s != nil {
		if s.Pointer() != nil {
			t.Pointer = s.Pointer().Name()
		}
		if s.Elem() != nil {
			t.Elem = s.Elem().Name()
		}
	}
	return t
}

// Find returns the entry named name.
func (c Catalog) Find(name string) (Type, bool) {
	for _, t := range c.Types {
		if t.Name == name {
			return t, true
		}
	}
	return Type{}, false
}

func function(name string, params []*rtti.TypeDescriptor, ret *rtti.TypeDescriptor) Function {
	f := Function{Name: name, Params: names(params)}
	if ret != nil {
		f.Returns = ret.Name()
	}
	return f
}

// names never returns nil so that required lists encode as [] rather than null.
func names(tds []*rtti.TypeDescriptor) []string {
	out := make([]string, 0, len(tds))
	for _, td := range tds {
		out = append(out, td.Name())
	}
	return out
}
