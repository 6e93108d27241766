package manifest

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/reflex/internal/catalog"
	"github.com/roach88/reflex/internal/rtti"
)

// FindingCode identifies one kind of drift between a manifest and a registry.
type FindingCode string

const (
	MissingType           FindingCode = "MISSING_TYPE"
	MissingConstructor    FindingCode = "MISSING_CONSTRUCTOR"
	DestructorMismatch    FindingCode = "DESTRUCTOR_MISMATCH"
	MissingProperty       FindingCode = "MISSING_PROPERTY"
	PropertyTypeMismatch  FindingCode = "PROPERTY_TYPE_MISMATCH"
	MissingMethod         FindingCode = "MISSING_METHOD"
	SignatureMismatch     FindingCode = "SIGNATURE_MISMATCH"
	MissingStaticProperty FindingCode = "MISSING_STATIC_PROPERTY"
	MissingStaticFunction FindingCode = "MISSING_STATIC_FUNCTION"
	MissingCast           FindingCode = "MISSING_CAST"
	CastKindsMismatch     FindingCode = "CAST_KINDS_MISMATCH"
	MissingParent         FindingCode = "MISSING_PARENT"
)

// Finding is one difference between a manifest and the registry.
type Finding struct {
	Code    FindingCode `json:"code"`
	Type    string      `json:"type"`
	Member  string      `json:"member,omitempty"`
	Message string      `json:"message"`
}

func (f Finding) String() string {
	if f.Member != "" {
		return fmt.Sprintf("%s %s.%s: %s", f.Code, f.Type, f.Member, f.Message)
	}
	return fmt.Sprintf("%s %s: %s", f.Code, f.Type, f.Message)
}

// Verify checks every manifest against reg and returns the findings in
// manifest order. An empty result means no drift.
func Verify(reg *rtti.Registry, manifests []TypeManifest) []Finding {
	var out []Finding
	for _, m := range manifests {
		out = append(out, verifyType(reg, m)...)
	}
	return out
}

func verifyType(reg *rtti.Registry, m TypeManifest) []Finding {
	td, err := reg.Lookup(m.Name)
	if err != nil {
		return []Finding{{Code: MissingType, Type: m.Name, Message: "type is not registered"}}
	}
	got := catalog.Describe(td)

	var out []Finding
	add := func(code FindingCode, member, format string, args ...any) {
		out = append(out, Finding{Code: code, Type: m.Name, Member: member, Message: fmt.Sprintf(format, args...)})
	}

	for _, params := range m.Constructors {
		if !slices.ContainsFunc(got.Constructors, func(c catalog.Constructor) bool { return slices.Equal(c.Params, params) }) {
			add(MissingConstructor, "", "no constructor (%s)", strings.Join(params, ", "))
		}
	}

	if m.Destructor != nil && *m.Destructor != got.Destructor {
		add(DestructorMismatch, "", "destructor present = %t, want %t", got.Destructor, *m.Destructor)
	}

	checkMembers(m.Properties, got.Properties, MissingProperty, add)
	checkMembers(m.StaticProperties, got.StaticProperties, MissingStaticProperty, add)
	checkFunctions(m.Methods, got.Methods, MissingMethod, add)
	checkFunctions(m.StaticFunctions, got.StaticFunctions, MissingStaticFunction, add)

	for _, want := range m.Casts {
		i := slices.IndexFunc(got.Casts, func(c catalog.Cast) bool { return c.Destination == want.Destination })
		if i < 0 {
			add(MissingCast, want.Destination, "no cast edge")
			continue
		}
		if !sameSet(want.Kinds, got.Casts[i].Kinds) {
			add(CastKindsMismatch, want.Destination, "strategies [%s], want [%s]",
				strings.Join(got.Casts[i].Kinds, ", "), strings.Join(want.Kinds, ", "))
		}
	}

	for _, p := range m.Parents {
		if !slices.Contains(got.Parents, p) {
			add(MissingParent, p, "parent link not recorded")
		}
	}
	return out
}

func checkMembers(want []Member, got []catalog.Property, missing FindingCode, add func(FindingCode, string, string, ...any)) {
	for _, w := range want {
		i := slices.IndexFunc(got, func(p catalog.Property) bool { return p.Name == w.Name })
		if i < 0 {
			add(missing, w.Name, "not registered")
			continue
		}
		if got[i].Type != w.Type {
			add(PropertyTypeMismatch, w.Name, "type %s, want %s", got[i].Type, w.Type)
		}
	}
}

func checkFunctions(want []Function, got []catalog.Function, missing FindingCode, add func(FindingCode, string, string, ...any)) {
	for _, w := range want {
		var named []catalog.Function
		for _, f := range got {
			if f.Name == w.Name {
				named = append(named, f)
			}
		}
		if len(named) == 0 {
			add(missing, w.Name, "not registered")
			continue
		}
		match := slices.ContainsFunc(named, func(f catalog.Function) bool {
			return slices.Equal(f.Params, w.Params) && f.Returns == w.Returns
		})
		if !match {
			add(SignatureMismatch, w.Name, "no overload (%s) %s; registered: %s",
				strings.Join(w.Params, ", "), orVoid(w.Returns), signatures(named))
		}
	}
}

func signatures(fs []catalog.Function) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = "(" + strings.Join(f.Params, ", ") + ") " + orVoid(f.Returns)
	}
	return strings.Join(parts, "; ")
}

func orVoid(s string) string {
	if s == "" {
		return rtti.VoidName
	}
	return s
}

func sameSet(a, b []string) bool {
	x, y := slices.Clone(a), slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(slices.Compact(x), slices.Compact(y))
}
