package rtti

import (
	"reflect"
	"strings"
)

// Qualifier is the set of qualifiers that distinguish one spelling of a type
// from another. Every distinct spelling is registered as its own
// TypeDescriptor; siblings share no data and are not convertible unless a
// cast edge says so.
type Qualifier uint8

const (
	Const Qualifier = 1 << iota
	Volatile
	// LValueRef marks the "T&" spelling.
	LValueRef
	// RValueRef marks the "T&&" spelling. Mutually exclusive with LValueRef.
	RValueRef
)

// AllQualifiers lists every valid qualifier combination in registration order:
// plain, const, volatile, const volatile, then the lvalue and rvalue reference
// forms of each.
var AllQualifiers = []Qualifier{
	0, Const, Volatile, Const | Volatile,
	LValueRef, Const | LValueRef, Volatile | LValueRef, Const | Volatile | LValueRef,
	RValueRef, Const | RValueRef, Volatile | RValueRef, Const | Volatile | RValueRef,
}

// Valid reports whether q is a legal combination.
func (q Qualifier) Valid() bool {
	if q&LValueRef != 0 && q&RValueRef != 0 {
		return false
	}
	return q < 1<<4
}

// String returns the qualifier prefix/suffix pattern, e.g. "const &".
func (q Qualifier) String() string {
	return strings.TrimSpace(Spell("", q))
}

// Spell produces the canonical generated name for base under q:
// "[const ][volatile ]base[&|&&]".
func Spell(base string, q Qualifier) string {
	var sb strings.Builder
	if q&Const != 0 {
		sb.WriteString("const ")
	}
	if q&Volatile != 0 {
		sb.WriteString("volatile ")
	}
	sb.WriteString(base)
	switch {
	case q&LValueRef != 0:
		sb.WriteString("&")
	case q&RValueRef != 0:
		sb.WriteString("&&")
	}
	return sb.String()
}

// ParseSpelling splits a generated name back into its base and qualifiers.
// It is the inverse of Spell for every valid qualifier.
func ParseSpelling(name string) (string, Qualifier) {
	var q Qualifier
	rest := name
	for {
		if strings.HasPrefix(rest, "const ") {
			q |= Const
			rest = rest[len("const "):]
			continue
		}
		if strings.HasPrefix(rest, "volatile ") {
			q |= Volatile
			rest = rest[len("volatile "):]
			continue
		}
		break
	}
	switch {
	case strings.HasSuffix(rest, "&&"):
		q |= RValueRef
		rest = rest[:len(rest)-2]
	case strings.HasSuffix(rest, "&"):
		q |= LValueRef
		rest = rest[:len(rest)-1]
	}
	return rest, q
}

// BaseName returns the base spelling used for the Go type t.
func BaseName(t reflect.Type) string {
	return t.String()
}

// NameOf returns the generated name a registrant would use for T under q.
func NameOf[T any](q Qualifier) string {
	return Spell(BaseName(reflect.TypeFor[T]()), q)
}
