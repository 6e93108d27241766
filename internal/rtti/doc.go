// Package rtti implements a runtime type and reflection layer: a registry
// of type descriptors, type-erased value boxes with shared ownership, typed
// proxies for constructors, destructors, properties and functions, and a
// cast engine offering several conversion strategies per type pair.
//
// This package contains no internal imports. All other internal packages
// build on it.
//
// # Lifecycle
//
// A program creates a Registry, registers its types in a deterministic
// startup routine (builtins first, then dependencies before dependents),
// and afterwards only looks up descriptors and invokes them:
//
//	reg := rtti.New()
//	rtti.RegisterBuiltins(reg)
//	intT := reg.MustLookup("int")
//	counter := rtti.RegisterType[Counter](reg, 0)
//	_ = counter.AddConstructor(rtti.NewConstructor(counter, nil,
//		rtti.Alloc(func() *Counter { return &Counter{} })))
//
// # Type safety
//
// Every proxy validates descriptors by exact identity before any side
// effect: arity first, then each positional argument. Qualified spellings
// ("const int", "int&") are distinct descriptors and never match each other.
// Parent/child links are recorded but not consulted during resolution.
//
// # Ownership
//
// Owning boxes share a ledger entry per handle. Copy increments the count,
// Drop decrements it, and the owning type's destructor runs once when the
// count reaches zero. Go has no destructors or copy constructors, so Copy,
// Move, and Drop are explicit calls.
//
// # Casts
//
// RegisterCast probes, once per (source, destination) pair, which of the
// five strategies are expressible in Go. Unavailable strategies produce the
// void sentinel and Cast reports UNSUPPORTED_CAST for them.
package rtti
