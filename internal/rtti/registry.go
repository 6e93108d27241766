package rtti

import (
	"io"
	"log/slog"
	"reflect"
	"sort"
	"sync"
)

// VoidName is the name of the distinguished empty descriptor. Unsupported
// cast strategies produce boxes of this type.
const VoidName = "void"

// Registry owns the mapping from generated type name to TypeDescriptor and the
// ownership ledger shared by every owning Box created through it.
//
// The intended lifecycle is a one-time registration phase (dependencies
// before dependents) followed by unrestricted lookup and invocation. The
// name map and the ledger are guarded by locks, so concurrent use does not
// corrupt them, but registration should still complete before reads begin.
//
// INVARIANTS:
//   - Register is get-or-create: one descriptor per name for the registry lifetime
//   - Descriptors are never removed
//   - Void() is registered at construction and is never given members
type Registry struct {
	mu     sync.RWMutex
	types  map[string]*TypeDescriptor
	void   *TypeDescriptor
	ledger *Ledger
	clock  *Clock
	logger *slog.Logger

	observer LedgerObserver
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for registration and lifetime diagnostics.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithObserver installs an observer notified of every ledger transition.
func WithObserver(obs LedgerObserver) Option {
	return func(r *Registry) {
		r.observer = obs
	}
}

// WithClock sets the logical clock stamping ledger events.
// Used by tests and by journals resuming an earlier sequence.
func WithClock(clock *Clock) Option {
	return func(r *Registry) {
		r.clock = clock
	}
}

// New creates an empty Registry holding only the void descriptor.
func New(opts ...Option) *Registry {
	r := &Registry{
		types:  make(map[string]*TypeDescriptor),
		clock:  NewClock(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r.ledger = newLedger(r.clock, r.observer, r.logger)
	r.void = r.register(VoidName, nil)
	return r
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide registry, building it with the builtin
// scalar types on first use.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = New()
		RegisterBuiltins(defaultReg)
	})
	return defaultReg
}

// Register returns the descriptor for name, creating it on first use.
// Calling Register again with the same name returns the same descriptor.
func (r *Registry) Register(name string) *TypeDescriptor {
	return r.register(name, nil)
}

// RegisterType registers the spelling of T under q and binds the descriptor
// to T's Go type, which enables handle checks and cast probing.
func RegisterType[T any](r *Registry, q Qualifier) *TypeDescriptor {
	t := reflect.TypeFor[T]()
	return r.register(Spell(BaseName(t), q), t)
}

// RegisterAll registers every qualifier spelling of T (see AllQualifiers)
// and returns the descriptors in the same order.
func RegisterAll[T any](r *Registry) []*TypeDescriptor {
	out := make([]*TypeDescriptor, 0, len(AllQualifiers))
	for _, q := range AllQualifiers {
		out = append(out, RegisterType[T](r, q))
	}
	return out
}

func (r *Registry) register(name string, goType reflect.Type) *TypeDescriptor {
	r.mu.Lock()
	defer r.mu.Unlock()

	if td, ok := r.types[name]; ok {
		if td.goType == nil && goType != nil {
			td.goType = goType
		} else if goType != nil && td.goType != goType {
			r.logger.Warn("type already bound to a different Go type",
				"name", name, "bound", td.goType.String(), "ignored", goType.String())
		}
		return td
	}

	base, q := ParseSpelling(name)
	td := &TypeDescriptor{
		reg:    r,
		name:   name,
		base:   base,
		qual:   q,
		goType: goType,
	}
	r.types[name] = td
	r.logger.Debug("registered type", "name", name)
	return td
}

// Lookup returns the descriptor registered under name.
// Fails with TYPE_NOT_REGISTERED if absent.
func (r *Registry) Lookup(name string) (*TypeDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	td, ok := r.types[name]
	if !ok {
		return nil, newNotRegisteredError(name)
	}
	return td, nil
}

// MustLookup is like Lookup but panics if name is not registered.
// Use only during startup or in tests.
func (r *Registry) MustLookup(name string) *TypeDescriptor {
	td, err := r.Lookup(name)
	if err != nil {
		panic(err)
	}
	return td
}

// LookupType returns the descriptor for T spelled under q.
func LookupType[T any](r *Registry, q Qualifier) (*TypeDescriptor, error) {
	return r.Lookup(NameOf[T](q))
}

// LookupExample derives the canonical (unqualified) name from the dynamic
// type of v, exactly as RegisterType would, and looks it up.
func (r *Registry) LookupExample(v any) (*TypeDescriptor, error) {
	t := reflect.TypeOf(v)
	if t == nil {
		return nil, newNotRegisteredError("<nil>")
	}
	return r.Lookup(Spell(BaseName(t), 0))
}

// Void returns the distinguished empty descriptor.
func (r *Registry) Void() *TypeDescriptor {
	return r.void
}

// Types returns every registered descriptor sorted by name.
func (r *Registry) Types() []*TypeDescriptor {
	r.mu.RLock()
	out := make([]*TypeDescriptor, 0, len(r.types))
	for _, td := range r.types {
		out = append(out, td)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Len returns the number of registered descriptors, including void.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

// Ledger returns the ownership ledger shared by this registry's owning boxes.
func (r *Registry) Ledger() *Ledger {
	return r.ledger
}

// Logger returns the registry logger.
func (r *Registry) Logger() *slog.Logger {
	return r.logger
}
