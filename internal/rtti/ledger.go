package rtti

import (
	"log/slog"
	"sync"
)

// LedgerEventKind names a ledger transition.
type LedgerEventKind string

const (
	// LedgerAcquire: a handle entered the ledger with count 1.
	LedgerAcquire LedgerEventKind = "acquire"
	// LedgerShare: an existing entry gained a co-owner.
	LedgerShare LedgerEventKind = "share"
	// LedgerRelease: an owner dropped and others remain.
	LedgerRelease LedgerEventKind = "release"
	// LedgerDestroy: the last owner dropped; the destructor ran.
	LedgerDestroy LedgerEventKind = "destroy"
	// LedgerDisown: the sole owner released ownership; no destructor ran.
	LedgerDisown LedgerEventKind = "disown"
)

// LedgerEvent describes one ledger transition.
type LedgerEvent struct {
	Seq        int64           `json:"seq"`
	Generation int64           `json:"generation"`
	Kind       LedgerEventKind `json:"kind"`
	Type       string          `json:"type"`
	Count      int             `json:"count"`
}

// LedgerObserver is notified synchronously of every ledger transition, in
// order. Observers must not call back into the ledger.
type LedgerObserver interface {
	OnLedgerEvent(ev LedgerEvent)
}

// LedgerObserverFunc adapts a function to LedgerObserver.
type LedgerObserverFunc func(ev LedgerEvent)

// OnLedgerEvent implements LedgerObserver.
func (f LedgerObserverFunc) OnLedgerEvent(ev LedgerEvent) { f(ev) }

// Ledger maps owned handles to their live-reference counts.
//
// Entries are keyed by handle identity (the pointer itself). The ledger holds
// the pointer while the entry exists, so the garbage collector cannot recycle
// its address for an unrelated allocation; a recycled address can only
// appear after the entry was erased and therefore starts a new generation.
//
// INVARIANTS:
//   - An entry exists iff its count is > 0
//   - The entry is erased exactly when the count goes from 1 to 0, and the
//     destructor of the owning type runs exactly once at that point
//   - Each entry carries a generation number unique for the registry lifetime
type Ledger struct {
	mu       sync.Mutex
	entries  map[any]*ledgerEntry
	clock    *Clock
	observer LedgerObserver
	logger   *slog.Logger
}

type ledgerEntry struct {
	count      int
	generation int64
	typ        *TypeDescriptor
}

func newLedger(clock *Clock, obs LedgerObserver, logger *slog.Logger) *Ledger {
	return &Ledger{
		entries:  make(map[any]*ledgerEntry),
		clock:    clock,
		observer: obs,
		logger:   logger,
	}
}

// Count returns the live-reference count for handle (0 if absent).
func (l *Ledger) Count(handle any) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[handle]; ok {
		return e.count
	}
	return 0
}

// Generation returns the generation of handle's entry and whether it exists.
func (l *Ledger) Generation(handle any) (int64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e, ok := l.entries[handle]; ok {
		return e.generation, true
	}
	return 0, false
}

// Len returns the number of live entries.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// acquire inserts handle with count 1, or increments an existing entry.
func (l *Ledger) acquire(td *TypeDescriptor, handle any) {
	l.mu.Lock()
	e, ok := l.entries[handle]
	kind := LedgerShare
	if ok {
		e.count++
	} else {
		e = &ledgerEntry{count: 1, generation: l.clock.Next(), typ: td}
		l.entries[handle] = e
		kind = LedgerAcquire
	}
	ev := l.event(kind, e)
	l.mu.Unlock()

	l.notify(ev)
}

// retain increments an existing entry. Used by Box.Copy.
func (l *Ledger) retain(handle any) {
	l.mu.Lock()
	e, ok := l.entries[handle]
	if !ok {
		l.mu.Unlock()
		l.logger.Error("retain of handle missing from ledger")
		return
	}
	e.count++
	ev := l.event(LedgerShare, e)
	l.mu.Unlock()

	l.notify(ev)
}

// release decrements handle's count. When the count reaches zero the entry
// is erased and the destructor of the owning type runs. The destructor runs
// outside the ledger lock so it may itself drop boxes.
func (l *Ledger) release(handle any) {
	l.mu.Lock()
	e, ok := l.entries[handle]
	if !ok {
		l.mu.Unlock()
		l.logger.Error("release of handle missing from ledger")
		return
	}
	e.count--
	if e.count > 0 {
		ev := l.event(LedgerRelease, e)
		l.mu.Unlock()
		l.notify(ev)
		return
	}
	delete(l.entries, handle)
	ev := l.event(LedgerDestroy, e)
	l.mu.Unlock()

	if d := e.typ.Destructor(); d != nil {
		l.logger.Debug("invoking destructor", "type", e.typ.Name(), "generation", e.generation)
		d.Invoke(handle)
	}
	l.notify(ev)
}

// disown erases a sole-owner entry without running the destructor.
// Fails with OWNERSHIP_VIOLATION if other owners remain.
func (l *Ledger) disown(handle any) error {
	l.mu.Lock()
	e, ok := l.entries[handle]
	if !ok {
		l.mu.Unlock()
		return nil
	}
	if e.count > 1 {
		l.mu.Unlock()
		return newOwnershipError(e.typ.Name(), e.count)
	}
	delete(l.entries, handle)
	e.count = 0
	ev := l.event(LedgerDisown, e)
	l.mu.Unlock()

	l.notify(ev)
	return nil
}

func (l *Ledger) event(kind LedgerEventKind, e *ledgerEntry) LedgerEvent {
	count := e.count
	if count < 0 {
		count = 0
	}
	return LedgerEvent{
		Seq:        l.clock.Next(),
		Generation: e.generation,
		Kind:       kind,
		Type:       e.typ.Name(),
		Count:      count,
	}
}

func (l *Ledger) notify(ev LedgerEvent) {
	if l.observer != nil {
		l.observer.OnLedgerEvent(ev)
	}
}
