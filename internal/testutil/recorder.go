package testutil

import (
	"sync"

	"github.com/roach88/reflex/internal/rtti"
)

// Recorder is a ledger observer that keeps every event in memory.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Recorder struct {
	mu     sync.Mutex
	events []rtti.LedgerEvent
}

// NewRecorder creates an empty recorder. Install it with rtti.WithObserver.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// OnLedgerEvent implements rtti.LedgerObserver.
func (r *Recorder) OnLedgerEvent(ev rtti.LedgerEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events in arrival order.
func (r *Recorder) Events() []rtti.LedgerEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]rtti.LedgerEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds returns the kind of every recorded event in arrival order.
func (r *Recorder) Kinds() []rtti.LedgerEventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]rtti.LedgerEventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

// Reset discards recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
