package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/reflex/internal/rtti"
)

// Journal records ledger transitions into a store session. It implements
// rtti.LedgerObserver; install it with rtti.WithObserver.
//
// Write failures are logged and counted and never interrupt the registry.
// Err returns the first failure.
type Journal struct {
	store   *Store
	session string
	logger  *slog.Logger

	mu      sync.Mutex
	written int
	failed  int
	err     error
}

// JournalOption configures a Journal.
type JournalOption func(*journalConfig)

type journalConfig struct {
	label  string
	logger *slog.Logger
}

// WithLabel sets the human-readable session label.
func WithLabel(label string) JournalOption {
	return func(c *journalConfig) {
		c.label = label
	}
}

// WithJournalLogger sets the logger for write failures.
// Default: slog.Default().
func WithJournalLogger(logger *slog.Logger) JournalOption {
	return func(c *journalConfig) {
		c.logger = logger
	}
}

// NewJournal creates a session with an ID from gen and returns a journal
// writing to it.
func NewJournal(ctx context.Context, s *Store, gen SessionGenerator, opts ...JournalOption) (*Journal, error) {
	cfg := journalConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	id := gen.Generate()
	if err := s.CreateSession(ctx, id, cfg.label); err != nil {
		return nil, fmt.Errorf("new journal: %w", err)
	}
	return &Journal{store: s, session: id, logger: cfg.logger}, nil
}

// Session returns the session ID.
func (j *Journal) Session() string { return j.session }

// OnLedgerEvent implements rtti.LedgerObserver.
func (j *Journal) OnLedgerEvent(ev rtti.LedgerEvent) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if err := j.store.WriteEvent(context.Background(), j.session, ev); err != nil {
		j.failed++
		if j.err == nil {
			j.err = err
		}
		j.logger.Error("journal write failed",
			"session", j.session,
			"seq", ev.Seq,
			"kind", string(ev.Kind),
			"error", err)
		return
	}
	j.written++
}

// Stats returns the number of events written and failed.
func (j *Journal) Stats() (written, failed int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.written, j.failed
}

// Err returns the first write failure, or nil.
func (j *Journal) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}
