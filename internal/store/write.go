package store

import (
	"context"
	"fmt"

	"github.com/roach88/reflex/internal/catalog"
	"github.com/roach88/reflex/internal/rtti"
)

// CreateSession inserts a session row. Uses ON CONFLICT(id) DO NOTHING so
// reopening a session is idempotent.
func (s *Store) CreateSession(ctx context.Context, id, label string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, label)
		VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, label)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// WriteEvent appends one ledger event to a session. Duplicate (session, seq)
// pairs are silently ignored, so replaying an observer is idempotent.
//
// Note: The session must exist (foreign key constraint).
func (s *Store) WriteEvent(ctx context.Context, sessionID string, ev rtti.LedgerEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ledger_events
		(session_id, seq, generation, kind, type_name, count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, seq) DO NOTHING
	`,
		sessionID,
		ev.Seq,
		ev.Generation,
		string(ev.Kind),
		ev.Type,
		ev.Count,
	)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}

// WriteCatalog stores the canonical JSON of c, content-addressed by its
// hash, and records the hash on the session. Returns the hash.
func (s *Store) WriteCatalog(ctx context.Context, sessionID string, c catalog.Catalog) (string, error) {
	hash, body, err := marshalCatalog(c)
	if err != nil {
		return "", fmt.Errorf("write catalog: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("write catalog: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO catalogs (hash, body)
		VALUES (?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, hash, body); err != nil {
		return "", fmt.Errorf("write catalog: %w", err)
	}

	res, err := tx.ExecContext(ctx, `UPDATE sessions SET catalog_hash = ? WHERE id = ?`, hash, sessionID)
	if err != nil {
		return "", fmt.Errorf("write catalog: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return "", fmt.Errorf("write catalog: session %q not found", sessionID)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("write catalog: %w", err)
	}
	return hash, nil
}
