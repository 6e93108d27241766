package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/reflex/internal/catalog"
	"github.com/roach88/reflex/internal/rtti"
)

// ErrNotFound is returned when a session or catalog does not exist.
var ErrNotFound = errors.New("not found")

// Sessions returns every session with its event count, ordered by ID.
// UUIDv7 session IDs sort by creation time.
func (s *Store) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.label, s.catalog_hash, COUNT(e.id)
		FROM sessions s
		LEFT JOIN ledger_events e ON e.session_id = s.id
		GROUP BY s.id
		ORDER BY s.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Label, &sess.CatalogHash, &sess.Events); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ReadSession returns every event of a session ordered by seq ASC, id ASC.
// Returns an empty slice (not nil) if the session has no events.
func (s *Store) ReadSession(ctx context.Context, sessionID string) ([]EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, seq, generation, kind, type_name, count
		FROM ledger_events
		WHERE session_id = ?
		ORDER BY seq ASC, id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []EventRecord{}
	for rows.Next() {
		var rec EventRecord
		var kind string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Seq, &rec.Generation, &kind, &rec.Type, &rec.Count); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		rec.Kind = rtti.LedgerEventKind(kind)
		events = append(events, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// LiveHandles returns, per generation, the latest event of instances whose
// last transition was not destroy or disown. Ordered by generation.
func (s *Store) LiveHandles(ctx context.Context, sessionID string) ([]LiveHandle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.generation, e.type_name, e.count
		FROM ledger_events e
		WHERE e.session_id = ?
		  AND e.seq = (
		      SELECT MAX(l.seq) FROM ledger_events l
		      WHERE l.session_id = e.session_id AND l.generation = e.generation
		  )
		  AND e.kind NOT IN ('destroy', 'disown')
		ORDER BY e.generation ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query live handles: %w", err)
	}
	defer rows.Close()

	live := []LiveHandle{}
	for rows.Next() {
		var h LiveHandle
		if err := rows.Scan(&h.Generation, &h.Type, &h.Count); err != nil {
			return nil, fmt.Errorf("scan live handle: %w", err)
		}
		live = append(live, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate live handles: %w", err)
	}
	return live, nil
}

// ReadCatalog returns the catalog recorded for a session.
// Returns ErrNotFound if the session does not exist or has no catalog.
func (s *Store) ReadCatalog(ctx context.Context, sessionID string) (string, catalog.Catalog, error) {
	var hash, body string
	err := s.db.QueryRowContext(ctx, `
		SELECT c.hash, c.body
		FROM sessions s
		JOIN catalogs c ON c.hash = s.catalog_hash
		WHERE s.id = ?
	`, sessionID).Scan(&hash, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", catalog.Catalog{}, fmt.Errorf("catalog for session %q: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return "", catalog.Catalog{}, fmt.Errorf("read catalog: %w", err)
	}

	c, err := unmarshalCatalog(body)
	if err != nil {
		return "", catalog.Catalog{}, err
	}
	return hash, c, nil
}
