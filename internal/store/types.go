package store

import "github.com/roach88/reflex/internal/rtti"

// Session is one journaled run of a registry.
type Session struct {
	ID          string `json:"id"`
	Label       string `json:"label,omitempty"`
	CatalogHash string `json:"catalog_hash,omitempty"`
	Events      int    `json:"events"`
}

// EventRecord is a stored ledger event.
type EventRecord struct {
	ID        int64  `json:"id"`
	SessionID string `json:"session_id"`
	rtti.LedgerEvent
}

// LiveHandle is an instance whose last recorded event left it alive:
// acquired but never destroyed or disowned.
type LiveHandle struct {
	Generation int64  `json:"generation"`
	Type       string `json:"type"`
	Count      int    `json:"count"`
}
