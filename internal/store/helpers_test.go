package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/reflex/internal/rtti"
)

// createTestStore opens a store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func event(seq, gen int64, kind rtti.LedgerEventKind, count int) rtti.LedgerEvent {
	return rtti.LedgerEvent{Seq: seq, Generation: gen, Kind: kind, Type: "demo.Counter", Count: count}
}
