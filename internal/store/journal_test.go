package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reflex/internal/catalog"
	"github.com/roach88/reflex/internal/rtti"
	"github.com/roach88/reflex/internal/testutil"
)

type box struct{ N int }

func TestJournal_RecordsLedger(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	j, err := NewJournal(ctx, s, NewFixedGenerator("session-1"),
		WithLabel("unit"), WithJournalLogger(testutil.DiscardLogger()))
	require.NoError(t, err)
	assert.Equal(t, "session-1", j.Session())

	reg := testutil.NewRegistry(rtti.WithObserver(j))
	td := rtti.RegisterType[box](reg, 0)

	a, err := rtti.Own(td, box{N: 1})
	require.NoError(t, err)
	b := a.Copy()
	kept, err := rtti.Own(td, box{N: 2})
	require.NoError(t, err)
	a.Drop()
	b.Drop()

	written, failed := j.Stats()
	assert.Equal(t, 5, written)
	assert.Equal(t, 0, failed)
	require.NoError(t, j.Err())

	events, err := s.ReadSession(ctx, "session-1")
	require.NoError(t, err)
	require.Len(t, events, 5)

	var kinds []rtti.LedgerEventKind
	for i, ev := range events {
		kinds = append(kinds, ev.Kind)
		assert.Equal(t, "session-1", ev.SessionID)
		assert.Equal(t, "store.box", ev.Type)
		if i > 0 {
			assert.Greater(t, ev.Seq, events[i-1].Seq)
		}
	}
	assert.Equal(t, []rtti.LedgerEventKind{
		rtti.LedgerAcquire, rtti.LedgerShare, rtti.LedgerAcquire, rtti.LedgerRelease, rtti.LedgerDestroy,
	}, kinds)

	live, err := s.LiveHandles(ctx, "session-1")
	require.NoError(t, err)
	require.Len(t, live, 1)
	gen, ok := reg.Ledger().Generation(kept.Handle())
	require.True(t, ok)
	assert.Equal(t, LiveHandle{Generation: gen, Type: "store.box", Count: 1}, live[0])

	sessions, err := s.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Session{{ID: "session-1", Label: "unit", Events: 5}}, sessions)

	kept.Drop()
	live, err = s.LiveHandles(ctx, "session-1")
	require.NoError(t, err)
	assert.Empty(t, live)
}

func TestJournal_WriteFailureIsCounted(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	j, err := NewJournal(ctx, s, NewFixedGenerator("s"), WithJournalLogger(testutil.DiscardLogger()))
	require.NoError(t, err)

	require.NoError(t, s.Close())
	j.OnLedgerEvent(event(1, 1, rtti.LedgerAcquire, 1))

	written, failed := j.Stats()
	assert.Equal(t, 0, written)
	assert.Equal(t, 1, failed)
	assert.Error(t, j.Err())
}

func TestWriteEvent_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.CreateSession(ctx, "s", ""))

	ev := event(1, 1, rtti.LedgerAcquire, 1)
	require.NoError(t, s.WriteEvent(ctx, "s", ev))
	require.NoError(t, s.WriteEvent(ctx, "s", ev))

	events, err := s.ReadSession(ctx, "s")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestWriteEvent_RequiresSession(t *testing.T) {
	s := createTestStore(t)

	err := s.WriteEvent(context.Background(), "missing", event(1, 1, rtti.LedgerAcquire, 1))
	assert.Error(t, err)
}

func TestReadSession_Empty(t *testing.T) {
	s := createTestStore(t)

	events, err := s.ReadSession(context.Background(), "nope")
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestWriteCatalog_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.CreateSession(ctx, "s", ""))

	reg := testutil.NewRegistry()
	rtti.RegisterBuiltins(reg)
	snap := catalog.Snapshot(reg)

	hash, err := s.WriteCatalog(ctx, "s", snap)
	require.NoError(t, err)
	assert.Equal(t, catalog.MustHash(snap), hash)

	gotHash, got, err := s.ReadCatalog(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, hash, gotHash)
	assert.Equal(t, catalog.MustHash(got), hash, "stored catalog hashes identically")

	sessions, err := s.Sessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, hash, sessions[0].CatalogHash)
}

func TestWriteCatalog_MissingSession(t *testing.T) {
	s := createTestStore(t)

	_, err := s.WriteCatalog(context.Background(), "missing", catalog.Catalog{Types: []catalog.Type{}})
	assert.ErrorContains(t, err, "not found")

	_, _, err = s.ReadCatalog(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGenerators(t *testing.T) {
	g := NewFixedGenerator("a", "b")
	assert.Equal(t, "a", g.Generate())
	assert.Equal(t, "b", g.Generate())
	assert.Panics(t, func() { g.Generate() })

	id1 := UUIDv7Generator{}.Generate()
	id2 := UUIDv7Generator{}.Generate()
	assert.Len(t, id1, 36)
	assert.NotEqual(t, id1, id2)
}
