package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reflex/internal/rtti"
)

func records(evs ...rtti.LedgerEvent) []EventRecord {
	out := make([]EventRecord, len(evs))
	for i, ev := range evs {
		out[i] = EventRecord{ID: int64(i + 1), SessionID: "s", LedgerEvent: ev}
	}
	return out
}

func TestReplay_Clean(t *testing.T) {
	st := Replay("s", records(
		event(2, 1, rtti.LedgerAcquire, 1),
		event(3, 1, rtti.LedgerShare, 2),
		event(4, 1, rtti.LedgerRelease, 1),
		event(5, 1, rtti.LedgerDestroy, 0),
		event(7, 6, rtti.LedgerAcquire, 1),
		event(8, 6, rtti.LedgerDisown, 0),
	))

	assert.True(t, st.Clean(), "anomalies: %v", st.Anomalies)
	assert.Equal(t, 1, st.Destroyed)
	assert.Equal(t, int64(8), st.LastSeq)
	assert.Equal(t, 6, st.Events)
}

func TestReplay_LiveHandles(t *testing.T) {
	st := Replay("s", records(
		event(2, 1, rtti.LedgerAcquire, 1),
		event(3, 1, rtti.LedgerShare, 2),
	))

	assert.False(t, st.Clean())
	assert.Empty(t, st.Anomalies)
	assert.Equal(t, map[int64]int{1: 2}, st.Live)
}

func TestReplay_Anomalies(t *testing.T) {
	tests := []struct {
		name   string
		events []rtti.LedgerEvent
		want   string
	}{
		{"share unknown", []rtti.LedgerEvent{event(1, 9, rtti.LedgerShare, 2)}, "share of unknown generation"},
		{"bad acquire count", []rtti.LedgerEvent{event(1, 1, rtti.LedgerAcquire, 3)}, "acquire count 3"},
		{"event after destroy", []rtti.LedgerEvent{
			event(1, 1, rtti.LedgerAcquire, 1),
			event(2, 1, rtti.LedgerDestroy, 0),
			event(3, 1, rtti.LedgerShare, 1),
		}, "share after end of lifetime"},
		{"destroy with owners", []rtti.LedgerEvent{
			event(1, 1, rtti.LedgerAcquire, 1),
			event(2, 1, rtti.LedgerShare, 2),
			event(3, 1, rtti.LedgerDestroy, 0),
		}, "destroy with 2 owners"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := Replay("s", records(tt.events...))
			require.NotEmpty(t, st.Anomalies)
			assert.Contains(t, st.Anomalies[0], tt.want)
		})
	}
}

func TestReplaySession_FromStore(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	require.NoError(t, s.CreateSession(ctx, "s", ""))
	for _, ev := range []rtti.LedgerEvent{
		event(1, 1, rtti.LedgerAcquire, 1),
		event(2, 1, rtti.LedgerDestroy, 0),
	} {
		require.NoError(t, s.WriteEvent(ctx, "s", ev))
	}

	st, err := s.ReplaySession(ctx, "s")
	require.NoError(t, err)
	assert.True(t, st.Clean())
	assert.Equal(t, 1, st.Destroyed)
}
