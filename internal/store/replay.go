package store

import (
	"context"
	"fmt"

	"github.com/roach88/reflex/internal/rtti"
)

// SessionState is the ledger state reconstructed from a session's events.
type SessionState struct {
	SessionID string
	Events    int
	LastSeq   int64
	// Live maps generation to the count after its last event.
	Live map[int64]int
	// Destroyed counts generations whose destructor ran.
	Destroyed int
	// Anomalies lists transitions that break the ledger rules.
	Anomalies []string
}

// Clean reports whether the session ended with no live handles and no anomalies.
func (st SessionState) Clean() bool {
	return len(st.Live) == 0 && len(st.Anomalies) == 0
}

// ReplaySession folds a session's events into its final ledger state and
// checks every transition against the ledger rules: acquire starts at 1,
// share adds one, release removes one and stays positive, destroy reaches
// zero, and nothing follows destroy or disown for the same generation.
func (s *Store) ReplaySession(ctx context.Context, sessionID string) (SessionState, error) {
	events, err := s.ReadSession(ctx, sessionID)
	if err != nil {
		return SessionState{}, fmt.Errorf("replay session: %w", err)
	}
	return Replay(sessionID, events), nil
}

// Replay folds events, which must be in seq order.
func Replay(sessionID string, events []EventRecord) SessionState {
	st := SessionState{SessionID: sessionID, Events: len(events), Live: make(map[int64]int)}
	ended := make(map[int64]bool)

	for _, ev := range events {
		if ev.Seq > st.LastSeq {
			st.LastSeq = ev.Seq
		}
		prev, live := st.Live[ev.Generation]
		bad := func(format string, args ...any) {
			st.Anomalies = append(st.Anomalies,
				fmt.Sprintf("seq %d (generation %d, %s): ", ev.Seq, ev.Generation, ev.Type)+fmt.Sprintf(format, args...))
		}
		if ended[ev.Generation] {
			bad("%s after end of lifetime", ev.Kind)
			continue
		}

		switch ev.Kind {
		case rtti.LedgerAcquire:
			if live {
				bad("acquire of live generation")
			}
			if ev.Count != 1 {
				bad("acquire count %d, want 1", ev.Count)
			}
		case rtti.LedgerShare:
			if !live {
				bad("share of unknown generation")
			} else if ev.Count != prev+1 {
				bad("share count %d, want %d", ev.Count, prev+1)
			}
		case rtti.LedgerRelease:
			if !live {
				bad("release of unknown generation")
			} else if ev.Count != prev-1 || ev.Count < 1 {
				bad("release count %d after %d", ev.Count, prev)
			}
		case rtti.LedgerDestroy:
			if live && prev != 1 {
				bad("destroy with %d owners", prev)
			}
			st.Destroyed++
		case rtti.LedgerDisown:
			if live && prev != 1 {
				bad("disown with %d owners", prev)
			}
		default:
			bad("unknown kind %q", ev.Kind)
			continue
		}

		if ev.Kind == rtti.LedgerDestroy || ev.Kind == rtti.LedgerDisown {
			delete(st.Live, ev.Generation)
			ended[ev.Generation] = true
			continue
		}
		st.Live[ev.Generation] = ev.Count
	}
	return st
}
