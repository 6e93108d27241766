package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reflex/internal/store"
)

// journalScenarios runs every scenario into a fresh database and returns
// its path and the session ID per scenario name.
func journalScenarios(t *testing.T) (string, map[string]string) {
	t.Helper()

	db := filepath.Join(t.TempDir(), "reflex.db")
	out, _, err := execute(t, "run", scenariosDir, "--db", db, "--format", "json")
	require.NoError(t, err)

	_, data, _ := decodeResponse[RunResult](t, out)
	sessions := make(map[string]string)
	for _, sr := range data.Scenarios {
		require.NotEmpty(t, sr.Session, sr.Name)
		sessions[sr.Name] = sr.Session
	}
	require.Len(t, sessions, 3)
	return db, sessions
}

func TestJournal_ListSessions(t *testing.T) {
	db, sessions := journalScenarios(t)

	out, _, err := execute(t, "journal", "--db", db, "--format", "json")
	require.NoError(t, err)

	_, listed, _ := decodeResponse[[]store.Session](t, out)
	require.Len(t, listed, 3)
	for _, s := range listed {
		assert.Equal(t, sessions[s.Label], s.ID)
		assert.Positive(t, s.Events, s.Label)
		assert.Len(t, s.CatalogHash, 64)
	}

	out, _, err = execute(t, "journal", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "SESSION")
	assert.Contains(t, out, "counter_lifecycle")
}

func TestJournal_AuditCleanSession(t *testing.T) {
	db, sessions := journalScenarios(t)

	out, _, err := execute(t, "journal", "--db", db, "--session", sessions["counter_lifecycle"], "--format", "json")
	require.NoError(t, err)

	status, report, _ := decodeResponse[SessionReport](t, out)
	assert.Equal(t, "ok", status)
	assert.Equal(t, "counter_lifecycle", report.Session.Label)
	assert.Len(t, report.Events, report.Session.Events)
	assert.Empty(t, report.Live)
	assert.Empty(t, report.Anomalies)
	assert.Positive(t, report.Destroyed)
	assert.True(t, report.CatalogCurrent)

	out, _, err = execute(t, "journal", "--db", db, "--session", sessions["indirection"])
	require.NoError(t, err)
	assert.Contains(t, out, "Session "+sessions["indirection"]+" (indirection)\n")
	assert.Contains(t, out, "matches current registry")
	assert.Contains(t, out, "✓ ledger consistent\n")
}

func TestJournal_AuditDetectsAnomalies(t *testing.T) {
	db, sessions := journalScenarios(t)
	id := sessions["indirection"]

	st, err := store.Open(db)
	require.NoError(t, err)
	_, err = st.DB().ExecContext(context.Background(),
		`UPDATE ledger_events SET count = 5 WHERE session_id = ? AND kind = 'acquire'`, id)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, _, err := execute(t, "journal", "--db", db, "--session", id, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	status, report, cliErr := decodeResponse[SessionReport](t, out)
	assert.Equal(t, "error", status)
	assert.Equal(t, ErrCodeAnomaly, cliErr.Code)
	require.NotEmpty(t, report.Anomalies)
	assert.Contains(t, report.Anomalies[0], "acquire count 5, want 1")
}

func TestJournal_UnknownSession(t *testing.T) {
	db, _ := journalScenarios(t)

	out, _, err := execute(t, "journal", "--db", db, "--session", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E_SESSION_NOT_FOUND]")
}

func TestJournal_MissingDatabase(t *testing.T) {
	_, _, err := execute(t, "journal", "--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
