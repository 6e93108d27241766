package cli

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/reflex/internal/catalog"
	"github.com/roach88/reflex/internal/store"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	DBPath  string
	Session string
}

// SessionReport is the audit of one journaled session.
type SessionReport struct {
	Session   store.Session       `json:"session"`
	Events    []store.EventRecord `json:"events"`
	Live      []store.LiveHandle  `json:"live"`
	Destroyed int                 `json:"destroyed"`
	Anomalies []string            `json:"anomalies"`

	// CatalogHash is the recorded catalog hash; CatalogCurrent reports
	// whether it equals the hash of the registry this binary builds.
	CatalogHash    string `json:"catalog_hash,omitempty"`
	CatalogCurrent bool   `json:"catalog_current"`
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect journaled ledger sessions",
		Long: `List the sessions recorded by "reflex run --db", or audit one session.

Auditing replays the session's ledger events and checks every
transition, lists instances that were never destroyed, and verifies
the recorded catalog against its content hash.

Exit codes:
  0 - Session is consistent (or sessions listed)
  1 - Ledger anomalies or catalog corruption detected
  2 - Command error (database or session not found, etc.)

Examples:
  reflex journal --db reflex.db
  reflex journal --db reflex.db --session 0190f5c2-...
  reflex journal --db reflex.db --session 0190f5c2-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournal(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session ID to audit")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runJournal(opts *JournalOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := cmd.Context()

	// store.Open creates missing databases; reading one makes no sense.
	if _, err := os.Stat(opts.DBPath); os.IsNotExist(err) {
		msg := fmt.Sprintf("database not found: %s", opts.DBPath)
		if outErr := formatter.Error(ErrCodeNoSession, msg, nil); outErr != nil {
			return outErr
		}
		return NewExitError(ExitCommandError, msg)
	}

	st, err := store.Open(opts.DBPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	sessions, err := st.Sessions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}

	if opts.Session == "" {
		if formatter.JSON() {
			return formatter.Success(sessions)
		}
		writeSessions(cmd, sessions)
		return nil
	}

	var report SessionReport
	found := false
	for _, s := range sessions {
		if s.ID == opts.Session {
			report.Session = s
			found = true
			break
		}
	}
	if !found {
		msg := fmt.Sprintf("session %q not found", opts.Session)
		if outErr := formatter.Error(ErrCodeNoSession, msg, nil); outErr != nil {
			return outErr
		}
		return NewExitError(ExitCommandError, msg)
	}

	if report.Events, err = st.ReadSession(ctx, opts.Session); err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}
	if report.Live, err = st.LiveHandles(ctx, opts.Session); err != nil {
		return WrapExitError(ExitCommandError, "failed to read live handles", err)
	}
	state := store.Replay(opts.Session, report.Events)
	report.Destroyed = state.Destroyed
	report.Anomalies = append([]string{}, state.Anomalies...)

	if err := verifyCatalog(opts, cmd, st, &report); err != nil {
		return err
	}
	formatter.VerboseLog("Replayed %d event(s), last seq %d", state.Events, state.LastSeq)

	failed := len(report.Anomalies) > 0
	if formatter.JSON() {
		if err := formatter.Result(report, failed, ErrCodeAnomaly,
			fmt.Sprintf("%d ledger anomaly(ies)", len(report.Anomalies))); err != nil {
			return err
		}
	} else {
		writeReport(cmd, report)
	}

	if failed {
		return NewExitError(ExitFailure, "ledger anomalies detected")
	}
	return nil
}

// verifyCatalog rehashes the recorded catalog and compares it with the
// current registry. A session without a catalog is not an anomaly.
func verifyCatalog(opts *JournalOptions, cmd *cobra.Command, st *store.Store, report *SessionReport) error {
	hash, recorded, err := st.ReadCatalog(cmd.Context(), opts.Session)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		report.Anomalies = append(report.Anomalies, fmt.Sprintf("catalog unreadable: %v", err))
		return nil
	}
	report.CatalogHash = hash

	rehash, err := catalog.Hash(recorded)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash catalog", err)
	}
	if rehash != hash {
		report.Anomalies = append(report.Anomalies,
			fmt.Sprintf("catalog hash mismatch: recorded %s, content hashes to %s", hash, rehash))
	}

	reg, _, err := newRegistry(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	current, err := catalog.Hash(catalog.Snapshot(reg))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash catalog", err)
	}
	report.CatalogCurrent = current == hash
	return nil
}

func writeSessions(cmd *cobra.Command, sessions []store.Session) {
	w := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions recorded.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tLABEL\tEVENTS\tCATALOG")
	for _, s := range sessions {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.ID, orDash(s.Label), s.Events, orDash(shortHash(s.CatalogHash)))
	}
	tw.Flush()
}

func writeReport(cmd *cobra.Command, report SessionReport) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Session %s", report.Session.ID)
	if report.Session.Label != "" {
		fmt.Fprintf(w, " (%s)", report.Session.Label)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  SEQ\tGEN\tKIND\tTYPE\tCOUNT")
	for _, ev := range report.Events {
		fmt.Fprintf(tw, "  %d\t%d\t%s\t%s\t%d\n", ev.Seq, ev.Generation, ev.Kind, ev.Type, ev.Count)
	}
	tw.Flush()

	fmt.Fprintf(w, "\n%d event(s), %d destroyed, %d live\n", len(report.Events), report.Destroyed, len(report.Live))
	for _, h := range report.Live {
		fmt.Fprintf(w, "  live: generation %d %s (count %d)\n", h.Generation, h.Type, h.Count)
	}

	if report.CatalogHash != "" {
		state := "differs from current registry"
		if report.CatalogCurrent {
			state = "matches current registry"
		}
		fmt.Fprintf(w, "catalog %s (%s)\n", shortHash(report.CatalogHash), state)
	}

	if len(report.Anomalies) == 0 {
		fmt.Fprintln(w, "✓ ledger consistent")
		return
	}
	fmt.Fprintf(w, "✗ %d anomaly(ies)\n", len(report.Anomalies))
	for _, a := range report.Anomalies {
		fmt.Fprintf(w, "  %s\n", a)
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
