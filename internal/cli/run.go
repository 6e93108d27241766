package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/reflex/internal/catalog"
	"github.com/roach88/reflex/internal/harness"
	"github.com/roach88/reflex/internal/rtti"
	"github.com/roach88/reflex/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	DBPath    string // journal ledger events into this database
	GoldenDir string // directory of golden trace files
	Update    bool   // regenerate golden files
	Filter    string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name    string   `json:"name"`
	Pass    bool     `json:"pass"`
	Steps   int      `json:"steps"`
	Live    int      `json:"live"`
	Leaked  int      `json:"leaked"`
	Session string   `json:"session,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// RunResult holds the overall run result.
type RunResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml|dir>...",
		Short: "Run reflection scenarios against the registry",
		Long: `Run YAML scenarios against a fresh demo registry per scenario.

Each scenario's steps, expect clauses, and assertions are checked.
When a golden trace exists for a scenario it must match byte for byte.
With --db, every ledger transition is journaled into a SQLite session
together with the registry catalog.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, database errors, etc.)

Examples:
  reflex run ./testdata/scenarios
  reflex run counter.yaml --db reflex.db
  reflex run ./scenarios --filter "counter*" --golden ./golden --update
  reflex run ./scenarios --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DBPath, "db", "", "journal ledger events into this SQLite database")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden", "", "golden trace directory (default: <scenario dir>/golden)")
	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runScenarios(opts *RunOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	var files []string
	for _, p := range paths {
		found, err := findScenarioFiles(p, opts.Filter)
		if err != nil {
			if outErr := formatter.Error(ErrCodeScenario, err.Error(), nil); outErr != nil {
				return outErr
			}
			return WrapExitError(ExitCommandError, "failed to find scenarios", err)
		}
		files = append(files, found...)
	}

	var st *store.Store
	if opts.DBPath != "" {
		var err error
		st, err = store.Open(opts.DBPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
		formatter.VerboseLog("Journaling to %s", opts.DBPath)
	}

	result := RunResult{
		Scenarios: make([]ScenarioResult, 0, len(files)),
		Total:     len(files),
	}
	for _, file := range files {
		sr, err := runScenarioFile(cmd.Context(), opts, st, file, cmd)
		if err != nil {
			return err
		}
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	failed := result.Failed > 0
	if formatter.JSON() {
		if err := formatter.Result(result, failed, ErrCodeScenario,
			fmt.Sprintf("%d of %d scenario(s) failed", result.Failed, result.Total)); err != nil {
			return err
		}
	} else {
		writeRunText(cmd, result)
	}

	if failed {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// findScenarioFiles returns path itself when it is a file, or every YAML
// file below it when it is a directory. The filter matches the file name
// without extension.
func findScenarioFiles(path string, filter string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		ext := filepath.Ext(p)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(p), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, p)
		return nil
	})
	return files, err
}

// runScenarioFile executes one scenario on a fresh registry. Scenario
// failures are reported in the result; only database errors are returned.
func runScenarioFile(ctx context.Context, opts *RunOptions, st *store.Store, file string, cmd *cobra.Command) (ScenarioResult, error) {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return ScenarioResult{
			Name:   filepath.Base(file),
			Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
		}, nil
	}
	sr := ScenarioResult{Name: scenario.Name, Steps: len(scenario.Steps)}

	var extra []rtti.Option
	var journal *store.Journal
	if st != nil {
		journal, err = store.NewJournal(ctx, st, store.UUIDv7Generator{},
			store.WithLabel(scenario.Name),
			store.WithJournalLogger(newLogger(opts.RootOptions, cmd.ErrOrStderr())))
		if err != nil {
			return sr, WrapExitError(ExitCommandError, "failed to start journal", err)
		}
		sr.Session = journal.Session()
		extra = append(extra, rtti.WithObserver(journal))
	}

	reg, _, err := newRegistry(opts.RootOptions, cmd, extra...)
	if err != nil {
		return sr, err
	}
	if st != nil {
		if _, err := st.WriteCatalog(ctx, journal.Session(), catalog.Snapshot(reg)); err != nil {
			return sr, WrapExitError(ExitCommandError, "failed to write catalog", err)
		}
	}

	result, err := harness.Run(reg, scenario,
		harness.WithLogger(newLogger(opts.RootOptions, cmd.ErrOrStderr())))
	if err != nil {
		sr.Errors = []string{fmt.Sprintf("execution failed: %v", err)}
		return sr, nil
	}
	sr.Pass = result.Pass
	sr.Live = result.Live
	sr.Leaked = result.Leaked
	sr.Errors = append(sr.Errors, result.Errors...)

	if journal != nil {
		if err := journal.Err(); err != nil {
			return sr, WrapExitError(ExitCommandError, "failed to journal ledger events", err)
		}
	}

	if msg := checkGolden(opts, scenario, result, file); msg != "" {
		sr.Pass = false
		sr.Errors = append(sr.Errors, msg)
	}
	return sr, nil
}

// goldenFilePath returns the path to the golden file for a scenario.
func goldenFilePath(opts *RunOptions, scenario *harness.Scenario, file string) string {
	dir := opts.GoldenDir
	if dir == "" {
		dir = filepath.Join(filepath.Dir(file), "golden")
	}
	return filepath.Join(dir, scenario.Name+".golden")
}

// checkGolden updates or compares the golden trace and returns a failure
// message, or "" when the trace matches or no golden file exists.
func checkGolden(opts *RunOptions, scenario *harness.Scenario, result *harness.Result, file string) string {
	current, err := harness.MarshalSnapshot(harness.Snapshot(scenario.Name, result))
	if err != nil {
		return fmt.Sprintf("failed to marshal trace: %v", err)
	}
	goldenPath := goldenFilePath(opts, scenario, file)

	if opts.Update {
		if err := os.MkdirAll(filepath.Dir(goldenPath), 0755); err != nil {
			return fmt.Sprintf("failed to create golden directory: %v", err)
		}
		if err := os.WriteFile(goldenPath, current, 0644); err != nil {
			return fmt.Sprintf("failed to write golden file: %v", err)
		}
		return ""
	}

	golden, err := os.ReadFile(goldenPath)
	if os.IsNotExist(err) {
		return ""
	}
	if err != nil {
		return fmt.Sprintf("failed to read golden file: %v", err)
	}
	if !bytes.Equal(golden, current) {
		return "trace does not match golden file (run with --update to regenerate)"
	}
	return ""
}

func writeRunText(cmd *cobra.Command, result RunResult) {
	w := cmd.OutOrStdout()
	if result.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return
	}

	for _, sr := range result.Scenarios {
		if sr.Pass {
			fmt.Fprintf(w, "✓ %s (%d steps, %d live)\n", sr.Name, sr.Steps, sr.Live)
		} else {
			fmt.Fprintf(w, "✗ %s\n", sr.Name)
			for _, e := range sr.Errors {
				for _, line := range strings.Split(strings.TrimRight(e, "\n"), "\n") {
					fmt.Fprintf(w, "  %s\n", line)
				}
			}
		}
		if sr.Session != "" {
			fmt.Fprintf(w, "  session %s\n", sr.Session)
		}
	}

	fmt.Fprintf(w, "\n%d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
}
