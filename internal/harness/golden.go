package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/reflex/internal/catalog"
	"github.com/roach88/reflex/internal/rtti"
)

// TraceSnapshot captures the trace and ledger outcome of a scenario
// execution. It is serialized as canonical JSON for deterministic
// comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Pass         bool         `json:"pass"`
	Trace        []TraceEvent `json:"trace"`
	Live         int          `json:"live"`
	Leaked       int          `json:"leaked"`
}

// Snapshot builds the golden snapshot of a result.
func Snapshot(name string, result *Result) TraceSnapshot {
	return TraceSnapshot{
		ScenarioName: name,
		Pass:         result.Pass,
		Trace:        result.Trace,
		Live:         result.Live,
		Leaked:       result.Leaked,
	}
}

// MarshalSnapshot renders a snapshot as canonical JSON.
func MarshalSnapshot(s TraceSnapshot) ([]byte, error) {
	return catalog.MarshalCanonical(s)
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if trace doesn't match golden file.
func RunWithGolden(t *testing.T, reg *rtti.Registry, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(reg, scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's trace against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalSnapshot(Snapshot(scenarioName, result))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
