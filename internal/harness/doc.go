// Package harness runs YAML scenarios against a type registry.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: counter_lifecycle
//	description: "What this scenario validates"
//	steps:
//	  - op: construct
//	    type: demo.Counter
//	    args: [5]
//	    as: c
//	  - op: call
//	    target: c
//	    method: add
//	    args: [3]
//	    expect: { value: 8, type: int }
//	  - op: cast
//	    target: c
//	    to: int
//	    kind: reinterpret
//	    expect: { error: UNSUPPORTED_CAST }
//	  - op: drop
//	    target: c
//	assertions:
//	  - type: live_count
//	    count: 0
//
// # Operations
//
//   - construct: pick the constructor of type matching the argument types
//   - call: invoke method on target
//   - static: read a static property or invoke a static function of type
//   - get, set: member property of target, or static property of type (set)
//   - cast: convert target to the descriptor named by to using kind (default any)
//   - copy, move, drop, release: box ownership operations
//   - indirect, deref: add or remove one level of indirection
//
// # Assertion Types
//
//   - trace_contains: a successful step with op (and target) exists
//   - trace_count: op (and target) appears exactly count times
//   - live_count: ledger entries created by the run and live after the last step
//
// # Deterministic Testing
//
// Traces contain descriptor names, %v renderings of values with pointers
// followed, error codes, and ledger counts relative to the start of the
// run, so the same scenario on a freshly built registry produces a
// byte-identical golden snapshot.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/counter.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(reg, scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
