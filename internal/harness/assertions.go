package harness

import (
	"fmt"
	"strings"
)

// AssertionError describes a failed assertion together with the trace it
// was evaluated against.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent // nil for assertions about the ledger
}

func (e *AssertionError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Assertion failed: %s\n  Expected: %s\n  Actual: %s\n", e.Type, e.Expected, e.Actual)
	if len(e.Trace) == 0 {
		return sb.String()
	}

	sb.WriteString("\nFull trace:\n")
	for _, ev := range e.Trace {
		fmt.Fprintf(&sb, "  [%d] %s %s%s\n", ev.Step, ev.Op, ev.Target, outcome(ev))
	}
	return sb.String()
}

// outcome renders what a step produced: its error code or its result.
func outcome(ev TraceEvent) string {
	if ev.Error != "" {
		return " -> " + ev.Error
	}
	if ev.Type != "" {
		return " -> " + ev.Type + "(" + ev.Value + ")"
	}
	return ""
}

// selects reports whether a trace_* assertion selects ev. An empty Target
// selects every target.
func (a Assertion) selects(ev TraceEvent) bool {
	return ev.Op == a.Op && (a.Target == "" || ev.Target == a.Target)
}

func (a Assertion) selector() string {
	if a.Target == "" {
		return a.Op
	}
	return a.Op + " " + a.Target
}

// assertionChecks evaluates one assertion type against a finished result.
var assertionChecks = map[string]func(*Result, Assertion) error{
	// trace_contains: some successful step has the op and target.
	AssertTraceContains: func(r *Result, a Assertion) error {
		for _, ev := range r.Trace {
			if a.selects(ev) && ev.Error == "" {
				return nil
			}
		}
		return &AssertionError{Type: a.Type, Expected: a.selector(), Actual: "not found in trace", Trace: r.Trace}
	},

	// trace_count: exactly Count steps, failed or not, have the op and target.
	AssertTraceCount: func(r *Result, a Assertion) error {
		n := 0
		for _, ev := range r.Trace {
			if a.selects(ev) {
				n++
			}
		}
		if n == a.Count {
			return nil
		}
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%s appears %d time(s)", a.selector(), a.Count),
			Actual:   fmt.Sprintf("appears %d time(s)", n),
			Trace:    r.Trace,
		}
	},

	// live_count: ledger entries created by the run and live after the last step.
	AssertLiveCount: func(r *Result, a Assertion) error {
		if r.Live == a.Count {
			return nil
		}
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d live handle(s)", a.Count),
			Actual:   fmt.Sprintf("%d live handle(s)", r.Live),
		}
	},
}

// EvaluateAssertions checks every assertion and returns one message per
// failure, in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		check, ok := assertionChecks[a.Type]
		if !ok {
			failures = append(failures, fmt.Sprintf("assertions[%d]: unknown assertion type %q", i, a.Type))
			continue
		}
		if err := check(result, a); err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}
