package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/reflex/internal/rtti"
)

// Scenario is a scripted sequence of reflective operations run against a
// registry. Each step names the boxes it reads and the box it produces by
// variable, so a scenario reads like a small program over the registry.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Steps run in order. A step whose outcome does not match its expect
	// clause fails the scenario and stops execution.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace and the ledger after the last step.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one reflective operation.
//
// Args are literals or variable references. A string starting with "$"
// refers to a variable ("$$" escapes a literal dollar). Plain YAML scalars
// are boxed as int, float64, string, or bool; a single-key map such as
// {int64: 3} boxes the value as the named builtin type.
type Step struct {
	Op       string  `yaml:"op"`
	Type     string  `yaml:"type,omitempty"`
	Target   string  `yaml:"target,omitempty"`
	Method   string  `yaml:"method,omitempty"`
	Function string  `yaml:"function,omitempty"`
	Property string  `yaml:"property,omitempty"`
	To       string  `yaml:"to,omitempty"`
	Kind     string  `yaml:"kind,omitempty"`
	Args     []any   `yaml:"args,omitempty"`
	As       string  `yaml:"as,omitempty"`
	Expect   *Expect `yaml:"expect,omitempty"`
}

// Expect describes the outcome a step must produce. Unset fields are not
// checked.
type Expect struct {
	// Value is compared with the result's value in its %v rendering, so
	// 212 matches a Fahrenheit of 212 and {3} matches a Counter of 3.
	Value any `yaml:"value,omitempty"`

	// Type is the exact descriptor name of the result.
	Type string `yaml:"type,omitempty"`

	// Error is the expected error code (e.g. TYPE_MISMATCH). When set the
	// step must fail with exactly this code.
	Error string `yaml:"error,omitempty"`
}

// Step operations.
const (
	OpConstruct = "construct"
	OpCall      = "call"
	OpStatic    = "static"
	OpGet       = "get"
	OpSet       = "set"
	OpCast      = "cast"
	OpCopy      = "copy"
	OpMove      = "move"
	OpDrop      = "drop"
	OpRelease   = "release"
	OpIndirect  = "indirect"
	OpDeref     = "deref"
)

// Assertion validates the trace or the ledger once all steps ran.
type Assertion struct {
	// Type is one of trace_contains, trace_count, live_count.
	Type string `yaml:"type"`

	// Op and Target select trace events (trace_contains, trace_count).
	// An empty Target matches any target.
	Op     string `yaml:"op,omitempty"`
	Target string `yaml:"target,omitempty"`

	// Count is the expected number of matching events (trace_count) or of
	// ledger entries created by the run and still live (live_count).
	Count int `yaml:"count"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceCount    = "trace_count"
	AssertLiveCount     = "live_count"
)

var knownCodes = map[string]bool{
	string(rtti.ErrCodeTypeNotRegistered):  true,
	string(rtti.ErrCodeAlreadyRegistered):  true,
	string(rtti.ErrCodeArityMismatch):      true,
	string(rtti.ErrCodeTypeMismatch):       true,
	string(rtti.ErrCodeOwnershipViolation): true,
	string(rtti.ErrCodeUnsupportedCast):    true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or fails validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks required fields per operation and that every
// variable is defined before it is read.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	defined := make(map[string]bool)
	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
		if step.Target != "" && !defined[step.Target] {
			return fmt.Errorf("steps[%d]: variable %q is not defined", i, step.Target)
		}
		for _, arg := range step.Args {
			if ref, ok := varRef(arg); ok && !defined[ref] {
				return fmt.Errorf("steps[%d]: variable %q is not defined", i, ref)
			}
		}
		if step.Expect != nil && step.Expect.Error != "" && !knownCodes[step.Expect.Error] {
			return fmt.Errorf("steps[%d].expect: unknown error code %q", i, step.Expect.Error)
		}
		if step.Op == OpDrop || step.Op == OpMove {
			delete(defined, step.Target)
		}
		if step.As != "" {
			defined[step.As] = true
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(step Step) error {
	need := func(field, value string) error {
		if value == "" {
			return fmt.Errorf("%s is required for %s", field, step.Op)
		}
		return nil
	}

	switch step.Op {
	case "":
		return fmt.Errorf("op is required")
	case OpConstruct:
		return need("type", step.Type)
	case OpCall:
		if err := need("target", step.Target); err != nil {
			return err
		}
		return need("method", step.Method)
	case OpStatic:
		if err := need("type", step.Type); err != nil {
			return err
		}
		if (step.Property == "") == (step.Function == "") {
			return fmt.Errorf("exactly one of property or function is required for static")
		}
	case OpGet:
		if err := need("target", step.Target); err != nil {
			return err
		}
		if err := need("property", step.Property); err != nil {
			return err
		}
		return distinctView(step)
	case OpSet:
		if err := need("property", step.Property); err != nil {
			return err
		}
		if (step.Target == "") == (step.Type == "") {
			return fmt.Errorf("exactly one of target or type is required for set")
		}
		if len(step.Args) != 1 {
			return fmt.Errorf("set takes exactly one argument")
		}
	case OpCast:
		if err := need("target", step.Target); err != nil {
			return err
		}
		if err := need("to", step.To); err != nil {
			return err
		}
		if step.Kind != "" {
			if _, ok := rtti.ParseCastKind(step.Kind); !ok {
				return fmt.Errorf("unknown cast kind %q", step.Kind)
			}
		}
	case OpCopy, OpMove:
		if err := need("target", step.Target); err != nil {
			return err
		}
		return need("as", step.As)
	case OpDrop, OpRelease:
		return need("target", step.Target)
	case OpIndirect, OpDeref:
		if err := need("target", step.Target); err != nil {
			return err
		}
		return distinctView(step)
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
	return nil
}

// distinctView rejects binding a view to its own target's variable.
// Rebinding drops the target's box first, so the view would outlive the
// instance it points into.
func distinctView(step Step) error {
	if step.As != "" && step.As == step.Target {
		return fmt.Errorf("as must differ from target for %s: the result is a view into %q", step.Op, step.Target)
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertLiveCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for live_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// varRef reports whether arg is a variable reference and returns its name.
func varRef(arg any) (string, bool) {
	s, ok := arg.(string)
	if !ok || !strings.HasPrefix(s, "$") || strings.HasPrefix(s, "$$") {
		return "", false
	}
	return s[1:], true
}
