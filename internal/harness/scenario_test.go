package harness

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_Valid(t *testing.T) {
	s, err := LoadScenario(scenarioPath("counter_lifecycle"))
	require.NoError(t, err)

	assert.Equal(t, "counter_lifecycle", s.Name)
	assert.NotEmpty(t, s.Description)
	require.Len(t, s.Steps, 16)

	first := s.Steps[0]
	assert.Equal(t, OpConstruct, first.Op)
	assert.Equal(t, "demo.Counter", first.Type)
	assert.Equal(t, []any{5}, first.Args)
	assert.Equal(t, "c", first.As)
	require.NotNil(t, first.Expect)
	assert.Equal(t, "{5}", first.Expect.Value)

	require.Len(t, s.Assertions, 4)
	assert.Equal(t, AssertLiveCount, s.Assertions[0].Type)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/does_not_exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Errors(t *testing.T) {
	header := "name: bad\ndescription: bad\n"
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{"malformed yaml", "name: [", "failed to parse YAML"},
		{"unknown field", header + "stepz: []\n", "field stepz not found"},
		{"missing name", "description: d\nsteps:\n  - op: drop\n    target: x\n", "name is required"},
		{"missing description", "name: n\nsteps:\n  - op: drop\n    target: x\n", "description is required"},
		{"no steps", header, "steps list is required"},
		{"missing op", header + "steps:\n  - type: int\n", "op is required"},
		{"unknown op", header + "steps:\n  - op: explode\n", `unknown op "explode"`},
		{"construct without type", header + "steps:\n  - op: construct\n", "type is required for construct"},
		{"call without method", header + "steps:\n  - op: construct\n    type: T\n    as: x\n  - op: call\n    target: x\n", "method is required for call"},
		{"static with both members", header + "steps:\n  - op: static\n    type: T\n    property: p\n    function: f\n", "exactly one of property or function"},
		{"set without argument", header + "steps:\n  - op: set\n    type: T\n    property: p\n", "exactly one argument"},
		{"set with target and type", header + "steps:\n  - op: construct\n    type: T\n    as: x\n  - op: set\n    type: T\n    target: x\n    property: p\n    args: [1]\n", "exactly one of target or type"},
		{"cast with bad kind", header + "steps:\n  - op: construct\n    type: T\n    as: x\n  - op: cast\n    target: x\n    to: int\n    kind: sideways\n", `unknown cast kind "sideways"`},
		{"copy without as", header + "steps:\n  - op: construct\n    type: T\n    as: x\n  - op: copy\n    target: x\n", "as is required for copy"},
		{"get bound over its target", header + "steps:\n  - op: construct\n    type: T\n    as: c\n  - op: get\n    target: c\n    property: value\n    as: c\n", `steps[1]: as must differ from target for get`},
		{"indirect bound over its target", header + "steps:\n  - op: construct\n    type: T\n    as: c\n  - op: indirect\n    target: c\n    as: c\n", "as must differ from target for indirect"},
		{"deref bound over its target", header + "steps:\n  - op: construct\n    type: T\n    as: p\n  - op: deref\n    target: p\n    as: p\n", "as must differ from target for deref"},
		{"undefined target", header + "steps:\n  - op: drop\n    target: x\n", `variable "x" is not defined`},
		{"undefined argument", header + "steps:\n  - op: construct\n    type: T\n    args: [$y]\n", `variable "y" is not defined`},
		{"use after drop", header + "steps:\n  - op: construct\n    type: T\n    as: x\n  - op: drop\n    target: x\n  - op: drop\n    target: x\n", `steps[2]: variable "x" is not defined`},
		{"use after move", header + "steps:\n  - op: construct\n    type: T\n    as: x\n  - op: move\n    target: x\n    as: y\n  - op: drop\n    target: x\n", `steps[2]: variable "x" is not defined`},
		{"unknown error code", header + "steps:\n  - op: construct\n    type: T\n    expect: { error: BOOM }\n", `unknown error code "BOOM"`},
		{"unknown assertion", header + "steps:\n  - op: construct\n    type: T\nassertions:\n  - type: vibes\n", `unknown assertion type "vibes"`},
		{"assertion without type", header + "steps:\n  - op: construct\n    type: T\nassertions:\n  - count: 1\n", "type is required"},
		{"trace_count without op", header + "steps:\n  - op: construct\n    type: T\nassertions:\n  - type: trace_count\n    count: 1\n", "op is required for trace_count"},
		{"negative live count", header + "steps:\n  - op: construct\n    type: T\nassertions:\n  - type: live_count\n    count: -1\n", "count must be non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseScenario_EscapedDollar(t *testing.T) {
	s, err := ParseScenario([]byte("name: n\ndescription: d\nsteps:\n  - op: construct\n    type: T\n    args: [\"$$price\"]\n"))
	require.NoError(t, err)
	require.Len(t, s.Steps[0].Args, 1)

	_, isRef := varRef(s.Steps[0].Args[0])
	assert.False(t, isRef)
}

func TestVarRef(t *testing.T) {
	tests := []struct {
		arg  any
		name string
		ok   bool
	}{
		{"$c", "c", true},
		{"$$c", "", false},
		{"c", "", false},
		{5, "", false},
		{strings.Repeat("$", 1) + "long_name", "long_name", true},
	}
	for _, tt := range tests {
		name, ok := varRef(tt.arg)
		assert.Equal(t, tt.ok, ok, "%v", tt.arg)
		assert.Equal(t, tt.name, name, "%v", tt.arg)
	}
}
