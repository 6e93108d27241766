package harness

// TraceEvent records the outcome of one step.
type TraceEvent struct {
	Step   int    `json:"step"`
	Op     string `json:"op"`
	Target string `json:"target,omitempty"`
	Member string `json:"member,omitempty"`
	Kind   string `json:"kind,omitempty"`
	As     string `json:"as,omitempty"`

	// Type and Value describe the produced box; Value is its %v rendering.
	Type   string `json:"type,omitempty"`
	Value  string `json:"value,omitempty"`
	Owning bool   `json:"owning,omitempty"`

	// Error is the error code of a failed step ("ERROR" for failures
	// without a code).
	Error string `json:"error,omitempty"`

	// Live is the number of ledger entries created by the run that are
	// live after the step.
	Live int `json:"live"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every expect clause and assertion
	// matched.
	Pass bool `json:"pass"`

	// Trace contains one event per executed step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Live is the number of ledger entries created by the run and still
	// live after the last step.
	Live int `json:"live"`

	// Leaked is the number still live after the harness dropped every
	// remaining variable. Non-zero means something outside the scenario's
	// variables co-owns a handle.
	Leaked int `json:"leaked"`
}

// NewResult creates a new passing result.
// Used as the starting point for execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step outcome.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
