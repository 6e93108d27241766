package harness

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/reflex/internal/rtti"
)

// Option configures a scenario run.
type Option func(*runner)

// WithLogger sets the logger for step diagnostics.
// Default: the registry's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *runner) {
		h.logger = logger
	}
}

// runner executes one scenario. Variables hold the boxes produced by
// steps; literal argument boxes are owned by the step that created them
// and dropped when it finishes.
type runner struct {
	reg    *rtti.Registry
	vars   map[string]*rtti.Box
	logger *slog.Logger
	base   int
}

// Run executes a scenario against reg and returns the result.
//
// Execution flow:
//  1. Validate the scenario
//  2. Execute steps in order, checking each expect clause
//  3. Evaluate assertions against the trace and the ledger
//  4. Drop every remaining variable and report what is still live
//
// Ledger counts in the result are relative to the ledger size when the
// run began. Run returns an error only for an invalid scenario; step and
// assertion failures are reported in the result.
func Run(reg *rtti.Registry, scenario *Scenario, opts ...Option) (*Result, error) {
	if reg == nil {
		return nil, errors.New("harness: nil registry")
	}
	if scenario == nil {
		return nil, errors.New("harness: nil scenario")
	}
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	h := &runner{
		reg:    reg,
		vars:   make(map[string]*rtti.Box),
		logger: reg.Logger(),
		base:   reg.Ledger().Len(),
	}
	for _, opt := range opts {
		opt(h)
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if !h.runStep(i+1, step, result) {
			break
		}
	}
	result.Live = h.live()

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	h.cleanup()
	result.Leaked = h.live()

	h.logger.Info("scenario finished",
		"scenario", scenario.Name,
		"steps", len(result.Trace),
		"pass", result.Pass,
		"live", result.Live,
		"leaked", result.Leaked,
	)
	return result, nil
}

// runStep executes one step, records it, and reports whether execution
// should continue.
func (h *runner) runStep(n int, step Step, result *Result) bool {
	ev := TraceEvent{Step: n, Op: step.Op, Target: step.Target, Member: member(step), As: step.As}
	if step.Op == OpCast {
		ev.Kind = castKind(step).String()
	}

	out, err := h.execute(step)
	switch {
	case err != nil:
		ev.Error = errorCode(err)
	case out != nil && !out.Empty():
		ev.Type = out.Type().Name()
		ev.Value = render(out)
		ev.Owning = out.Owning()
	}

	if err == nil && out != nil {
		if step.As != "" {
			if prev, ok := h.vars[step.As]; ok && prev != out {
				prev.Drop()
			}
			h.vars[step.As] = out
		} else {
			out.Drop()
		}
	}
	ev.Live = h.live()
	result.AddTrace(ev)

	h.logger.Debug("scenario step",
		"step", n,
		"op", step.Op,
		"target", step.Target,
		"type", ev.Type,
		"error", ev.Error,
	)

	if msg := checkExpect(step, ev, err); msg != "" {
		result.AddError(fmt.Sprintf("step %d (%s): %s", n, step.Op, msg))
		return false
	}
	return true
}

// checkExpect compares a step outcome with its expect clause and returns a
// description of the mismatch, or "".
func checkExpect(step Step, ev TraceEvent, err error) string {
	exp := step.Expect
	if exp == nil || exp.Error == "" {
		if err != nil {
			return fmt.Sprintf("unexpected error: %v", err)
		}
	}
	if exp == nil {
		return ""
	}
	if exp.Error != "" {
		if err == nil {
			return fmt.Sprintf("expected error %s, step succeeded", exp.Error)
		}
		if ev.Error != exp.Error {
			return fmt.Sprintf("expected error %s, got %v", exp.Error, err)
		}
		return ""
	}
	if exp.Type != "" && exp.Type != ev.Type {
		return fmt.Sprintf("expected type %q, got %q", exp.Type, ev.Type)
	}
	if exp.Value != nil {
		if want := fmt.Sprint(exp.Value); want != ev.Value {
			return fmt.Sprintf("expected value %q, got %q", want, ev.Value)
		}
	}
	return ""
}

func (h *runner) execute(step Step) (*rtti.Box, error) {
	switch step.Op {
	case OpConstruct:
		return h.construct(step)
	case OpCall:
		return h.call(step)
	case OpStatic:
		return h.static(step)
	case OpGet:
		inst, err := h.variable(step.Target)
		if err != nil {
			return nil, err
		}
		p, ok := inst.Type().Property(step.Property)
		if !ok {
			return nil, fmt.Errorf("%s has no property %q", inst.Type().Name(), step.Property)
		}
		return p.Get(inst)
	case OpSet:
		return nil, h.set(step)
	case OpCast:
		inst, err := h.variable(step.Target)
		if err != nil {
			return nil, err
		}
		dst, err := h.reg.Lookup(step.To)
		if err != nil {
			return nil, err
		}
		return h.reg.Cast(inst, dst, castKind(step))
	case OpCopy:
		inst, err := h.variable(step.Target)
		if err != nil {
			return nil, err
		}
		return inst.Copy(), nil
	case OpMove:
		inst, err := h.variable(step.Target)
		if err != nil {
			return nil, err
		}
		delete(h.vars, step.Target)
		return inst.Move(), nil
	case OpDrop:
		inst, err := h.variable(step.Target)
		if err != nil {
			return nil, err
		}
		delete(h.vars, step.Target)
		inst.Drop()
		return nil, nil
	case OpRelease:
		inst, err := h.variable(step.Target)
		if err != nil {
			return nil, err
		}
		return nil, inst.ReleaseOwnership()
	case OpIndirect:
		inst, err := h.variable(step.Target)
		if err != nil {
			return nil, err
		}
		return h.reg.AddIndirection(inst)
	case OpDeref:
		inst, err := h.variable(step.Target)
		if err != nil {
			return nil, err
		}
		return h.reg.RemoveIndirection(inst)
	}
	return nil, fmt.Errorf("unknown op %q", step.Op)
}

func (h *runner) construct(step Step) (*rtti.Box, error) {
	td, err := h.reg.Lookup(step.Type)
	if err != nil {
		return nil, err
	}
	args, done, err := h.arguments(step.Args)
	if err != nil {
		return nil, err
	}
	defer done()

	ctor, ok := td.FindConstructor(boxTypes(args)...)
	if !ok {
		// No exact overload: invoke the closest one so the caller gets the
		// registry's arity or type error.
		ctors := td.Constructors()
		if len(ctors) == 0 {
			return nil, fmt.Errorf("%s has no constructors", td.Name())
		}
		ctor = ctors[0]
		for _, c := range ctors {
			if len(c.Params()) == len(args) {
				ctor = c
				break
			}
		}
	}
	return ctor.Invoke(args...)
}

func (h *runner) call(step Step) (*rtti.Box, error) {
	inst, err := h.variable(step.Target)
	if err != nil {
		return nil, err
	}
	args, done, err := h.arguments(step.Args)
	if err != nil {
		return nil, err
	}
	defer done()

	td := inst.Type()
	m, ok := td.FindMethod(step.Method, boxTypes(args)...)
	if !ok {
		overloads := td.Methods(step.Method)
		if len(overloads) == 0 {
			return nil, fmt.Errorf("%s has no method %q", td.Name(), step.Method)
		}
		m = overloads[0]
		for _, o := range overloads {
			if len(o.Params()) == len(args) {
				m = o
				break
			}
		}
	}
	return m.Invoke(inst, args...)
}

func (h *runner) static(step Step) (*rtti.Box, error) {
	td, err := h.reg.Lookup(step.Type)
	if err != nil {
		return nil, err
	}
	if step.Property != "" {
		p, ok := td.StaticProperty(step.Property)
		if !ok {
			return nil, fmt.Errorf("%s has no static property %q", td.Name(), step.Property)
		}
		return p.Get()
	}

	fn, ok := td.StaticFunction(step.Function)
	if !ok {
		return nil, fmt.Errorf("%s has no static function %q", td.Name(), step.Function)
	}
	args, done, err := h.arguments(step.Args)
	if err != nil {
		return nil, err
	}
	defer done()
	return fn.Invoke(args...)
}

func (h *runner) set(step Step) error {
	args, done, err := h.arguments(step.Args)
	if err != nil {
		return err
	}
	defer done()

	if step.Type != "" {
		td, err := h.reg.Lookup(step.Type)
		if err != nil {
			return err
		}
		p, ok := td.StaticProperty(step.Property)
		if !ok {
			return fmt.Errorf("%s has no static property %q", td.Name(), step.Property)
		}
		return p.Set(args[0])
	}

	inst, err := h.variable(step.Target)
	if err != nil {
		return err
	}
	p, ok := inst.Type().Property(step.Property)
	if !ok {
		return fmt.Errorf("%s has no property %q", inst.Type().Name(), step.Property)
	}
	return p.Set(inst, args[0])
}

func (h *runner) variable(name string) (*rtti.Box, error) {
	b, ok := h.vars[name]
	if !ok {
		return nil, fmt.Errorf("variable %q is not bound", name)
	}
	if b.Empty() {
		return nil, fmt.Errorf("variable %q is empty", name)
	}
	return b, nil
}

// arguments resolves variable references and boxes literals. The returned
// function drops the literal boxes.
func (h *runner) arguments(raw []any) ([]*rtti.Box, func(), error) {
	var literals []*rtti.Box
	done := func() {
		for _, b := range literals {
			b.Drop()
		}
	}

	args := make([]*rtti.Box, 0, len(raw))
	for i, arg := range raw {
		if ref, ok := varRef(arg); ok {
			b, err := h.variable(ref)
			if err != nil {
				done()
				return nil, nil, err
			}
			args = append(args, b)
			continue
		}
		b, err := h.literal(arg)
		if err != nil {
			done()
			return nil, nil, fmt.Errorf("argument %d: %w", i, err)
		}
		literals = append(literals, b)
		args = append(args, b)
	}
	return args, done, nil
}

func (h *runner) literal(arg any) (*rtti.Box, error) {
	switch v := arg.(type) {
	case map[string]any:
		if len(v) != 1 {
			return nil, fmt.Errorf("typed literal must have exactly one key, got %d", len(v))
		}
		for name, val := range v {
			return h.boxAs(name, val)
		}
	case string:
		return h.boxAs("string", strings.TrimPrefix(v, "$"))
	case bool:
		return h.boxAs("bool", v)
	case int:
		return h.boxAs("int", v)
	case int64:
		return h.boxAs("int64", v)
	case uint64:
		return h.boxAs("uint64", v)
	case float64:
		return h.boxAs("float64", v)
	}
	return nil, fmt.Errorf("unsupported literal %T", arg)
}

// boxAs boxes val as the named builtin descriptor, converting between
// numeric kinds.
func (h *runner) boxAs(name string, val any) (*rtti.Box, error) {
	td, err := h.reg.Lookup(name)
	if err != nil {
		return nil, err
	}
	gt := td.GoType()
	if gt == nil {
		return nil, fmt.Errorf("%s has no Go type to box a literal into", name)
	}
	rv := reflect.ValueOf(val)
	if !rv.IsValid() || kindClass(rv.Kind()) == "" || kindClass(rv.Kind()) != kindClass(gt.Kind()) {
		return nil, fmt.Errorf("literal %v cannot be boxed as %s", val, name)
	}
	p := reflect.New(gt)
	p.Elem().Set(rv.Convert(gt))
	return h.reg.NewOwnedBox(td, p.Interface())
}

func kindClass(k reflect.Kind) string {
	switch k {
	case reflect.Bool:
		return "bool"
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return "number"
	}
	return ""
}

func (h *runner) live() int {
	return h.reg.Ledger().Len() - h.base
}

// cleanup drops every variable in name order.
func (h *runner) cleanup() {
	names := make([]string, 0, len(h.vars))
	for name := range h.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		h.vars[name].Drop()
		delete(h.vars, name)
	}
}

func boxTypes(args []*rtti.Box) []*rtti.TypeDescriptor {
	out := make([]*rtti.TypeDescriptor, len(args))
	for i, a := range args {
		out[i] = a.Type()
	}
	return out
}

func member(step Step) string {
	switch {
	case step.Method != "":
		return step.Method
	case step.Function != "":
		return step.Function
	case step.Property != "":
		return step.Property
	}
	return step.To
}

func castKind(step Step) rtti.CastKind {
	if k, ok := rtti.ParseCastKind(step.Kind); ok {
		return k
	}
	return rtti.Any
}

func errorCode(err error) string {
	if code := rtti.CodeOf(err); code != "" {
		return string(code)
	}
	return "ERROR"
}

// render formats a box value for traces. Pointers are followed so traces
// never contain addresses.
func render(b *rtti.Box) string {
	v := reflect.ValueOf(b.Interface())
	prefix := ""
	for v.IsValid() && v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return prefix + "<nil>"
		}
		prefix += "&"
		v = v.Elem()
	}
	if !v.IsValid() {
		return ""
	}
	return prefix + fmt.Sprint(v.Interface())
}
