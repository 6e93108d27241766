// Package demo registers a small set of sample types used by the CLI,
// the scenario harness, and tests.
package demo

import (
	"fmt"
	"math"

	"github.com/roach88/reflex/internal/rtti"
)

// Counter is a mutable integer counter.
type Counter struct {
	Value int
}

// Increment adds one.
func (c *Counter) Increment() { c.Value++ }

// Add adds n and returns the new value.
func (c *Counter) Add(n int) int {
	c.Value += n
	return c.Value
}

// Celsius is a temperature in degrees Celsius.
type Celsius float64

// Fahrenheit is a temperature in degrees Fahrenheit.
type Fahrenheit float64

// ToFahrenheit converts c.
func (c Celsius) ToFahrenheit() Fahrenheit { return Fahrenheit(c*9/5 + 32) }

// ToCelsius converts f.
func (f Fahrenheit) ToCelsius() Celsius { return Celsius((f - 32) * 5 / 9) }

// Shape is anything with an area.
type Shape interface {
	Area() float64
}

// Square is a Shape with equal sides.
type Square struct {
	Side float64
}

// Area implements Shape.
func (s Square) Area() float64 { return s.Side * s.Side }

// Circle is a Shape used to exercise failed dynamic casts.
type Circle struct {
	Radius float64
}

// Area implements Shape.
func (c Circle) Area() float64 { return math.Pi * c.Radius * c.Radius }

// Types holds the demo descriptors and the storage behind their static
// members. Instances counts counters built by constructors; Destroyed counts
// counters whose destructor ran.
type Types struct {
	Counter      *rtti.TypeDescriptor
	ConstCounter *rtti.TypeDescriptor
	Celsius      *rtti.TypeDescriptor
	Fahrenheit   *rtti.TypeDescriptor
	Shape        *rtti.TypeDescriptor
	Square       *rtti.TypeDescriptor
	Circle       *rtti.TypeDescriptor

	Instances int
	Destroyed int
}

// Register is the deterministic startup routine for the demo types. It
// registers the builtin scalars first, then every demo type with its
// members, then the cast edges. Call it once per registry.
func Register(reg *rtti.Registry) (*Types, error) {
	rtti.RegisterBuiltins(reg)

	t := &Types{
		Counter:      rtti.RegisterType[Counter](reg, 0),
		ConstCounter: rtti.RegisterType[Counter](reg, rtti.Const),
		Celsius:      rtti.RegisterType[Celsius](reg, 0),
		Fahrenheit:   rtti.RegisterType[Fahrenheit](reg, 0),
		Shape:        rtti.RegisterType[Shape](reg, 0),
		Square:       rtti.RegisterType[Square](reg, 0),
		Circle:       rtti.RegisterType[Circle](reg, 0),
	}

	steps := []struct {
		name string
		fn   func(*rtti.Registry) error
	}{
		{"counter", t.registerCounter},
		{"temperature", t.registerTemperature},
		{"shapes", t.registerShapes},
	}
	for _, s := range steps {
		if err := s.fn(reg); err != nil {
			return nil, fmt.Errorf("register demo %s: %w", s.name, err)
		}
	}

	reg.Logger().Debug("registered demo types", "count", reg.Len())
	return t, nil
}

func (t *Types) registerCounter(reg *rtti.Registry) error {
	intT := reg.MustLookup("int")
	td := t.Counter

	errs := []error{
		td.AddConstructor(rtti.NewConstructor(td, nil, rtti.Alloc(func() *Counter {
			t.Instances++
			return &Counter{}
		}))),
		td.AddConstructor(rtti.NewConstructor(td, []*rtti.TypeDescriptor{intT}, rtti.Alloc(func(v int) *Counter {
			t.Instances++
			return &Counter{Value: v}
		}))),
		td.SetDestructor(rtti.NewDestructor(td, rtti.Destroy(func(*Counter) {
			t.Destroyed++
		}))),
		td.AddProperty(rtti.NewMemberProperty(td, "value", intT,
			rtti.Field(func(c *Counter) *int { return &c.Value }))),
		td.AddMethod(rtti.NewMemberFunction(td, "increment", nil, nil,
			rtti.Func((*Counter).Increment))),
		td.AddMethod(rtti.NewMemberFunction(td, "add", intT, []*rtti.TypeDescriptor{intT},
			rtti.Func((*Counter).Add))),
		td.AddStaticProperty(rtti.NewStaticProperty(td, "instances", intT, &t.Instances)),
		td.AddStaticFunction(rtti.NewStaticFunction(td, "zero", td, nil,
			rtti.Func(func() Counter { return Counter{} }))),
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	if _, err := rtti.AttachShifter[Counter](td); err != nil {
		return err
	}
	if _, err := rtti.RegisterCast[Counter, int](td, intT,
		rtti.WithConverter(func(c Counter) int { return c.Value })); err != nil {
		return err
	}
	_, err := rtti.RegisterCast[Counter, Counter](td, t.ConstCounter)
	return err
}

func (t *Types) registerTemperature(reg *rtti.Registry) error {
	f64 := reg.MustLookup("float64")

	if _, err := rtti.RegisterCast[Celsius, Fahrenheit](t.Celsius, t.Fahrenheit,
		rtti.WithConverter(Celsius.ToFahrenheit), rtti.WithoutKind(rtti.Reinterpret)); err != nil {
		return err
	}
	if _, err := rtti.RegisterCast[Fahrenheit, Celsius](t.Fahrenheit, t.Celsius,
		rtti.WithConverter(Fahrenheit.ToCelsius), rtti.WithoutKind(rtti.Reinterpret)); err != nil {
		return err
	}
	// Celsius shares float64's representation, so every probed strategy applies.
	if _, err := rtti.RegisterCast[Celsius, float64](t.Celsius, f64); err != nil {
		return err
	}

	errs := []error{
		t.Celsius.AddConstructor(rtti.NewConstructor(t.Celsius, []*rtti.TypeDescriptor{f64},
			rtti.Func(func(v float64) Celsius { return Celsius(v) }))),
		t.Fahrenheit.AddConstructor(rtti.NewConstructor(t.Fahrenheit, []*rtti.TypeDescriptor{f64},
			rtti.Func(func(v float64) Fahrenheit { return Fahrenheit(v) }))),
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *Types) registerShapes(reg *rtti.Registry) error {
	f64 := reg.MustLookup("float64")

	t.Square.AddParent(t.Shape)
	t.Circle.AddParent(t.Shape)

	errs := []error{
		t.Square.AddConstructor(rtti.NewConstructor(t.Square, []*rtti.TypeDescriptor{f64},
			rtti.Alloc(func(side float64) *Square { return &Square{Side: side} }))),
		t.Square.AddProperty(rtti.NewMemberProperty(t.Square, "side", f64,
			rtti.Field(func(s *Square) *float64 { return &s.Side }))),
		t.Circle.AddConstructor(rtti.NewConstructor(t.Circle, []*rtti.TypeDescriptor{f64},
			rtti.Alloc(func(r float64) *Circle { return &Circle{Radius: r} }))),
		t.Shape.AddMethod(rtti.NewMemberFunction(t.Shape, "area", f64, nil,
			rtti.Func(func(s *Shape) float64 { return (*s).Area() }))),
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	if _, err := rtti.RegisterCast[Shape, Square](t.Shape, t.Square); err != nil {
		return err
	}
	if _, err := rtti.RegisterCast[Square, Shape](t.Square, t.Shape); err != nil {
		return err
	}
	if _, err := rtti.RegisterCast[Shape, Circle](t.Shape, t.Circle); err != nil {
		return err
	}
	_, err := rtti.RegisterCast[Circle, Shape](t.Circle, t.Shape)
	return err
}
