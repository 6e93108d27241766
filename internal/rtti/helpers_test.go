package rtti

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

type counter struct {
	Value int
}

type shape interface {
	Area() int
}

type square struct{ Side int }

func (s square) Area() int { return s.Side * s.Side }

type circle struct{ R int }

func (c circle) Area() int { return 3 * c.R * c.R }

// newTestRegistry creates a registry with builtins and a silent logger.
func newTestRegistry(t *testing.T, opts ...Option) *Registry {
	t.Helper()
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	r := New(opts...)
	RegisterBuiltins(r)
	return r
}

// counterFixture registers counter with a zero-argument constructor, an int
// property "value", a void method "increment", a method "add(int) int", and a
// destructor that counts invocations.
type counterFixture struct {
	reg       *Registry
	counter   *TypeDescriptor
	intT      *TypeDescriptor
	ctor      *Constructor
	ctorInt   *Constructor
	value     *MemberProperty
	increment *MemberFunction
	add       *MemberFunction
	allocs    int
	destroyed []*counter
}

func newCounterFixture(t *testing.T, opts ...Option) *counterFixture {
	t.Helper()
	f := &counterFixture{reg: newTestRegistry(t, opts...)}
	f.intT = f.reg.MustLookup("int")
	f.counter = RegisterType[counter](f.reg, 0)

	f.ctor = NewConstructor(f.counter, nil, Alloc(func() *counter {
		f.allocs++
		return &counter{}
	}))
	require.NoError(t, f.counter.AddConstructor(f.ctor))

	f.ctorInt = NewConstructor(f.counter, []*TypeDescriptor{f.intT}, Alloc(func(v int) *counter {
		f.allocs++
		return &counter{Value: v}
	}))
	require.NoError(t, f.counter.AddConstructor(f.ctorInt))

	f.value = NewMemberProperty(f.counter, "value", f.intT, Field(func(c *counter) *int { return &c.Value }))
	require.NoError(t, f.counter.AddProperty(f.value))

	f.increment = NewMemberFunction(f.counter, "increment", nil, nil, Func(func(c *counter) { c.Value++ }))
	require.NoError(t, f.counter.AddMethod(f.increment))

	f.add = NewMemberFunction(f.counter, "add", f.intT, []*TypeDescriptor{f.intT}, Func(func(c *counter, n int) int {
		c.Value += n
		return c.Value
	}))
	require.NoError(t, f.counter.AddMethod(f.add))

	require.NoError(t, f.counter.SetDestructor(NewDestructor(f.counter, Destroy(func(c *counter) {
		f.destroyed = append(f.destroyed, c)
	}))))
	return f
}

func (f *counterFixture) intBox(t *testing.T, v int) *Box {
	t.Helper()
	b, err := Own(f.intT, v)
	require.NoError(t, err)
	return b
}
