package rtti

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounter_IncrementTwice(t *testing.T) {
	f := newCounterFixture(t)

	c, err := f.ctor.Invoke()
	require.NoError(t, err)
	defer c.Drop()

	for range 2 {
		out, err := f.increment.Invoke(c)
		require.NoError(t, err)
		assert.True(t, out.Empty())
	}

	v, err := f.value.Get(c)
	require.NoError(t, err)
	got, err := Value[int](v, f.intT)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

func TestConstructor_ArityMismatchAllocatesNothing(t *testing.T) {
	f := newCounterFixture(t)

	_, err := f.ctorInt.Invoke()
	require.Error(t, err)
	assert.True(t, IsArityMismatch(err))

	var re *Error
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "1", re.Details["expected"])
	assert.Equal(t, "0", re.Details["actual"])

	assert.Equal(t, 0, f.allocs)
	assert.Equal(t, 0, f.reg.Ledger().Len())
}

func TestConstructor_TypeMismatchAllocatesNothing(t *testing.T) {
	f := newCounterFixture(t)
	s := "five"
	arg, err := Ref(f.reg.MustLookup("string"), &s)
	require.NoError(t, err)

	_, err = f.ctorInt.Invoke(arg)
	require.Error(t, err)
	assert.True(t, IsTypeMismatch(err))
	assert.Equal(t, 0, f.allocs)
	assert.Equal(t, 0, f.reg.Ledger().Len())
}

func TestConstructor_WithArgument(t *testing.T) {
	f := newCounterFixture(t)
	n := f.intBox(t, 10)
	defer n.Drop()

	c, err := f.ctorInt.Invoke(n)
	require.NoError(t, err)
	defer c.Drop()

	assert.True(t, c.Owning())
	got, err := As[counter](c, f.counter)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Value)
	assert.Equal(t, "rtti.counter(int)", f.ctorInt.Signature())
}

func TestConstructor_AllocError(t *testing.T) {
	r := newTestRegistry(t)
	td := RegisterType[counter](r, 0)
	boom := errors.New("boom")
	ctor := NewConstructor(td, nil, Alloc(func() (*counter, error) { return nil, boom }))

	_, err := ctor.Invoke()
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, r.Ledger().Len())
}

func TestDescriptor_AttachTwice(t *testing.T) {
	f := newCounterFixture(t)

	err := f.counter.AddConstructor(f.ctor)
	assert.True(t, IsAlreadyRegistered(err))
	assert.Len(t, f.counter.Constructors(), 2)

	err = f.counter.AddProperty(f.value)
	assert.True(t, IsAlreadyRegistered(err))
	assert.Len(t, f.counter.Properties(), 1)

	err = f.counter.AddMethod(f.increment)
	assert.True(t, IsAlreadyRegistered(err))
	assert.Len(t, f.counter.AllMethods(), 2)

	err = f.counter.SetDestructor(NewDestructor(f.counter, func(any) {}))
	assert.True(t, IsAlreadyRegistered(err))
}

func TestDescriptor_AttachForeignProxy(t *testing.T) {
	f := newCounterFixture(t)
	other := f.reg.Register("Other")

	err := other.AddConstructor(f.ctor)
	assert.True(t, IsTypeMismatch(err))
	assert.Empty(t, other.Constructors())
}

func TestDescriptor_Lookups(t *testing.T) {
	f := newCounterFixture(t)

	c, ok := f.counter.FindConstructor(f.intT)
	require.True(t, ok)
	assert.Same(t, f.ctorInt, c)

	_, ok = f.counter.FindConstructor(f.intT, f.intT)
	assert.False(t, ok)

	m, ok := f.counter.FindMethod("add", f.intT)
	require.True(t, ok)
	assert.Same(t, f.add, m)

	_, ok = f.counter.Method("missing")
	assert.False(t, ok)
}

func TestMemberFunction_ReturnsOwningBox(t *testing.T) {
	f := newCounterFixture(t)
	c, err := f.ctor.Invoke()
	require.NoError(t, err)
	defer c.Drop()
	n := f.intBox(t, 5)
	defer n.Drop()

	out, err := f.add.Invoke(c, n)
	require.NoError(t, err)
	defer out.Drop()

	assert.True(t, out.Owning())
	assert.Same(t, f.intT, out.Type())
	v, err := Value[int](out, f.intT)
	require.NoError(t, err)
	assert.Equal(t, 5, v)
	assert.Equal(t, "rtti.counter.add(int) int", f.add.Signature())
}

func TestMemberFunction_InstanceMismatch(t *testing.T) {
	f := newCounterFixture(t)
	n := f.intBox(t, 1)
	defer n.Drop()

	_, err := f.increment.Invoke(n)
	assert.True(t, IsTypeMismatch(err))

	c, err := f.ctor.Invoke()
	require.NoError(t, err)
	defer c.Drop()

	_, err = f.add.Invoke(c)
	assert.True(t, IsArityMismatch(err))

	_, err = f.add.Invoke(c, c)
	assert.True(t, IsTypeMismatch(err))

	v, err := Value[counter](c, f.counter)
	require.NoError(t, err)
	assert.Equal(t, 0, v.Value, "failed calls never reach the function")
}

func TestMemberProperty_GetIsView(t *testing.T) {
	f := newCounterFixture(t)
	c, err := f.ctor.Invoke()
	require.NoError(t, err)
	defer c.Drop()

	v, err := f.value.Get(c)
	require.NoError(t, err)
	assert.False(t, v.Owning())

	p, err := As[int](v, f.intT)
	require.NoError(t, err)
	*p = 9

	inst, err := As[counter](c, f.counter)
	require.NoError(t, err)
	assert.Equal(t, 9, inst.Value)

	v.Drop()
	assert.Empty(t, f.destroyed)
	assert.Equal(t, 1, f.reg.Ledger().Len())
}

func TestMemberProperty_Set(t *testing.T) {
	f := newCounterFixture(t)
	c, err := f.ctor.Invoke()
	require.NoError(t, err)
	defer c.Drop()

	n := f.intBox(t, 4)
	defer n.Drop()
	require.NoError(t, f.value.Set(c, n))

	inst, err := As[counter](c, f.counter)
	require.NoError(t, err)
	assert.Equal(t, 4, inst.Value)

	s := "x"
	wrong, err := Ref(f.reg.MustLookup("string"), &s)
	require.NoError(t, err)
	err = f.value.Set(c, wrong)
	assert.True(t, IsTypeMismatch(err))
	assert.Equal(t, 4, inst.Value)

	err = f.value.Set(n, n)
	assert.True(t, IsTypeMismatch(err))
}

func TestStaticMembers(t *testing.T) {
	f := newCounterFixture(t)
	var instances int
	sp := NewStaticProperty(f.counter, "instances", f.intT, &instances)
	require.NoError(t, f.counter.AddStaticProperty(sp))

	zero := NewStaticFunction(f.counter, "zero", f.counter, nil, Func(func() counter { return counter{} }))
	require.NoError(t, f.counter.AddStaticFunction(zero))

	n := f.intBox(t, 3)
	defer n.Drop()
	require.NoError(t, sp.Set(n))
	assert.Equal(t, 3, instances)

	v, err := sp.Get()
	require.NoError(t, err)
	assert.False(t, v.Owning())
	got, err := Value[int](v, f.intT)
	require.NoError(t, err)
	assert.Equal(t, 3, got)

	fn, ok := f.counter.StaticFunction("zero")
	require.True(t, ok)
	out, err := fn.Invoke()
	require.NoError(t, err)
	assert.True(t, out.Owning())
	assert.Same(t, f.counter, out.Type())
	out.Drop()
	assert.Len(t, f.destroyed, 1)

	_, err = fn.Invoke(n)
	assert.True(t, IsArityMismatch(err))
	assert.Equal(t, "rtti.counter::zero() rtti.counter", fn.Signature())
}

func TestFunc_PanicsOnBadShape(t *testing.T) {
	assert.Panics(t, func() { Func(42) })
	assert.Panics(t, func() { Func(func(xs ...int) {}) })
	assert.Panics(t, func() { Func(func() (int, int) { return 0, 0 }) })
	assert.NotPanics(t, func() { Func(func() (int, error) { return 0, nil }) })
}
