package rtti

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShifter_RoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	intT := r.MustLookup("int")
	ptrT := r.MustLookup("*int")

	b, err := Own(intT, 21)
	require.NoError(t, err)
	defer b.Drop()

	p, err := r.AddIndirection(b)
	require.NoError(t, err)
	assert.Same(t, ptrT, p.Type())
	assert.False(t, p.Owning())

	back, err := r.RemoveIndirection(p)
	require.NoError(t, err)
	assert.Same(t, intT, back.Type())
	assert.Same(t, b.Handle(), back.Handle())
	assert.False(t, back.Owning())

	p.Drop()
	back.Drop()
	assert.Equal(t, 1, r.Ledger().Len())
}

func TestShifter_ReferenceCollapses(t *testing.T) {
	r := newTestRegistry(t)

	assert.Equal(t, "*const int", PointerName(r.MustLookup("const int&")))
	assert.Same(t, r.MustLookup("*int"), r.MustLookup("int&").Shifter().Pointer())
}

func TestShifter_Missing(t *testing.T) {
	r := newTestRegistry(t)
	td := RegisterType[counter](r, 0)

	b, err := Own(td, counter{})
	require.NoError(t, err)
	defer b.Drop()

	_, err = r.AddIndirection(b)
	assert.True(t, IsUnsupportedCast(err))
	_, err = r.RemoveIndirection(b)
	assert.True(t, IsUnsupportedCast(err))

	ptr, err := AttachShifter[counter](td)
	require.NoError(t, err)
	assert.Equal(t, "*rtti.counter", ptr.Name())

	_, err = AttachShifter[counter](td)
	assert.True(t, IsAlreadyRegistered(err))

	_, err = AttachShifter[int](r.MustLookup("rtti.counter"))
	assert.True(t, IsTypeMismatch(err))
}

func TestShifter_NilPointer(t *testing.T) {
	r := newTestRegistry(t)
	var p *int
	b, err := r.NewBox(r.MustLookup("*int"), &p)
	require.NoError(t, err)

	_, err = r.RemoveIndirection(b)
	assert.True(t, IsTypeMismatch(err))
}
