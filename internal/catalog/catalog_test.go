package catalog

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reflex/internal/rtti"
	"github.com/roach88/reflex/internal/testutil"
)

type widget struct {
	Size int
}

func widgetRegistry(t *testing.T) *rtti.Registry {
	t.Helper()
	reg := testutil.NewRegistry()
	intT := rtti.RegisterType[int](reg, 0)
	td := rtti.RegisterType[widget](reg, 0)

	require.NoError(t, td.AddConstructor(rtti.NewConstructor(td, []*rtti.TypeDescriptor{intT},
		rtti.Alloc(func(n int) *widget { return &widget{Size: n} }))))
	require.NoError(t, td.SetDestructor(rtti.NewDestructor(td, func(any) {})))
	require.NoError(t, td.AddProperty(rtti.NewMemberProperty(td, "size", intT,
		rtti.Field(func(w *widget) *int { return &w.Size }))))
	require.NoError(t, td.AddMethod(rtti.NewMemberFunction(td, "grow", intT, []*rtti.TypeDescriptor{intT},
		rtti.Func(func(w *widget, n int) int {
			w.Size += n
			return w.Size
		}))))
	require.NoError(t, td.AddMethod(rtti.NewMemberFunction(td, "reset", nil, nil,
		rtti.Func(func(w *widget) { w.Size = 0 }))))
	_, err := rtti.RegisterCast[widget, int](td, intT, rtti.WithConverter(func(w widget) int { return w.Size }))
	require.NoError(t, err)
	return reg
}

func TestSnapshot_Golden(t *testing.T) {
	data, err := MarshalCanonical(Snapshot(widgetRegistry(t)))
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "widget_catalog", data)
}

func TestSnapshot_Describe(t *testing.T) {
	c := Snapshot(widgetRegistry(t))

	require.Len(t, c.Types, 3)
	assert.Equal(t, "catalog.widget", c.Types[0].Name)

	w, ok := c.Find("catalog.widget")
	require.True(t, ok)
	assert.True(t, w.Destructor)
	assert.Equal(t, []Constructor{{Params: []string{"int"}}}, w.Constructors)
	assert.Equal(t, []Cast{{Destination: "int", Kinds: []string{"convert", "any"}}}, w.Casts)
	require.Len(t, w.Methods, 2)
	assert.Equal(t, "", w.Methods[1].Returns)

	_, ok = c.Find("missing")
	assert.False(t, ok)
}

func TestSnapshot_Qualifiers(t *testing.T) {
	reg := rtti.New()
	rtti.RegisterBuiltins(reg)

	c := Snapshot(reg)
	ci, ok := c.Find("const int&")
	require.True(t, ok)
	assert.Equal(t, "int", ci.Base)
	assert.Equal(t, "const &", ci.Qualifiers)
	assert.Equal(t, "*const int", ci.Pointer)

	p, ok := c.Find("*int")
	require.True(t, ok)
	assert.Equal(t, "int", p.Elem)
}

func TestHash_Deterministic(t *testing.T) {
	h1, err := Hash(Snapshot(widgetRegistry(t)))
	require.NoError(t, err)
	h2, err := Hash(Snapshot(widgetRegistry(t)))
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)

	reg := widgetRegistry(t)
	reg.Register("extra")
	assert.NotEqual(t, h1, MustHash(Snapshot(reg)))
}

func TestMarshalCanonical(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", "hello", `"hello"`},
		{"no html escaping", "<a&b>", `"<a&b>"`},
		{"int", 42, "42"},
		{"bool", true, "true"},
		{"empty array", []any{}, "[]"},
		{"sorted keys", map[string]any{"zebra": 1, "alpha": 2, "beta": 3}, `{"alpha":2,"beta":3,"zebra":1}`},
		{"struct tags", Property{Name: "n", Type: "int"}, `{"name":"n","type":"int"}`},
		{"line separator", "a\u2028b", "\"a\u2028b\""},
		{"escaped backslash", `\u2028`, `"\\u2028"`},
		{"nfc", "e\u0301", "\"\u00e9\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(got))
		})
	}
}

func TestMarshalCanonical_UTF16KeyOrder(t *testing.T) {
	// U+1F600 sorts after U+FB01 in UTF-8 but before it in UTF-16.
	got, err := MarshalCanonical(map[string]any{"\U0001F600": 1, "\uFB01": 2})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":1,\"\uFB01\":2}", string(got))
}

func TestMarshalCanonical_Rejects(t *testing.T) {
	_, err := MarshalCanonical(1.5)
	assert.ErrorContains(t, err, "floats are forbidden")

	_, err = MarshalCanonical(map[string]any{"a": nil})
	assert.ErrorContains(t, err, "null is forbidden")
}
