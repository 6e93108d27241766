package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypes_Text(t *testing.T) {
	out, _, err := execute(t, "types")
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	assert.True(t, strings.HasPrefix(lines[0], "NAME"), "header first: %q", lines[0])
	assert.Contains(t, out, "demo.Counter")
	assert.Contains(t, out, "float64")
	assert.NotContains(t, out, "const int")
	assert.NotContains(t, out, "*demo.Counter")
	assert.Contains(t, out, "type(s), catalog ")
}

func TestTypes_JSONFilter(t *testing.T) {
	out, _, err := execute(t, "types", "--filter", "demo.*", "--format", "json")
	require.NoError(t, err)

	status, data, _ := decodeResponse[TypesResult](t, out)
	assert.Equal(t, "ok", status)
	assert.Len(t, data.CatalogHash, 64)

	var names []string
	for _, ts := range data.Types {
		names = append(names, ts.Name)
	}
	assert.Equal(t, []string{
		"demo.Celsius",
		"demo.Circle",
		"demo.Counter",
		"demo.Fahrenheit",
		"demo.Shape",
		"demo.Square",
	}, names)

	counter := data.Types[2]
	assert.Equal(t, 2, counter.Constructors)
	assert.Equal(t, 2, counter.Properties, "value and instances")
	assert.Equal(t, 3, counter.Methods, "increment, add, and zero")
	assert.Equal(t, 2, counter.Casts)
}

func TestTypes_AllIncludesSpellings(t *testing.T) {
	out, _, err := execute(t, "types", "--all", "--format", "json")
	require.NoError(t, err)

	_, all, _ := decodeResponse[TypesResult](t, out)
	out, _, err = execute(t, "types", "--format", "json")
	require.NoError(t, err)
	_, plain, _ := decodeResponse[TypesResult](t, out)

	assert.Greater(t, len(all.Types), len(plain.Types))
	assert.Equal(t, all.CatalogHash, plain.CatalogHash, "hash covers the whole catalog")

	var found bool
	for _, ts := range all.Types {
		if ts.Name == "const volatile int&&" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestTypes_InvalidFilter(t *testing.T) {
	_, _, err := execute(t, "types", "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
