package testutil

import (
	"io"
	"log/slog"
	"testing"

	"github.com/roach88/reflex/internal/demo"
	"github.com/roach88/reflex/internal/rtti"
)

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewRegistry creates a registry with a discarding logger. Later options
// override earlier ones, so callers may still pass their own logger.
func NewRegistry(opts ...rtti.Option) *rtti.Registry {
	return rtti.New(append([]rtti.Option{rtti.WithLogger(DiscardLogger())}, opts...)...)
}

// DemoRegistry creates a registry with the demo types registered.
func DemoRegistry(t testing.TB, opts ...rtti.Option) (*rtti.Registry, *demo.Types) {
	t.Helper()
	reg := NewRegistry(opts...)
	types, err := demo.Register(reg)
	if err != nil {
		t.Fatalf("register demo types: %v", err)
	}
	return reg, types
}
