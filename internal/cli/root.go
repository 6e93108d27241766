package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/reflex/internal/demo"
	"github.com/roach88/reflex/internal/rtti"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the reflex CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "reflex",
		Short: "reflex - runtime type reflection for Go",
		Long: `Inspect, verify, and exercise a runtime type registry.

Commands operate on the demo registry: builtin scalars plus sample
counter, temperature, and shape types with constructors, members,
and cast edges.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewTypesCommand(opts))
	cmd.AddCommand(NewDescribeCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewJournalCommand(opts))

	return cmd
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// newLogger logs registry diagnostics to w at debug level in verbose mode
// and discards them otherwise.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	if !opts.Verbose {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// newRegistry builds a fresh demo registry. extra options (an observer,
// a clock) are applied after the logger.
func newRegistry(opts *RootOptions, cmd *cobra.Command, extra ...rtti.Option) (*rtti.Registry, *demo.Types, error) {
	reg := rtti.New(append([]rtti.Option{rtti.WithLogger(newLogger(opts, cmd.ErrOrStderr()))}, extra...)...)
	types, err := demo.Register(reg)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to register types", err)
	}
	return reg, types, nil
}
