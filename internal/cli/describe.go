package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/reflex/internal/catalog"
	"github.com/roach88/reflex/internal/rtti"
)

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <type>",
		Short: "Show one descriptor's members and casts",
		Long: `Show constructors, destructor, properties, methods, static members,
cast edges, pointer links, and parents of one registered type.

Examples:
  reflex describe demo.Counter
  reflex describe 'const int'
  reflex describe demo.Shape --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runDescribe(opts *RootOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	reg, _, err := newRegistry(opts, cmd)
	if err != nil {
		return err
	}

	td, err := reg.Lookup(name)
	if err != nil {
		if outErr := formatter.Error(string(rtti.CodeOf(err)), fmt.Sprintf("type %q is not registered", name), nil); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitCommandError, "describe failed", err)
	}

	desc := catalog.Describe(td)
	if formatter.JSON() {
		return formatter.Success(desc)
	}
	writeDescription(cmd.OutOrStdout(), desc)
	return nil
}

func writeDescription(w io.Writer, t catalog.Type) {
	fmt.Fprintf(w, "%s (go: %s)\n", t.Name, orDash(t.GoType))
	if t.Qualifiers != "" {
		fmt.Fprintf(w, "  base: %s, qualifiers: %s\n", t.Base, t.Qualifiers)
	}

	section := func(title string, lines []string) {
		if len(lines) == 0 {
			return
		}
		fmt.Fprintf(w, "  %s:\n", title)
		for _, l := range lines {
			fmt.Fprintf(w, "    %s\n", l)
		}
	}

	var ctors []string
	for _, c := range t.Constructors {
		ctors = append(ctors, t.Name+"("+strings.Join(c.Params, ", ")+")")
	}
	section("constructors", ctors)
	if t.Destructor {
		fmt.Fprintln(w, "  destructor: yes")
	}
	section("properties", properties(t.Properties))
	section("static properties", properties(t.StaticProperties))
	section("methods", functions(t.Methods))
	section("static functions", functions(t.StaticFunctions))

	var casts []string
	for _, c := range t.Casts {
		casts = append(casts, "-> "+c.Destination+" ["+strings.Join(c.Kinds, " ")+"]")
	}
	section("casts", casts)

	if t.Pointer != "" {
		fmt.Fprintf(w, "  pointer: %s\n", t.Pointer)
	}
	if t.Elem != "" {
		fmt.Fprintf(w, "  elem: %s\n", t.Elem)
	}
	section("parents", t.Parents)
	section("children", t.Children)
}

func properties(ps []catalog.Property) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name + " " + p.Type
	}
	return out
}

func functions(fs []catalog.Function) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		s := f.Name + "(" + strings.Join(f.Params, ", ") + ")"
		if f.Returns != "" {
			s += " " + f.Returns
		}
		out[i] = s
	}
	return out
}
