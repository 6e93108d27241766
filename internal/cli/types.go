package cli

import (
	"fmt"
	"path"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/reflex/internal/catalog"
)

// TypesOptions holds flags for the types command.
type TypesOptions struct {
	*RootOptions
	All    bool   // include qualified and pointer spellings
	Filter string // glob on the type name
}

// TypeSummary is one row of the types listing.
type TypeSummary struct {
	Name         string `json:"name"`
	GoType       string `json:"go_type,omitempty"`
	Constructors int    `json:"constructors"`
	Properties   int    `json:"properties"`
	Methods      int    `json:"methods"`
	Casts        int    `json:"casts"`
}

// TypesResult holds the types listing and the hash of the full catalog.
type TypesResult struct {
	CatalogHash string        `json:"catalog_hash"`
	Types       []TypeSummary `json:"types"`
}

// NewTypesCommand creates the types command.
func NewTypesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TypesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "types",
		Short: "List registered type descriptors",
		Long: `List the descriptors of the demo registry in name order.

Qualified spellings (const int, volatile int&, ...) and pointer spellings
are hidden unless --all is given. The catalog hash covers every descriptor
regardless of filtering.

Examples:
  reflex types
  reflex types --filter 'demo.*'
  reflex types --all --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypes(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "include qualified and pointer spellings")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter types by glob pattern")

	return cmd
}

func runTypes(opts *TypesOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Filter != "" {
		if _, err := path.Match(opts.Filter, ""); err != nil {
			return WrapExitError(ExitCommandError, "invalid filter pattern", err)
		}
	}

	reg, _, err := newRegistry(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	snap := catalog.Snapshot(reg)
	hash, err := catalog.Hash(snap)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to hash catalog", err)
	}

	result := TypesResult{CatalogHash: hash, Types: []TypeSummary{}}
	for _, t := range snap.Types {
		if !opts.All && (t.Qualifiers != "" || strings.HasPrefix(t.Name, "*")) {
			continue
		}
		if opts.Filter != "" {
			if ok, _ := path.Match(opts.Filter, t.Name); !ok {
				continue
			}
		}
		result.Types = append(result.Types, TypeSummary{
			Name:         t.Name,
			GoType:       t.GoType,
			Constructors: len(t.Constructors),
			Properties:   len(t.Properties) + len(t.StaticProperties),
			Methods:      len(t.Methods) + len(t.StaticFunctions),
			Casts:        len(t.Casts),
		})
	}
	formatter.VerboseLog("Listed %d of %d descriptor(s)", len(result.Types), len(snap.Types))

	if formatter.JSON() {
		return formatter.Success(result)
	}

	w := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tGO TYPE\tCTORS\tPROPS\tMETHODS\tCASTS")
	for _, t := range result.Types {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n", t.Name, orDash(t.GoType), t.Constructors, t.Properties, t.Methods, t.Casts)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d type(s), catalog %s\n", len(result.Types), hash)
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
