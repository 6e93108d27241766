package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/reflex/internal/manifest"
)

// CheckResult holds the outcome of verifying manifests against the registry.
type CheckResult struct {
	Files    int                `json:"files"`
	Types    int                `json:"types"`
	Findings []manifest.Finding `json:"findings"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <manifests-dir>",
		Short: "Verify CUE type manifests against the registry",
		Long: `Load the CUE type manifests in a directory and verify that the demo
registry provides every declared type, member, and cast strategy.

Exit codes:
  0 - Registry matches every manifest
  1 - Drift detected (one or more findings)
  2 - Command error (directory not found, invalid CUE, etc.)

Examples:
  reflex check ./manifests
  reflex check ./manifests --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runCheck(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loaded, err := manifest.Load(dir)
	if err != nil {
		code, message := manifest.ErrCodeGeneric, err.Error()
		var loadErr *manifest.LoadError
		if errors.As(err, &loadErr) {
			code, message = loadErr.Code, loadErr.Message
		}
		if outErr := formatter.Error(code, message, nil); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitCommandError, "failed to load manifests", err)
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loaded.FileCount, dir)

	reg, _, err := newRegistry(opts, cmd)
	if err != nil {
		return err
	}

	result := CheckResult{
		Files:    loaded.FileCount,
		Types:    len(loaded.Types),
		Findings: manifest.Verify(reg, loaded.Types),
	}
	if result.Findings == nil {
		result.Findings = []manifest.Finding{}
	}
	drift := len(result.Findings) > 0

	if formatter.JSON() {
		if err := formatter.Result(result, drift, ErrCodeDrift, "registry does not match manifests"); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		if drift {
			fmt.Fprintf(w, "✗ %d finding(s) in %d type manifest(s)\n", len(result.Findings), result.Types)
			for _, f := range result.Findings {
				fmt.Fprintf(w, "  %s\n", f)
			}
		} else {
			fmt.Fprintf(w, "✓ %d type manifest(s) in %d file(s) match the registry\n", result.Types, result.Files)
		}
	}

	if drift {
		return NewExitError(ExitFailure, "registry does not match manifests")
	}
	return nil
}
