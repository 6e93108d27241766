package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Process exit codes.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the check ran and found problems: drift, failed scenarios, ledger anomalies
	ExitCommandError = 2 // the check could not run: bad path, unknown type, missing database
)

// Error codes reported in JSON responses besides the rtti and manifest codes.
const (
	ErrCodeDrift     = "E_DRIFT"
	ErrCodeScenario  = "E_SCENARIO"
	ErrCodeAnomaly   = "E_LEDGER_ANOMALY"
	ErrCodeNoSession = "E_SESSION_NOT_FOUND"
)

// ExitError carries the process exit code out of a command's RunE.
type ExitError struct {
	Code    int
	Message string
	Err     error // optional cause
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError wrapping err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps a command error to a process exit code: ExitSuccess
// for nil, the carried code for an ExitError anywhere in the chain, and
// ExitFailure otherwise.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ExitFailure
}

// OutputFormatter writes command results as text or as a JSON envelope.
type OutputFormatter struct {
	Format string // "text" or "json"
	Writer io.Writer
	// ErrWriter receives diagnostics so JSON on Writer stays parseable.
	// Nil means Writer.
	ErrWriter io.Writer
	Verbose   bool
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError describes a failed command in a CLIResponse.
type CLIError struct {
	Code    string `json:"code"` // "E005", "TYPE_NOT_REGISTERED", "E_DRIFT", ...
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON reports whether the formatter writes JSON.
func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

// Success writes data with status ok, or prints it as text.
func (f *OutputFormatter) Success(data any) error {
	if !f.JSON() {
		_, err := fmt.Fprintln(f.Writer, data)
		return err
	}
	return writeJSON(f.Writer, CLIResponse{Status: "ok", Data: data})
}

// Error reports a command error. Text output shows details only in
// verbose mode.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.JSON() {
		return writeJSON(f.Writer, CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Result writes data with status ok, or with status error and the given
// code when failed is set. Text output is left to the caller.
func (f *OutputFormatter) Result(data any, failed bool, code, message string) error {
	resp := CLIResponse{Status: "ok", Data: data}
	if failed {
		resp.Status = "error"
		resp.Error = &CLIError{Code: code, Message: message}
	}
	return writeJSON(f.Writer, resp)
}

// VerboseLog prints a diagnostic line to the error writer in verbose mode.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if f.Verbose {
		fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
	}
}

// GetErrWriter returns ErrWriter, falling back to Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter == nil {
		return f.Writer
	}
	return f.ErrWriter
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
