package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/safedep/covenant/core/policy"
)

// Exit codes.
const (
	ExitSuccess  = 0 // Success
	ExitGeneral  = 1 // General/unknown error
	ExitConfig   = 2 // Invalid config or policy document
	ExitDatabase = 3 // Database init fails, corrupt/locked
	ExitDenied   = 4 // Event denied under --fail-on-deny
)

// ExitCoder is an interface for errors that carry a custom exit code and message.
type ExitCoder interface {
	ExitCode() int
	Message() string
}

// cliError is a typed error that carries an exit code.
type cliError struct {
	code    int
	message string
	err     error
}

var _ ExitCoder = &cliError{}

// NewCLIError creates a new CLIError with the given code and message.
func NewCLIError(code int, message string) *cliError {
	return &cliError{
		code:    code,
		message: message,
	}
}

// WrapError creates a new CLIError wrapping an underlying error.
func WrapError(code int, message string, err error) *cliError {
	return &cliError{
		code:    code,
		message: message,
		err:     err,
	}
}

// Error implements the error interface.
func (e *cliError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}
	return e.message
}

// ExitCode returns the exit code for this error.
func (e *cliError) ExitCode() int {
	return e.code
}

// Message returns the formatted message for display. Policy validation
// failures list one issue per line.
func (e *cliError) Message() string {
	var verr *policy.ValidationError
	if errors.As(e.err, &verr) {
		var b strings.Builder
		b.WriteString("Policy validation failed:\n")
		for _, issue := range verr.Issues {
			fmt.Fprintf(&b, "- %s: %s\n", issue.Path, issue.Message)
		}
		return b.String()
	}
	return fmt.Sprintf("Error: %s\n", e.Error())
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *cliError) Unwrap() error {
	return e.err
}

// ErrConfig creates a configuration error.
func ErrConfig(message string, err error) *cliError {
	return WrapError(ExitConfig, message, err)
}

// ErrDatabase creates a database error.
func ErrDatabase(message string, err error) *cliError {
	return WrapError(ExitDatabase, message, err)
}

// ErrPolicy creates an error for a policy that could not be loaded. Only
// invalid documents exit with the config code.
func ErrPolicy(path string, err error) *cliError {
	if errors.Is(err, policy.ErrValidation) {
		return WrapError(ExitConfig, "invalid policy "+path, err)
	}
	return WrapError(ExitGeneral, "failed to load policy "+path, err)
}

// ErrDenied creates the error returned by eval --fail-on-deny.
func ErrDenied(action string) *cliError {
	return NewCLIError(ExitDenied, fmt.Sprintf("%s denied by policy", action))
}
