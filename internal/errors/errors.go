package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/tally/internal/logger"
)

const (
	// ExitFailure is the default exit code for failed commands
	ExitFailure = 1
	// ExitInvalidInput is used when the user supplied arguments the engine rejected
	ExitInvalidInput = 2
)

// exitError carries a process exit code alongside the wrapped error.
type exitError struct {
	err  error
	code int
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }
func (e *exitError) ExitCode() int { return e.code }

// WithExitCode annotates err with the exit code Fatal should use.
func WithExitCode(err error, code int) error {
	if err == nil {
		return nil
	}
	return &exitError{err: err, code: code}
}

// ExitCode returns the exit code attached to err, or ExitFailure.
func ExitCode(err error) int {
	var coder interface{ ExitCode() int }
	if stderrors.As(err, &coder) {
		return coder.ExitCode()
	}
	return ExitFailure
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with the error's exit code
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(ExitCode(err))
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(ExitFailure)
}
