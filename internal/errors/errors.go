// Package errors provides structured CLI error types for qsn.
//
// CLIError wraps errors with user-facing messages, hints, and exit codes
// to provide consistent, actionable error output across all commands.
package errors

import (
	"errors"
	"fmt"
)

// Exit codes for CLI errors.
const (
	ExitSuccess   = 0  // Successful execution
	ExitGeneral   = 1  // General error
	ExitConfig    = 4  // Configuration error
	ExitTimeout   = 5  // Execution timeout
	ExitExecution = 6  // Execution failure
	ExitUsage     = 64 // Command line usage error (BSD convention)
)

// CLIError represents a user-facing CLI error with actionable guidance.
type CLIError struct {
	// Message is the primary error message shown to the user.
	Message string

	// Hint provides actionable guidance on how to fix the error.
	Hint string

	// Cause is the underlying error, if any.
	Cause error

	// Code is the exit code for the CLI.
	Code int
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}

	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// New creates a new CLIError with the given message and exit code.
func New(code int, message string) *CLIError {
	return &CLIError{
		Message: message,
		Code:    code,
	}
}

// Wrap wraps an existing error with a CLIError.
func Wrap(code int, message string, cause error) *CLIError {
	return &CLIError{
		Message: message,
		Cause:   cause,
		Code:    code,
	}
}

// WithHint adds a hint to the error.
func (e *CLIError) WithHint(hint string) *CLIError {
	e.Hint = hint
	return e
}

// As is a convenience function for errors.As with CLIError.
func As(err error, target **CLIError) bool {
	return errors.As(err, target)
}

// --- Common error constructors ---

// InvalidMode returns an error for an unrecognized display mode flag.
func InvalidMode(mode string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Invalid mode: %s", mode),
		Hint:    "Supported modes: utf8, u_escape, x_escape",
		Code:    ExitUsage,
	}
}

// NoInput returns an error when encode has neither a file argument nor
// piped stdin to read from.
func NoInput() *CLIError {
	return &CLIError{
		Message: "No input to encode",
		Hint:    "Pass a file path, or pipe data on stdin",
		Code:    ExitUsage,
	}
}

// SessionNotFound returns an error for an unknown recorded session.
func SessionNotFound(id string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Session not found: %s", id),
		Hint:    "Run 'qsn transcript list' to see recorded sessions",
		Code:    ExitGeneral,
	}
}

// TranscriptCorrupt returns an error when a recorded session's event log
// cannot be read back.
func TranscriptCorrupt(id string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Transcript for session %s is corrupt", id),
		Hint:    "The events file may have been truncated by a crash during recording",
		Cause:   cause,
		Code:    ExitGeneral,
	}
}

// SessionFailed returns an error when a PTY-recorded command could not be
// started or waited on at all (as opposed to exiting non-zero, which is
// not itself an error).
func SessionFailed(cause error) *CLIError {
	return &CLIError{
		Message: "Recorded session failed",
		Hint:    "Run with --log-level=debug for more details",
		Cause:   cause,
		Code:    ExitExecution,
	}
}

// ConfigFailed returns an error for configuration save failures.
func ConfigFailed(operation string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Failed to %s", operation),
		Hint:    "Check file permissions for your qsn config directory or run 'qsn doctor'",
		Cause:   cause,
		Code:    ExitConfig,
	}
}

// UnknownConfigKey returns an error for a 'config get'/'config set' on an
// unrecognized key.
func UnknownConfigKey(key string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Unknown config key: %s", key),
		Hint:    "Run 'qsn config list' to see available keys",
		Code:    ExitUsage,
	}
}

// PTYUnsupported returns an error when a recorded run is attempted on a
// platform without PTY support.
func PTYUnsupported() *CLIError {
	return &CLIError{
		Message: "Recording a command requires a PTY",
		Hint:    "qsn run is unix-only; use qsn encode to quote output you already have",
		Code:    ExitConfig,
	}
}
