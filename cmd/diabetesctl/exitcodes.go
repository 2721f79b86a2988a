package main

import "fmt"

// Exit codes for diabetesctl.
const (
	ExitOK      = 0 // Command did what was asked.
	ExitFailure = 1 // The console alerted or sent the user back to login.
	ExitUsage   = 2 // Bad flags, config or arguments.
)

// exitCodeError carries a non-zero exit code through cobra's error handling.
type exitCodeError struct {
	code int
	msg  string
}

func (e *exitCodeError) Error() string {
	if e.msg == "" {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.msg
}

// ExitCode returns the exit code for this error.
func (e *exitCodeError) ExitCode() int { return e.code }

// exitError creates an exitCodeError. An empty message means the reason was
// already printed.
func exitError(code int, format string, args ...any) *exitCodeError {
	return &exitCodeError{code: code, msg: fmt.Sprintf(format, args...)}
}
