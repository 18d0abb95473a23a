package cli

import (
	"errors"
	"fmt"
	"strings"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitAuditFailed = 2
)

// ConfigError represents an invalid flag or configuration value.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// AuditError reports gates whose load run exceeded the sliding-window bound.
type AuditError struct {
	Gates []string
}

func (e *AuditError) Error() string {
	return fmt.Sprintf("audit failed for gate(s): %s", strings.Join(e.Gates, ", "))
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var audit *AuditError
	if errors.As(err, &audit) {
		return ExitAuditFailed
	}
	return ExitError
}
