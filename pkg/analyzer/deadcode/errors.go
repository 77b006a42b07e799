package deadcode

import (
	"errors"
	"fmt"
)

// ErrNoEntryPoints is returned when the resolved root set is empty. Analysis
// with no roots would report the entire project dead, so this fails fast.
var ErrNoEntryPoints = errors.New("no entry points found: configure entry.files, entry.patterns, or add a package.json")

// ErrNoFiles is returned when scanning produces no analyzable source files.
var ErrNoFiles = errors.New("no TypeScript/JavaScript files found")

// ConfigError marks a user-fixable configuration problem. These map to exit
// code 2 rather than a findings report.
type ConfigError struct {
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration error: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a ConfigError wrapping err. err may be nil.
func NewConfigError(message string, err error) *ConfigError {
	return &ConfigError{Message: message, Err: err}
}

// InternalError marks a broken analyzer invariant, such as a duplicate
// symbol ID. These are defects, not user errors.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error: %s", e.Message)
}

// NewInternalError creates an InternalError.
func NewInternalError(format string, args ...any) *InternalError {
	return &InternalError{Message: fmt.Sprintf(format, args...)}
}
