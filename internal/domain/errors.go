package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all stages.
var (
	ErrMalformedRecord = errors.New("malformed record")
	ErrMissingField    = errors.New("missing required field")
	ErrMergeConflict   = errors.New("merge conflict")
	ErrConfiguration   = errors.New("configuration error")
	ErrIO              = errors.New("io failure")
	ErrCorruptSource   = errors.New("corrupt source")
	ErrLocked          = errors.New("locked")
)

// FieldError describes a problem with a specific field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConfigError contains a list of field-level configuration problems.
type ConfigError struct {
	Errors []FieldError
}

func (e *ConfigError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("configuration: %d errors", len(e.Errors))
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

// NewConfigError creates a ConfigError for a single field.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewConfigErrors creates a ConfigError from multiple field errors.
func NewConfigErrors(errs []FieldError) *ConfigError {
	return &ConfigError{Errors: errs}
}

// RecordError reports an input line that could not be decoded.
type RecordError struct {
	Line int
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RecordError) Unwrap() []error { return []error{ErrMalformedRecord, e.Err} }

// IOError wraps a filesystem or storage failure on a named artifact.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() []error { return []error{ErrIO, e.Err} }
