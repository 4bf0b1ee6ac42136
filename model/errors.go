package model

import (
	"errors"
	"fmt"
)

// ConfigError reports unusable input: an unreadable target list or bad settings.
type ConfigError struct {
	Source string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %v", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// TransientError is a failure expected to go away on retry, such as a page
// that was not fully rendered when it was read.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// StructuralError is a failure retrying cannot fix.
type StructuralError struct {
	Err error
}

func (e *StructuralError) Error() string { return e.Err.Error() }

func (e *StructuralError) Unwrap() error { return e.Err }

// MissingFieldError is returned by parsers when a required element is absent.
// It is wrapped in a TransientError.
type MissingFieldError struct {
	Field    string
	Selector string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing %s (%s)", e.Field, e.Selector)
}

type Stage string

const (
	StageMetadata Stage = "metadata"
	StageChapter  Stage = "chapter"
)

// ExhaustedError is returned when every allowed attempt failed transiently.
type ExhaustedError struct {
	Stage    Stage
	Address  string
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s %s: max attempts (%d) reached: %v", e.Stage, e.Address, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

func Transientf(format string, a ...any) error {
	return &TransientError{Err: fmt.Errorf(format, a...)}
}

func Structural(err error) error {
	if err == nil {
		return nil
	}
	return &StructuralError{Err: err}
}

func Structuralf(format string, a ...any) error {
	return &StructuralError{Err: fmt.Errorf(format, a...)}
}

// IsTransient reports whether err should be retried. A structural error
// anywhere in the chain wins over a transient one.
func IsTransient(err error) bool {
	var s *StructuralError
	if errors.As(err, &s) {
		return false
	}
	var t *TransientError
	return errors.As(err, &t)
}

func IsExhausted(err error) bool {
	var e *ExhaustedError
	return errors.As(err, &e)
}
