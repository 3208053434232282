package api

import (
	"errors"
	"fmt"
)

// ValidationError reports that a required identifier was missing when a
// request was constructed. No request is sent.
type ValidationError struct {
	Operation string
	Field     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: required parameter %q was empty", e.Operation, e.Field)
}

// StatusError is a non-2xx response from the service.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Operation, e.StatusCode, e.Body)
}

// TransientError wraps failures outside the caller's control: transport
// errors, timeouts, 5xx and 429 responses. Callers retry these.
type TransientError struct {
	Operation string
	Err       error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient failure: %v", e.Operation, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func required(operation, field, value string) error {
	if value == "" {
		return &ValidationError{Operation: operation, Field: field}
	}
	return nil
}
