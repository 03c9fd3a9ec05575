// Package errors defines the error taxonomy shared by the core services and
// the HTTP layer. Platform adapters keep their own precise error types and are
// classified into these at the service boundary.
package errors

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/docqa-backend/internal/pkg/httpx"
)

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is a generic sentinel for auth failures.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConfiguration marks fatal setup problems that retrying cannot fix.
	ErrConfiguration = errors.New("configuration error")
	// ErrServiceUnavailable marks a failed call to an external provider.
	ErrServiceUnavailable = errors.New("external service unavailable")
	// ErrInputRejected marks input refused before any external call.
	ErrInputRejected = errors.New("input rejected")
)

// ConfigurationError reports missing credentials, bad endpoints or a vector
// dimensionality mismatch.
type ConfigurationError struct {
	Component string
	Field     string
	Cause     error
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return ErrConfiguration.Error()
	}
	msg := fmt.Sprintf("configuration error (component=%s", e.Component)
	if e.Field != "" {
		msg += " field=" + e.Field
	}
	msg += ")"
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Cause }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// ServiceUnavailableError is returned when an embedding, generation or index
// provider could not serve a request.
type ServiceUnavailableError struct {
	Provider  string
	Operation string
	Retryable bool
	Cause     error
}

func (e *ServiceUnavailableError) Error() string {
	if e == nil {
		return ErrServiceUnavailable.Error()
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s unavailable (op=%s retryable=%t): %v", e.Provider, e.Operation, e.Retryable, e.Cause)
	}
	return fmt.Sprintf("%s unavailable (op=%s retryable=%t)", e.Provider, e.Operation, e.Retryable)
}

func (e *ServiceUnavailableError) Unwrap() error { return e.Cause }

func (e *ServiceUnavailableError) Is(target error) bool { return target == ErrServiceUnavailable }

// InputRejectedError is returned for empty or oversized input.
type InputRejectedError struct {
	Field  string
	Reason string
}

func (e *InputRejectedError) Error() string {
	if e == nil {
		return ErrInputRejected.Error()
	}
	if e.Field == "" {
		return "input rejected: " + e.Reason
	}
	return fmt.Sprintf("input rejected (%s): %s", e.Field, e.Reason)
}

func (e *InputRejectedError) Is(target error) bool { return target == ErrInputRejected }

func Unavailable(provider, op string, retryable bool, cause error) error {
	return &ServiceUnavailableError{Provider: provider, Operation: op, Retryable: retryable, Cause: cause}
}

func Rejected(field, reason string) error {
	return &InputRejectedError{Field: field, Reason: reason}
}

func Misconfigured(component, field string, cause error) error {
	return &ConfigurationError{Component: component, Field: field, Cause: cause}
}

// Classify folds an adapter error into the taxonomy. Errors that already
// carry a taxonomy sentinel keep it and gain provider context; caller
// cancellation passes through untouched; anything else means the provider
// could not serve the call.
func Classify(provider, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	for _, sentinel := range []error{ErrConfiguration, ErrInputRejected, ErrNotFound, ErrServiceUnavailable} {
		if errors.Is(err, sentinel) {
			return fmt.Errorf("%s %s: %w", provider, op, err)
		}
	}
	return Unavailable(provider, op, httpx.IsRetryableError(err), err)
}
