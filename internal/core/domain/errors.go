package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrTemporary          = errors.New("temporary failure")
	ErrJobNotFound        = errors.New("scoring job not found")
	ErrSegmentation       = errors.New("segmentation failed")
	ErrSignalUnavailable  = errors.New("signal unavailable")
	ErrInsufficientSignal = errors.New("insufficient signal")
	ErrExternalService    = errors.New("external service failure")
	ErrCircuitOpen        = errors.New("circuit open")
	ErrMalformedResponse  = errors.New("malformed response")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// InsufficientSignalError is returned when an aggregation cannot produce a score
// from the available signals under the active policy.
type InsufficientSignalError struct {
	Grain   Grain
	Policy  MissingSignalPolicy
	Missing []SignalName
}

func (e *InsufficientSignalError) Error() string {
	if e == nil {
		return ErrInsufficientSignal.Error()
	}
	names := make([]string, 0, len(e.Missing))
	for _, name := range e.Missing {
		names = append(names, string(name))
	}
	return fmt.Sprintf("%s: %s score under %s policy, missing [%s]",
		ErrInsufficientSignal.Error(), e.Grain, e.Policy, strings.Join(names, ", "))
}

func (e *InsufficientSignalError) Unwrap() error {
	return ErrInsufficientSignal
}

// ExternalServiceError describes a failed call to a model service or another
// collaborator. It matches both ErrExternalService and the underlying cause.
type ExternalServiceError struct {
	Service   string
	Operation string
	Err       error
}

func (e *ExternalServiceError) Error() string {
	if e == nil {
		return ErrExternalService.Error()
	}
	return fmt.Sprintf("%s %s: %v", e.Service, e.Operation, e.Err)
}

func (e *ExternalServiceError) Unwrap() []error {
	return []error{ErrExternalService, e.Err}
}
