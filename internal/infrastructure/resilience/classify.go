package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

var (
	// Transient failures are retried and count against the breaker.
	Transient = ErrorClassification{Retryable: true, RecordFailure: true}
	// Rejected calls were refused for a reason retrying cannot fix, and the
	// remote side is healthy.
	Rejected = ErrorClassification{Retryable: false, RecordFailure: false}
	// Failed calls are not retried but still count against the breaker.
	Failed = ErrorClassification{Retryable: false, RecordFailure: true}
)

// ClassifyBase settles the outcomes every outbound client treats alike. ok is
// false when the error needs a transport-specific decision.
func ClassifyBase(err error) (class ErrorClassification, ok bool) {
	switch {
	case err == nil:
		return ErrorClassification{}, true
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Rejected, true
	case errors.Is(err, domain.ErrMalformedResponse), errors.Is(err, domain.ErrSignalUnavailable):
		return Rejected, true
	case IsCircuitOpen(err):
		return Transient, true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return Transient, true
	}
	return ErrorClassification{}, false
}

// RetryableStatus reports whether an HTTP status is worth another attempt.
func RetryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// StatusClass classifies a non-2xx HTTP answer.
func StatusClass(code int) ErrorClassification {
	if RetryableStatus(code) {
		return Transient
	}
	return Rejected
}

// WrapExternal maps a failed outbound call onto domain error kinds: an open
// breaker becomes ErrCircuitOpen and a retryable failure ErrTemporary. Every
// other failure is returned as a plain ExternalServiceError.
func WrapExternal(service, operation string, err error, classifier ErrorClassifier) error {
	if err == nil {
		return nil
	}
	if domain.IsKind(err, domain.ErrTemporary) || domain.IsKind(err, domain.ErrCircuitOpen) {
		return err
	}
	if classifier == nil {
		classifier = defaultClassifier
	}

	op := service + " " + operation
	external := &domain.ExternalServiceError{Service: service, Operation: operation, Err: err}
	switch {
	case IsCircuitOpen(err):
		return domain.WrapError(domain.ErrCircuitOpen, op, external)
	case classifier(err).Retryable:
		return domain.WrapError(domain.ErrTemporary, op, external)
	default:
		return external
	}
}
