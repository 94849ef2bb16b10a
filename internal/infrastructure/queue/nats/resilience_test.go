package nats

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

func TestClassifyNATSError(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		retryable bool
		record    bool
	}{
		{name: "canceled", err: context.Canceled, retryable: false, record: false},
		{name: "no servers", err: fmt.Errorf("nats publish: %w", nats.ErrNoServers), retryable: true, record: true},
		{name: "disconnected", err: nats.ErrDisconnected, retryable: true, record: true},
		{name: "bad subject", err: nats.ErrBadSubject, retryable: false, record: true},
	}
	for _, tc := range cases {
		got := classifyNATSError(tc.err)
		if got.Retryable != tc.retryable || got.RecordFailure != tc.record {
			t.Fatalf("%s: got %+v", tc.name, got)
		}
	}
}

func TestWrapTemporaryIfNeeded(t *testing.T) {
	err := wrapTemporaryIfNeeded(fmt.Errorf("nats publish: %w", nats.ErrConnectionClosed))
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
	permanent := errors.New("payload too large")
	if got := wrapTemporaryIfNeeded(permanent); got != permanent {
		t.Fatalf("expected permanent error unchanged, got %v", got)
	}
	if wrapTemporaryIfNeeded(nil) != nil {
		t.Fatalf("expected nil")
	}
}
