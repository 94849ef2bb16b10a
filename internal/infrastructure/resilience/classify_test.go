package resilience

import (
	"errors"
	"fmt"
	"testing"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

func TestClassifyBaseLeavesUnknownErrorsToCaller(t *testing.T) {
	if _, ok := ClassifyBase(errors.New("status 418")); ok {
		t.Fatalf("expected unknown error to be left undecided")
	}
	if class, ok := ClassifyBase(fmt.Errorf("call: %w", gobreaker.ErrOpenState)); !ok || class != Transient {
		t.Fatalf("expected open breaker to be transient, got %+v %v", class, ok)
	}
	if class, ok := ClassifyBase(domain.ErrSignalUnavailable); !ok || class != Rejected {
		t.Fatalf("expected unavailable signal to be rejected, got %+v %v", class, ok)
	}
}

func TestWrapExternal(t *testing.T) {
	transient := func(error) ErrorClassification { return Transient }

	err := WrapExternal("lm", "perplexity", errors.New("reset"), transient)
	if !domain.IsKind(err, domain.ErrTemporary) || !domain.IsKind(err, domain.ErrExternalService) {
		t.Fatalf("expected temporary external error, got %v", err)
	}

	err = WrapExternal("lm", "perplexity", gobreaker.ErrTooManyRequests, nil)
	if !domain.IsKind(err, domain.ErrCircuitOpen) {
		t.Fatalf("expected circuit open, got %v", err)
	}

	err = WrapExternal("lm", "perplexity", errors.New("bad request"), nil)
	if domain.IsKind(err, domain.ErrTemporary) || !domain.IsKind(err, domain.ErrExternalService) {
		t.Fatalf("expected plain external error, got %v", err)
	}

	already := domain.WrapError(domain.ErrTemporary, "x", errors.New("y"))
	if got := WrapExternal("lm", "perplexity", already, nil); got != already {
		t.Fatalf("expected temporary error unchanged")
	}
	if WrapExternal("lm", "perplexity", nil, nil) != nil {
		t.Fatalf("expected nil")
	}
}
