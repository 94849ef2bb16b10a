package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func fastRetry(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond, Multiplier: 2}
}

func TestExecuteRetriesTransientFailure(t *testing.T) {
	exec := NewExecutor(Config{Retry: fastRetry(3)})

	attempts := 0
	errReset := errors.New("connection reset")
	err := exec.Execute(context.Background(), "lm.perplexity", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errReset
		}
		return nil
	}, func(err error) ErrorClassification {
		if errors.Is(err, errReset) {
			return Transient
		}
		return Failed
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteDoesNotRetryRejectedCall(t *testing.T) {
	exec := NewExecutor(Config{Retry: fastRetry(3)})

	attempts := 0
	errBadRequest := errors.New("text too short")
	err := exec.Execute(context.Background(), "lm.perplexity", func(context.Context) error {
		attempts++
		return errBadRequest
	}, func(error) ErrorClassification { return Rejected })
	if !errors.Is(err, errBadRequest) {
		t.Fatalf("expected rejected error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteOpensCircuitAndReportsTransition(t *testing.T) {
	var (
		mu          sync.Mutex
		transitions []string
	)
	exec := NewExecutor(Config{
		Retry: RetryPolicy{MaxAttempts: 1},
		Breaker: BreakerPolicy{
			Enabled:          true,
			MinRequests:      2,
			FailureRatio:     0.5,
			OpenTimeout:      time.Minute,
			HalfOpenMaxCalls: 1,
		},
		OnStateChange: func(op, from, to string) {
			mu.Lock()
			defer mu.Unlock()
			transitions = append(transitions, op+":"+from+"->"+to)
		},
	})

	errDown := errors.New("service down")
	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "classifier.classify", func(context.Context) error {
			return errDown
		}, nil)
		if !errors.Is(err, errDown) {
			t.Fatalf("expected service error on call %d, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "classifier.classify", func(context.Context) error {
		t.Fatalf("open circuit must not call the operation")
		return nil
	}, nil)
	if !errors.Is(err, gobreaker.ErrOpenState) || !IsCircuitOpen(err) {
		t.Fatalf("expected open state error, got %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(transitions) != 1 || transitions[0] != "classifier.classify:closed->open" {
		t.Fatalf("unexpected transitions %v", transitions)
	}
}

func TestExecuteRateLimitsPerOperation(t *testing.T) {
	exec := NewExecutor(Config{
		Retry: RetryPolicy{MaxAttempts: 1},
		Limit: LimitPolicy{RPS: 1, Burst: 1},
	})

	calls := 0
	fn := func(context.Context) error {
		calls++
		return nil
	}
	if err := exec.Execute(context.Background(), "lm.perplexity", fn, nil); err != nil {
		t.Fatalf("first call must pass the burst, got %v", err)
	}
	if err := exec.Execute(context.Background(), "classifier.classify", fn, nil); err != nil {
		t.Fatalf("other operations have their own limiter, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := exec.Execute(ctx, "lm.perplexity", fn, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error while waiting for a token, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestExecuteCanceledCallDoesNotTripBreaker(t *testing.T) {
	exec := NewExecutor(Config{
		Retry:   RetryPolicy{MaxAttempts: 1},
		Breaker: BreakerPolicy{Enabled: true, MinRequests: 1, FailureRatio: 0.5, OpenTimeout: time.Minute, HalfOpenMaxCalls: 1},
	})

	for i := 0; i < 3; i++ {
		err := exec.Execute(context.Background(), "op", func(context.Context) error {
			return context.Canceled
		}, nil)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected canceled error, got %v", err)
		}
	}
	if IsCircuitOpen(exec.Execute(context.Background(), "op", func(context.Context) error { return nil }, nil)) {
		t.Fatalf("canceled calls must not open the circuit")
	}
}

func TestRetryBackoffGrowsToCap(t *testing.T) {
	policy := Config{Retry: RetryPolicy{InitialBackoff: 100 * time.Millisecond, MaxBackoff: 300 * time.Millisecond, Multiplier: 2}}.normalize().Retry
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond, 300 * time.Millisecond}
	for i, w := range want {
		if got := policy.backoff(i + 1); got != w {
			t.Fatalf("backoff(%d) = %v, want %v", i+1, got, w)
		}
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	cfg := Config{Retry: RetryPolicy{InitialBackoff: time.Second}, Breaker: BreakerPolicy{FailureRatio: 3}}.normalize()
	if cfg.Retry.MaxAttempts != 2 || cfg.Retry.MaxBackoff != time.Second || cfg.Breaker.FailureRatio != 0.5 || cfg.Limit.Burst != 1 {
		t.Fatalf("unexpected normalized config: %+v", cfg)
	}
}
