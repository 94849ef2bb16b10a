package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

type ErrorClassification struct {
	Retryable     bool
	RecordFailure bool
}

type ErrorClassifier func(err error) ErrorClassification

// Executor runs outbound calls with a rate limit, retries and a circuit
// breaker. Limiters and breakers are kept per operation name, so one slow
// model service does not throttle or trip another.
type Executor struct {
	cfg Config

	mu         sync.Mutex
	operations map[string]*guard
}

// guard is the shared state of one operation.
type guard struct {
	breaker *gobreaker.CircuitBreaker[struct{}]
	limiter *rate.Limiter
}

func NewExecutor(cfg Config) *Executor {
	return &Executor{
		cfg:        cfg.normalize(),
		operations: make(map[string]*guard),
	}
}

func (e *Executor) Execute(ctx context.Context, operation string, fn func(context.Context) error, classifier ErrorClassifier) error {
	if fn == nil {
		return errors.New("resilience: operation callback is nil")
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	if classifier == nil {
		classifier = defaultClassifier
	}

	g := e.guard(op, classifier)
	run := func() (struct{}, error) {
		return struct{}{}, e.retry(ctx, op, g.limiter, fn, classifier)
	}
	if g.breaker == nil {
		_, err := run()
		return err
	}
	_, err := g.breaker.Execute(run)
	return err
}

func (e *Executor) retry(ctx context.Context, op string, limiter *rate.Limiter, fn func(context.Context) error, classifier ErrorClassifier) error {
	policy := e.cfg.Retry
	var err error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if limiter != nil {
			if waitErr := limiter.Wait(ctx); waitErr != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				// Wait refuses up front when the token would arrive after the deadline.
				return fmt.Errorf("rate limit wait: %w: %w", context.DeadlineExceeded, waitErr)
			}
		}

		err = fn(ctx)
		if err == nil {
			return nil
		}
		if attempt == policy.MaxAttempts || !classifier(err).Retryable {
			return err
		}

		wait := policy.backoff(attempt)
		slog.Warn("retry_attempt",
			"operation", op,
			"attempt", attempt,
			"max_attempts", policy.MaxAttempts,
			"backoff_ms", wait.Milliseconds(),
			"error", err,
		)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}
	}
	return err
}

func (e *Executor) guard(op string, classifier ErrorClassifier) *guard {
	e.mu.Lock()
	defer e.mu.Unlock()

	if g, ok := e.operations[op]; ok {
		return g
	}
	g := &guard{}
	if e.cfg.Limit.RPS > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(e.cfg.Limit.RPS), e.cfg.Limit.Burst)
	}
	if e.cfg.Breaker.Enabled {
		g.breaker = gobreaker.NewCircuitBreaker[struct{}](e.breakerSettings(op, classifier))
	}
	e.operations[op] = g
	return g
}

func (e *Executor) breakerSettings(op string, classifier ErrorClassifier) gobreaker.Settings {
	policy := e.cfg.Breaker
	return gobreaker.Settings{
		Name:        op,
		MaxRequests: policy.HalfOpenMaxCalls,
		Timeout:     policy.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < policy.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= policy.FailureRatio
		},
		IsSuccessful: func(err error) bool {
			// A caller giving up says nothing about the remote service.
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			return !classifier(err).RecordFailure
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit_breaker_state_change", "operation", name, "from", from.String(), "to", to.String())
			if e.cfg.OnStateChange != nil {
				e.cfg.OnStateChange(name, from.String(), to.String())
			}
		},
	}
}

// IsCircuitOpen reports whether err came from a breaker rejecting the call.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func defaultClassifier(error) ErrorClassification {
	return Failed
}
