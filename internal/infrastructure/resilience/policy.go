package resilience

import (
	"math"
	"time"
)

// RetryPolicy is an exponential backoff between attempts of one call.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// BreakerPolicy opens an operation's circuit once enough recent calls failed.
type BreakerPolicy struct {
	Enabled          bool
	MinRequests      uint32
	FailureRatio     float64
	OpenTimeout      time.Duration
	HalfOpenMaxCalls uint32
}

// LimitPolicy caps outbound calls per operation. RPS <= 0 disables it.
type LimitPolicy struct {
	RPS   float64
	Burst int
}

// Config tunes every outbound call to model services and other collaborators.
type Config struct {
	Retry   RetryPolicy
	Breaker BreakerPolicy
	Limit   LimitPolicy
	// OnStateChange, when set, is told about every breaker transition.
	OnStateChange func(operation, from, to string)
}

func DefaultConfig() Config {
	return Config{
		Retry: RetryPolicy{
			MaxAttempts:    2,
			InitialBackoff: 100 * time.Millisecond,
			MaxBackoff:     400 * time.Millisecond,
			Multiplier:     2.0,
		},
		Breaker: BreakerPolicy{
			Enabled:          true,
			MinRequests:      10,
			FailureRatio:     0.5,
			OpenTimeout:      30 * time.Second,
			HalfOpenMaxCalls: 2,
		},
		Limit: LimitPolicy{Burst: 1},
	}
}

func (c Config) normalize() Config {
	def := DefaultConfig()
	r := &c.Retry
	if r.MaxAttempts <= 0 {
		r.MaxAttempts = def.Retry.MaxAttempts
	}
	if r.InitialBackoff <= 0 {
		r.InitialBackoff = def.Retry.InitialBackoff
	}
	if r.MaxBackoff <= 0 {
		r.MaxBackoff = def.Retry.MaxBackoff
	}
	r.MaxBackoff = max(r.MaxBackoff, r.InitialBackoff)
	if r.Multiplier < 1 {
		r.Multiplier = def.Retry.Multiplier
	}

	b := &c.Breaker
	if b.MinRequests == 0 {
		b.MinRequests = def.Breaker.MinRequests
	}
	if b.FailureRatio <= 0 || b.FailureRatio > 1 {
		b.FailureRatio = def.Breaker.FailureRatio
	}
	if b.OpenTimeout <= 0 {
		b.OpenTimeout = def.Breaker.OpenTimeout
	}
	if b.HalfOpenMaxCalls == 0 {
		b.HalfOpenMaxCalls = def.Breaker.HalfOpenMaxCalls
	}

	if c.Limit.Burst <= 0 {
		c.Limit.Burst = def.Limit.Burst
	}
	return c
}

// backoff is the wait after the given failed attempt, counting from 1.
func (r RetryPolicy) backoff(attempt int) time.Duration {
	wait := float64(r.InitialBackoff) * math.Pow(r.Multiplier, float64(attempt-1))
	if wait >= float64(r.MaxBackoff) {
		return r.MaxBackoff
	}
	return time.Duration(wait)
}
