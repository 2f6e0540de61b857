package retry

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"github.com/jzx17/goparallel/pkg/types"
)

// RetryPolicy decides whether a failed callback runs again and how long to wait first
type RetryPolicy interface {
	// ShouldRetry reports whether attempt, which failed with err, is followed by another
	ShouldRetry(err error, attempt int) bool

	// NextDelay returns the wait before attempt+1
	NextDelay(attempt int) time.Duration

	// MaxAttempts returns the total number of attempts, the first included
	MaxAttempts() int
}

// RetryCondition reports whether an error is worth another attempt
type RetryCondition func(error) bool

// DelayFunc computes the wait before the attempt following attempt
type DelayFunc func(attempt int) time.Duration

// Policy is a RetryPolicy built from an attempt limit, a retry condition and a delay function
type Policy struct {
	maxAttempts    int
	retryCondition RetryCondition
	delay          DelayFunc
	maxDelay       time.Duration
	jitterFactor   float64
}

// PolicyOption configures a Policy
type PolicyOption func(*Policy)

// NewPolicy creates a policy allowing maxAttempts attempts in total, waiting delay(attempt) between them.
// Every wait is capped at 30s unless WithMaxDelay sets another cap.
func NewPolicy(maxAttempts int, delay DelayFunc, opts ...PolicyOption) *Policy {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	p := &Policy{
		maxAttempts:    maxAttempts,
		retryCondition: DefaultRetryCondition,
		delay:          delay,
		maxDelay:       30 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewFixedDelayRetry waits the same delay before every retry
func NewFixedDelayRetry(maxAttempts int, delay time.Duration, opts ...PolicyOption) *Policy {
	return NewPolicy(maxAttempts, func(int) time.Duration { return delay }, opts...)
}

// NewExponentialBackoffRetry waits initialDelay, then multiplies the wait by multiplier after each retry
func NewExponentialBackoffRetry(maxAttempts int, initialDelay time.Duration, multiplier float64,
	opts ...PolicyOption) *Policy {
	if multiplier < 1 {
		multiplier = 2.0
	}
	return NewPolicy(maxAttempts, func(attempt int) time.Duration {
		return time.Duration(float64(initialDelay) * math.Pow(multiplier, float64(attempt-1)))
	}, opts...)
}

// NewLinearBackoffRetry waits initialDelay, then increment longer after each retry
func NewLinearBackoffRetry(maxAttempts int, initialDelay, increment time.Duration, opts ...PolicyOption) *Policy {
	return NewPolicy(maxAttempts, func(attempt int) time.Duration {
		return initialDelay + time.Duration(attempt-1)*increment
	}, opts...)
}

// WithRetryCondition sets the retry condition
func WithRetryCondition(condition RetryCondition) PolicyOption {
	return func(p *Policy) {
		if condition != nil {
			p.retryCondition = condition
		}
	}
}

// WithMaxDelay caps the wait between attempts
func WithMaxDelay(maxDelay time.Duration) PolicyOption {
	return func(p *Policy) {
		if maxDelay > 0 {
			p.maxDelay = maxDelay
		}
	}
}

// WithJitter spreads each delay uniformly by up to factor of its length in either direction
func WithJitter(factor float64) PolicyOption {
	return func(p *Policy) {
		if factor > 0 && factor <= 1.0 {
			p.jitterFactor = factor
		}
	}
}

// ShouldRetry reports whether another attempt follows
func (p *Policy) ShouldRetry(err error, attempt int) bool {
	if attempt >= p.maxAttempts {
		return false
	}
	return p.retryCondition(err)
}

// NextDelay returns the wait before attempt+1
func (p *Policy) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}
	var delay time.Duration
	if p.delay != nil {
		delay = p.delay(attempt)
	}
	if delay > p.maxDelay || delay < 0 {
		delay = p.maxDelay
	}
	return p.applyJitter(delay)
}

// MaxAttempts returns the total number of attempts
func (p *Policy) MaxAttempts() int {
	return p.maxAttempts
}

func (p *Policy) applyJitter(delay time.Duration) time.Duration {
	if p.jitterFactor == 0 || delay == 0 {
		return delay
	}

	jitterRange := float64(delay) * p.jitterFactor
	result := delay + time.Duration((rand.Float64()-0.5)*2*jitterRange)
	if result < 0 {
		result = delay / 2
	}
	return result
}

// DefaultRetryCondition retries errors marked with types.RetryableError.
// Panics, invalid input and context errors are never retried.
func DefaultRetryCondition(err error) bool {
	if err == nil {
		return false
	}

	var panicErr *types.PanicError
	switch {
	case errors.As(err, &panicErr):
		return false
	case errors.Is(err, types.ErrInvalidInput):
		return false
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return types.IsRetryable(err)
}

// AnyError retries every error except panics
func AnyError(err error) bool {
	var panicErr *types.PanicError
	return err != nil && !errors.As(err, &panicErr)
}
