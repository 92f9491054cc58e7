package uploader

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/quantmind-br/wikiport/internal/domain"
	"github.com/quantmind-br/wikiport/internal/utils"
)

// Policy is the pure backoff policy: given an attempt number and an optional
// server-provided hint it yields the delay before the next try. Keeping it
// side-effect free makes the schedule unit-testable without real sleeps.
type Policy struct {
	BaseDelay        time.Duration
	MaxDelay         time.Duration
	Multiplier       float64
	RateLimitRetries int
	TransientRetries int
}

// DefaultPolicy returns the default retry policy
func DefaultPolicy() Policy {
	return Policy{
		BaseDelay:        3 * time.Second,
		MaxDelay:         60 * time.Second,
		Multiplier:       2.0,
		RateLimitRetries: 5,
		TransientRetries: 3,
	}
}

// Delay computes the backoff before retry number attempt (0-based). A
// server hint wins over the exponential schedule; both are capped at
// MaxDelay.
func (p Policy) Delay(attempt int, hint time.Duration) time.Duration {
	if hint > 0 {
		if hint > p.MaxDelay {
			return p.MaxDelay
		}
		return hint
	}

	d := p.BaseDelay
	for i := 0; i < attempt; i++ {
		d = time.Duration(float64(d) * p.Multiplier)
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Executor wraps remote calls with bounded retry driven by response
// classification: rate limits and transient server failures are retried on
// separate budgets, validation failures surface immediately.
type Executor struct {
	policy Policy
	logger *utils.Logger
}

// NewExecutor creates a new Executor
func NewExecutor(policy Policy, logger *utils.Logger) *Executor {
	if policy.Multiplier <= 0 {
		policy.Multiplier = 2.0
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = 3 * time.Second
	}
	if policy.MaxDelay < policy.BaseDelay {
		policy.MaxDelay = 60 * time.Second
	}
	if policy.RateLimitRetries < 1 {
		policy.RateLimitRetries = 5
	}
	if policy.TransientRetries < 1 {
		policy.TransientRetries = 3
	}
	if logger == nil {
		logger = utils.NewDefaultLogger()
	}

	return &Executor{
		policy: policy,
		logger: logger.WithComponent("retry"),
	}
}

// classifiedBackOff adapts Policy to the backoff.BackOff interface, keeping
// separate attempt counters per error class and carrying the server hint of
// the most recent failure.
type classifiedBackOff struct {
	policy            Policy
	lastErr           error
	rateAttempts      int
	transientAttempts int
}

func (b *classifiedBackOff) Reset() {
	b.rateAttempts = 0
	b.transientAttempts = 0
}

func (b *classifiedBackOff) NextBackOff() time.Duration {
	if domain.IsRateLimited(b.lastErr) {
		if b.rateAttempts >= b.policy.RateLimitRetries {
			return backoff.Stop
		}
		d := b.policy.Delay(b.rateAttempts, domain.RetryAfterHint(b.lastErr))
		b.rateAttempts++
		return d
	}

	if b.transientAttempts >= b.policy.TransientRetries {
		return backoff.Stop
	}
	d := b.policy.Delay(b.transientAttempts, 0)
	b.transientAttempts++
	return d
}

// Do executes one remote call with the retry policy. Cancellation is honored
// between attempts, never inside a call/commit pair.
func (e *Executor) Do(ctx context.Context, label string, op func() error) error {
	b := &classifiedBackOff{policy: e.policy}

	err := backoff.RetryNotify(
		func() error {
			err := op()
			if err == nil {
				return nil
			}
			b.lastErr = err
			if domain.IsRateLimited(err) || domain.IsTransient(err) {
				return err
			}
			return backoff.Permanent(err)
		},
		backoff.WithContext(b, ctx),
		func(err error, delay time.Duration) {
			e.logger.Warn().
				Str("call", label).
				Dur("backoff", delay).
				Err(err).
				Msg("Retrying remote call")
		},
	)

	if err != nil && (domain.IsRateLimited(err) || domain.IsTransient(err)) {
		return fmt.Errorf("%s: %w: %v", label, domain.ErrRetriesExhausted, err)
	}
	return err
}
