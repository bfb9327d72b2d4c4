package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	defaultRetryAttempts = 3
	defaultRetryBase     = 50 * time.Millisecond
	defaultRetryCap      = 2 * time.Second
)

// ErrRetriesExhausted marks a transient failure that outlived the retry budget.
var ErrRetriesExhausted = errors.New("transaction retries exhausted")

// RetryPolicy bounds how often a transaction body is re-attempted.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// OnRetry is invoked before every re-attempt with the attempt that failed.
	OnRetry func(attempt int, err error)
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultRetryAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = defaultRetryBase
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = defaultRetryCap
	}
	return p
}

func (p RetryPolicy) backoff() retry.Backoff {
	b := retry.NewExponential(p.BaseDelay)
	b = retry.WithJitterPercent(20, b)
	b = retry.WithCappedDuration(p.MaxDelay, b)
	return retry.WithMaxRetries(uint64(p.MaxAttempts-1), b)
}

// WithRetry runs fn until it succeeds, fails with a non-transient error, or the
// policy's attempts are used up. Only errors classified by IsTransient are retried.
func WithRetry(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	policy = policy.normalized()
	attempt := 0
	var lastTransient error

	err := retry.Do(ctx, policy.backoff(), func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
		lastTransient = err
		if attempt < policy.MaxAttempts && policy.OnRetry != nil {
			policy.OnRetry(attempt, err)
		}
		return retry.RetryableError(err)
	})
	if err == nil {
		return nil
	}
	if lastTransient != nil && errors.Is(err, lastTransient) {
		return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempt, err)
	}
	return err
}
