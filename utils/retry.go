package utils

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/voocel/toolbridge/schema"
)

// RetryConfig defines retry behavior
type RetryConfig struct {
	MaxAttempts int           `json:"max_attempts" mapstructure:"max_attempts"` // Maximum attempts, including the first
	BaseDelay   time.Duration `json:"base_delay" mapstructure:"base_delay"`     // Delay before the second attempt
	MaxDelay    time.Duration `json:"max_delay" mapstructure:"max_delay"`       // Upper bound for any delay
	Multiplier  float64       `json:"multiplier" mapstructure:"multiplier"`     // Backoff multiplier
	Jitter      bool          `json:"jitter" mapstructure:"jitter"`             // Whether to add random jitter
}

// DefaultRetryConfig returns the default retry settings
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Multiplier:  2.0,
		Jitter:      true,
	}
}

// NoRetry runs the function exactly once.
func NoRetry() RetryConfig {
	return RetryConfig{MaxAttempts: 1}
}

// RetryCondition decides whether to retry an error
type RetryCondition func(error) bool

// Execute runs fn until it succeeds, returns a non-retryable error, or the
// attempts are used up. Retryability follows schema.IsRetryable.
func (c RetryConfig) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := Do(ctx, c, schema.IsRetryable, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Do retries fn under cfg, using cond to classify errors. The last result
// and error are returned when attempts run out.
func Do[T any](ctx context.Context, cfg RetryConfig, cond RetryCondition, fn func(ctx context.Context) (T, error)) (T, error) {
	if cond == nil {
		cond = schema.IsRetryable
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var (
		result  T
		lastErr error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		res, err := fn(ctx)
		if err == nil {
			return res, nil
		}
		result, lastErr = res, err
		if !cond(err) {
			return result, err
		}

		// Wait before retrying when more attempts remain
		if attempt < attempts {
			timer := time.NewTimer(cfg.delay(attempt))
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return result, ctx.Err()
			}
		}
	}

	return result, lastErr
}

// delay determines the backoff delay
func (c RetryConfig) delay(attempt int) time.Duration {
	multiplier := c.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	delay := time.Duration(float64(c.BaseDelay) * math.Pow(multiplier, float64(attempt-1)))

	if c.MaxDelay > 0 && delay > c.MaxDelay {
		delay = c.MaxDelay
	}

	if c.Jitter && delay > 0 {
		delay += time.Duration(rand.Float64() * float64(delay) * 0.1) // 10% jitter
	}

	return delay
}
