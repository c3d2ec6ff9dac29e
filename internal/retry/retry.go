// Package retry runs an operation again after a pause when it fails.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrContextCancelled is returned when ctx ends while waiting between attempts.
var ErrContextCancelled = errors.New("context cancelled during retry")

// Config configures retry behavior.
type Config struct {
	// Attempts counts the first call. Values below 1 mean a single call.
	Attempts int
	// Delay is the pause before the second attempt. Zero retries immediately.
	Delay time.Duration
	// Multiplier grows the pause after each failure. Values below 1 keep it fixed.
	Multiplier float64
	// MaxDelay caps the pause when Multiplier grows it.
	MaxDelay time.Duration
	// OnRetry is called before each pause.
	OnRetry func(attempt int, err error)
}

// Once retries a single time after a fixed pause.
func Once(delay time.Duration) Config {
	return Config{Attempts: 2, Delay: delay}
}

// Do calls fn until it succeeds, attempts run out, or ctx ends.
// The returned error wraps the last failure.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	attempts := max(cfg.Attempts, 1)
	delay := cfg.Delay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrContextCancelled, err)
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, lastErr)
		}
		if delay > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %w", ErrContextCancelled, ctx.Err())
			case <-time.After(delay):
			}
		}
		delay = nextDelay(delay, cfg)
	}

	return fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

func nextDelay(d time.Duration, cfg Config) time.Duration {
	if cfg.Multiplier <= 1 {
		return d
	}
	next := time.Duration(math.Round(float64(d) * cfg.Multiplier))
	if cfg.MaxDelay > 0 && next > cfg.MaxDelay {
		return cfg.MaxDelay
	}
	return next
}
