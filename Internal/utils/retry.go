package utils

import (
	"context"
	"errors"
	"log"
	"time"
)

// RetryConfig describes a fixed-count retry loop with linear backoff:
// the wait after attempt n (0-based) is (n+1) * BaseDelay.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Label       string
	Sleep       func(ctx context.Context, d time.Duration) error
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err so RetryWithBackoff returns it without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// RetryWithBackoff runs fn until it succeeds, returns a Permanent error,
// the attempts are exhausted or ctx is cancelled.
func RetryWithBackoff(ctx context.Context, cfg RetryConfig, fn func() error) error {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return perm.err
		}

		if attempt < attempts-1 {
			wait := time.Duration(attempt+1) * cfg.BaseDelay
			log.Printf("      ⚠️  %sattempt %d failed: %s", labelPrefix(cfg.Label), attempt+1, Truncate(lastErr.Error(), 100))
			log.Printf("      ⏳ Waiting %s before retrying...", wait)
			if err := sleep(ctx, wait); err != nil {
				return err
			}
		}
	}

	log.Printf("      ❌ %sgave up after %d attempts", labelPrefix(cfg.Label), attempts)
	return lastErr
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func labelPrefix(label string) string {
	if label == "" {
		return ""
	}
	return label + ": "
}
