// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the retry policy and the paced HTTP client
// shared by ID discovery and the batch detail fetcher.
package httputil

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/paper-affiliations/pkg/types"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second
)

// FetchError reports a request that failed on every attempt of its retry
// budget. Err is the failure of the last attempt.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("fetch failed after %d attempt(s): %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// permanentError marks a failure that retrying cannot fix.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so that Policy.Do stops retrying and returns it as is.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Policy is a bounded retry with exponential backoff. Attempt n (0-based)
// that fails is followed by a wait of 2^n * BaseDelay, except the last
// attempt, which fails immediately.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// OnRetry, when set, is called before each backoff wait.
	OnRetry func(attempt int, err error)
}

// NewPolicy builds a Policy from configuration, filling in defaults.
func NewPolicy(cfg types.RetryConfig) Policy {
	p := Policy{MaxAttempts: cfg.MaxAttempts, BaseDelay: cfg.BaseDelay}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = defaultMaxAttempts
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = defaultBaseDelay
	}
	return p
}

// Backoff returns the wait that follows failed attempt n.
func (p Policy) Backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * p.BaseDelay
}

// Do runs op until it succeeds or the attempt budget is spent. It returns
// nil on success, the unwrapped error of a Permanent failure, ctx.Err() when
// the context ends during a wait, or a *FetchError on exhaustion.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	log := zerolog.Ctx(ctx)

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return perm.err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt == maxAttempts-1 {
			break
		}

		backoff := p.Backoff(attempt)
		log.Debug().Err(lastErr).Int("attempt", attempt+1).Int("max_attempts", maxAttempts).
			Dur("backoff", backoff).Msg("transient failure, retrying")
		if p.OnRetry != nil {
			p.OnRetry(attempt, lastErr)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return &FetchError{Attempts: maxAttempts, Err: lastErr}
}
