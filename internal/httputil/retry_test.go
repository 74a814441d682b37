// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-affiliations/pkg/types"
)

// fastPolicy keeps backoff waits short so tests finish quickly.
func fastPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
}

func TestPolicyBackoff(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Second}
	assert.Equal(t, 1*time.Second, p.Backoff(0))
	assert.Equal(t, 2*time.Second, p.Backoff(1))
	assert.Equal(t, 4*time.Second, p.Backoff(2))
}

func TestNewPolicyDefaults(t *testing.T) {
	p := NewPolicy(types.RetryConfig{})
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, time.Duration(0), p.BaseDelay)

	p = NewPolicy(types.RetryConfig{MaxAttempts: 5, BaseDelay: -1})
	assert.Equal(t, 5, p.MaxAttempts)
	assert.Equal(t, time.Second, p.BaseDelay)
}

func TestPolicyDo_ImmediateSuccess(t *testing.T) {
	calls := 0
	err := fastPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestPolicyDo_FailsTwiceThenSucceeds(t *testing.T) {
	calls := 0
	var retried []int
	p := fastPolicy()
	p.OnRetry = func(attempt int, _ error) { retried = append(retried, attempt) }

	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls <= 2 {
			return errors.New("connection reset")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []int{0, 1}, retried)
}

func TestPolicyDo_Exhausted(t *testing.T) {
	calls := 0
	cause := errors.New("HTTP 503")
	err := fastPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		return cause
	})

	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 3, fe.Attempts)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 3, calls)
}

func TestPolicyDo_PermanentStopsImmediately(t *testing.T) {
	calls := 0
	cause := errors.New("bad request")
	err := fastPolicy().Do(context.Background(), func(context.Context) error {
		calls++
		return Permanent(cause)
	})
	assert.Equal(t, cause, err)
	assert.Equal(t, 1, calls)
}

func TestPolicyDo_ContextCancelledDuringBackoff(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := p.Do(ctx, func(context.Context) error { return errors.New("timeout") })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPolicyDo_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := fastPolicy().Do(ctx, func(context.Context) error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}

func TestPermanentNil(t *testing.T) {
	assert.NoError(t, Permanent(nil))
}
