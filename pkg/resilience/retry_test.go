package resilience

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryWithBackoffEventualSuccess(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return fmt.Errorf("transient failure %d", attempts)
		}
		return nil
	}, WithInitialDelay(time.Millisecond), WithMaxRetries(5))

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryWithBackoffExhaustsRetries(t *testing.T) {
	attempts := 0
	err := RetryWithBackoff(context.Background(), func() error {
		attempts++
		return errors.New("always fails")
	}, WithInitialDelay(time.Millisecond), WithMaxRetries(2))

	require.Error(t, err)
	assert.Equal(t, 3, attempts) // initial attempt plus two retries
}

func TestRetryWithBackoffPermanentError(t *testing.T) {
	attempts := 0
	boom := errors.New("not found")
	err := RetryWithBackoff(context.Background(), func() error {
		attempts++
		return PermanentError(boom)
	}, WithInitialDelay(time.Millisecond), WithMaxRetries(5))

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, attempts)
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := RetryWithBackoff(ctx, func() error {
		attempts++
		return errors.New("failing")
	}, WithInitialDelay(50*time.Millisecond))

	require.Error(t, err)
	assert.LessOrEqual(t, attempts, 1)
}

func TestRetryWithBackoffOnRetryCallback(t *testing.T) {
	notified := 0
	_ = RetryWithBackoff(context.Background(), func() error {
		return errors.New("fails")
	},
		WithInitialDelay(time.Millisecond),
		WithMaxRetries(2),
		WithOnRetry(func(err error, d time.Duration) { notified++ }),
	)
	assert.Equal(t, 2, notified)
}

func TestDefaultRetryClassifier(t *testing.T) {
	assert.False(t, DefaultRetryClassifier(nil))
	assert.False(t, DefaultRetryClassifier(context.Canceled))
	assert.False(t, DefaultRetryClassifier(context.DeadlineExceeded))
	assert.True(t, DefaultRetryClassifier(errors.New("connection reset")))
}

func TestServiceBreakerOpensAfterThreshold(t *testing.T) {
	b := NewServiceBreaker("test", WithFailureThreshold(2), WithTimeout(time.Minute))
	boom := errors.New("down")

	for i := 0; i < 2; i++ {
		assert.Error(t, b.Execute(func() error { return boom }))
	}

	// Requests are rejected without invoking the operation.
	invoked := false
	err := b.Execute(func() error {
		invoked = true
		return nil
	})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.False(t, invoked)
}

func TestServiceBreakerClosedOnSuccess(t *testing.T) {
	b := NewServiceBreaker("test", WithFailureThreshold(1))
	require.NoError(t, b.Execute(func() error { return nil }))
	require.NoError(t, b.Execute(func() error { return nil }))
}
