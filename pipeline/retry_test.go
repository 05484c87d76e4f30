package pipeline

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryableWrapsAndUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := Retryable(cause)

	assert.EqualError(t, err, "connection reset")
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsRetryable(err))
}

func TestRetryableNil(t *testing.T) {
	assert.Nil(t, Retryable(nil))
	assert.False(t, IsRetryable(nil))
}

func TestIsRetryableTypedThroughWrapping(t *testing.T) {
	err := fmt.Errorf("embedding batch: %w", Retryable(errors.New("upstream stall")))
	assert.True(t, IsRetryable(err))
}

func TestIsRetryableSubstringFallback(t *testing.T) {
	retryable := []string{
		"Rate Limit exceeded",
		"request timeout",
		"network unreachable",
		"temporary failure in name resolution",
		"Service Unavailable",
		"got 503 from upstream",
		"HTTP 429",
	}
	for _, msg := range retryable {
		assert.True(t, IsRetryable(errors.New(msg)), "message %q", msg)
	}

	fatal := []string{
		"invalid schema",
		"record not found",
		"permission denied",
	}
	for _, msg := range fatal {
		assert.False(t, IsRetryable(errors.New(msg)), "message %q", msg)
	}
}

func TestBackoffDelay(t *testing.T) {
	base := 5 * time.Second

	assert.Equal(t, 5*time.Second, backoffDelay(base, 0))
	assert.Equal(t, 10*time.Second, backoffDelay(base, 1))
	assert.Equal(t, 20*time.Second, backoffDelay(base, 2))
	assert.Equal(t, 40*time.Second, backoffDelay(base, 3))
}
