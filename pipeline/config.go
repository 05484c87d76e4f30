package pipeline

import (
	"runtime"
	"time"
)

const (
	// DefaultBatchSize is the number of chunks processed per embed/tag batch.
	DefaultBatchSize = 10

	// DefaultMaxRetryAttempts caps scheduled retries per step before a
	// document is marked failed.
	DefaultMaxRetryAttempts = 3

	// DefaultRetryBackoff is the base delay before a retry re-enters the
	// executor. The actual delay doubles with each recorded retry.
	DefaultRetryBackoff = 5 * time.Second
)

// Config holds tunable pipeline parameters.
type Config struct {
	// BatchSize bounds how many chunks the embed and tag steps process per
	// continuation.
	BatchSize int

	// MaxRetryAttempts is the number of scheduled retries allowed for a
	// step before the document is marked failed.
	MaxRetryAttempts int

	// RetryBackoff is the base re-entry delay; a document waits
	// RetryBackoff * 2^retryCount before resuming.
	RetryBackoff time.Duration

	// PoolSize is the number of documents processed concurrently.
	// Defaults to half the CPU count, minimum 1.
	PoolSize int
}

// DefaultConfig returns a config with the package defaults applied.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:        DefaultBatchSize,
		MaxRetryAttempts: DefaultMaxRetryAttempts,
		RetryBackoff:     DefaultRetryBackoff,
		PoolSize:         defaultPoolSize(),
	}
}

// normalize fills zero values with defaults.
func (c *Config) normalize() {
	if c.BatchSize < 1 {
		c.BatchSize = DefaultBatchSize
	}
	if c.MaxRetryAttempts < 1 {
		c.MaxRetryAttempts = DefaultMaxRetryAttempts
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = DefaultRetryBackoff
	}
	if c.PoolSize < 1 {
		c.PoolSize = defaultPoolSize()
	}
}

func defaultPoolSize() int {
	size := runtime.NumCPU() / 2
	if size < 1 {
		size = 1
	}
	return size
}
