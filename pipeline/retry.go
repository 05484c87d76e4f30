// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package pipeline

import (
	"errors"
	"strings"
	"time"
)

// RetryableError marks an error as transient. Step handlers and adapters
// wrap errors in this type when a later attempt could succeed, which is the
// preferred classification channel; the substring heuristic below only
// covers errors from opaque external boundaries.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// Retryable wraps err so IsRetryable reports it as transient.
// Wrapping nil returns nil.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// retryableFragments are matched case-insensitively against error text when
// no typed classification is present. Matching is heuristic; an error whose
// message merely mentions one of these can be misclassified as transient.
var retryableFragments = []string{
	"rate limit",
	"timeout",
	"network",
	"temporary",
	"service unavailable",
	"503",
	"429",
}

// IsRetryable reports whether err should be retried. A typed
// *RetryableError anywhere in the chain decides; otherwise the error text
// is scanned for known transient fragments.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var re *RetryableError
	if errors.As(err, &re) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, fragment := range retryableFragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}

// backoffDelay computes the re-entry delay for a retry: base * 2^retryCount.
func backoffDelay(base time.Duration, retryCount int) time.Duration {
	delay := base
	for i := 0; i < retryCount; i++ {
		delay *= 2
	}
	return delay
}
