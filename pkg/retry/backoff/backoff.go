// Package backoff provides delay schedules for retry strategies.
package backoff

import (
	"math"
	"time"
)

// Strategy returns the delay before the next attempt. attempts starts at 1.
type Strategy func(attempts uint) time.Duration

// Constant waits interval between every attempt.
func Constant(interval time.Duration) Strategy {
	return func(uint) time.Duration {
		return interval
	}
}

// BinaryExponential doubles the delay after every attempt, starting at
// baseDelay, and saturates instead of overflowing.
//
// Ex. BinaryExponential(50*time.Millisecond) = 50ms, 100ms, 200ms, 400ms, ...
func BinaryExponential(baseDelay time.Duration) Strategy {
	return func(attempts uint) time.Duration {
		if attempts <= 1 {
			return baseDelay
		}

		shift := attempts - 1
		if shift >= 63 || baseDelay > math.MaxInt64>>shift {
			return math.MaxInt64
		}
		return baseDelay << shift
	}
}
