package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/code-payments/custody-server/pkg/retry/backoff"
)

// Strategy decides whether another attempt is made after a failure. Strategies
// may sleep or record the failure.
type Strategy func(attempts uint, err error) bool

// Limit caps the total number of attempts, including the first.
func Limit(maxAttempts uint) Strategy {
	return func(attempts uint, _ error) bool {
		return attempts < maxAttempts
	}
}

// RetriableErrors only retries errors matching one of retriable via errors.Is.
func RetriableErrors(retriable ...error) Strategy {
	return func(_ uint, err error) bool {
		for _, target := range retriable {
			if errors.Is(err, target) {
				return true
			}
		}
		return false
	}
}

// Context stops retrying once ctx is done.
func Context(ctx context.Context) Strategy {
	return func(uint, error) bool {
		return ctx.Err() == nil
	}
}

// OnRetry calls fn for every failure that passed the preceding strategies. It
// never stops retrying on its own.
func OnRetry(fn func(attempts uint, err error)) Strategy {
	return func(attempts uint, err error) bool {
		fn(attempts, err)
		return true
	}
}

// Backoff sleeps for the strategy's delay, capped at maxBackoff.
func Backoff(strategy backoff.Strategy, maxBackoff time.Duration) Strategy {
	return BackoffWithJitter(strategy, maxBackoff, 0)
}

// BackoffWithJitter is Backoff with the capped delay randomly spread by
// +/- jitter, as a fraction of the delay. Jitter keeps clients that lost the
// same commit race from retrying in lockstep.
func BackoffWithJitter(strategy backoff.Strategy, maxBackoff time.Duration, jitter float64) Strategy {
	return func(attempts uint, _ error) bool {
		delay := strategy(attempts)
		if delay > maxBackoff {
			delay = maxBackoff
		}

		if jitter > 0 {
			delay = time.Duration(float64(delay) * (1 + jitter*(2*rand.Float64()-1)))
		}

		sleeperImpl.Sleep(delay)
		return true
	}
}

type sleeper interface {
	Sleep(time.Duration)
}

type realSleeper struct{}

func (realSleeper) Sleep(d time.Duration) { time.Sleep(d) }

var sleeperImpl sleeper = realSleeper{}
