// Package retry re-runs actions that fail with transient errors, such as a
// ledger commit lost to a concurrent writer.
package retry

// Action is a unit of work that may be attempted more than once. It must be
// safe to run again after a failure.
type Action func() error

// Retry runs action until it succeeds or a strategy declines another attempt,
// and returns the number of attempts made along with the last error.
//
// Strategies run in order after every failure, so filters belong first and
// strategies that sleep belong last.
func Retry(action Action, strategies ...Strategy) (uint, error) {
	var attempts uint
	for {
		attempts++

		err := action()
		if err == nil {
			return attempts, nil
		}

		for _, strategy := range strategies {
			if !strategy(attempts, err) {
				return attempts, err
			}
		}
	}
}
