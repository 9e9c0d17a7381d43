package utils

import (
	"context"
	"errors"
	"time"
)

// ErrMaxAttempts is returned when a bounded loop gives up.
var ErrMaxAttempts = errors.New("maximum attempts reached")

type Backoff func(wait time.Duration) time.Duration

func ExponentialBackoff(wait time.Duration) time.Duration {
	return wait * 2
}

func FixedBackoff(wait time.Duration) time.Duration {
	return wait
}

// Retry runs fn up to maxAttempts times, sleeping between attempts as directed by the policy.
// It never busy spins and gives up early when ctx is done or fn reports a non retryable error.
type Retry struct {
	MaxAttempts int
	MinWait     time.Duration
	MaxWait     time.Duration
	Backoff     Backoff
	// Retryable classifies errors; nil retries every error.
	Retryable func(error) bool
}

func (r Retry) Do(ctx context.Context, fn func(attempt int) error) error {
	if r.MaxAttempts < 1 {
		return ErrMaxAttempts
	}
	backoff := r.Backoff
	if backoff == nil {
		backoff = ExponentialBackoff
	}

	var err error
	wait := time.Duration(0)
	for attempt := range r.MaxAttempts {
		select {
		case <-ctx.Done():
			return errors.Join(ctx.Err(), err)
		case <-time.After(wait):
		}

		if err = fn(attempt); err == nil {
			return nil
		}
		if r.Retryable != nil && !r.Retryable(err) {
			return err
		}

		if wait < r.MinWait {
			wait = r.MinWait
		} else {
			wait = backoff(wait)
		}
		if r.MaxWait > 0 {
			wait = min(wait, r.MaxWait)
		}
	}
	return errors.Join(ErrMaxAttempts, err)
}
