package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNetwork reports a frame cache backend that could not be reached.
var ErrNetwork = errors.New("cache backend unreachable")

// Backoff retries transient backend failures with doubling delays.
type Backoff struct {
	// Attempts is the total number of calls, including the first.
	Attempts int
	// Delay is the wait before the second call. It doubles after each retry.
	Delay time.Duration
}

// DefaultBackoff makes three calls, one second and then two seconds apart.
var DefaultBackoff = Backoff{Attempts: 3, Delay: time.Second}

type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient marks err as worth retrying. Transient(nil) is nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err, or anything it wraps, was marked with
// [Transient].
func IsTransient(err error) bool {
	var te *transientError
	return errors.As(err, &te)
}

// Retry calls fn until it succeeds, returns an error not marked transient,
// or runs out of attempts. Waiting stops early when ctx is done.
func (b Backoff) Retry(ctx context.Context, fn func() error) error {
	delay := b.Delay
	var err error
	for attempt := 1; ; attempt++ {
		if err = fn(); err == nil || !IsTransient(err) || attempt >= b.Attempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}
