package route

import (
	"context"
	"errors"
	"sync"
)

// Guard inspects a pending navigation. Returning nil lets it proceed; any
// error rejects it. Blocking until a decision is made is allowed.
type Guard func(ctx context.Context, to, from *Location) error

// NextFunc is the continuation handed to WithNext guards. Passing nil
// proceeds, an error rejects.
type NextFunc func(err error)

// ErrAbort is returned by a guard to cancel a navigation without reporting a failure cause.
var ErrAbort = errors.New("navigation aborted by guard")

// RedirectError asks the router to abandon the current target and navigate to To instead.
type RedirectError struct {
	To string
}

func (e *RedirectError) Error() string {
	return "redirect to " + e.To
}

// Redirect returns a guard result that redirects the navigation to target.
func Redirect(target string) error {
	return &RedirectError{To: target}
}

// Sync adapts a guard that decides synchronously.
func Sync(fn func(to, from *Location) error) Guard {
	return func(_ context.Context, to, from *Location) error {
		return fn(to, from)
	}
}

// Async adapts a guard that returns a future. The guard settles with the first
// value received, or nil when the channel is closed without a value. A nil
// channel counts as an immediate pass.
func Async(fn func(to, from *Location) <-chan error) Guard {
	return func(ctx context.Context, to, from *Location) error {
		ch := fn(to, from)
		if ch == nil {
			return nil
		}
		select {
		case err := <-ch:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// WithNext adapts a continuation-style guard. The guard settles on the first
// call to next, which may happen after fn returns and from any goroutine.
// Later calls are ignored.
func WithNext(fn func(to, from *Location, next NextFunc)) Guard {
	return func(ctx context.Context, to, from *Location) error {
		settled := make(chan error, 1)
		var once sync.Once
		next := func(err error) {
			once.Do(func() { settled <- err })
		}

		fn(to, from, next)

		select {
		case err := <-settled:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
