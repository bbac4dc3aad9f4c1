// Package future provides a minimal submit/result handle for cross-node
// calls, so fan-out call sites read the same whether the work completed
// already or is still in flight.
package future

import "context"

// Future wraps one asynchronous call. Submit starts it immediately on its
// own goroutine; Result blocks until it finishes or ctx is cancelled.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Submit starts fn on a new goroutine and returns a handle for its result.
func Submit[T any](fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.val, f.err = fn()
	}()
	return f
}

// Result blocks until fn has completed or ctx is done, whichever comes
// first. Result returning early on ctx.Done() does not itself stop fn
// running in the background — fn must be context-aware and react to
// cancellation on its own (the node client does this: a watcher
// goroutine closes the in-flight socket the moment ctx is cancelled,
// which unblocks fn's own blocking read and reports Cancelled instead of
// returning the socket to the pool, per spec.md §5).
func (f *Future[T]) Result(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done reports whether the future has completed, without blocking.
func (f *Future[T]) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
