// Package future runs a call on its own goroutine and hands back its result
// either by waiting (Await) or through a callback (Then).
package future

import (
	"context"
	"sync"
)

// Future holds the eventual result of a call started with Go.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error

	mu        sync.Mutex
	callbacks []func(T, error)
}

// Go starts fn on a new goroutine with ctx.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	go func() {
		val, err := fn(ctx)
		f.complete(val, err)
	}()
	return f
}

// Resolved returns a future that is already complete.
func Resolved[T any](val T, err error) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	f.complete(val, err)
	return f
}

func (f *Future[T]) complete(val T, err error) {
	f.mu.Lock()
	f.val, f.err = val, err
	close(f.done)
	callbacks := f.callbacks
	f.callbacks = nil
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(val, err)
	}
}

// Done is closed when the result is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Await blocks until the result is available or ctx is done. Cancelling ctx
// does not stop the call itself.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then registers cb to receive the result. cb runs on the goroutine that
// completed the call, or immediately on the caller's goroutine when the
// result is already available. Each callback runs exactly once.
func (f *Future[T]) Then(cb func(T, error)) {
	f.mu.Lock()
	select {
	case <-f.done:
		f.mu.Unlock()
		cb(f.val, f.err)
		return
	default:
	}
	f.callbacks = append(f.callbacks, cb)
	f.mu.Unlock()
}
