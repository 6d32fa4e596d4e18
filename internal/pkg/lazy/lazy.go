// Package lazy provides a value that is constructed once, on first use.
package lazy

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

const flightKey = "init"

// Value holds a T built by an init function. Concurrent first callers share a
// single construction. Reads after a successful construction are lock-free.
// A failed construction is not cached, so the next caller retries.
type Value[T any] struct {
	init  func(ctx context.Context) (T, error)
	value atomic.Pointer[T]
	group singleflight.Group
}

func New[T any](init func(ctx context.Context) (T, error)) *Value[T] {
	return &Value[T]{init: init}
}

// Get returns the constructed value, building it if needed.
func (v *Value[T]) Get(ctx context.Context) (T, error) {
	if p := v.value.Load(); p != nil {
		return *p, nil
	}

	res, err, _ := v.group.Do(flightKey, func() (any, error) {
		if p := v.value.Load(); p != nil {
			return *p, nil
		}

		// Construction outlives the caller that triggered it.
		built, err := v.init(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		v.value.Store(&built)
		return built, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}

	return res.(T), nil
}

// Peek returns the value only if it was already constructed.
func (v *Value[T]) Peek() (T, bool) {
	if p := v.value.Load(); p != nil {
		return *p, true
	}
	var zero T
	return zero, false
}
