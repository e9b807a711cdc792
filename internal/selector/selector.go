package selector

import (
	"sync"

	"github.com/dshills/dashflow/internal/store"
)

// Selector computes a value from a state snapshot.
type Selector[T any] func(*store.State) T

// Create memoizes fn on the identity and version of the snapshot it was last called with.
func Create[T any](fn func(*store.State) T) Selector[T] {
	var (
		mu      sync.Mutex
		last    *store.State
		version uint64
		value   T
	)
	return func(s *store.State) T {
		if s == nil {
			var zero T
			return zero
		}
		mu.Lock()
		defer mu.Unlock()
		if last == s && version == s.Version {
			return value
		}
		value = fn(s)
		last, version = s, s.Version
		return value
	}
}

// Combine derives a value from the result of one input selector. fn runs again only
// when the input result changes.
func Combine[A comparable, T any](a Selector[A], fn func(A) T) Selector[T] {
	var (
		mu    sync.Mutex
		set   bool
		in    A
		value T
	)
	return func(s *store.State) T {
		av := a(s)
		mu.Lock()
		defer mu.Unlock()
		if set && av == in {
			return value
		}
		value = fn(av)
		in, set = av, true
		return value
	}
}

// Combine2 derives a value from the results of two input selectors. fn runs again
// only when either input result changes.
func Combine2[A, B comparable, T any](a Selector[A], b Selector[B], fn func(A, B) T) Selector[T] {
	var (
		mu    sync.Mutex
		set   bool
		inA   A
		inB   B
		value T
	)
	return func(s *store.State) T {
		av, bv := a(s), b(s)
		mu.Lock()
		defer mu.Unlock()
		if set && av == inA && bv == inB {
			return value
		}
		value = fn(av, bv)
		inA, inB, set = av, bv, true
		return value
	}
}

// Family returns a constructor that builds one selector per argument and hands out
// the same selector for equal arguments.
func Family[K comparable, T any](build func(K) Selector[T]) func(K) Selector[T] {
	var (
		mu    sync.Mutex
		cache = make(map[K]Selector[T])
	)
	return func(k K) Selector[T] {
		mu.Lock()
		defer mu.Unlock()
		if sel, ok := cache[k]; ok {
			return sel
		}
		sel := build(k)
		cache[k] = sel
		return sel
	}
}
