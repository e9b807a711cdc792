package async

import (
	"context"
	"fmt"
	"reflect"
	"sync"
)

// Status is the state of a tracked value.
type Status uint8

const (
	// StatusPending means no request function is set.
	StatusPending Status = iota

	// StatusLoading means a request is running.
	StatusLoading

	// StatusSuccess means the latest request returned a result.
	StatusSuccess

	// StatusError means the latest request failed.
	StatusError
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// State is a snapshot of a tracked value.
type State[T any] struct {
	Status Status
	Result T
	Err    error
}

// Callbacks observe a tracker. They run with the tracker locked and must not call
// back into it.
type Callbacks[T any] struct {
	// OnLoading fires when a request starts.
	OnLoading func()

	// OnPending fires when Track is called without a request function.
	OnPending func()

	// OnCancel fires when a request is canceled before it settled.
	OnCancel func()

	// OnSuccess fires when the current request returns a result.
	OnSuccess func(result T)

	// OnError fires when the current request fails.
	OnError func(err error)
}

// Func performs a request.
type Func[T any] func(ctx context.Context, tok *Token) (T, error)

type request struct {
	token   *Token
	settled chan struct{}
}

// Tracker holds the latest result of a request keyed by a dependency list.
type Tracker[T any] struct {
	mu        sync.Mutex
	callbacks Callbacks[T]

	deps    []any
	tracked bool
	state   State[T]
	current *request
}

// NewTracker creates a tracker in the pending state.
func NewTracker[T any](callbacks Callbacks[T]) *Tracker[T] {
	return &Tracker[T]{callbacks: callbacks}
}

// Track starts fn if deps differ from the previous call. The previous request, if
// still running, is canceled. A nil fn moves the tracker to pending. The state
// after the call is returned.
func (t *Tracker[T]) Track(ctx context.Context, deps []any, fn Func[T]) State[T] {
	for i, d := range deps {
		if d != nil && !reflect.TypeOf(d).Comparable() {
			panic(fmt.Sprintf("async: dependency %d of type %T is not comparable", i, d))
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.tracked {
		if len(deps) != len(t.deps) {
			panic(fmt.Sprintf("async: dependency list changed size between calls: previous %v, incoming %v", t.deps, deps))
		}
		if equalDeps(t.deps, deps) {
			return t.state
		}
	}
	t.tracked = true
	t.deps = append([]any(nil), deps...)

	t.cancelLocked()

	if fn == nil {
		t.state = State[T]{Status: StatusPending}
		call(t.callbacks.OnPending)
		return t.state
	}

	t.state = State[T]{Status: StatusLoading}
	call(t.callbacks.OnLoading)

	req := &request{token: newToken(), settled: make(chan struct{})}
	t.current = req
	go t.run(ctx, req, fn)
	return t.state
}

func (t *Tracker[T]) run(ctx context.Context, req *request, fn Func[T]) {
	result, err := fn(ctx, req.token)

	t.mu.Lock()
	defer t.mu.Unlock()
	defer close(req.settled)

	if req.token.Canceled() {
		return
	}
	t.current = nil
	if err != nil {
		t.state = State[T]{Status: StatusError, Err: err}
		if t.callbacks.OnError != nil {
			t.callbacks.OnError(err)
		}
		return
	}
	t.state = State[T]{Status: StatusSuccess, Result: result}
	if t.callbacks.OnSuccess != nil {
		t.callbacks.OnSuccess(result)
	}
}

// cancelLocked cancels the running request, if any.
func (t *Tracker[T]) cancelLocked() {
	if t.current == nil {
		return
	}
	t.current.token.cancel()
	t.current = nil
	call(t.callbacks.OnCancel)
}

// Cancel cancels the running request. The state stays loading until the next Track.
func (t *Tracker[T]) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
}

// State returns the current state.
func (t *Tracker[T]) State() State[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Await waits until the current request settles or ctx is done. If Track replaces
// the request meanwhile, Await follows the new one.
func (t *Tracker[T]) Await(ctx context.Context) (State[T], error) {
	for {
		t.mu.Lock()
		req := t.current
		st := t.state
		t.mu.Unlock()

		if req == nil {
			return st, nil
		}
		select {
		case <-req.settled:
		case <-req.token.Done():
		case <-ctx.Done():
			return t.State(), ctx.Err()
		}
	}
}

func equalDeps(a, b []any) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
