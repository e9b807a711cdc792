package event

import (
	"context"
	"sync"
)

// Pending is a single-resolution wait for an event.
type Pending struct {
	correlationID string
	match         Predicate

	once     sync.Once
	done     chan struct{}
	evt      Event
	canceled bool

	// release removes the waiter from its emitter's registry.
	release func(*Pending)
}

func newPending(correlationID string, match Predicate, release func(*Pending)) *Pending {
	return &Pending{
		correlationID: correlationID,
		match:         match,
		done:          make(chan struct{}),
		release:       release,
	}
}

// CorrelationID returns the correlation id the waiter is keyed by.
func (p *Pending) CorrelationID() string {
	return p.correlationID
}

// Done returns a channel closed once the waiter is resolved or canceled.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the waiter resolves, is canceled, or ctx is done. A done context
// also cancels the waiter.
func (p *Pending) Wait(ctx context.Context) (Event, error) {
	select {
	case <-p.done:
	case <-ctx.Done():
		p.Cancel()
		<-p.done
	}
	if p.canceled {
		if err := ctx.Err(); err != nil {
			return Event{}, err
		}
		return Event{}, ErrWaitCanceled
	}
	return p.evt, nil
}

// Cancel withdraws the waiter. Canceling a resolved waiter has no effect.
func (p *Pending) Cancel() {
	p.once.Do(func() {
		p.canceled = true
		close(p.done)
	})
	p.release(p)
}

// resolve completes the waiter with e. It returns false if the waiter was already
// resolved or canceled.
func (p *Pending) resolve(e Event) bool {
	resolved := false
	p.once.Do(func() {
		p.evt = e
		resolved = true
		close(p.done)
	})
	return resolved
}

// matches reports whether e satisfies the waiter.
func (p *Pending) matches(e Event) bool {
	if p.correlationID != "" && p.correlationID != e.Metadata.CorrelationID {
		return false
	}
	return p.match == nil || p.match(e)
}
