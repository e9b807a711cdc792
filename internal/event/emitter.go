package event

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/dashflow/internal/event/topic"
)

// DigestEntry is one line of the emitted events digest.
type DigestEntry struct {
	Type          topic.Topic `json:"type"`
	CorrelationID string      `json:"correlationId,omitempty"`
}

// Stats reports emitter activity.
type Stats struct {
	Emitted        uint64 `json:"emitted"`
	Delivered      uint64 `json:"delivered"`
	HandlerErrors  uint64 `json:"handlerErrors"`
	HandlerPanics  uint64 `json:"handlerPanics"`
	WaitersServed  uint64 `json:"waitersServed"`
	Subscriptions  int    `json:"subscriptions"`
	PendingWaiters int    `json:"pendingWaiters"`
}

// queued is a logged event waiting for delivery.
type queued struct {
	ctx context.Context
	evt Event
}

// Emitter is the ordered event log and correlation tracker of one session.
type Emitter struct {
	config emitterConfig

	mu       sync.RWMutex
	subs     []*subscription
	log      []Event
	queue    []queued
	draining bool
	waiters  map[string][]*Pending
	nextSub  uint64

	emitted       atomic.Uint64
	delivered     atomic.Uint64
	handlerErrors atomic.Uint64
	handlerPanics atomic.Uint64
	waitersServed atomic.Uint64
}

// NewEmitter creates an emitter.
func NewEmitter(opts ...Option) *Emitter {
	config := defaultEmitterConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return &Emitter{
		config:  config,
		waiters: make(map[string][]*Pending),
	}
}

// Emit appends e to the log, notifies matching subscribers in subscription order and
// then resolves matching waiters. The emitted event is returned with its metadata
// filled in.
//
// Events are delivered one at a time in log order. An Emit made while another event
// is being delivered, including one made by a subscriber, only queues its event; the
// caller that started delivery drains the queue before returning.
func (em *Emitter) Emit(ctx context.Context, e Event) Event {
	if e.Type == "" && e.Payload != nil {
		e.Type = e.Payload.EventType()
	}
	if e.Metadata.ID == "" {
		e.Metadata.ID = uuid.NewString()
	}
	if e.Metadata.Timestamp.IsZero() {
		e.Metadata.Timestamp = time.Now()
	}
	if e.Metadata.Source == "" {
		e.Metadata.Source = em.config.source
	}

	em.mu.Lock()
	em.log = append(em.log, e)
	if limit := em.config.historyLimit; limit > 0 && len(em.log) > limit {
		em.log = slices.Delete(em.log, 0, len(em.log)-limit)
	}
	em.queue = append(em.queue, queued{ctx: ctx, evt: e})
	em.emitted.Add(1)
	if em.draining {
		em.mu.Unlock()
		return e
	}
	em.draining = true
	em.mu.Unlock()

	em.drain()
	return e
}

// drain delivers queued events until the queue is empty.
func (em *Emitter) drain() {
	defer func() {
		em.mu.Lock()
		em.draining = false
		em.mu.Unlock()
	}()

	for {
		em.mu.Lock()
		if len(em.queue) == 0 {
			em.queue = nil
			em.mu.Unlock()
			return
		}
		q := em.queue[0]
		em.queue = em.queue[1:]
		subs := slices.Clone(em.subs)
		em.mu.Unlock()

		em.notify(q.ctx, subs, q.evt)
		em.resolveWaiters(q.evt)
	}
}

func (em *Emitter) notify(ctx context.Context, subs []*subscription, e Event) {
	var spent []string
	for _, sub := range subs {
		if !sub.shouldDeliver(e) {
			continue
		}
		em.deliver(ctx, sub, e)
		if sub.config.Once {
			spent = append(spent, sub.id)
		}
	}
	for _, id := range spent {
		em.remove(id)
	}
}

func (em *Emitter) deliver(ctx context.Context, sub *subscription, e Event) {
	defer func() {
		if r := recover(); r != nil {
			em.handlerPanics.Add(1)
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			perr := &PanicError{SubscriptionID: sub.id, Topic: e.Type.String(), Value: r, Stack: string(buf[:n])}
			em.config.logger.Error().Err(perr).Str("subscription", sub.id).Msg("subscriber panicked")
		}
	}()

	if err := sub.handler(ctx, e); err != nil {
		em.handlerErrors.Add(1)
		herr := &HandlerError{SubscriptionID: sub.id, Topic: e.Type.String(), Err: err}
		em.config.logger.Warn().Err(herr).Str("subscription", sub.id).Msg("subscriber failed")
		return
	}
	em.delivered.Add(1)
}

// resolveWaiters resolves every waiter keyed by the event's correlation id, plus
// uncorrelated waiters, that the event satisfies.
func (em *Emitter) resolveWaiters(e Event) {
	em.mu.Lock()
	var hit []*Pending
	keys := []string{""}
	if id := e.Metadata.CorrelationID; id != "" {
		keys = append(keys, id)
	}
	for _, key := range keys {
		list := em.waiters[key]
		kept := list[:0]
		for _, p := range list {
			if p.matches(e) {
				hit = append(hit, p)
				continue
			}
			kept = append(kept, p)
		}
		if len(kept) == 0 {
			delete(em.waiters, key)
		} else {
			em.waiters[key] = kept
		}
	}
	em.mu.Unlock()

	for _, p := range hit {
		if p.resolve(e) {
			em.waitersServed.Add(1)
		}
	}
}

// Subscribe registers handler for events matching pattern.
func (em *Emitter) Subscribe(pattern topic.Topic, handler Handler, opts ...SubscriptionOption) (Subscription, error) {
	if !pattern.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTopic, pattern)
	}
	if handler == nil {
		return nil, ErrNilHandler
	}

	em.mu.Lock()
	defer em.mu.Unlock()
	em.nextSub++
	sub := newSubscription("sub-"+strconv.FormatUint(em.nextSub, 10), pattern, handler, opts...)
	em.subs = append(em.subs, sub)
	return sub, nil
}

// Unsubscribe cancels and removes a subscription.
func (em *Emitter) Unsubscribe(sub Subscription) error {
	if sub == nil {
		return ErrSubscriptionNotFound
	}
	if !em.remove(sub.ID()) {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (em *Emitter) remove(id string) bool {
	em.mu.Lock()
	defer em.mu.Unlock()
	for i, s := range em.subs {
		if s.id == id {
			s.cancel()
			em.subs = slices.Delete(slices.Clone(em.subs), i, i+1)
			return true
		}
	}
	return false
}

// WaitFor registers a waiter resolved by the first future event matching pred and,
// when correlationID is not empty, carrying that correlation id. A nil pred matches
// any event.
func (em *Emitter) WaitFor(correlationID string, pred Predicate) *Pending {
	p := newPending(correlationID, pred, em.release)
	em.mu.Lock()
	em.waiters[correlationID] = append(em.waiters[correlationID], p)
	em.mu.Unlock()
	return p
}

func (em *Emitter) release(p *Pending) {
	em.mu.Lock()
	defer em.mu.Unlock()
	list := em.waiters[p.correlationID]
	for i, w := range list {
		if w == p {
			list = slices.Delete(slices.Clone(list), i, i+1)
			break
		}
	}
	if len(list) == 0 {
		delete(em.waiters, p.correlationID)
	} else {
		em.waiters[p.correlationID] = list
	}
}

// Events returns a copy of the event log.
func (em *Emitter) Events() []Event {
	em.mu.RLock()
	defer em.mu.RUnlock()
	return slices.Clone(em.log)
}

// Digest returns the ordered type and correlation id of every logged event.
func (em *Emitter) Digest() []DigestEntry {
	em.mu.RLock()
	defer em.mu.RUnlock()
	out := make([]DigestEntry, len(em.log))
	for i, e := range em.log {
		out[i] = DigestEntry{Type: e.Type, CorrelationID: e.Metadata.CorrelationID}
	}
	return out
}

// Stats returns a snapshot of emitter counters.
func (em *Emitter) Stats() Stats {
	em.mu.RLock()
	subs := len(em.subs)
	waiters := 0
	for _, list := range em.waiters {
		waiters += len(list)
	}
	em.mu.RUnlock()

	return Stats{
		Emitted:        em.emitted.Load(),
		Delivered:      em.delivered.Load(),
		HandlerErrors:  em.handlerErrors.Load(),
		HandlerPanics:  em.handlerPanics.Load(),
		WaitersServed:  em.waitersServed.Load(),
		Subscriptions:  subs,
		PendingWaiters: waiters,
	}
}
