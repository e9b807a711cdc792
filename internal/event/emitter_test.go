package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/dashflow/internal/event/topic"
)

type testPayload struct {
	typ topic.Topic
	n   int
}

func (p testPayload) EventType() topic.Topic { return p.typ }

func evt(typ topic.Topic, corr string, terminal bool) Event {
	return New(testPayload{typ: typ}, Metadata{CorrelationID: corr, Terminal: terminal})
}

func TestEmitter_EmitOrderAndDigest(t *testing.T) {
	em := NewEmitter()
	ctx := context.Background()

	em.Emit(ctx, evt("dash.evt.command.started", "c1", false))
	em.Emit(ctx, evt("dash.evt.saved", "c1", true))
	em.Emit(ctx, evt("dash.evt.renamed", "", true))

	assert.Equal(t, []DigestEntry{
		{Type: "dash.evt.command.started", CorrelationID: "c1"},
		{Type: "dash.evt.saved", CorrelationID: "c1"},
		{Type: "dash.evt.renamed"},
	}, em.Digest())
	assert.Len(t, em.Events(), 3)
	assert.Equal(t, "dashflow", em.Events()[0].Metadata.Source)
}

func TestEmitter_FillsMetadata(t *testing.T) {
	em := NewEmitter(WithSource("test"))

	got := em.Emit(context.Background(), Event{Payload: testPayload{typ: "a.b"}})

	assert.Equal(t, topic.Topic("a.b"), got.Type)
	assert.NotEmpty(t, got.Metadata.ID)
	assert.False(t, got.Metadata.Timestamp.IsZero())
	assert.Equal(t, "test", got.Metadata.Source)
}

func TestEmitter_SubscribersInOrder(t *testing.T) {
	em := NewEmitter()
	var got []string

	_, err := em.Subscribe("dash.evt.**", func(_ context.Context, e Event) error {
		got = append(got, "all:"+e.Type.Base())
		return nil
	})
	require.NoError(t, err)
	_, err = em.Subscribe("dash.evt.saved", func(_ context.Context, e Event) error {
		got = append(got, "saved")
		return nil
	})
	require.NoError(t, err)

	em.Emit(context.Background(), evt("dash.evt.saved", "", true))
	em.Emit(context.Background(), evt("dash.evt.renamed", "", true))

	assert.Equal(t, []string{"all:saved", "saved", "all:renamed"}, got)
}

func TestEmitter_SubscribeValidation(t *testing.T) {
	em := NewEmitter()

	_, err := em.Subscribe("", func(context.Context, Event) error { return nil })
	assert.ErrorIs(t, err, ErrInvalidTopic)

	_, err = em.Subscribe("a.b", nil)
	assert.ErrorIs(t, err, ErrNilHandler)

	assert.ErrorIs(t, em.Unsubscribe(nil), ErrSubscriptionNotFound)
}

func TestEmitter_ErrorAndPanicIsolation(t *testing.T) {
	em := NewEmitter()
	reached := false

	em.Subscribe("**", func(context.Context, Event) error { return errors.New("fail") })
	em.Subscribe("**", func(context.Context, Event) error { panic("boom") })
	em.Subscribe("**", func(context.Context, Event) error {
		reached = true
		return nil
	})

	em.Emit(context.Background(), evt("x.y", "", false))

	assert.True(t, reached)
	st := em.Stats()
	assert.Equal(t, uint64(1), st.HandlerErrors)
	assert.Equal(t, uint64(1), st.HandlerPanics)
	assert.Equal(t, uint64(1), st.Delivered)
	assert.Equal(t, uint64(1), st.Emitted)
}

func TestEmitter_OnceAndFilter(t *testing.T) {
	em := NewEmitter()
	onceCalls, filtered := 0, 0

	em.Subscribe("**", func(context.Context, Event) error {
		onceCalls++
		return nil
	}, WithOnce())
	em.Subscribe("**", func(context.Context, Event) error {
		filtered++
		return nil
	}, WithFilter(IsTerminal))

	em.Emit(context.Background(), evt("a.b", "", false))
	em.Emit(context.Background(), evt("a.b", "", true))

	assert.Equal(t, 1, onceCalls)
	assert.Equal(t, 1, filtered)
	assert.Equal(t, 1, em.Stats().Subscriptions)
}

func TestEmitter_PauseUnsubscribe(t *testing.T) {
	em := NewEmitter()
	calls := 0
	sub, err := em.Subscribe("**", func(context.Context, Event) error {
		calls++
		return nil
	})
	require.NoError(t, err)

	sub.Pause()
	em.Emit(context.Background(), evt("a", "", false))
	sub.Resume()
	em.Emit(context.Background(), evt("a", "", false))
	require.NoError(t, em.Unsubscribe(sub))
	em.Emit(context.Background(), evt("a", "", false))

	assert.Equal(t, 1, calls)
	assert.Equal(t, SubscriptionStateCancelled, sub.State())
	assert.ErrorIs(t, em.Unsubscribe(sub), ErrSubscriptionNotFound)
}

func TestEmitter_WaitForCorrelation(t *testing.T) {
	em := NewEmitter()
	ctx := context.Background()

	p := em.WaitFor("c2", IsTerminal)

	em.Emit(ctx, evt("dash.evt.saved", "c1", true))
	em.Emit(ctx, evt("dash.evt.command.started", "c2", false))
	select {
	case <-p.Done():
		t.Fatal("waiter resolved by a non-matching event")
	default:
	}

	em.Emit(ctx, evt("dash.evt.saved", "c2", true))
	em.Emit(ctx, evt("dash.evt.renamed", "c2", true))

	got, err := p.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, topic.Topic("dash.evt.saved"), got.Type)
	assert.Equal(t, "c2", got.Metadata.CorrelationID)
	assert.Equal(t, 0, em.Stats().PendingWaiters)
	assert.Equal(t, uint64(1), em.Stats().WaitersServed)
}

func TestEmitter_WaitForUncorrelated(t *testing.T) {
	em := NewEmitter()
	p := em.WaitFor("", OfType("dash.evt.renamed"))

	em.Emit(context.Background(), evt("dash.evt.saved", "x", true))
	em.Emit(context.Background(), evt("dash.evt.renamed", "y", true))

	got, err := p.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "y", got.Metadata.CorrelationID)
}

func TestPending_WaitBoundedByContext(t *testing.T) {
	em := NewEmitter()
	p := em.WaitFor("never", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, em.Stats().PendingWaiters)
}

func TestPending_Cancel(t *testing.T) {
	em := NewEmitter()
	p := em.WaitFor("c", nil)
	p.Cancel()
	p.Cancel()

	em.Emit(context.Background(), evt("a", "c", true))

	_, err := p.Wait(context.Background())
	assert.ErrorIs(t, err, ErrWaitCanceled)
	assert.Equal(t, uint64(0), em.Stats().WaitersServed)
}

func TestEmitter_WaitForFromOtherGoroutine(t *testing.T) {
	em := NewEmitter()
	p := em.WaitFor("c", IsTerminal)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		em.Emit(context.Background(), evt("a", "c", true))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := p.Wait(ctx)
	require.NoError(t, err)
	assert.True(t, got.Metadata.Terminal)
	wg.Wait()
}

func TestEmitter_EmitFromSubscriber(t *testing.T) {
	em := NewEmitter()
	ctx := context.Background()
	var seen []string

	_, err := em.Subscribe("dash.evt.renamed", func(ctx context.Context, e Event) error {
		seen = append(seen, "first:"+e.Type.Base())
		em.Emit(ctx, evt("dash.evt.saved", "c2", true))
		seen = append(seen, "first:done")
		return nil
	})
	require.NoError(t, err)
	_, err = em.Subscribe("dash.evt.*", func(_ context.Context, e Event) error {
		seen = append(seen, "second:"+e.Type.Base())
		return nil
	})
	require.NoError(t, err)

	p := em.WaitFor("c2", nil)
	done := make(chan struct{})
	go func() {
		defer close(done)
		em.Emit(ctx, evt("dash.evt.renamed", "c1", true))
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("nested emit blocked")
	}

	assert.Equal(t, []string{"first:renamed", "first:done", "second:renamed", "second:saved"}, seen)
	assert.Equal(t, []DigestEntry{
		{Type: "dash.evt.renamed", CorrelationID: "c1"},
		{Type: "dash.evt.saved", CorrelationID: "c2"},
	}, em.Digest())

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	got, err := p.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, topic.Topic("dash.evt.saved"), got.Type)
}

func TestEmitter_HistoryLimit(t *testing.T) {
	em := NewEmitter(WithHistoryLimit(2))
	for i := range 5 {
		em.Emit(context.Background(), New(testPayload{typ: "a", n: i}, Metadata{}))
	}

	evts := em.Events()
	require.Len(t, evts, 2)
	assert.Equal(t, 3, evts[0].Payload.(testPayload).n)
	assert.Equal(t, uint64(5), em.Stats().Emitted)
}

func TestPredicates(t *testing.T) {
	e := New(testPayload{typ: "dash.evt.saved"}, Metadata{CausationID: "cmd", Terminal: true})

	assert.True(t, OfType("dash.evt.*")(e))
	assert.False(t, OfType("dash.cmd.*")(e))
	assert.True(t, CausedBy("cmd")(e))
	assert.True(t, All(IsTerminal, CausedBy("cmd"))(e))
	assert.False(t, All(IsTerminal, CausedBy("other"))(e))
	assert.True(t, Any(CausedBy("other"), IsTerminal)(e))

	p, ok := PayloadAs[testPayload](e)
	assert.True(t, ok)
	assert.Equal(t, topic.Topic("dash.evt.saved"), p.typ)
}
