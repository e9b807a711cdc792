// Package async tracks derived values that come from asynchronous requests.
//
// A Tracker starts a request whenever its dependency list changes. A request that
// has not settled when the dependencies change again is canceled: its Token is
// marked and its result is dropped, never published to the tracker state or the
// callbacks. The underlying call is not aborted; a request function may watch its
// Token to stop early.
//
//	t := async.NewTracker(async.Callbacks[*model.Insight]{
//		OnSuccess: func(ins *model.Insight) { ... },
//	})
//	t.Track(ctx, []any{widgetRef}, func(ctx context.Context, tok *async.Token) (*model.Insight, error) {
//		return b.GetInsight(ctx, widgetRef)
//	})
//	st, err := t.Await(ctx)
//
// The dependency list must keep its length between calls and hold comparable
// values only. Violations are programming errors and panic.
package async
