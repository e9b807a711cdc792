package app

import (
	"context"

	"github.com/dshills/dashflow/internal/async"
	"github.com/dshills/dashflow/internal/model"
)

// InsightView resolves the insight behind the selected widget. Selecting another
// widget while a fetch is in flight marks it canceled. The fetch itself runs to
// completion but its result is never published.
type InsightView struct {
	session *Session
	tracker *async.Tracker[*model.Insight]
}

// NewInsightView creates a view over session. cb is notified of state transitions.
func NewInsightView(session *Session, cb async.Callbacks[*model.Insight]) *InsightView {
	return &InsightView{
		session: session,
		tracker: async.NewTracker(cb),
	}
}

// Select resolves the insight of the widget addressed by widgetRef. Widgets that are
// missing or not insight widgets leave the view pending.
func (v *InsightView) Select(ctx context.Context, widgetRef model.Ref) async.State[*model.Insight] {
	st := v.session.State()

	var insightRef model.Ref
	if d := st.Dashboard(); d != nil {
		if w, _, ok := d.Layout.FindWidget(widgetRef); ok && w.IsInsight() {
			insightRef = w.Insight
		}
	}
	if insightRef.IsZero() {
		return v.tracker.Track(ctx, []any{insightRef}, nil)
	}

	return v.tracker.Track(ctx, []any{insightRef}, func(ctx context.Context, _ *async.Token) (*model.Insight, error) {
		if cached := v.session.State().Insight(insightRef); cached != nil {
			return cached.Clone(), nil
		}
		return v.session.Backend().GetInsight(ctx, insightRef)
	})
}

// State returns the current resolution state.
func (v *InsightView) State() async.State[*model.Insight] {
	return v.tracker.State()
}

// Await waits for the current resolution to settle.
func (v *InsightView) Await(ctx context.Context) (async.State[*model.Insight], error) {
	return v.tracker.Await(ctx)
}

// Cancel abandons the current resolution.
func (v *InsightView) Cancel() {
	v.tracker.Cancel()
}
