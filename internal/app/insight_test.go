package app_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/dashflow/internal/app"
	"github.com/dshills/dashflow/internal/async"
	"github.com/dshills/dashflow/internal/backend/memory"
	"github.com/dshills/dashflow/internal/command"
	"github.com/dshills/dashflow/internal/dashtest"
	"github.com/dshills/dashflow/internal/event/events"
	"github.com/dshills/dashflow/internal/model"
)

type counters struct {
	loading, pending, cancel, success, failure atomic.Int32
}

func (c *counters) callbacks() async.Callbacks[*model.Insight] {
	return async.Callbacks[*model.Insight]{
		OnLoading: func() { c.loading.Add(1) },
		OnPending: func() { c.pending.Add(1) },
		OnCancel:  func() { c.cancel.Add(1) },
		OnSuccess: func(*model.Insight) { c.success.Add(1) },
		OnError:   func(error) { c.failure.Add(1) },
	}
}

func TestInsightView_ResolvesCachedInsight(t *testing.T) {
	tester := dashtest.Preloaded(t, dashtest.ComplexDashboardID)
	var c counters
	view := app.NewInsightView(tester.Session(), c.callbacks())

	st := view.Select(t.Context(), model.URIRef(dashtest.RevenueTableURI))
	assert.Equal(t, async.StatusLoading, st.Status)

	st, err := view.Await(t.Context())
	require.NoError(t, err)
	require.Equal(t, async.StatusSuccess, st.Status)
	assert.Equal(t, model.IdentifierRef(dashtest.TableInsightID), st.Result.Ref)
	assert.Equal(t, int32(1), c.success.Load())

	calls := len(tester.Backend().Calls())
	again := view.Select(t.Context(), model.IdentifierRef(dashtest.RevenueTableID))
	assert.Equal(t, async.StatusSuccess, again.Status, "same insight is not fetched again")
	assert.Equal(t, int32(1), c.loading.Load())
	assert.Len(t, tester.Backend().Calls(), calls)
}

func TestInsightView_NonInsightWidgetsArePending(t *testing.T) {
	tester := dashtest.Preloaded(t, dashtest.ComplexDashboardID)
	var c counters
	view := app.NewInsightView(tester.Session(), c.callbacks())

	st := view.Select(t.Context(), model.IdentifierRef(dashtest.RevenueKPIID))
	assert.Equal(t, async.StatusPending, st.Status)
	assert.Equal(t, int32(1), c.pending.Load())

	view.Select(t.Context(), model.IdentifierRef(dashtest.RevenueTableID))
	_, err := view.Await(t.Context())
	require.NoError(t, err)

	st = view.Select(t.Context(), model.IdentifierRef("missing"))
	assert.Equal(t, async.StatusPending, st.Status)
}

// seedLateInsight stores a dashboard whose insight is only added to the backend
// after the dashboard was initialized, so the view has to fetch it.
func seedLateInsight(t *testing.T, tester *dashtest.Tester) {
	t.Helper()
	b := tester.Backend()
	b.Seed([]*model.Dashboard{{
		ObjectIdentity: model.ObjectIdentity{Ref: model.IdentifierRef("late"), Identifier: "late"},
		Title:          "Late",
		Layout: &model.Layout{Sections: []*model.Section{{Items: []*model.Item{
			{Size: model.ItemSize{GridWidth: 6}, Widget: &model.Widget{
				ObjectIdentity: model.ObjectIdentity{Ref: model.IdentifierRef("late-widget"), Identifier: "late-widget"},
				Type:           model.WidgetInsight,
				Insight:        model.IdentifierRef("late-insight"),
			}},
			{Size: model.ItemSize{GridWidth: 6}, Widget: &model.Widget{
				ObjectIdentity: model.ObjectIdentity{Ref: model.IdentifierRef("late-kpi"), Identifier: "late-kpi"},
				Type:           model.WidgetKPI,
				KPI:            &model.KPI{Measure: model.IdentifierRef("measure-revenue")},
			}},
		}}}},
	}}, nil)

	tester.DispatchAndWaitFor(command.Initialize{Ref: model.IdentifierRef("late")}, events.TopicDashboardInitialized)
	require.Nil(t, tester.State().Insight(model.IdentifierRef("late-insight")))

	b.Seed(nil, []*model.Insight{{
		ObjectIdentity: model.ObjectIdentity{Ref: model.IdentifierRef("late-insight"), Identifier: "late-insight"},
		Title:          "Late insight",
	}})
}

func TestInsightView_FetchesFromBackend(t *testing.T) {
	tester := dashtest.New(t)
	seedLateInsight(t, tester)
	view := app.NewInsightView(tester.Session(), async.Callbacks[*model.Insight]{})

	view.Select(t.Context(), model.IdentifierRef("late-widget"))
	st, err := view.Await(t.Context())
	require.NoError(t, err)
	require.Equal(t, async.StatusSuccess, st.Status)
	assert.Equal(t, "Late insight", st.Result.Title)
}

func TestInsightView_StaleResultIsDropped(t *testing.T) {
	tester := dashtest.New(t)
	seedLateInsight(t, tester)
	release := tester.Backend().Block(memory.OpGetInsight)
	t.Cleanup(release)

	var c counters
	view := app.NewInsightView(tester.Session(), c.callbacks())

	st := view.Select(t.Context(), model.IdentifierRef("late-widget"))
	require.Equal(t, async.StatusLoading, st.Status)

	st = view.Select(t.Context(), model.IdentifierRef("late-kpi"))
	assert.Equal(t, async.StatusPending, st.Status)
	assert.Equal(t, int32(1), c.cancel.Load())

	assert.Never(t, func() bool {
		return len(tester.Backend().Aborted()) > 0
	}, 50*time.Millisecond, 5*time.Millisecond, "the stale fetch keeps running")

	release()
	assert.Never(t, func() bool {
		return c.success.Load() > 0 || c.failure.Load() > 0
	}, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, async.StatusPending, view.State().Status)
	assert.Empty(t, tester.Backend().Aborted())
}

func TestInsightView_BackendError(t *testing.T) {
	tester := dashtest.New(t)
	seedLateInsight(t, tester)
	tester.Backend().FailNext(memory.OpGetInsight, context.DeadlineExceeded)

	var c counters
	view := app.NewInsightView(tester.Session(), c.callbacks())
	view.Select(t.Context(), model.IdentifierRef("late-widget"))

	st, err := view.Await(t.Context())
	require.NoError(t, err)
	assert.Equal(t, async.StatusError, st.Status)
	assert.ErrorIs(t, st.Err, context.DeadlineExceeded)
	assert.Equal(t, int32(1), c.failure.Load())
}
