package layout_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/dashflow/internal/backend/memory"
	"github.com/dshills/dashflow/internal/command"
	"github.com/dshills/dashflow/internal/dashtest"
	"github.com/dshills/dashflow/internal/event/events"
	"github.com/dshills/dashflow/internal/model"
	"github.com/dshills/dashflow/internal/selector"
)

func TestAddSection(t *testing.T) {
	tests := []struct {
		name      string
		index     int
		wantIndex int
	}{
		{"first", 0, 0},
		{"between", 1, 1},
		{"append at count", 2, 2},
		{"append with -1", -1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tester := dashtest.Preloaded(t, dashtest.ComplexDashboardID)

			added := dashtest.Payload[events.LayoutSectionAdded](t, tester.DispatchAndWaitFor(
				command.AddLayoutSection{
					Index:  tt.index,
					Header: model.SectionHeader{Title: "Added"},
					Items:  []command.NewItem{dashtest.InsightItem(), dashtest.KPIItem()},
				},
				events.TopicLayoutSectionAdded,
			))
			assert.Equal(t, tt.wantIndex, added.Index)
			require.Len(t, added.Section.Items, 2)

			layout := selector.BasicLayout(tester.State())
			require.Equal(t, 3, layout.SectionCount())
			section := layout.Sections[tt.wantIndex]
			assert.Equal(t, "Added", section.Header.Title)

			ins := section.Items[0].Widget
			assert.True(t, model.IsTemporaryIdentity(ins.ObjectIdentity))
			assert.Equal(t, "Revenue by region", ins.Title, "insight title is the default header")
			assert.Equal(t, 6, section.Items[0].Size.GridWidth)
			assert.True(t, selector.IsWidgetTemporary(ins.Ref)(tester.State()))

			assert.True(t, section.Items[1].Widget.IsKPI())
			assert.True(t, selector.HasTemporaryWidgets(tester.State()))
		})
	}
}

func TestAddSection_FetchesUncachedInsight(t *testing.T) {
	tester := dashtest.Preloaded(t, dashtest.SimpleDashboardID)
	chart := model.IdentifierRef(dashtest.ChartInsightID)
	require.Nil(t, selector.InsightByRef(chart)(tester.State()))

	tester.DispatchAndWaitFor(command.AddLayoutSection{
		Index: -1,
		Items: []command.NewItem{{Type: model.WidgetInsight, Insight: chart, GridWidth: 12}},
	}, events.TopicLayoutSectionAdded)

	ins := selector.InsightByRef(chart)(tester.State())
	require.NotNil(t, ins)
	assert.Equal(t, "Revenue trend", ins.Title)
	assert.Contains(t, tester.Backend().Calls(), memory.OpGetInsight)
}

func TestAddSection_Failures(t *testing.T) {
	tests := []struct {
		name string
		cmd  command.AddLayoutSection
	}{
		{"index out of range", command.AddLayoutSection{Index: 5}},
		{"missing insight", command.AddLayoutSection{Index: 0, Items: []command.NewItem{
			{Type: model.WidgetInsight, Insight: model.IdentifierRef("missing")},
		}}},
		{"insight without ref", command.AddLayoutSection{Index: 0, Items: []command.NewItem{
			{Type: model.WidgetInsight},
		}}},
		{"kpi without measure", command.AddLayoutSection{Index: 0, Items: []command.NewItem{
			{Type: model.WidgetKPI},
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tester := dashtest.Preloaded(t, dashtest.ComplexDashboardID)

			e := tester.DispatchAndWaitFor(command.Correlate(tt.cmd, dashtest.TestCorrelation), events.TopicCommandFailed)
			failed := dashtest.Payload[events.CommandFailed](t, e)
			assert.Equal(t, events.ReasonUserError, failed.Reason)
			assert.Equal(t, dashtest.TestCorrelation, e.Metadata.CorrelationID)
			assert.Equal(t, 2, selector.BasicLayout(tester.State()).SectionCount())
		})
	}
}

func TestRemoveSection(t *testing.T) {
	tester := dashtest.Preloaded(t, dashtest.ComplexDashboardID)

	removed := dashtest.Payload[events.LayoutSectionRemoved](t,
		tester.DispatchAndWaitFor(command.RemoveLayoutSection{Index: 0}, events.TopicLayoutSectionRemoved))
	assert.Equal(t, 0, removed.Index)
	assert.Equal(t, "Key figures", removed.Section.Header.Title)

	layout := selector.BasicLayout(tester.State())
	require.Equal(t, 1, layout.SectionCount())
	assert.Equal(t, "Details", layout.Sections[0].Header.Title)
	assert.Nil(t, selector.WidgetByRef(model.IdentifierRef(dashtest.RevenueKPIID))(tester.State()))
}

func TestRemoveSection_OutOfRange(t *testing.T) {
	tester := dashtest.Preloaded(t, dashtest.SimpleDashboardID)

	failed := dashtest.Payload[events.CommandFailed](t,
		tester.DispatchAndWaitFor(command.RemoveLayoutSection{Index: 1}, events.TopicCommandFailed))
	assert.Equal(t, events.ReasonUserError, failed.Reason)
}
