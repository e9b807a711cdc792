package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/dashflow/internal/model"
	"github.com/dshills/dashflow/internal/store"
)

func TestCreate_MemoizesPerSnapshot(t *testing.T) {
	calls := 0
	sel := Create(func(s *store.State) []string {
		calls++
		return []string{s.Meta.Title}
	})

	s := store.New()
	st := s.State()
	a := sel(st)
	b := sel(st)
	assert.Equal(t, 1, calls)
	assert.Same(t, &a[0], &b[0])

	next, err := s.Apply(func(d *store.State) error { return nil })
	require.NoError(t, err)
	sel(next)
	assert.Equal(t, 2, calls)
}

func TestCombine_SkipsUnchangedInputs(t *testing.T) {
	calls := 0
	titleLen := Combine(DashboardTitle, func(title string) int {
		calls++
		return len(title)
	})

	s := store.New()
	first, _ := s.Apply(func(d *store.State) error {
		d.Meta.Title = "abc"
		return nil
	})
	assert.Equal(t, 3, titleLen(first))

	second, _ := s.Apply(func(d *store.State) error {
		d.Meta.Description = "unrelated"
		return nil
	})
	assert.Equal(t, 3, titleLen(second))
	assert.Equal(t, 1, calls)
}

func TestCombine2(t *testing.T) {
	calls := 0
	sel := Combine2(DashboardTitle, IsLoaded, func(title string, loaded bool) string {
		calls++
		if !loaded {
			return ""
		}
		return title
	})

	s := store.New()
	st, _ := s.Apply(store.LoadDashboard(&model.Dashboard{Title: "T"}))
	assert.Equal(t, "T", sel(st))
	st, _ = s.Apply(func(d *store.State) error { return nil })
	assert.Equal(t, "T", sel(st))
	assert.Equal(t, 1, calls)
}

func TestFamily_SameArgumentSameSelector(t *testing.T) {
	builds := 0
	fam := Family(func(n int) Selector[int] {
		builds++
		return Create(func(*store.State) int { return n })
	})

	a := fam(1)
	b := fam(1)
	fam(2)

	assert.Equal(t, 2, builds)
	assert.Equal(t, a(store.Empty()), b(store.Empty()))
}

func TestSelectors_NilState(t *testing.T) {
	assert.False(t, IsLoaded(nil))
	assert.Equal(t, "", DashboardTitle(nil))
	assert.Nil(t, BasicLayout(nil))
	assert.Nil(t, Widgets(nil))
	assert.Nil(t, WidgetByRef(model.IdentifierRef("x"))(nil))
	assert.Nil(t, InsightByRef(model.IdentifierRef("x"))(nil))
	assert.True(t, IsNewDashboard(nil))
}

func loadedState(t *testing.T) *store.State {
	t.Helper()
	s := store.New()
	st, err := s.Apply(store.LoadDashboard(&model.Dashboard{
		ObjectIdentity: model.ObjectIdentity{Ref: model.IdentifierRef("dash"), Identifier: "dash"},
		Title:          "Dash",
		Layout: &model.Layout{Sections: []*model.Section{{Items: []*model.Item{
			{Widget: &model.Widget{
				ObjectIdentity: model.ObjectIdentity{Ref: model.IdentifierRef("kpi"), Identifier: "kpi", URI: "/obj/1"},
				Type:           model.WidgetKPI,
			}},
			{Widget: &model.Widget{
				ObjectIdentity: model.ObjectIdentity{Ref: model.URIRef("/obj/2"), Identifier: "table", URI: "/obj/2"},
				Type:           model.WidgetInsight,
				Properties:     map[string]any{},
			}},
		}}}},
		FilterContext: &model.FilterContext{ObjectIdentity: model.ObjectIdentity{Ref: model.IdentifierRef("fc")}},
	}))
	require.NoError(t, err)
	return st
}

func TestWidgetSelectors(t *testing.T) {
	st := loadedState(t)

	byID := WidgetByRef(model.IdentifierRef("table"))(st)
	byURI := WidgetByRef(model.URIRef("/obj/2"))(st)
	require.NotNil(t, byID)
	assert.Same(t, byID, byURI)

	assert.NotNil(t, AnalyticalWidgetByRef(model.IdentifierRef("kpi"))(st))
	assert.Nil(t, InsightWidgetByRef(model.IdentifierRef("kpi"))(st))
	assert.Same(t, byID, InsightWidgetByRef(model.URIRef("/obj/2"))(st))
	assert.Nil(t, WidgetByRef(model.IdentifierRef("nope"))(st))

	assert.Len(t, Widgets(st), 2)
	assert.Len(t, InsightWidgets(st), 1)
	assert.Equal(t, &model.Path{Section: 0, Item: 1}, WidgetPath(model.URIRef("/obj/2"))(st))
	assert.False(t, HasTemporaryWidgets(st))
	assert.False(t, IsWidgetTemporary(model.IdentifierRef("kpi"))(st))
}

func TestDashboardSelectors(t *testing.T) {
	st := loadedState(t)

	assert.True(t, IsLoaded(st))
	assert.Equal(t, store.Loaded, LoadingStatus(st))
	assert.Equal(t, "Dash", DashboardTitle(st))
	assert.Equal(t, model.IdentifierRef("dash"), DashboardRef(st))
	assert.False(t, IsNewDashboard(st))
	assert.Equal(t, model.FilterContextIdentity{Ref: model.IdentifierRef("fc"), Owner: model.IdentifierRef("dash")}, FilterContextIdentity(st))
	assert.Same(t, st.Meta.Persisted, PersistedDashboard(st))
}

func TestWidgets_StableAcrossUnrelatedChanges(t *testing.T) {
	s := store.New()
	st, _ := s.Apply(store.LoadDashboard(&model.Dashboard{
		Layout: &model.Layout{Sections: []*model.Section{{Items: []*model.Item{{Widget: &model.Widget{Type: model.WidgetKPI}}}}}},
	}))
	a := Widgets(st)

	st, _ = s.Apply(func(d *store.State) error {
		d.Meta.Title = "changed"
		return nil
	})
	b := Widgets(st)

	require.Len(t, b, 1)
	assert.Same(t, &a[0], &b[0])
}
