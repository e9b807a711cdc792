package selector

import (
	"github.com/dshills/dashflow/internal/model"
	"github.com/dshills/dashflow/internal/store"
)

// LoadingStatus selects the dashboard load status.
var LoadingStatus = Create(func(s *store.State) store.LoadingStatus {
	return s.Loading.Status
})

// IsLoaded selects whether a dashboard is loaded.
var IsLoaded = Combine(LoadingStatus, func(st store.LoadingStatus) bool {
	return st == store.Loaded
})

// DashboardTitle selects the in-memory dashboard title.
var DashboardTitle = Create(func(s *store.State) string {
	return s.Meta.Title
})

// DashboardDescription selects the in-memory dashboard description.
var DashboardDescription = Create(func(s *store.State) string {
	return s.Meta.Description
})

// PersistedDashboard selects the dashboard as last persisted, or nil for drafts.
var PersistedDashboard = Create(func(s *store.State) *model.Dashboard {
	return s.Meta.Persisted
})

// DashboardRef selects the ref of the persisted dashboard.
var DashboardRef = Combine(PersistedDashboard, func(d *model.Dashboard) model.Ref {
	if d == nil {
		return model.Ref{}
	}
	return d.Ref
})

// IsNewDashboard selects whether the dashboard was never persisted.
var IsNewDashboard = Combine(DashboardRef, func(ref model.Ref) bool {
	return ref.IsZero()
})

// FilterContextIdentity selects the identity marker of the in-memory filter context.
var FilterContextIdentity = Create(func(s *store.State) model.FilterContextIdentity {
	return s.FilterContext.Identity
})

// FilterContextFilters selects the in-memory filters.
var FilterContextFilters = Create(func(s *store.State) []model.Filter {
	return s.FilterContext.Filters
})

// Plugins selects the dashboard plugin links.
var Plugins = Create(func(s *store.State) []model.PluginLink {
	return s.Plugins
})

// InsightByRef selects a cached insight by either form of its ref.
var InsightByRef = Family(func(ref model.Ref) Selector[*model.Insight] {
	return Create(func(s *store.State) *model.Insight {
		return s.Insight(ref)
	})
})
