package store

import (
	"maps"

	"github.com/dshills/dashflow/internal/model"
)

// LoadingStatus is the lifecycle of the dashboard load.
type LoadingStatus uint8

const (
	// LoadingPending means no dashboard has been initialized yet.
	LoadingPending LoadingStatus = iota

	// LoadingInProgress means initialization is waiting on the backend.
	LoadingInProgress

	// Loaded means the session holds a renderable dashboard.
	Loaded

	// LoadingFailed means initialization failed; Loading.Err holds the cause.
	LoadingFailed
)

// String returns a human-readable status name.
func (s LoadingStatus) String() string {
	switch s {
	case LoadingPending:
		return "pending"
	case LoadingInProgress:
		return "loading"
	case Loaded:
		return "loaded"
	case LoadingFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Loading describes the load state.
type Loading struct {
	Status LoadingStatus
	Err    error
}

// Meta holds dashboard-level metadata.
type Meta struct {
	// Persisted is the dashboard as last loaded from or saved to the backend.
	// It is nil for drafts that were never persisted.
	Persisted *model.Dashboard

	Title       string
	Description string
}

// FilterContext is the in-memory filter context.
type FilterContext struct {
	Identity model.FilterContextIdentity
	Filters  []model.Filter
}

// State is an immutable snapshot of dashboard state.
type State struct {
	// Version increases by one on every successful Apply.
	Version uint64

	Loading       Loading
	Meta          Meta
	Layout        *model.Layout
	FilterContext FilterContext
	Plugins       []model.PluginLink

	// Insights caches insights referenced by insight widgets, keyed by primary ref.
	Insights map[model.Ref]*model.Insight
}

// IsLoaded returns true if a dashboard is loaded.
func (s *State) IsLoaded() bool {
	return s != nil && s.Loading.Status == Loaded
}

// DashboardRef returns the persisted dashboard ref, or the zero Ref for drafts.
func (s *State) DashboardRef() model.Ref {
	if s == nil || s.Meta.Persisted == nil {
		return model.Ref{}
	}
	return s.Meta.Persisted.Ref
}

// Insight looks up a cached insight by any form of its ref.
func (s *State) Insight(ref model.Ref) *model.Insight {
	if s == nil || ref.IsZero() {
		return nil
	}
	if ins, ok := s.Insights[ref]; ok {
		return ins
	}
	for _, ins := range s.Insights {
		if ins.Matches(ref) {
			return ins
		}
	}
	return nil
}

// SetInsight stores an insight in the draft cache, copying the map first.
func (s *State) SetInsight(ins *model.Insight) {
	next := make(map[model.Ref]*model.Insight, len(s.Insights)+1)
	maps.Copy(next, s.Insights)
	next[ins.Ref] = ins
	s.Insights = next
}

// Dashboard assembles the current in-memory dashboard. The result shares the layout
// with the snapshot and must be treated as read-only.
func (s *State) Dashboard() *model.Dashboard {
	d := &model.Dashboard{
		Title:       s.Meta.Title,
		Description: s.Meta.Description,
		Layout:      s.Layout,
		Plugins:     s.Plugins,
		FilterContext: &model.FilterContext{
			ObjectIdentity: model.ObjectIdentity{Ref: s.FilterContext.Identity.Ref},
			Filters:        s.FilterContext.Filters,
		},
	}
	if p := s.Meta.Persisted; p != nil {
		d.ObjectIdentity = p.ObjectIdentity
		d.Created, d.Updated = p.Created, p.Updated
		if p.FilterContext != nil && p.FilterContext.Ref == s.FilterContext.Identity.Ref {
			d.FilterContext.ObjectIdentity = p.FilterContext.ObjectIdentity
			d.FilterContext.Title = p.FilterContext.Title
		}
	}
	return d
}

// Empty returns the state of a fresh, unloaded session.
func Empty() *State {
	return &State{Layout: &model.Layout{}}
}
