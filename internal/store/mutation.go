package store

import "github.com/dshills/dashflow/internal/model"

// Mutation changes a draft copy of the current state. Returning an error discards the
// draft.
type Mutation func(draft *State) error

// Chain returns a mutation running ms in order on the same draft. The first error
// aborts the chain.
func Chain(ms ...Mutation) Mutation {
	return func(draft *State) error {
		for _, m := range ms {
			if err := m(draft); err != nil {
				return err
			}
		}
		return nil
	}
}

// LoadDashboard returns a mutation making d the session's dashboard. A nil d loads an
// empty, never-persisted draft. The dashboard is cloned so the caller keeps ownership.
func LoadDashboard(d *model.Dashboard) Mutation {
	return func(draft *State) error {
		draft.Loading = Loading{Status: Loaded}
		if d == nil {
			draft.Meta = Meta{}
			draft.Layout = &model.Layout{}
			draft.FilterContext = FilterContext{}
			draft.Plugins = nil
			return nil
		}

		persisted := d.Clone()
		if !persisted.IsPersisted() {
			persisted = nil
		}
		draft.Meta = Meta{Persisted: persisted, Title: d.Title, Description: d.Description}

		draft.Layout = d.Layout.Clone(nil)
		if draft.Layout == nil {
			draft.Layout = &model.Layout{}
		}

		draft.FilterContext = FilterContext{}
		if d.FilterContext != nil {
			draft.FilterContext = FilterContext{
				Identity: model.FilterContextIdentity{Ref: d.FilterContext.Ref, Owner: d.Ref},
				Filters:  model.CloneFilters(d.FilterContext.Filters),
			}
		}
		draft.Plugins = model.ClonePlugins(d.Plugins)
		return nil
	}
}

// SetLoading returns a mutation setting the load status.
func SetLoading(status LoadingStatus, err error) Mutation {
	return func(draft *State) error {
		draft.Loading = Loading{Status: status, Err: err}
		return nil
	}
}

// Rebase returns a mutation installing saved, the backend's copy of the base snapshot.
// While the state is still at base it behaves like LoadDashboard. Once later edits have
// been applied they are kept: the persisted snapshot and the filter context identity
// come from saved, and widgets still carrying base identities take the identities the
// backend assigned. If the session has moved to another dashboard the state is left
// as is.
func Rebase(base *State, saved *model.Dashboard) Mutation {
	return func(draft *State) error {
		if draft.Version == base.Version {
			return LoadDashboard(saved)(draft)
		}
		if draft.DashboardRef() != base.DashboardRef() {
			return nil
		}

		draft.Meta.Persisted = saved.Clone()
		if saved.FilterContext != nil {
			draft.FilterContext.Identity = model.FilterContextIdentity{Ref: saved.FilterContext.Ref, Owner: saved.Ref}
		}
		draft.Layout = adoptIdentities(draft.Layout, base.Layout, saved.Layout)
		return nil
	}
}

// adoptIdentities pairs the widgets of sent and saved in layout order and gives every
// widget of l matching a sent identity the saved identity. Layouts the backend
// reshaped are left alone.
func adoptIdentities(l, sent, saved *model.Layout) *model.Layout {
	before, after := sent.Widgets(), saved.Widgets()
	if len(before) != len(after) {
		return l
	}
	assigned := make(map[model.ObjectIdentity]model.ObjectIdentity, len(before))
	for i, w := range before {
		if !w.ObjectIdentity.IsZero() && w.ObjectIdentity != after[i].ObjectIdentity {
			assigned[w.ObjectIdentity] = after[i].ObjectIdentity
		}
	}
	if len(assigned) == 0 {
		return l
	}

	type change struct {
		at model.Path
		w  *model.Widget
	}
	var changes []change
	l.Walk(func(w *model.Widget, p model.Path) bool {
		if id, ok := assigned[w.ObjectIdentity]; ok {
			changes = append(changes, change{at: p, w: w.WithIdentity(id)})
		}
		return true
	})
	for _, c := range changes {
		l = l.WithWidget(c.at, c.w)
	}
	return l
}
