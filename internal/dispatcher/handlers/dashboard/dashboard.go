package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/dashflow/internal/backend"
	"github.com/dshills/dashflow/internal/command"
	"github.com/dshills/dashflow/internal/dispatcher/execctx"
	"github.com/dshills/dashflow/internal/dispatcher/handler"
	"github.com/dshills/dashflow/internal/event"
	"github.com/dshills/dashflow/internal/event/events"
	"github.com/dshills/dashflow/internal/model"
	"github.com/dshills/dashflow/internal/store"
)

// ErrTemporaryIdentity is returned when the backend hands back a placeholder identity.
var ErrTemporaryIdentity = errors.New("backend returned a temporary widget identity")

// Namespace returns the dashboard handlers.
func Namespace() *handler.Namespace {
	ns := handler.NewNamespace("dashboard")
	ns.Register(command.TypeInitialize, handler.For(initialize))
	ns.Register(command.TypeSave, handler.For(save))
	ns.Register(command.TypeSaveAs, handler.For(saveAs))
	ns.Register(command.TypeRename, handler.For(rename))
	ns.Register(command.TypeReset, handler.For(reset))
	ns.Register(command.TypeDelete, handler.For(deleteDashboard))
	return ns
}

func initialize(ctx context.Context, cmd command.Initialize, hc *execctx.Context) (event.Payload, error) {
	if err := hc.RequireBackend(); err != nil {
		return nil, err
	}
	if _, err := hc.Apply(store.SetLoading(store.LoadingInProgress, nil)); err != nil {
		return nil, err
	}

	d, insights, err := load(ctx, cmd.Ref, hc)
	if err != nil {
		_, _ = hc.Apply(store.SetLoading(store.LoadingFailed, err))
		return nil, err
	}

	next, err := hc.Apply(store.Chain(store.LoadDashboard(d), cacheInsights(insights)))
	if err != nil {
		return nil, err
	}
	return events.DashboardInitialized{Dashboard: next.Dashboard().Clone()}, nil
}

// load authenticates and fetches the dashboard with the insights its widgets
// render. A zero ref loads nothing.
func load(ctx context.Context, ref model.Ref, hc *execctx.Context) (*model.Dashboard, []*model.Insight, error) {
	if err := hc.Backend.Authenticate(ctx, false); err != nil {
		return nil, nil, fmt.Errorf("initialize: %w", err)
	}
	if ref.IsZero() {
		return nil, nil, nil
	}

	d, err := hc.Backend.GetDashboard(ctx, ref)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize: %w", err)
	}

	var insights []*model.Insight
	seen := make(map[model.Ref]bool)
	for _, w := range d.Layout.Widgets() {
		if !w.IsInsight() || w.Insight.IsZero() || seen[w.Insight] {
			continue
		}
		seen[w.Insight] = true
		ins, err := hc.Backend.GetInsight(ctx, w.Insight)
		if backend.IsNotFound(err) {
			hc.Logger.Warn().Str("insight", w.Insight.String()).Msg("widget references a missing insight")
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("initialize: %w", err)
		}
		insights = append(insights, ins)
	}
	return d, insights, nil
}

func cacheInsights(insights []*model.Insight) store.Mutation {
	return func(draft *store.State) error {
		for _, ins := range insights {
			draft.SetInsight(ins.Clone())
		}
		return nil
	}
}

// definition builds the backend definition of the in-memory dashboard.
func definition(st *store.State) model.DashboardDefinition {
	def := model.DashboardDefinition{
		Title:       st.Meta.Title,
		Description: st.Meta.Description,
		Layout:      st.Layout.Clone(nil),
		FilterContext: model.FilterContextDefinition{
			Ref:     st.FilterContext.Identity.Ref,
			Filters: model.CloneFilters(st.FilterContext.Filters),
		},
		Plugins: model.ClonePlugins(st.Plugins),
	}
	if def.FilterContext.Filters == nil {
		def.FilterContext.Filters = []model.Filter{}
	}
	if p := st.Meta.Persisted; p != nil {
		def.Identity = p.ObjectIdentity
	}
	return def
}

func save(ctx context.Context, _ command.Save, hc *execctx.Context) (event.Payload, error) {
	if err := hc.RequireBackend(); err != nil {
		return nil, err
	}
	st := hc.State()
	def := definition(st)

	var (
		saved *model.Dashboard
		err   error
	)
	created := st.Meta.Persisted == nil
	if created {
		saved, err = hc.Backend.CreateDashboard(ctx, def)
	} else {
		saved, err = hc.Backend.UpdateDashboard(ctx, st.Meta.Persisted.Ref, def)
	}
	if err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}
	if err := checkPermanent(saved); err != nil {
		return nil, fmt.Errorf("save: %w", err)
	}

	if _, err := hc.Apply(store.Rebase(st, saved)); err != nil {
		return nil, err
	}
	return events.DashboardSaved{Dashboard: saved, NewDashboard: created}, nil
}

func checkPermanent(d *model.Dashboard) error {
	if !d.IsPersisted() {
		return errors.New("backend returned a dashboard without identity")
	}
	var bad *model.Widget
	d.Layout.Walk(func(w *model.Widget, _ model.Path) bool {
		if w.IsZero() || model.IsTemporaryIdentity(w.ObjectIdentity) {
			bad = w
			return false
		}
		return true
	})
	if bad != nil {
		return fmt.Errorf("%w: %q", ErrTemporaryIdentity, bad.Identifier)
	}
	return nil
}

func saveAs(ctx context.Context, cmd command.SaveAs, hc *execctx.Context) (event.Payload, error) {
	if err := hc.RequireBackend(); err != nil {
		return nil, err
	}
	st := hc.State()

	def := definition(st)
	def.Identity = model.ObjectIdentity{}
	def.Layout = st.Layout.Clone(model.StripAll)
	if cmd.Title != "" {
		def.Title = cmd.Title
	}

	orig := st.Meta.Persisted
	if cmd.UseOriginalFilterContext && orig != nil && orig.FilterContext != nil && !orig.FilterContext.Ref.IsZero() {
		def.FilterContext = model.FilterContextDefinition{Ref: orig.FilterContext.Ref}
	} else {
		def.FilterContext.Ref = model.Ref{}
	}

	copied, err := hc.Backend.CreateDashboard(ctx, def)
	if err != nil {
		return nil, fmt.Errorf("save as: %w", err)
	}
	if err := checkPermanent(copied); err != nil {
		return nil, fmt.Errorf("save as: %w", err)
	}
	if orig != nil && copied.Ref == orig.Ref {
		return nil, fmt.Errorf("save as: backend reused source ref %s", orig.Ref)
	}

	if cmd.SwitchToCopy {
		if _, err := hc.Apply(store.Rebase(st, copied)); err != nil {
			return nil, err
		}
	}
	return events.DashboardCopySaved{Dashboard: copied}, nil
}

func rename(_ context.Context, cmd command.Rename, hc *execctx.Context) (event.Payload, error) {
	_, err := hc.Apply(func(draft *store.State) error {
		draft.Meta.Title = cmd.Title
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events.DashboardRenamed{Title: cmd.Title}, nil
}

func reset(_ context.Context, _ command.Reset, hc *execctx.Context) (event.Payload, error) {
	next, err := hc.Apply(func(draft *store.State) error {
		return store.LoadDashboard(draft.Meta.Persisted)(draft)
	})
	if err != nil {
		return nil, err
	}
	return events.DashboardReset{Dashboard: next.Dashboard().Clone()}, nil
}

func deleteDashboard(ctx context.Context, _ command.Delete, hc *execctx.Context) (event.Payload, error) {
	if err := hc.RequireBackend(); err != nil {
		return nil, err
	}
	ref := hc.State().DashboardRef()
	if ref.IsZero() {
		return nil, handler.UserErrorf("dashboard was never saved")
	}
	if err := hc.Backend.DeleteDashboard(ctx, ref); err != nil {
		if backend.IsNotFound(err) {
			return nil, handler.NewUserError("dashboard no longer exists", err)
		}
		return nil, fmt.Errorf("delete: %w", err)
	}
	if _, err := hc.Apply(store.LoadDashboard(nil)); err != nil {
		return nil, err
	}
	return events.DashboardDeleted{Ref: ref}, nil
}
