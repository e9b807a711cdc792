// Package layout provides handlers for fluid layout commands.
package layout

import (
	"context"
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

// Namespace returns the layout handlers.
func Namespace() *handler.Namespace {
	ns := handler.NewNamespace("fluid_layout")
	ns.Register(command.TypeAddLayoutSection, handler.For(addSection))
	ns.Register(command.TypeRemoveLayoutSection, handler.For(removeSection))
	return ns
}

func addSection(ctx context.Context, cmd command.AddLayoutSection, hc *execctx.Context) (event.Payload, error) {
	st := hc.State()
	if count := st.Layout.SectionCount(); cmd.Index > count {
		return nil, handler.UserErrorf("section index %d out of range [-1, %d]", cmd.Index, count)
	}

	section := &model.Section{Header: cmd.Header}
	var fetched []*model.Insight
	for i, item := range cmd.Items {
		w, ins, err := newWidget(ctx, st, hc, item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		if ins != nil {
			fetched = append(fetched, ins)
		}
		section.Items = append(section.Items, &model.Item{
			Size:   model.ItemSize{GridWidth: item.GridWidth},
			Widget: w,
		})
	}

	index := cmd.Index
	_, err := hc.Apply(func(draft *store.State) error {
		if index < 0 || index > draft.Layout.SectionCount() {
			index = draft.Layout.SectionCount()
		}
		draft.Layout = draft.Layout.InsertSection(index, section)
		for _, ins := range fetched {
			draft.SetInsight(ins)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events.LayoutSectionAdded{Section: section, Index: index}, nil
}

// newWidget builds a widget with a temporary identity. The insight an insight
// widget renders is fetched unless it is cached; the fetched insight is returned.
func newWidget(ctx context.Context, st *store.State, hc *execctx.Context, item command.NewItem) (*model.Widget, *model.Insight, error) {
	w := &model.Widget{
		ObjectIdentity: model.NewTemporaryIdentity(),
		Type:           item.Type,
		Title:          item.Title,
		Properties:     model.CloneProperties(item.Properties),
	}

	switch item.Type {
	case model.WidgetKPI:
		if item.KPI == nil || item.KPI.Measure.IsZero() {
			return nil, nil, handler.UserErrorf("kpi widget requires a measure")
		}
		kpi := *item.KPI
		w.KPI = &kpi
		w.Properties = nil
		return w, nil, nil

	case model.WidgetInsight:
		if item.Insight.IsZero() {
			return nil, nil, handler.UserErrorf("insight widget requires an insight ref")
		}
		w.Insight = item.Insight
		ins := st.Insight(item.Insight)
		var fetched *model.Insight
		if ins == nil {
			if err := hc.RequireBackend(); err != nil {
				return nil, nil, err
			}
			var err error
			ins, err = hc.Backend.GetInsight(ctx, item.Insight)
			if backend.IsNotFound(err) {
				return nil, nil, handler.NewUserError(fmt.Sprintf("insight %s not found", item.Insight), err)
			}
			if err != nil {
				return nil, nil, err
			}
			fetched = ins
		}
		w.Insight = ins.Ref
		if w.Title == "" {
			w.Title = ins.Title
		}
		return w, fetched, nil

	default:
		return nil, nil, handler.UserErrorf("unknown widget type %q", item.Type)
	}
}

func removeSection(_ context.Context, cmd command.RemoveLayoutSection, hc *execctx.Context) (event.Payload, error) {
	var removed *model.Section
	_, err := hc.Apply(func(draft *store.State) error {
		if cmd.Index >= draft.Layout.SectionCount() {
			return handler.UserErrorf("section index %d out of range [0, %d)", cmd.Index, draft.Layout.SectionCount())
		}
		draft.Layout, removed = draft.Layout.RemoveSection(cmd.Index)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events.LayoutSectionRemoved{Section: removed, Index: cmd.Index}, nil
}
