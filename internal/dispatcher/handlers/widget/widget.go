// Package widget provides handlers for widget commands.
package widget

import (
	"context"

	"github.com/dshills/dashflow/internal/command"
	"github.com/dshills/dashflow/internal/dispatcher/execctx"
	"github.com/dshills/dashflow/internal/dispatcher/handler"
	"github.com/dshills/dashflow/internal/event"
	"github.com/dshills/dashflow/internal/event/events"
	"github.com/dshills/dashflow/internal/model"
	"github.com/dshills/dashflow/internal/store"
)

// Namespace returns the widget handlers.
func Namespace() *handler.Namespace {
	ns := handler.NewNamespace("widget")
	ns.Register(command.TypeChangeInsightProperties, handler.For(changeInsightProperties))
	ns.Register(command.TypeChangeWidgetHeader, handler.For(changeHeader))
	return ns
}

// update replaces the widget addressed by ref with the result of fn. A missing
// widget or an error from fn aborts the mutation.
func update(hc *execctx.Context, ref model.Ref, fn func(w *model.Widget) (*model.Widget, error)) (*model.Widget, error) {
	var updated *model.Widget
	_, err := hc.Apply(func(draft *store.State) error {
		w, path, ok := draft.Layout.FindWidget(ref)
		if !ok {
			return handler.UserErrorf("widget %s not found", ref)
		}
		next, err := fn(w)
		if err != nil {
			return err
		}
		draft.Layout = draft.Layout.WithWidget(path, next)
		updated = next
		return nil
	})
	return updated, err
}

func changeInsightProperties(_ context.Context, cmd command.ChangeInsightProperties, hc *execctx.Context) (event.Payload, error) {
	w, err := update(hc, cmd.Ref, func(w *model.Widget) (*model.Widget, error) {
		if !w.IsInsight() {
			return nil, handler.UserErrorf("widget %s is a %s widget and has no visualization properties", cmd.Ref, w.Type)
		}
		return w.WithProperties(cmd.Properties), nil
	})
	if err != nil {
		return nil, err
	}
	return events.InsightWidgetVisPropertiesChanged{
		Ref:        w.Ref,
		Properties: model.CloneProperties(w.Properties),
	}, nil
}

func changeHeader(_ context.Context, cmd command.ChangeWidgetHeader, hc *execctx.Context) (event.Payload, error) {
	w, err := update(hc, cmd.Ref, func(w *model.Widget) (*model.Widget, error) {
		return w.WithTitle(cmd.Title), nil
	})
	if err != nil {
		return nil, err
	}
	return events.WidgetHeaderChanged{Ref: w.Ref, Title: w.Title}, nil
}
