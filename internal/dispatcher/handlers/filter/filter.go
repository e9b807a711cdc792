// Package filter provides the filter context handler.
package filter

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

// Namespace returns the filter context handlers.
func Namespace() *handler.Namespace {
	ns := handler.NewNamespace("filter_context")
	ns.Register(command.TypeChangeFilterContext, handler.For(change))
	return ns
}

// change replaces the in-memory filters. The filter context identity is kept.
func change(_ context.Context, cmd command.ChangeFilterContext, hc *execctx.Context) (event.Payload, error) {
	filters := model.CloneFilters(cmd.Filters)
	if filters == nil {
		filters = []model.Filter{}
	}
	_, err := hc.Apply(func(draft *store.State) error {
		draft.FilterContext.Filters = filters
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events.FilterContextChanged{Filters: model.CloneFilters(filters)}, nil
}
