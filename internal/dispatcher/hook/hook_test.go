package hook

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/dashflow/internal/command"
	"github.com/dshills/dashflow/internal/dispatcher/execctx"
	"github.com/dshills/dashflow/internal/model"
	"github.com/dshills/dashflow/internal/store"
)

func TestManager_PriorityOrder(t *testing.T) {
	m := NewManager()
	var order []string
	pre := func(name string, prio int) *PreDispatchFunc {
		return NewPreDispatchFunc(name, prio, func(context.Context, command.Command, *execctx.Context) error {
			order = append(order, name)
			return nil
		})
	}
	m.RegisterPre(pre("low", 1))
	m.RegisterPre(pre("high", 100))
	m.RegisterPre(pre("mid", 50))

	name, err := m.RunPreDispatch(context.Background(), command.Save{}, execctx.New(command.Save{}))
	require.NoError(t, err)
	assert.Empty(t, name)
	assert.Equal(t, []string{"high", "mid", "low"}, order)
}

func TestManager_PostOrderAscending(t *testing.T) {
	m := NewManager()
	var order []string
	for _, h := range []struct {
		name string
		prio int
	}{{"audit", 1000}, {"user", 0}, {"plugin", 100}} {
		name := h.name
		m.RegisterPost(NewPostDispatchFunc(name, h.prio, func(context.Context, command.Command, *execctx.Context, Outcome) {
			order = append(order, name)
		}))
	}

	m.RunPostDispatch(context.Background(), command.Save{}, execctx.New(command.Save{}), Outcome{})
	assert.Equal(t, []string{"user", "plugin", "audit"}, order)
}

func TestManager_RejectStopsRun(t *testing.T) {
	m := NewManager()
	boom := errors.New("nope")
	ran := false
	m.RegisterPre(NewPreDispatchFunc("reject", 10, func(context.Context, command.Command, *execctx.Context) error { return boom }))
	m.RegisterPre(NewPreDispatchFunc("after", 1, func(context.Context, command.Command, *execctx.Context) error {
		ran = true
		return nil
	}))

	name, err := m.RunPreDispatch(context.Background(), command.Save{}, execctx.New(command.Save{}))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "reject", name)
	assert.False(t, ran)
}

func TestManager_RegisterReplacesByName(t *testing.T) {
	m := NewManager()
	var calls []string
	hook := func(tag string, prio int) *PreDispatchFunc {
		return NewPreDispatchFunc("check", prio, func(context.Context, command.Command, *execctx.Context) error {
			calls = append(calls, tag)
			return nil
		})
	}
	m.RegisterPre(hook("first", 1))
	m.RegisterPre(NewPreDispatchFunc("other", 5, func(context.Context, command.Command, *execctx.Context) error {
		calls = append(calls, "other")
		return nil
	}))
	m.RegisterPre(hook("second", 10))

	_, err := m.RunPreDispatch(context.Background(), command.Save{}, execctx.New(command.Save{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"second", "other"}, calls)
}

func TestLoadedHook(t *testing.T) {
	h := NewLoadedHook()
	s := store.New()
	hc := execctx.New(command.Save{}).WithStore(s)
	ctx := context.Background()

	assert.ErrorIs(t, h.PreDispatch(ctx, command.Save{}, hc), ErrNotLoaded)
	assert.NoError(t, h.PreDispatch(ctx, command.Initialize{}, hc))

	_, err := s.Apply(store.LoadDashboard(nil))
	require.NoError(t, err)
	assert.NoError(t, h.PreDispatch(ctx, command.Save{}, hc))
}

func TestStructValidationHook(t *testing.T) {
	h := NewStructValidationHook()
	ctx := context.Background()

	tests := []struct {
		name    string
		cmd     command.Command
		wantErr string
	}{
		{"valid rename", command.Rename{Title: "Sales"}, ""},
		{"empty rename", command.Rename{}, "Rename.Title failed required"},
		{"negative remove", command.RemoveLayoutSection{Index: -1}, "Index failed min=0"},
		{"append section", command.AddLayoutSection{Index: -1}, ""},
		{"bad index", command.AddLayoutSection{Index: -2}, "Index failed min=-1"},
		{"bad item width", command.AddLayoutSection{Index: 0, Items: []command.NewItem{{GridWidth: 13, Type: model.WidgetKPI}}}, "GridWidth failed max=12"},
		{"bad item type", command.AddLayoutSection{Index: 0, Items: []command.NewItem{{GridWidth: 6, Type: "chart"}}}, "Type failed oneof"},
		{"bad filter", command.ChangeFilterContext{Filters: []model.Filter{{Type: "range"}}}, "Type failed oneof"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.PreDispatch(ctx, tt.cmd, execctx.New(tt.cmd))
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidationHook(t *testing.T) {
	h := NewValidationHook("no-kpi", PriorityValidation, func(cmd command.Command, _ *execctx.Context) error {
		if c, ok := cmd.(command.ChangeWidgetHeader); ok && c.Title == "forbidden" {
			return errors.New("title not allowed")
		}
		return nil
	})

	ctx := context.Background()
	assert.Error(t, h.PreDispatch(ctx, command.ChangeWidgetHeader{Title: "forbidden"}, nil))
	assert.NoError(t, h.PreDispatch(ctx, command.ChangeWidgetHeader{Title: "fine"}, nil))
	assert.Equal(t, "no-kpi", h.Name())
}
