package app_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/dashflow/internal/app"
	"github.com/dshills/dashflow/internal/backend/memory"
	"github.com/dshills/dashflow/internal/command"
	"github.com/dshills/dashflow/internal/dispatcher"
	"github.com/dshills/dashflow/internal/event"
	"github.com/dshills/dashflow/internal/event/events"
	"github.com/dshills/dashflow/internal/model"
)

func newSession(t *testing.T, opts app.Options) *app.Session {
	t.Helper()
	if opts.Backend == nil {
		opts.Backend = memory.New()
	}
	if opts.Dispatcher == (dispatcher.Config{}) {
		opts.Dispatcher = dispatcher.DefaultConfig()
	}
	s, err := app.NewSession(opts)
	require.NoError(t, err)
	return s
}

func TestNewSession_RequiresBackend(t *testing.T) {
	_, err := app.NewSession(app.Options{})
	assert.ErrorIs(t, err, app.ErrMissingBackend)
}

func TestSession_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, app.Options{})

	_, err := s.Dispatch(ctx, command.Initialize{})
	assert.ErrorIs(t, err, app.ErrNotRunning)
	_, err = s.DispatchAndWait(ctx, command.Initialize{})
	assert.ErrorIs(t, err, app.ErrNotRunning)

	require.NoError(t, s.Start(ctx))
	assert.ErrorIs(t, s.Start(ctx), app.ErrAlreadyRunning)

	e, err := s.DispatchAndWait(ctx, command.Initialize{})
	require.NoError(t, err)
	assert.Equal(t, events.TopicDashboardInitialized, e.Type)
	assert.True(t, s.State().IsLoaded())

	require.NoError(t, s.Close(ctx))
	require.NoError(t, s.Close(ctx), "close is idempotent")
	assert.ErrorIs(t, s.Start(ctx), app.ErrNotRunning)

	_, err = s.Dispatch(ctx, command.Save{})
	assert.ErrorIs(t, err, app.ErrNotRunning)
}

func TestSession_MetricsAndStats(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, app.Options{})
	require.NoError(t, s.Start(ctx))
	t.Cleanup(func() { _ = s.Close(ctx) })

	_, err := s.DispatchAndWait(ctx, command.Initialize{})
	require.NoError(t, err)
	_, err = s.DispatchAndWait(ctx, command.Delete{})
	require.NoError(t, err)

	m := s.Metrics()
	assert.Equal(t, uint64(2), m.TotalDispatches)
	assert.Equal(t, uint64(1), m.TotalFailures)

	stats := s.EventStats()
	assert.Equal(t, uint64(4), stats.Emitted, "started and terminal event per command")
	assert.Len(t, s.Digest(), 4)
	assert.Len(t, s.Events(), 4)
}

func TestSession_SubscriberDispatches(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s := newSession(t, app.Options{})
	require.NoError(t, s.Start(ctx))

	_, err := s.DispatchAndWait(ctx, command.Initialize{})
	require.NoError(t, err)

	_, err = s.Emitter().Subscribe(events.TopicDashboardRenamed, func(ctx context.Context, e event.Event) error {
		_, err := s.Dispatch(ctx, command.Rename{Title: "B"})
		return err
	}, event.WithOnce())
	require.NoError(t, err)

	e, err := s.DispatchAndWait(ctx, command.Rename{Title: "A"})
	require.NoError(t, err)
	assert.Equal(t, events.TopicDashboardRenamed, e.Type)
	assert.Equal(t, "B", s.State().Meta.Title)

	var renamed []string
	for _, e := range s.Events() {
		if r, ok := event.PayloadAs[events.DashboardRenamed](e); ok {
			renamed = append(renamed, r.Title)
		}
	}
	assert.Equal(t, []string{"A", "B"}, renamed)
	require.NoError(t, s.Close(ctx))
}

func TestSession_MetricsDisabled(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, app.Options{Dispatcher: dispatcher.DefaultConfig().WithMetrics(false)})
	require.NoError(t, s.Start(ctx))
	t.Cleanup(func() { _ = s.Close(ctx) })

	_, err := s.DispatchAndWait(ctx, command.Initialize{})
	require.NoError(t, err)
	assert.Zero(t, s.Metrics())
}

func TestSession_HistoryLimit(t *testing.T) {
	ctx := context.Background()
	s := newSession(t, app.Options{HistoryLimit: 3})
	require.NoError(t, s.Start(ctx))
	t.Cleanup(func() { _ = s.Close(ctx) })

	for range 3 {
		_, err := s.DispatchAndWait(ctx, command.Initialize{})
		require.NoError(t, err)
	}
	assert.Len(t, s.Events(), 3)
}

const auditPlugin = `
dashboard.on("dash.evt.renamed", function(e)
  dashboard.log("renamed", e.payload.title, e.correlation_id)
end)
`

func TestSession_LoadsDashboardPlugins(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "audit.lua"), []byte(auditPlugin), 0o644))

	b := memory.New()
	b.Seed([]*model.Dashboard{{
		ObjectIdentity: model.ObjectIdentity{Ref: model.IdentifierRef("with-plugin"), Identifier: "with-plugin"},
		Title:          "Plugged",
		Layout:         &model.Layout{},
		Plugins: []model.PluginLink{
			{Plugin: model.IdentifierRef("audit"), URL: "file://audit.lua"},
		},
	}}, nil)

	var buf bytes.Buffer
	s := newSession(t, app.Options{
		Backend:   b,
		Logger:    zerolog.New(&buf).Level(zerolog.InfoLevel),
		PluginDir: dir,
	})
	require.NoError(t, s.Start(ctx))
	t.Cleanup(func() { _ = s.Close(ctx) })

	_, err := s.DispatchAndWait(ctx, command.Initialize{Ref: model.IdentifierRef("with-plugin")})
	require.NoError(t, err)

	host := s.Plugins()
	require.NotNil(t, host)
	assert.True(t, host.IsLoaded("id:audit"))
	assert.Equal(t, 1, host.SubscriptionCount())

	_, err = s.DispatchAndWait(ctx, command.Correlate(command.Rename{Title: "Renamed"}, "audit-check"))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "renamed Renamed audit-check")

	_, err = s.DispatchAndWait(ctx, command.Initialize{Ref: model.IdentifierRef("with-plugin")})
	require.NoError(t, err)
	assert.Equal(t, 1, host.SubscriptionCount(), "reinitializing does not load plugins twice")

	require.NoError(t, s.Close(ctx))
	assert.Zero(t, host.SubscriptionCount())
}

func TestSession_PluginsDisabled(t *testing.T) {
	s := newSession(t, app.Options{})
	assert.Nil(t, s.Plugins())
}
