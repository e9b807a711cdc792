// Package dashtest runs dashboard sessions against an in-memory backend seeded with
// reference fixtures. It exists for tests of command handlers and session wiring.
//
//	tester := dashtest.Preloaded(t, dashtest.ComplexDashboardID)
//	e := tester.DispatchAndWaitFor(command.Rename{Title: "Q3"}, events.TopicDashboardRenamed)
package dashtest

import (
	"context"
	"embed"
	"path"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/dshills/dashflow/internal/app"
	"github.com/dshills/dashflow/internal/backend/memory"
	"github.com/dshills/dashflow/internal/command"
	"github.com/dshills/dashflow/internal/dispatcher"
	"github.com/dshills/dashflow/internal/event"
	"github.com/dshills/dashflow/internal/event/events"
	"github.com/dshills/dashflow/internal/event/topic"
	"github.com/dshills/dashflow/internal/fixture"
	"github.com/dshills/dashflow/internal/model"
	"github.com/dshills/dashflow/internal/store"
)

//go:embed fixtures/*.toml
var fixtures embed.FS

// Reference fixture objects.
const (
	ComplexDashboardID  = "complex-dashboard"
	ComplexDashboardURI = "/gdc/md/reference/obj/1000"
	SimpleDashboardID   = "simple-dashboard"

	// First section of the complex dashboard.
	RevenueKPIID  = "kpi-revenue"
	RevenueKPIURI = "/gdc/md/reference/obj/1101"
	OrdersKPIID   = "kpi-orders"

	// Second section of the complex dashboard.
	RevenueTableID  = "widget-revenue-table"
	RevenueTableURI = "/gdc/md/reference/obj/1201"
	RevenueTrendID  = "widget-revenue-trend"

	TableInsightID  = "insight-table"
	TableInsightURI = "/gdc/md/reference/obj/901"
	ChartInsightID  = "insight-chart"

	// TestCorrelation is a correlation id for commands whose events are asserted.
	TestCorrelation = "test-correlation"
)

// DefaultTimeout bounds every wait of a Tester.
const DefaultTimeout = 5 * time.Second

// InsightItem returns a new layout item rendering the table insight.
func InsightItem() command.NewItem {
	return command.NewItem{
		GridWidth: 6,
		Type:      model.WidgetInsight,
		Insight:   model.IdentifierRef(TableInsightID),
	}
}

// KPIItem returns a new layout item for the revenue measure.
func KPIItem() command.NewItem {
	return command.NewItem{
		GridWidth: 3,
		Type:      model.WidgetKPI,
		KPI:       &model.KPI{Measure: model.IdentifierRef("measure-revenue")},
	}
}

type options struct {
	refType    memory.RefType
	dispatcher dispatcher.Config
	pluginDir  string
	logger     zerolog.Logger
}

// Option configures a Tester.
type Option func(*options)

// WithRefType selects identifier or uri refs for seeded and created objects.
func WithRefType(rt memory.RefType) Option {
	return func(o *options) {
		o.refType = rt
	}
}

// WithAsyncDispatch runs commands on the dispatcher loop.
func WithAsyncDispatch() Option {
	return func(o *options) {
		o.dispatcher = o.dispatcher.WithAsyncDispatch(16)
	}
}

// WithDispatcherConfig replaces the dispatcher configuration.
func WithDispatcherConfig(cfg dispatcher.Config) Option {
	return func(o *options) {
		o.dispatcher = cfg
	}
}

// WithPluginDir enables plugins resolved inside dir.
func WithPluginDir(dir string) Option {
	return func(o *options) {
		o.pluginDir = dir
	}
}

// WithLogger sets the session logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// Tester drives one session for one test.
type Tester struct {
	t       testing.TB
	session *app.Session
	backend *memory.Backend
	mark    int
}

// New starts a session over a freshly seeded backend. No dashboard is loaded.
func New(t testing.TB, opts ...Option) *Tester {
	t.Helper()

	o := options{
		refType:    memory.RefTypeID,
		dispatcher: dispatcher.DefaultConfig().WithWaitTimeout(DefaultTimeout),
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	b := memory.New(memory.WithRefType(o.refType), memory.WithWorkspace("reference"))
	dashboards, insights, err := load(o.refType)
	require.NoError(t, err, "reference fixtures")
	b.Seed(dashboards, insights)

	s, err := app.NewSession(app.Options{
		Backend:    b,
		Logger:     o.logger,
		Dispatcher: o.dispatcher,
		PluginDir:  o.pluginDir,
	})
	require.NoError(t, err)
	require.NoError(t, s.Start(context.Background()))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
		defer cancel()
		if err := s.Close(ctx); err != nil {
			t.Errorf("close session: %v", err)
		}
	})

	return &Tester{t: t, session: s, backend: b}
}

// Preloaded starts a session and initializes the dashboard with the given
// identifier; an empty identifier starts a new dashboard. Events of the
// initialization are left out of EmittedEventsDigest.
func Preloaded(t testing.TB, dashboardID string, opts ...Option) *Tester {
	t.Helper()

	tester := New(t, opts...)
	var ref model.Ref
	if dashboardID != "" {
		ref = model.IdentifierRef(dashboardID)
	}
	tester.DispatchAndWaitFor(command.Initialize{Ref: ref}, events.TopicDashboardInitialized)
	tester.mark = len(tester.session.Events())
	return tester
}

func load(rt memory.RefType) ([]*model.Dashboard, []*model.Insight, error) {
	entries, err := fixtures.ReadDir("fixtures")
	if err != nil {
		return nil, nil, err
	}
	doc := &fixture.Document{}
	for _, entry := range entries {
		name := path.Join("fixtures", entry.Name())
		data, err := fixtures.ReadFile(name)
		if err != nil {
			return nil, nil, err
		}
		part, err := fixture.Parse(data, name)
		if err != nil {
			return nil, nil, err
		}
		doc.Merge(part)
	}

	kind := model.RefIdentifier
	if rt == memory.RefTypeURI {
		kind = model.RefURI
	}
	return doc.Objects(kind)
}

// Dispatch submits cmd without waiting and returns the stamped command.
func (tt *Tester) Dispatch(cmd command.Command) command.Command {
	tt.t.Helper()
	stamped, err := tt.session.Dispatch(context.Background(), cmd)
	require.NoError(tt.t, err)
	return stamped
}

// DispatchAndWaitFor submits cmd and returns the first event of type typ it
// produces. The test fails when the command ends with any other event.
func (tt *Tester) DispatchAndWaitFor(cmd command.Command, typ topic.Topic) event.Event {
	tt.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	e, err := tt.session.DispatchAndWait(ctx, cmd, typ)
	require.NoError(tt.t, err, "dispatch %s", cmd.CommandType())
	if e.Type != typ {
		if failed, ok := event.PayloadAs[events.CommandFailed](e); ok {
			require.Failf(tt.t, "unexpected event", "%s ended with %s: %s %s", cmd.CommandType(), e.Type, failed.Reason, failed.Message)
		}
		require.Failf(tt.t, "unexpected event", "%s ended with %s, want %s", cmd.CommandType(), e.Type, typ)
	}
	return e
}

// State returns the current state snapshot.
func (tt *Tester) State() *store.State {
	return tt.session.State()
}

// EmittedEventsDigest returns type and correlation id of the events emitted since
// the tester became ready.
func (tt *Tester) EmittedEventsDigest() []event.DigestEntry {
	digest := tt.session.Digest()
	if tt.mark > len(digest) {
		return nil
	}
	return digest[tt.mark:]
}

// Events returns the events emitted since the tester became ready.
func (tt *Tester) Events() []event.Event {
	all := tt.session.Events()
	if tt.mark > len(all) {
		return nil
	}
	return all[tt.mark:]
}

// Backend returns the seeded backend.
func (tt *Tester) Backend() *memory.Backend {
	return tt.backend
}

// Session returns the session under test.
func (tt *Tester) Session() *app.Session {
	return tt.session
}

// Payload returns the payload of e as T, failing the test on a mismatch.
func Payload[T event.Payload](t testing.TB, e event.Event) T {
	t.Helper()
	p, ok := event.PayloadAs[T](e)
	require.True(t, ok, "payload of %s is %T", e.Type, e.Payload)
	return p
}
