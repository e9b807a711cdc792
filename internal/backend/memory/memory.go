// Package memory provides an in-memory Backend.
//
// Objects are held as deep copies: nothing a caller passes in or receives back aliases
// stored state. The backend assigns permanent identities the way a real analytical
// backend does, with identifiers "<kind>_<n>" and uris "/gdc/md/<workspace>/obj/<n>".
// Whether returned refs are identifier or uri based is chosen by WithRefType.
//
// Failures and latency can be injected per operation for tests.
package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dshills/dashflow/internal/backend"
	"github.com/dshills/dashflow/internal/model"
)

// RefType selects the form of refs the backend hands out.
type RefType string

const (
	RefTypeID  RefType = "id"
	RefTypeURI RefType = "uri"
)

// Operation names used for failure injection and call recording.
const (
	OpAuthenticate    = "Authenticate"
	OpGetDashboard    = "GetDashboard"
	OpCreateDashboard = "CreateDashboard"
	OpUpdateDashboard = "UpdateDashboard"
	OpDeleteDashboard = "DeleteDashboard"
	OpGetInsight      = "GetInsight"
)

// Option configures a Backend.
type Option func(*Backend)

// WithRefType sets the form of refs assigned to new objects.
func WithRefType(rt RefType) Option {
	return func(b *Backend) {
		if rt == RefTypeID || rt == RefTypeURI {
			b.refType = rt
		}
	}
}

// WithWorkspace sets the workspace used in assigned uris.
func WithWorkspace(ws string) Option {
	return func(b *Backend) {
		if ws != "" {
			b.workspace = ws
		}
	}
}

// WithLatency delays every operation by d, honoring context cancellation.
func WithLatency(d time.Duration) Option {
	return func(b *Backend) {
		b.latency = d
	}
}

// WithClock sets the time source for created and updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		if now != nil {
			b.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Backend) {
		b.logger = l
	}
}

// Backend is an in-memory backend.Backend.
type Backend struct {
	mu sync.Mutex

	refType   RefType
	workspace string
	latency   time.Duration
	now       func() time.Time
	logger    zerolog.Logger

	seq            int
	dashboards     map[string]*model.Dashboard
	filterContexts map[string]*model.FilterContext
	insights       map[string]*model.Insight

	failures map[string]failure
	gates    map[string]chan struct{}
	calls    []string
	aborted  []string
	auths    int
}

type failure struct {
	err  error
	once bool
}

var _ backend.Backend = (*Backend)(nil)

// New creates an empty backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		refType:        RefTypeID,
		workspace:      "workspace",
		now:            time.Now,
		logger:         zerolog.Nop(),
		dashboards:     make(map[string]*model.Dashboard),
		filterContexts: make(map[string]*model.FilterContext),
		insights:       make(map[string]*model.Insight),
		failures:       make(map[string]failure),
		gates:          make(map[string]chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Seed stores copies of dashboards and insights. Objects without an identity get one.
// Filter contexts of seeded dashboards are stored as well.
func (b *Backend) Seed(dashboards []*model.Dashboard, insights []*model.Insight) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ins := range insights {
		c := ins.Clone()
		if c.IsZero() {
			c.ObjectIdentity = b.nextIdentity("insight")
		}
		b.insights[keyOf(c.ObjectIdentity)] = c
	}
	for _, d := range dashboards {
		c := d.Clone()
		if c.IsZero() {
			c.ObjectIdentity = b.nextIdentity("dashboard")
		}
		if c.FilterContext != nil {
			if c.FilterContext.IsZero() {
				c.FilterContext.ObjectIdentity = b.nextIdentity("filterContext")
			}
			b.filterContexts[keyOf(c.FilterContext.ObjectIdentity)] = c.FilterContext.Clone()
		}
		b.assignWidgetIdentities(c.Layout)
		b.dashboards[keyOf(c.ObjectIdentity)] = c
	}
}

// Fail makes every call to op return err until ClearFailures.
func (b *Backend) Fail(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[op] = failure{err: err}
}

// FailNext makes the next call to op return err.
func (b *Backend) FailNext(op string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[op] = failure{err: err, once: true}
}

// ClearFailures removes every injected failure.
func (b *Backend) ClearFailures() {
	b.mu.Lock()
	defer b.mu.Unlock()
	clear(b.failures)
}

// Block makes calls to op wait until the returned release function is called or
// their context is done.
func (b *Backend) Block(op string) (release func()) {
	gate := make(chan struct{})
	b.mu.Lock()
	b.gates[op] = gate
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			if b.gates[op] == gate {
				delete(b.gates, op)
			}
			b.mu.Unlock()
			close(gate)
		})
	}
}

// Calls returns the operations invoked so far, in call order.
func (b *Backend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

// Aborted returns the operations that gave up because their context was done.
func (b *Backend) Aborted() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.aborted...)
}

// AuthCount returns how many times Authenticate succeeded.
func (b *Backend) AuthCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.auths
}

// Dashboard returns a copy of a stored dashboard.
func (b *Backend) Dashboard(ref model.Ref) (*model.Dashboard, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d := b.findDashboard(ref)
	if d == nil {
		return nil, false
	}
	return b.hydrate(d), true
}

// DashboardCount returns the number of stored dashboards.
func (b *Backend) DashboardCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.dashboards)
}

// FilterContext returns a copy of a stored filter context.
func (b *Backend) FilterContext(ref model.Ref) (*model.FilterContext, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fc := b.findFilterContext(ref)
	return fc.Clone(), fc != nil
}

// Authenticate implements backend.Backend.
func (b *Backend) Authenticate(ctx context.Context, force bool) error {
	if err := b.enter(ctx, OpAuthenticate, model.Ref{}); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.auths++
	b.logger.Debug().Bool("force", force).Msg("authenticated")
	return nil
}

// GetDashboard implements backend.Backend.
func (b *Backend) GetDashboard(ctx context.Context, ref model.Ref) (*model.Dashboard, error) {
	if err := b.enter(ctx, OpGetDashboard, ref); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	d := b.findDashboard(ref)
	if d == nil {
		return nil, backend.NewError(backend.KindNotFound, OpGetDashboard, ref, nil)
	}
	return b.hydrate(d), nil
}

// CreateDashboard implements backend.Backend.
func (b *Backend) CreateDashboard(ctx context.Context, def model.DashboardDefinition) (*model.Dashboard, error) {
	if err := b.enter(ctx, OpCreateDashboard, model.Ref{}); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	fc, err := b.resolveFilterContext(OpCreateDashboard, def.FilterContext)
	if err != nil {
		return nil, err
	}

	now := b.now()
	d := &model.Dashboard{
		ObjectIdentity: b.nextIdentity("dashboard"),
		Title:          def.Title,
		Description:    def.Description,
		Layout:         def.Layout.Clone(model.StripTemporary),
		FilterContext:  fc,
		Plugins:        model.ClonePlugins(def.Plugins),
		Created:        now,
		Updated:        now,
	}
	if d.Layout == nil {
		d.Layout = &model.Layout{}
	}
	b.assignWidgetIdentities(d.Layout)
	b.dashboards[keyOf(d.ObjectIdentity)] = d

	b.logger.Debug().Str("dashboard", d.Ref.String()).Msg("dashboard created")
	return b.hydrate(d), nil
}

// UpdateDashboard implements backend.Backend.
func (b *Backend) UpdateDashboard(ctx context.Context, ref model.Ref, def model.DashboardDefinition) (*model.Dashboard, error) {
	if err := b.enter(ctx, OpUpdateDashboard, ref); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	existing := b.findDashboard(ref)
	if existing == nil {
		return nil, backend.NewError(backend.KindNotFound, OpUpdateDashboard, ref, nil)
	}
	fc, err := b.resolveFilterContext(OpUpdateDashboard, def.FilterContext)
	if err != nil {
		return nil, err
	}

	d := &model.Dashboard{
		ObjectIdentity: existing.ObjectIdentity,
		Title:          def.Title,
		Description:    def.Description,
		Layout:         def.Layout.Clone(model.StripTemporary),
		FilterContext:  fc,
		Plugins:        model.ClonePlugins(def.Plugins),
		Created:        existing.Created,
		Updated:        b.now(),
	}
	if d.Layout == nil {
		d.Layout = &model.Layout{}
	}
	b.assignWidgetIdentities(d.Layout)
	b.dashboards[keyOf(d.ObjectIdentity)] = d

	b.logger.Debug().Str("dashboard", d.Ref.String()).Msg("dashboard updated")
	return b.hydrate(d), nil
}

// DeleteDashboard implements backend.Backend. A filter context no other dashboard
// references is deleted with it.
func (b *Backend) DeleteDashboard(ctx context.Context, ref model.Ref) error {
	if err := b.enter(ctx, OpDeleteDashboard, ref); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	d := b.findDashboard(ref)
	if d == nil {
		return backend.NewError(backend.KindNotFound, OpDeleteDashboard, ref, nil)
	}
	delete(b.dashboards, keyOf(d.ObjectIdentity))

	if d.FilterContext != nil {
		shared := false
		for _, other := range b.dashboards {
			if other.FilterContext != nil && other.FilterContext.Ref == d.FilterContext.Ref {
				shared = true
				break
			}
		}
		if !shared {
			delete(b.filterContexts, keyOf(d.FilterContext.ObjectIdentity))
		}
	}
	return nil
}

// GetInsight implements backend.Backend.
func (b *Backend) GetInsight(ctx context.Context, ref model.Ref) (*model.Insight, error) {
	if err := b.enter(ctx, OpGetInsight, ref); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ins := range b.insights {
		if ins.Matches(ref) {
			return ins.Clone(), nil
		}
	}
	return nil, backend.NewError(backend.KindNotFound, OpGetInsight, ref, nil)
}

// enter records the call, waits out latency and gates, and returns any injected
// failure.
func (b *Backend) enter(ctx context.Context, op string, ref model.Ref) error {
	b.mu.Lock()
	b.calls = append(b.calls, op)
	gate := b.gates[op]
	latency := b.latency
	f, failing := b.failures[op]
	if failing && f.once {
		delete(b.failures, op)
	}
	b.mu.Unlock()

	if latency > 0 {
		timer := time.NewTimer(latency)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return b.abort(ctx, op, ref)
		}
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return b.abort(ctx, op, ref)
		}
	}
	if ctx.Err() != nil {
		return b.abort(ctx, op, ref)
	}
	if failing {
		return f.err
	}
	return nil
}

func (b *Backend) abort(ctx context.Context, op string, ref model.Ref) error {
	b.mu.Lock()
	b.aborted = append(b.aborted, op)
	b.mu.Unlock()
	return backend.NewError(backend.KindNetwork, op, ref, ctx.Err())
}

func (b *Backend) nextIdentity(kind string) model.ObjectIdentity {
	b.seq++
	identifier := kind + "_" + strconv.Itoa(b.seq)
	uri := fmt.Sprintf("/gdc/md/%s/obj/%d", b.workspace, b.seq)
	id := model.ObjectIdentity{Identifier: identifier, URI: uri}
	if b.refType == RefTypeURI {
		id.Ref = model.URIRef(uri)
	} else {
		id.Ref = model.IdentifierRef(identifier)
	}
	return id
}

func (b *Backend) assignWidgetIdentities(l *model.Layout) {
	if l == nil {
		return
	}
	for _, s := range l.Sections {
		if s == nil {
			continue
		}
		for _, it := range s.Items {
			if it == nil || it.Widget == nil {
				continue
			}
			if it.Widget.IsZero() || model.IsTemporaryIdentity(it.Widget.ObjectIdentity) {
				it.Widget.ObjectIdentity = b.nextIdentity("widget")
			}
		}
	}
}

func (b *Backend) resolveFilterContext(op string, def model.FilterContextDefinition) (*model.FilterContext, error) {
	if def.Ref.IsZero() {
		fc := &model.FilterContext{
			ObjectIdentity: b.nextIdentity("filterContext"),
			Filters:        model.CloneFilters(def.Filters),
		}
		if fc.Filters == nil {
			fc.Filters = []model.Filter{}
		}
		b.filterContexts[keyOf(fc.ObjectIdentity)] = fc
		return fc.Clone(), nil
	}

	fc := b.findFilterContext(def.Ref)
	if fc == nil {
		return nil, backend.NewError(backend.KindValidation, op, def.Ref, fmt.Errorf("unknown filter context"))
	}
	if def.Filters != nil {
		fc.Filters = model.CloneFilters(def.Filters)
	}
	return fc.Clone(), nil
}

func (b *Backend) findDashboard(ref model.Ref) *model.Dashboard {
	if ref.IsZero() {
		return nil
	}
	if d, ok := b.dashboards[ref.Value]; ok && d.Matches(ref) {
		return d
	}
	for _, d := range b.dashboards {
		if d.Matches(ref) {
			return d
		}
	}
	return nil
}

func (b *Backend) findFilterContext(ref model.Ref) *model.FilterContext {
	if ref.IsZero() {
		return nil
	}
	for _, fc := range b.filterContexts {
		if fc.Matches(ref) {
			return fc
		}
	}
	return nil
}

// hydrate returns a copy of d carrying the current state of its filter context.
func (b *Backend) hydrate(d *model.Dashboard) *model.Dashboard {
	c := d.Clone()
	if c.FilterContext != nil {
		if fc := b.findFilterContext(c.FilterContext.Ref); fc != nil {
			c.FilterContext = fc.Clone()
		}
	}
	return c
}

func keyOf(id model.ObjectIdentity) string {
	if id.Identifier != "" {
		return id.Identifier
	}
	return id.Ref.Value
}
