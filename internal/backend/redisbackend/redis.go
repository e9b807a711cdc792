// Package redisbackend stores dashboards in Redis.
//
// Every object is a JSON document under a key prefix:
//
//	<prefix>dashboard:<identifier>
//	<prefix>filter_context:<identifier>
//	<prefix>insight:<identifier>
//	<prefix>uri:<uri>            -> identifier
//	<prefix>seq                  -> identity counter
//
// Dashboards store only the identity of their filter context; reads hydrate it from
// the filter context document so linked dashboards see the same filters.
package redisbackend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/dshills/dashflow/internal/backend"
	"github.com/dshills/dashflow/internal/model"
)

// DefaultPrefix namespaces every key.
const DefaultPrefix = "dashflow:"

// Errors returned by Connect.
var (
	ErrEmptyConnectionURL = errors.New("redisbackend: empty connection url")
	ErrParseConnection    = errors.New("redisbackend: failed to parse connection url")
	ErrNotReady           = errors.New("redisbackend: redis did not answer ping")
)

// Connect creates a client for addr and verifies it with PING. addr may be a
// redis:// or rediss:// url or a plain host:port.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, ErrEmptyConnectionURL
	}
	var opts *redis.Options
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, errors.Join(ErrParseConnection, err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: addr}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrNotReady, err)
	}
	return client, nil
}

// Option configures a Backend.
type Option func(*Backend)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(b *Backend) {
		if prefix != "" {
			b.prefix = prefix
		}
	}
}

// WithURIRefs makes the backend hand out uri refs instead of identifier refs.
func WithURIRefs() Option {
	return func(b *Backend) {
		b.uriRefs = true
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

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Backend) {
		b.logger = l
	}
}

// Backend is a backend.Backend over a Redis client.
type Backend struct {
	client    redis.Cmdable
	prefix    string
	workspace string
	uriRefs   bool
	now       func() time.Time
	logger    zerolog.Logger
}

var _ backend.Backend = (*Backend)(nil)

// New creates a backend over client.
func New(client redis.Cmdable, opts ...Option) *Backend {
	b := &Backend{
		client:    client,
		prefix:    DefaultPrefix,
		workspace: "workspace",
		now:       time.Now,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Authenticate implements backend.Backend by pinging the server.
func (b *Backend) Authenticate(ctx context.Context, force bool) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		return b.classify("Authenticate", model.Ref{}, err)
	}
	return nil
}

// GetDashboard implements backend.Backend.
func (b *Backend) GetDashboard(ctx context.Context, ref model.Ref) (*model.Dashboard, error) {
	var d model.Dashboard
	if err := b.load(ctx, "GetDashboard", kindDashboard, ref, &d); err != nil {
		return nil, err
	}
	if err := b.hydrate(ctx, "GetDashboard", &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDashboard implements backend.Backend.
func (b *Backend) CreateDashboard(ctx context.Context, def model.DashboardDefinition) (*model.Dashboard, error) {
	const op = "CreateDashboard"

	id, err := b.nextIdentity(ctx, op, "dashboard")
	if err != nil {
		return nil, err
	}
	now := b.now()
	d := &model.Dashboard{
		ObjectIdentity: id,
		Title:          def.Title,
		Description:    def.Description,
		Plugins:        model.ClonePlugins(def.Plugins),
		Created:        now,
		Updated:        now,
	}
	return b.write(ctx, op, d, def)
}

// UpdateDashboard implements backend.Backend.
func (b *Backend) UpdateDashboard(ctx context.Context, ref model.Ref, def model.DashboardDefinition) (*model.Dashboard, error) {
	const op = "UpdateDashboard"

	var existing model.Dashboard
	if err := b.load(ctx, op, kindDashboard, ref, &existing); err != nil {
		return nil, err
	}
	d := &model.Dashboard{
		ObjectIdentity: existing.ObjectIdentity,
		Title:          def.Title,
		Description:    def.Description,
		Plugins:        model.ClonePlugins(def.Plugins),
		Created:        existing.Created,
		Updated:        b.now(),
	}
	return b.write(ctx, op, d, def)
}

// DeleteDashboard implements backend.Backend. The filter context document is kept,
// since other dashboards may link it.
func (b *Backend) DeleteDashboard(ctx context.Context, ref model.Ref) error {
	const op = "DeleteDashboard"

	var d model.Dashboard
	if err := b.load(ctx, op, kindDashboard, ref, &d); err != nil {
		return err
	}
	_, err := b.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, b.key(kindDashboard, d.Identifier))
		if d.URI != "" {
			p.Del(ctx, b.uriKey(d.URI))
		}
		return nil
	})
	if err != nil {
		return b.classify(op, ref, err)
	}
	return nil
}

// GetInsight implements backend.Backend.
func (b *Backend) GetInsight(ctx context.Context, ref model.Ref) (*model.Insight, error) {
	var ins model.Insight
	if err := b.load(ctx, "GetInsight", kindInsight, ref, &ins); err != nil {
		return nil, err
	}
	return &ins, nil
}

// SaveInsight stores an insight, assigning an identity if it has none.
func (b *Backend) SaveInsight(ctx context.Context, ins *model.Insight) (*model.Insight, error) {
	const op = "SaveInsight"

	c := ins.Clone()
	if c.IsZero() {
		id, err := b.nextIdentity(ctx, op, "insight")
		if err != nil {
			return nil, err
		}
		c.ObjectIdentity = id
	}
	if err := b.store(ctx, op, kindInsight, c.ObjectIdentity, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Seed stores dashboards and insights with their identities, assigning identities to
// objects that have none. Existing documents with the same identifiers are replaced.
func (b *Backend) Seed(ctx context.Context, dashboards []*model.Dashboard, insights []*model.Insight) error {
	const op = "Seed"

	for _, ins := range insights {
		if _, err := b.SaveInsight(ctx, ins); err != nil {
			return err
		}
	}
	for _, src := range dashboards {
		d := src.Clone()
		if d.IsZero() {
			id, err := b.nextIdentity(ctx, op, "dashboard")
			if err != nil {
				return err
			}
			d.ObjectIdentity = id
		}
		def := model.DashboardDefinition{Layout: d.Layout}
		if fc := d.FilterContext; fc != nil && !fc.IsZero() {
			if err := b.store(ctx, op, kindFilterContext, fc.ObjectIdentity, fc); err != nil {
				return err
			}
			def.FilterContext = model.FilterContextDefinition{Ref: fc.Ref}
		} else if fc != nil {
			def.FilterContext.Filters = fc.Filters
		}
		if _, err := b.write(ctx, op, d, def); err != nil {
			return err
		}
	}
	return nil
}

type kind string

const (
	kindDashboard     kind = "dashboard"
	kindFilterContext kind = "filter_context"
	kindInsight       kind = "insight"
)

func (b *Backend) key(k kind, identifier string) string {
	return b.prefix + string(k) + ":" + identifier
}

func (b *Backend) uriKey(uri string) string {
	return b.prefix + "uri:" + uri
}

// write resolves the filter context, assigns widget identities and stores d.
func (b *Backend) write(ctx context.Context, op string, d *model.Dashboard, def model.DashboardDefinition) (*model.Dashboard, error) {
	fc, err := b.resolveFilterContext(ctx, op, def.FilterContext)
	if err != nil {
		return nil, err
	}

	d.Layout = def.Layout.Clone(model.StripTemporary)
	if d.Layout == nil {
		d.Layout = &model.Layout{}
	}
	for _, s := range d.Layout.Sections {
		if s == nil {
			continue
		}
		for _, it := range s.Items {
			if it == nil || it.Widget == nil || !it.Widget.IsZero() {
				continue
			}
			id, err := b.nextIdentity(ctx, op, "widget")
			if err != nil {
				return nil, err
			}
			it.Widget.ObjectIdentity = id
		}
	}

	d.FilterContext = &model.FilterContext{ObjectIdentity: fc.ObjectIdentity}
	if err := b.store(ctx, op, kindDashboard, d.ObjectIdentity, d); err != nil {
		return nil, err
	}

	out := d.Clone()
	out.FilterContext = fc
	b.logger.Debug().Str("op", op).Str("dashboard", d.Ref.String()).Msg("dashboard stored")
	return out, nil
}

func (b *Backend) resolveFilterContext(ctx context.Context, op string, def model.FilterContextDefinition) (*model.FilterContext, error) {
	if def.Ref.IsZero() {
		id, err := b.nextIdentity(ctx, op, "filterContext")
		if err != nil {
			return nil, err
		}
		fc := &model.FilterContext{ObjectIdentity: id, Filters: model.CloneFilters(def.Filters)}
		if fc.Filters == nil {
			fc.Filters = []model.Filter{}
		}
		if err := b.store(ctx, op, kindFilterContext, id, fc); err != nil {
			return nil, err
		}
		return fc, nil
	}

	var fc model.FilterContext
	if err := b.load(ctx, op, kindFilterContext, def.Ref, &fc); err != nil {
		if backend.IsNotFound(err) {
			return nil, backend.NewError(backend.KindValidation, op, def.Ref, errors.New("unknown filter context"))
		}
		return nil, err
	}
	if def.Filters != nil {
		fc.Filters = model.CloneFilters(def.Filters)
		if err := b.store(ctx, op, kindFilterContext, fc.ObjectIdentity, &fc); err != nil {
			return nil, err
		}
	}
	return &fc, nil
}

func (b *Backend) hydrate(ctx context.Context, op string, d *model.Dashboard) error {
	if d.FilterContext == nil || d.FilterContext.Ref.IsZero() {
		return nil
	}
	var fc model.FilterContext
	if err := b.load(ctx, op, kindFilterContext, d.FilterContext.Ref, &fc); err != nil {
		return err
	}
	d.FilterContext = &fc
	return nil
}

func (b *Backend) nextIdentity(ctx context.Context, op, prefix string) (model.ObjectIdentity, error) {
	n, err := b.client.Incr(ctx, b.prefix+"seq").Result()
	if err != nil {
		return model.ObjectIdentity{}, b.classify(op, model.Ref{}, err)
	}
	identifier := fmt.Sprintf("%s_%d", prefix, n)
	uri := fmt.Sprintf("/gdc/md/%s/obj/%d", b.workspace, n)
	id := model.ObjectIdentity{Ref: model.IdentifierRef(identifier), Identifier: identifier, URI: uri}
	if b.uriRefs {
		id.Ref = model.URIRef(uri)
	}
	return id, nil
}

func (b *Backend) store(ctx context.Context, op string, k kind, id model.ObjectIdentity, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return backend.NewError(backend.KindValidation, op, id.Ref, err)
	}
	_, err = b.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, b.key(k, id.Identifier), data, 0)
		if id.URI != "" {
			p.Set(ctx, b.uriKey(id.URI), id.Identifier, 0)
		}
		return nil
	})
	if err != nil {
		return b.classify(op, id.Ref, err)
	}
	return nil
}

func (b *Backend) load(ctx context.Context, op string, k kind, ref model.Ref, v any) error {
	if ref.IsZero() {
		return backend.NewError(backend.KindNotFound, op, ref, nil)
	}
	identifier := ref.Value
	if ref.Kind == model.RefURI {
		resolved, err := b.client.Get(ctx, b.uriKey(ref.Value)).Result()
		if err != nil {
			return b.classify(op, ref, err)
		}
		identifier = resolved
	}
	data, err := b.client.Get(ctx, b.key(k, identifier)).Bytes()
	if err != nil {
		return b.classify(op, ref, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return backend.NewError(backend.KindValidation, op, ref, err)
	}
	return nil
}

func (b *Backend) classify(op string, ref model.Ref, err error) error {
	if errors.Is(err, redis.Nil) {
		return backend.NewError(backend.KindNotFound, op, ref, nil)
	}
	return backend.NewError(backend.KindNetwork, op, ref, err)
}
