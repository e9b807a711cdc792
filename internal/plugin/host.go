package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/dashflow/internal/event"
	"github.com/dshills/dashflow/internal/event/topic"
	"github.com/dshills/dashflow/internal/model"
	plua "github.com/dshills/dashflow/internal/plugin/lua"
)

// ModuleName is the global table the host installs into every plugin state.
const ModuleName = "dashboard"

// Subscriber is the part of the event emitter the host needs.
type Subscriber interface {
	Subscribe(pattern topic.Topic, handler event.Handler, opts ...event.SubscriptionOption) (event.Subscription, error)
	Unsubscribe(sub event.Subscription) error
}

// Host runs dashboard plugins in a single sandboxed Lua state. Plugins observe events
// through dashboard.on; nothing in the module can change session state.
type Host struct {
	mu sync.Mutex

	state   *plua.State
	events  Subscriber
	logger  zerolog.Logger
	timeout time.Duration

	// loading names the plugin whose chunk is executing, for attribution of
	// subscriptions it makes.
	loading string
	loaded  []string
	subs    []event.Subscription
	closed  bool
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger plugins write to through dashboard.log.
func WithLogger(l zerolog.Logger) Option {
	return func(h *Host) {
		h.logger = l
	}
}

// WithExecutionTimeout bounds each chunk and callback invocation.
func WithExecutionTimeout(d time.Duration) Option {
	return func(h *Host) {
		h.timeout = d
	}
}

// NewHost creates a host whose plugins subscribe through events.
func NewHost(events Subscriber, opts ...Option) *Host {
	h := &Host{
		events:  events,
		logger:  zerolog.Nop(),
		timeout: plua.DefaultExecutionTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}

	h.state = plua.NewState(plua.WithExecutionTimeout(h.timeout))
	h.state.RegisterModule(ModuleName, map[string]lua.LGFunction{
		"on":  h.luaOn,
		"log": h.luaLog,
	})
	return h
}

// Load executes the plugin file at path under name.
func (h *Host) Load(ctx context.Context, name, path string) error {
	return h.load(name, func() error {
		return h.state.DoFile(ctx, path)
	})
}

// LoadString executes code as the plugin name.
func (h *Host) LoadString(ctx context.Context, name, code string) error {
	return h.load(name, func() error {
		return h.state.DoString(ctx, code)
	})
}

func (h *Host) load(name string, run func() error) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHostClosed
	}
	h.loading = name
	h.mu.Unlock()

	err := run()

	h.mu.Lock()
	h.loading = ""
	if err == nil {
		h.loaded = append(h.loaded, name)
	}
	h.mu.Unlock()

	if err != nil {
		return &LoadError{Plugin: name, Err: err}
	}
	h.logger.Debug().Str("plugin", name).Msg("plugin loaded")
	return nil
}

// LoadLinks loads every dashboard plugin link from dir, skipping plugins already
// loaded. A link that cannot be resolved or fails to run does not stop the others; the
// failures are joined.
func (h *Host) LoadLinks(ctx context.Context, dir string, links []model.PluginLink) error {
	var errs []error
	for _, link := range links {
		path, err := ResolveLink(dir, link)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		name := filepath.Base(path)
		if !link.Plugin.IsZero() {
			name = link.Plugin.String()
		}
		if h.IsLoaded(name) {
			continue
		}
		if err := h.Load(ctx, name, path); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ResolveLink maps a plugin link url (file://name.lua or name.lua) to a file inside
// dir. Links that are not Lua files or that leave dir are rejected.
func ResolveLink(dir string, link model.PluginLink) (string, error) {
	p := strings.TrimPrefix(link.URL, "file://")
	if filepath.Ext(p) != ".lua" {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLink, link.URL)
	}
	if filepath.IsAbs(p) {
		return "", fmt.Errorf("%w: %q", ErrOutsidePluginDir, link.URL)
	}

	full := filepath.Join(dir, p)
	rel, err := filepath.Rel(dir, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutsidePluginDir, link.URL)
	}
	return full, nil
}

// Loaded returns the names of the plugins loaded so far, in load order.
func (h *Host) Loaded() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.loaded...)
}

// IsLoaded returns true if a plugin named name loaded successfully.
func (h *Host) IsLoaded(name string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Contains(h.loaded, name)
}

// SubscriptionCount returns the number of live plugin subscriptions.
func (h *Host) SubscriptionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close unsubscribes every plugin handler and releases the Lua state.
func (h *Host) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	subs := h.subs
	h.subs = nil
	h.mu.Unlock()

	for _, sub := range subs {
		_ = h.events.Unsubscribe(sub)
	}
	return h.state.Close()
}

// luaOn implements dashboard.on(pattern, fn).
func (h *Host) luaOn(L *lua.LState) int {
	pattern := topic.Topic(L.CheckString(1))
	fn := L.CheckFunction(2)

	h.mu.Lock()
	owner := h.loading
	h.mu.Unlock()

	sub, err := h.events.Subscribe(pattern, h.deliver(owner, fn))
	if err != nil {
		L.RaiseError("dashboard.on: %v", err)
		return 0
	}

	h.mu.Lock()
	h.subs = append(h.subs, sub)
	h.mu.Unlock()
	return 0
}

func (h *Host) deliver(owner string, fn *lua.LFunction) event.Handler {
	return func(ctx context.Context, e event.Event) error {
		payload, err := payloadValue(e)
		if err != nil {
			return fmt.Errorf("plugin %s: %w", owner, err)
		}
		arg, err := h.state.Convert(func(L *lua.LState) lua.LValue {
			return eventTable(L, e, payload)
		})
		if err != nil {
			return err
		}
		if err := h.state.CallFunction(ctx, fn, arg); err != nil {
			return fmt.Errorf("plugin %s: %w", owner, err)
		}
		return nil
	}
}

// luaLog implements dashboard.log(...).
func (h *Host) luaLog(L *lua.LState) int {
	args := make([]lua.LValue, L.GetTop())
	for i := range args {
		args[i] = L.Get(i + 1)
	}

	h.mu.Lock()
	owner := h.loading
	h.mu.Unlock()

	ev := h.logger.Info()
	if owner != "" {
		ev = ev.Str("plugin", owner)
	}
	ev.Msg(strings.Join(plua.FormatArgs(args...), " "))
	return 0
}

func eventTable(L *lua.LState, e event.Event, payload any) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("type", lua.LString(e.Type))
	t.RawSetString("id", lua.LString(e.Metadata.ID))
	t.RawSetString("correlation_id", lua.LString(e.Metadata.CorrelationID))
	t.RawSetString("command_id", lua.LString(e.Metadata.CausationID))
	t.RawSetString("terminal", lua.LBool(e.Metadata.Terminal))
	t.RawSetString("payload", plua.ToLuaValue(L, payload))
	return t
}

// payloadValue decodes the event payload into plain maps so plugins see copies.
func payloadValue(e event.Event) (any, error) {
	if e.Payload == nil {
		return nil, nil
	}
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", e.Type, err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", e.Type, err)
	}
	return v, nil
}
