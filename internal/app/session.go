// Package app wires a dashboard session: store, event emitter, dispatcher, backend and
// plugin host. Every session owns its collaborators; nothing is shared through
// package state, so several sessions can run side by side.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dshills/dashflow/internal/backend"
	"github.com/dshills/dashflow/internal/command"
	"github.com/dshills/dashflow/internal/dispatcher"
	"github.com/dshills/dashflow/internal/dispatcher/handlers"
	"github.com/dshills/dashflow/internal/dispatcher/hook"
	"github.com/dshills/dashflow/internal/event"
	"github.com/dshills/dashflow/internal/event/events"
	"github.com/dshills/dashflow/internal/event/topic"
	"github.com/dshills/dashflow/internal/plugin"
	"github.com/dshills/dashflow/internal/store"
)

// Options configures a session.
type Options struct {
	// Backend is the remote collaborator. Required.
	Backend backend.Backend

	// Logger receives session logs. Defaults to a no-op logger.
	Logger zerolog.Logger

	// Dispatcher configures command execution.
	Dispatcher dispatcher.Config

	// HistoryLimit caps the retained event log. Zero keeps everything.
	HistoryLimit int

	// PluginDir enables dashboard plugins resolved inside it. Empty disables plugins.
	PluginDir string

	// PluginTimeout bounds each plugin invocation. Zero uses the host default.
	PluginTimeout time.Duration

	// Hooks are registered on the dispatcher in addition to the built-in ones.
	Hooks []hook.Hook
}

// Session is one dashboard editing session.
type Session struct {
	mu      sync.Mutex
	running bool
	closed  bool

	logger     zerolog.Logger
	backend    backend.Backend
	store      *store.Store
	emitter    *event.Emitter
	dispatcher *dispatcher.Dispatcher

	plugins   *plugin.Host
	pluginDir string
	pluginSub event.Subscription
}

// NewSession assembles a session. The session accepts commands after Start.
func NewSession(opts Options) (*Session, error) {
	if opts.Backend == nil {
		return nil, ErrMissingBackend
	}

	logger := opts.Logger
	s := &Session{
		logger:    WithComponent(logger, "session"),
		backend:   opts.Backend,
		pluginDir: opts.PluginDir,
	}

	s.store = store.New(store.WithLogger(WithComponent(logger, "store")))

	emitterOpts := []event.Option{
		event.WithSource("session"),
		event.WithLogger(WithComponent(logger, "events")),
	}
	if opts.HistoryLimit > 0 {
		emitterOpts = append(emitterOpts, event.WithHistoryLimit(opts.HistoryLimit))
	}
	s.emitter = event.NewEmitter(emitterOpts...)

	s.dispatcher = dispatcher.New(opts.Dispatcher, handlers.Table(),
		dispatcher.WithStore(s.store),
		dispatcher.WithEmitter(s.emitter),
		dispatcher.WithBackend(opts.Backend),
		dispatcher.WithLogger(WithComponent(logger, "dispatcher")),
		dispatcher.WithHooks(opts.Hooks...),
	)

	if opts.PluginDir != "" {
		hostOpts := []plugin.Option{plugin.WithLogger(WithComponent(logger, "plugins"))}
		if opts.PluginTimeout > 0 {
			hostOpts = append(hostOpts, plugin.WithExecutionTimeout(opts.PluginTimeout))
		}
		s.plugins = plugin.NewHost(s.emitter, hostOpts...)
	}
	return s, nil
}

// Start begins accepting commands.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}
	if s.closed {
		return ErrNotRunning
	}

	if s.plugins != nil {
		sub, err := s.emitter.Subscribe(events.TopicDashboardInitialized, s.loadPlugins)
		if err != nil {
			return NewComponentError("plugins", "subscribe", err)
		}
		s.pluginSub = sub
	}

	s.dispatcher.Start()
	s.running = true
	s.logger.Debug().Bool("async", s.dispatcher.Config().AsyncDispatch).Msg("session started")
	return nil
}

// loadPlugins runs the plugin links of a freshly initialized dashboard.
func (s *Session) loadPlugins(ctx context.Context, e event.Event) error {
	p, ok := event.PayloadAs[events.DashboardInitialized](e)
	if !ok || p.Dashboard == nil || len(p.Dashboard.Plugins) == 0 {
		return nil
	}
	if err := s.plugins.LoadLinks(ctx, s.pluginDir, p.Dashboard.Plugins); err != nil {
		return NewComponentError("plugins", "load", err)
	}
	return nil
}

// Close stops the dispatcher, waiting for accepted commands until ctx is done, and
// releases the plugin host.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.running = false
	s.mu.Unlock()

	err := s.dispatcher.Stop(ctx)
	if s.plugins != nil {
		if s.pluginSub != nil {
			_ = s.emitter.Unsubscribe(s.pluginSub)
		}
		if cerr := s.plugins.Close(); cerr != nil && err == nil {
			err = NewComponentError("plugins", "close", cerr)
		}
	}
	s.logger.Debug().Msg("session closed")
	return err
}

func (s *Session) checkRunning() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return ErrNotRunning
	}
	return nil
}

// Dispatch submits cmd and returns the stamped copy.
func (s *Session) Dispatch(ctx context.Context, cmd command.Command) (command.Command, error) {
	if err := s.checkRunning(); err != nil {
		return nil, err
	}
	return s.dispatcher.Dispatch(ctx, cmd)
}

// DispatchAndWait submits cmd and waits for its terminal event or the first event of
// one of types.
func (s *Session) DispatchAndWait(ctx context.Context, cmd command.Command, types ...topic.Topic) (event.Event, error) {
	if err := s.checkRunning(); err != nil {
		return event.Event{}, err
	}
	return s.dispatcher.DispatchAndWait(ctx, cmd, types...)
}

// State returns the current state snapshot.
func (s *Session) State() *store.State {
	return s.store.State()
}

// Store returns the session store for selectors and subscriptions.
func (s *Session) Store() *store.Store {
	return s.store
}

// Events returns the emitted events in order.
func (s *Session) Events() []event.Event {
	return s.emitter.Events()
}

// Digest returns the type and correlation id of every emitted event.
func (s *Session) Digest() []event.DigestEntry {
	return s.emitter.Digest()
}

// Emitter returns the session emitter.
func (s *Session) Emitter() *event.Emitter {
	return s.emitter
}

// Backend returns the session backend.
func (s *Session) Backend() backend.Backend {
	return s.backend
}

// Plugins returns the plugin host, or nil when plugins are disabled.
func (s *Session) Plugins() *plugin.Host {
	return s.plugins
}

// Metrics returns dispatch counters. It is the zero snapshot when metrics are
// disabled.
func (s *Session) Metrics() dispatcher.MetricsSnapshot {
	if m := s.dispatcher.Metrics(); m != nil {
		return m.Snapshot()
	}
	return dispatcher.MetricsSnapshot{}
}

// EventStats returns emitter counters.
func (s *Session) EventStats() event.Stats {
	return s.emitter.Stats()
}
