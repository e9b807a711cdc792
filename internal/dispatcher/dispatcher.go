package dispatcher

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dshills/dashflow/internal/backend"
	"github.com/dshills/dashflow/internal/command"
	"github.com/dshills/dashflow/internal/dispatcher/execctx"
	"github.com/dshills/dashflow/internal/dispatcher/handler"
	"github.com/dshills/dashflow/internal/dispatcher/hook"
	"github.com/dshills/dashflow/internal/event"
	"github.com/dshills/dashflow/internal/event/events"
	"github.com/dshills/dashflow/internal/event/topic"
	"github.com/dshills/dashflow/internal/store"
)

// Dispatcher routes commands to handlers and coordinates execution.
type Dispatcher struct {
	// Core components
	registry *Registry
	hooks    *hook.Manager
	metrics  *Metrics

	// Session collaborators
	store   execctx.Store
	emitter *event.Emitter
	backend backend.Backend
	logger  zerolog.Logger

	// Configuration
	config Config

	// Lifecycle; mu orders queue sends against Stop.
	mu       sync.RWMutex
	started  bool
	stopped  bool
	queue    chan queued
	done     chan struct{}
	loopDone chan struct{}
	inflight sync.WaitGroup
}

type queued struct {
	ctx context.Context
	cmd command.Command
}

// New creates a dispatcher. The handler table must cover every command type;
// a missing handler is a programming error and New panics.
//
// The loaded precondition, struct validation and audit hooks are always registered.
func New(config Config, table map[command.Type]handler.Handler, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: NewRegistry(table),
		hooks:    hook.NewManager(),
		config:   config,
		logger:   zerolog.Nop(),
		done:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}
	d.registry.mustCover()

	for _, opt := range opts {
		opt(d)
	}
	if d.store == nil {
		d.store = store.New(store.WithLogger(d.logger))
	}
	if d.emitter == nil {
		d.emitter = event.NewEmitter(event.WithLogger(d.logger))
	}

	d.hooks.Register(hook.NewAuditHook(d.logger))
	d.hooks.Register(hook.NewLoadedHook())
	d.hooks.Register(hook.NewStructValidationHook())

	if config.AsyncDispatch {
		size := config.QueueSize
		if size <= 0 {
			size = 64
		}
		d.queue = make(chan queued, size)
	}
	if config.EnableMetrics {
		d.metrics = NewMetrics()
	}
	return d
}

// Dispatch submits a command and returns the stamped copy carrying the assigned
// command id. In sync mode the command has finished when Dispatch returns; in
// async mode it has been queued.
//
// Command failures are reported as command.failed events, never as errors. The
// returned error only reports that the command could not be submitted.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd command.Command) (command.Command, error) {
	if cmd == nil {
		return nil, ErrNilCommand
	}
	cmd = d.stamp(cmd)
	return cmd, d.submit(ctx, cmd)
}

// DispatchAndWait dispatches cmd and waits for its terminal event, or for the
// first event of one of types if that comes first. The waiter is registered
// before the command is submitted.
func (d *Dispatcher) DispatchAndWait(ctx context.Context, cmd command.Command, types ...topic.Topic) (event.Event, error) {
	if cmd == nil {
		return event.Event{}, ErrNilCommand
	}
	cmd = d.stamp(cmd)
	m := cmd.Metadata()

	match := event.Predicate(event.IsTerminal)
	if len(types) > 0 {
		match = event.Any(event.IsTerminal, event.OfType(types...))
	}
	p := d.emitter.WaitFor(m.CorrelationID, event.All(event.CausedBy(m.ID), match))
	defer p.Cancel()

	if err := d.submit(ctx, cmd); err != nil {
		return event.Event{}, err
	}

	if _, ok := ctx.Deadline(); !ok && d.config.WaitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.WaitTimeout)
		defer cancel()
	}
	return p.Wait(ctx)
}

func (d *Dispatcher) stamp(cmd command.Command) command.Command {
	return command.Stamp(cmd, uuid.NewString(), time.Now())
}

func (d *Dispatcher) submit(ctx context.Context, cmd command.Command) error {
	d.mu.RLock()
	if d.stopped {
		d.mu.RUnlock()
		return ErrDispatcherStopped
	}
	if !d.config.AsyncDispatch {
		d.inflight.Add(1)
		d.mu.RUnlock()
		defer d.inflight.Done()
		d.run(ctx, cmd, false)
		return nil
	}
	defer d.mu.RUnlock()
	if !d.started {
		return ErrNotStarted
	}
	select {
	case d.queue <- queued{ctx: ctx, cmd: cmd}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run emits command.started, runs the pre-dispatch hooks and starts the handler.
// With async set the handler runs in its own goroutine.
func (d *Dispatcher) run(ctx context.Context, cmd command.Command, async bool) {
	start := time.Now()
	hc := d.buildContext(cmd)

	d.emit(ctx, cmd, events.CommandStarted{Command: cmd}, false)

	if name, err := d.hooks.RunPreDispatch(ctx, cmd, hc); err != nil {
		hc.Logger.Debug().Str("hook", name).Err(err).Msg("command rejected")
		d.finish(ctx, cmd, hc, start, nil, handler.NewUserError("", err), true)
		return
	}

	h := d.registry.Get(cmd.CommandType())
	if h == nil {
		panic(fmt.Sprintf("%s: %s", ErrNoHandler, cmd.CommandType()))
	}

	if !async {
		d.execute(ctx, cmd, hc, h, start)
		return
	}
	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		d.execute(ctx, cmd, hc, h, start)
	}()
}

func (d *Dispatcher) execute(ctx context.Context, cmd command.Command, hc *execctx.Context, h handler.Handler, start time.Time) {
	var (
		p   event.Payload
		err error
	)
	if d.config.RecoverFromPanic {
		p, err = d.executeWithRecovery(ctx, cmd, hc, h)
	} else {
		p, err = h.Handle(ctx, cmd, hc)
	}
	d.finish(ctx, cmd, hc, start, p, err, false)
}

// executeWithRecovery executes a handler with panic recovery.
func (d *Dispatcher) executeWithRecovery(ctx context.Context, cmd command.Command, hc *execctx.Context, h handler.Handler) (p event.Payload, err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := make([]byte, 4096)
			n := runtime.Stack(stack, false)

			hc.Logger.Error().
				Interface("panic", r).
				Str("stack", string(stack[:n])).
				Msg("handler panic")

			p, err = nil, &PanicError{Value: r, Stack: string(stack[:n])}
			if d.metrics != nil {
				d.metrics.RecordPanic(cmd.CommandType())
			}
		}
	}()

	return h.Handle(ctx, cmd, hc)
}

// finish emits the terminal event, then runs the post-dispatch hooks and records
// metrics.
func (d *Dispatcher) finish(ctx context.Context, cmd command.Command, hc *execctx.Context, start time.Time, p event.Payload, err error, rejected bool) {
	if err == nil && p == nil {
		err = ErrNoPayload
	}

	out := hook.Outcome{Err: err, Rejected: rejected}
	if err != nil {
		out.Reason = handler.Classify(err)
		_, out.Panicked = err.(*PanicError)
		p = events.CommandFailed{
			Reason:  out.Reason,
			Message: err.Error(),
			Command: cmd,
		}
	}
	out.Event = d.emit(ctx, cmd, p, true)
	out.Duration = time.Since(start)

	d.hooks.RunPostDispatch(ctx, cmd, hc, out)

	if d.metrics != nil {
		d.metrics.RecordDispatch(cmd.CommandType(), out.Duration, out.Reason)
	}
}

func (d *Dispatcher) emit(ctx context.Context, cmd command.Command, p event.Payload, terminal bool) event.Event {
	m := cmd.Metadata()
	return d.emitter.Emit(ctx, event.New(p, event.Metadata{
		CorrelationID: m.CorrelationID,
		CausationID:   m.ID,
		Terminal:      terminal,
	}))
}

// buildContext builds an execution context for cmd.
func (d *Dispatcher) buildContext(cmd command.Command) *execctx.Context {
	m := cmd.Metadata()
	return execctx.New(cmd).
		WithStore(d.store).
		WithBackend(d.backend).
		WithEmitter(d.emitter).
		WithLogger(d.logger.With().
			Str("command", string(cmd.CommandType())).
			Str("command_id", m.ID).
			Logger())
}

// Start starts the async dispatch loop (if enabled).
func (d *Dispatcher) Start() {
	if !d.config.AsyncDispatch {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.stopped {
		return
	}
	d.started = true
	go d.dispatchLoop()
}

// Stop rejects further commands, lets queued commands run and waits for
// running handlers until ctx is done.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	started := d.started
	close(d.done)
	d.mu.Unlock()

	if started {
		<-d.loopDone
	}

	idle := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(idle)
	}()
	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// dispatchLoop validates queued commands in order and starts their handlers.
func (d *Dispatcher) dispatchLoop() {
	defer close(d.loopDone)
	for {
		select {
		case q := <-d.queue:
			d.run(q.ctx, q.cmd, true)
		case <-d.done:
			for {
				select {
				case q := <-d.queue:
					d.run(q.ctx, q.cmd, true)
				default:
					return
				}
			}
		}
	}
}

// Registry returns the handler registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// HookManager returns the hook manager.
func (d *Dispatcher) HookManager() *hook.Manager {
	return d.hooks
}

// Metrics returns the metrics collector (may be nil if disabled).
func (d *Dispatcher) Metrics() *Metrics {
	return d.metrics
}

// Config returns the dispatcher configuration.
func (d *Dispatcher) Config() Config {
	return d.config
}

// Store returns the store.
func (d *Dispatcher) Store() execctx.Store {
	return d.store
}

// Emitter returns the event emitter.
func (d *Dispatcher) Emitter() *event.Emitter {
	return d.emitter
}
