package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dshills/dashflow/internal/app"
	"github.com/dshills/dashflow/internal/backend"
	"github.com/dshills/dashflow/internal/backend/memory"
	"github.com/dshills/dashflow/internal/backend/redisbackend"
	"github.com/dshills/dashflow/internal/command"
	"github.com/dshills/dashflow/internal/config"
	"github.com/dshills/dashflow/internal/dispatcher"
	"github.com/dshills/dashflow/internal/event"
	"github.com/dshills/dashflow/internal/event/events"
	"github.com/dshills/dashflow/internal/event/topic"
	"github.com/dshills/dashflow/internal/fixture"
	"github.com/dshills/dashflow/internal/model"
	"github.com/dshills/dashflow/internal/selector"
	"github.com/dshills/dashflow/internal/store"
)

type runner struct {
	cfg    config.Config
	opts   options
	logger zerolog.Logger
}

// report is the JSON printed after a run.
type report struct {
	Steps   []stepResult                `json:"steps"`
	Failed  int                         `json:"failed"`
	Digest  []event.DigestEntry         `json:"digest"`
	State   stateSummary                `json:"state"`
	Metrics *dispatcher.MetricsSnapshot `json:"metrics,omitempty"`
	Events  *event.Stats                `json:"events,omitempty"`
}

type stepResult struct {
	Command       command.Type         `json:"command"`
	Event         topic.Topic          `json:"event"`
	CorrelationID string               `json:"correlationId,omitempty"`
	Reason        events.FailureReason `json:"reason,omitempty"`
	Message       string               `json:"message,omitempty"`
	Expected      topic.Topic          `json:"expected,omitempty"`
	OK            bool                 `json:"ok"`
}

type stateSummary struct {
	Loading  string `json:"loading"`
	Ref      string `json:"ref,omitempty"`
	Title    string `json:"title"`
	Sections int    `json:"sections"`
	Widgets  int    `json:"widgets"`
	Filters  int    `json:"filters"`
	Plugins  int    `json:"plugins"`
	Version  uint64 `json:"version"`
}

// step pairs a command with the event type it is expected to end with.
type step struct {
	cmd    command.Command
	expect topic.Topic
}

// execute seeds a backend, runs the script in a fresh session and reports the result.
func (r *runner) execute(ctx context.Context) (*report, error) {
	doc, err := r.loadFixtures()
	if err != nil {
		return nil, err
	}
	steps, err := r.steps()
	if err != nil {
		return nil, err
	}

	be, closeBackend, err := r.openBackend(ctx, doc)
	if err != nil {
		return nil, err
	}
	defer closeBackend()

	s, err := app.NewSession(app.Options{
		Backend:       be,
		Logger:        r.logger,
		Dispatcher:    r.cfg.DispatcherConfig(),
		PluginDir:     r.cfg.Plugins.Dir,
		PluginTimeout: r.cfg.Plugins.Timeout.Duration,
	})
	if err != nil {
		return nil, err
	}
	if err := s.Start(ctx); err != nil {
		return nil, err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Close(closeCtx); err != nil {
			r.logger.Warn().Err(err).Msg("session close")
		}
	}()

	rep := &report{}
	for _, st := range steps {
		res, err := runStep(ctx, s, st)
		if err != nil {
			return nil, err
		}
		if !res.OK {
			rep.Failed++
		}
		rep.Steps = append(rep.Steps, res)
	}

	rep.Digest = s.Digest()
	rep.State = summarize(s.State())
	if r.opts.stats {
		m := s.Metrics()
		st := s.EventStats()
		rep.Metrics, rep.Events = &m, &st
	}
	return rep, nil
}

func runStep(ctx context.Context, s *app.Session, st step) (stepResult, error) {
	var types []topic.Topic
	if st.expect != "" {
		types = append(types, st.expect)
	}
	e, err := s.DispatchAndWait(ctx, st.cmd, types...)
	if err != nil {
		return stepResult{}, fmt.Errorf("%s: %w", st.cmd.CommandType(), err)
	}

	res := stepResult{
		Command:       st.cmd.CommandType(),
		Event:         e.Type,
		CorrelationID: e.Metadata.CorrelationID,
		Expected:      st.expect,
	}
	if failed, ok := event.PayloadAs[events.CommandFailed](e); ok {
		res.Reason = failed.Reason
		res.Message = failed.Message
	}
	if st.expect != "" {
		res.OK = e.Type == st.expect
	} else {
		res.OK = e.Type != events.TopicCommandFailed
	}
	return res, nil
}

func (r *runner) loadFixtures() (*fixture.Document, error) {
	doc := &fixture.Document{}
	for _, path := range r.opts.fixtures {
		part, err := fixture.Load(path)
		if err != nil {
			return nil, err
		}
		doc.Merge(part)
	}
	return doc, nil
}

// steps builds the command list: the -dashboard initialization, then the script.
// A script without its own initialize step starts from a new dashboard.
func (r *runner) steps() ([]step, error) {
	var script []step
	if r.opts.script != "" {
		doc, err := fixture.Load(r.opts.script)
		if err != nil {
			return nil, err
		}
		cmds, err := doc.Commands()
		if err != nil {
			return nil, err
		}
		for i, cmd := range cmds {
			script = append(script, step{cmd: cmd, expect: doc.Steps[i].ExpectedType()})
		}
	}

	switch {
	case r.opts.dashboard != "":
		first := step{cmd: command.Initialize{Ref: model.ParseRef(r.opts.dashboard)}, expect: events.TopicDashboardInitialized}
		return append([]step{first}, script...), nil
	case len(script) == 0 || script[0].cmd.CommandType() != command.TypeInitialize:
		return append([]step{{cmd: command.Initialize{}}}, script...), nil
	default:
		return script, nil
	}
}

// openBackend builds the configured backend and seeds it with the fixtures.
func (r *runner) openBackend(ctx context.Context, doc *fixture.Document) (backend.Backend, func(), error) {
	bc := r.cfg.Backend
	kind := model.RefIdentifier
	if bc.RefType == string(memory.RefTypeURI) {
		kind = model.RefURI
	}
	dashboards, insights, err := doc.Objects(kind)
	if err != nil {
		return nil, nil, err
	}
	logger := app.WithComponent(r.logger, "backend")

	switch bc.Kind {
	case "redis":
		client, err := redisbackend.Connect(ctx, bc.Redis.URL)
		if err != nil {
			return nil, nil, err
		}
		opts := []redisbackend.Option{
			redisbackend.WithPrefix(bc.Redis.KeyPrefix),
			redisbackend.WithWorkspace(bc.Workspace),
			redisbackend.WithLogger(logger),
		}
		if kind == model.RefURI {
			opts = append(opts, redisbackend.WithURIRefs())
		}
		b := redisbackend.New(client, opts...)
		if err := b.Seed(ctx, dashboards, insights); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return b, func() { _ = client.Close() }, nil

	default:
		b := memory.New(
			memory.WithRefType(memory.RefType(bc.RefType)),
			memory.WithWorkspace(bc.Workspace),
			memory.WithLatency(bc.Latency.Duration),
			memory.WithLogger(logger),
		)
		b.Seed(dashboards, insights)
		return b, func() {}, nil
	}
}

func summarize(st *store.State) stateSummary {
	sum := stateSummary{
		Loading: selector.LoadingStatus(st).String(),
		Title:   selector.DashboardTitle(st),
		Widgets: len(selector.Widgets(st)),
		Filters: len(selector.FilterContextFilters(st)),
		Plugins: len(selector.Plugins(st)),
		Version: st.Version,
	}
	if ref := selector.DashboardRef(st); !ref.IsZero() {
		sum.Ref = ref.String()
	}
	sum.Sections = selector.BasicLayout(st).SectionCount()
	return sum
}
