package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/dashflow/internal/config"
	"github.com/dshills/dashflow/internal/event/events"
)

const dashboards = `
[[insight]]
identifier = "insight-sales"
title = "Sales"

[[dashboard]]
identifier = "overview"
title = "Overview"

[dashboard.filter_context]
identifier = "overview-fc"

[[dashboard.section]]
title = "Sales"

[[dashboard.section.item]]
type = "insight"
identifier = "widget-sales"
insight = "insight-sales"
`

const script = `
[[step]]
command = "rename"
title = "Renamed"
correlation = "rename"

[[step]]
command = "add_section"
index = 0
title = "KPIs"

[[step.item]]
type = "kpi"
measure = "measure-revenue"

[[step]]
command = "change_insight_properties"
ref = "widget-sales"
expect = "dash.evt.insight_widget.properties_changed"

[step.properties.controls]
legend = false

[[step]]
command = "save"
expect = "dash.evt.saved"
`

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newRunner(t *testing.T, opts options) *runner {
	t.Helper()
	return &runner{cfg: config.Default(), opts: opts, logger: zerolog.Nop()}
}

func TestExecute_Script(t *testing.T) {
	r := newRunner(t, options{
		fixtures:  []string{writeTemp(t, "dashboards.toml", dashboards)},
		dashboard: "overview",
		script:    writeTemp(t, "script.toml", script),
		stats:     true,
	})

	rep, err := r.execute(t.Context())
	require.NoError(t, err)

	require.Len(t, rep.Steps, 5)
	assert.Zero(t, rep.Failed)
	assert.Equal(t, events.TopicDashboardInitialized, rep.Steps[0].Event)
	assert.Equal(t, "rename", rep.Steps[1].CorrelationID)
	assert.Equal(t, events.TopicDashboardSaved, rep.Steps[4].Event)

	assert.Equal(t, "Renamed", rep.State.Title)
	assert.Equal(t, "id:overview", rep.State.Ref)
	assert.Equal(t, 2, rep.State.Sections)
	assert.Equal(t, 2, rep.State.Widgets)
	assert.Equal(t, "loaded", rep.State.Loading)
	assert.Len(t, rep.Digest, 10)

	require.NotNil(t, rep.Metrics)
	assert.Equal(t, uint64(5), rep.Metrics.TotalDispatches)
	require.NotNil(t, rep.Events)
}

func TestExecute_FailedExpectation(t *testing.T) {
	r := newRunner(t, options{
		fixtures: []string{writeTemp(t, "dashboards.toml", dashboards)},
		script: writeTemp(t, "script.toml", `
[[step]]
command = "change_widget_header"
ref = "missing"
title = "x"

[[step]]
command = "delete"
expect = "dash.evt.command.failed"
`),
	})

	rep, err := r.execute(t.Context())
	require.NoError(t, err)

	require.Len(t, rep.Steps, 3, "a new dashboard is initialized first")
	assert.True(t, rep.Steps[0].OK)
	assert.False(t, rep.Steps[1].OK)
	assert.Equal(t, events.ReasonUserError, rep.Steps[1].Reason)
	assert.True(t, rep.Steps[2].OK, "expected failure")
	assert.Equal(t, 1, rep.Failed)
	assert.Nil(t, rep.Metrics)
}

func TestExecute_BadScript(t *testing.T) {
	r := newRunner(t, options{script: writeTemp(t, "script.toml", "[[step]]\ncommand = \"fly\"\n")})
	_, err := r.execute(t.Context())
	assert.ErrorContains(t, err, "step 1")
}

func TestWatchedFiles(t *testing.T) {
	cfgPath := writeTemp(t, "dashflow.toml", "")
	r := newRunner(t, options{
		configPath: cfgPath,
		fixtures:   []string{"a.toml", "b.toml"},
		script:     "script.toml",
	})
	assert.Equal(t, []string{"a.toml", "b.toml", "script.toml", cfgPath}, r.watchedFiles())

	r.opts.configPath = filepath.Join(t.TempDir(), "missing.toml")
	assert.Equal(t, []string{"a.toml", "b.toml", "script.toml"}, r.watchedFiles())
}
