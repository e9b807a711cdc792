package dispatcher

import (
	"sort"
	"sync"
	"time"

	"github.com/dshills/dashflow/internal/command"
	"github.com/dshills/dashflow/internal/event/events"
)

// Metrics collects dispatch statistics.
type Metrics struct {
	mu sync.RWMutex

	// Per-command metrics
	commandMetrics map[command.Type]*CommandMetrics

	// Global counters
	totalDispatches uint64
	totalFailures   uint64
	totalPanics     uint64

	// Timing
	totalDuration time.Duration
}

// CommandMetrics holds metrics for one command type.
type CommandMetrics struct {
	Type           command.Type
	DispatchCount  uint64
	FailureCount   uint64
	UserErrors     uint64
	InternalErrors uint64
	PanicCount     uint64
	TotalDuration  time.Duration
	MinDuration    time.Duration
	MaxDuration    time.Duration
	LastReason     events.FailureReason
	LastDispatch   time.Time
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		commandMetrics: make(map[command.Type]*CommandMetrics),
	}
}

// RecordDispatch records a finished command. An empty reason means success.
func (m *Metrics) RecordDispatch(t command.Type, duration time.Duration, reason events.FailureReason) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalDispatches++
	m.totalDuration += duration
	if reason != "" {
		m.totalFailures++
	}

	cm := m.commandMetrics[t]
	if cm == nil {
		cm = &CommandMetrics{
			Type:        t,
			MinDuration: duration,
			MaxDuration: duration,
		}
		m.commandMetrics[t] = cm
	}

	cm.DispatchCount++
	cm.TotalDuration += duration
	cm.LastReason = reason
	cm.LastDispatch = time.Now()

	if duration < cm.MinDuration {
		cm.MinDuration = duration
	}
	if duration > cm.MaxDuration {
		cm.MaxDuration = duration
	}

	switch reason {
	case events.ReasonUserError:
		cm.FailureCount++
		cm.UserErrors++
	case events.ReasonInternalError:
		cm.FailureCount++
		cm.InternalErrors++
	}
}

// RecordPanic records a recovered handler panic. The dispatch itself is recorded
// separately by RecordDispatch.
func (m *Metrics) RecordPanic(t command.Type) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.totalPanics++
	cm := m.commandMetrics[t]
	if cm == nil {
		cm = &CommandMetrics{Type: t}
		m.commandMetrics[t] = cm
	}
	cm.PanicCount++
}

// TotalDispatches returns the total number of dispatches.
func (m *Metrics) TotalDispatches() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalDispatches
}

// TotalFailures returns the total number of failed commands.
func (m *Metrics) TotalFailures() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalFailures
}

// TotalPanics returns the total number of panics recovered.
func (m *Metrics) TotalPanics() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.totalPanics
}

// CommandStats returns metrics for a command type, or nil.
func (m *Metrics) CommandStats(t command.Type) *CommandMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cm := m.commandMetrics[t]
	if cm == nil {
		return nil
	}
	c := *cm
	return &c
}

// TopCommands returns the n most dispatched command types.
func (m *Metrics) TopCommands(n int) []*CommandMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]*CommandMetrics, 0, len(m.commandMetrics))
	for _, cm := range m.commandMetrics {
		c := *cm
		all = append(all, &c)
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].DispatchCount == all[j].DispatchCount {
			return all[i].Type < all[j].Type
		}
		return all[i].DispatchCount > all[j].DispatchCount
	})

	if n > len(all) {
		n = len(all)
	}
	return all[:n]
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.commandMetrics = make(map[command.Type]*CommandMetrics)
	m.totalDispatches = 0
	m.totalFailures = 0
	m.totalPanics = 0
	m.totalDuration = 0
}

// MetricsSnapshot is a point-in-time copy of the global counters.
type MetricsSnapshot struct {
	TotalDispatches uint64        `json:"totalDispatches"`
	TotalFailures   uint64        `json:"totalFailures"`
	TotalPanics     uint64        `json:"totalPanics"`
	TotalDuration   time.Duration `json:"totalDuration"`
	AverageDuration time.Duration `json:"averageDuration"`
	CommandCount    int           `json:"commandCount"`
	Timestamp       time.Time     `json:"timestamp"`
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snapshot := MetricsSnapshot{
		TotalDispatches: m.totalDispatches,
		TotalFailures:   m.totalFailures,
		TotalPanics:     m.totalPanics,
		TotalDuration:   m.totalDuration,
		CommandCount:    len(m.commandMetrics),
		Timestamp:       time.Now(),
	}
	if m.totalDispatches > 0 {
		snapshot.AverageDuration = m.totalDuration / time.Duration(m.totalDispatches)
	}
	return snapshot
}

// AverageDuration returns the average duration of the command type.
func (cm *CommandMetrics) AverageDuration() time.Duration {
	if cm.DispatchCount == 0 {
		return 0
	}
	return cm.TotalDuration / time.Duration(cm.DispatchCount)
}

// FailureRate returns the failure rate as a percentage.
func (cm *CommandMetrics) FailureRate() float64 {
	if cm.DispatchCount == 0 {
		return 0
	}
	return float64(cm.FailureCount) / float64(cm.DispatchCount) * 100
}
