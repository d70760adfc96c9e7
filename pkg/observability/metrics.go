package observability

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records dialogue traffic.
type Metrics struct {
	registry *prometheus.Registry

	nodeVisits      *prometheus.CounterVec
	optionsSelected *prometheus.CounterVec
	sessionsStarted *prometheus.CounterVec
	sessionsEnded   *prometheus.CounterVec
	sessionDuration *prometheus.HistogramVec
	variableWrites  *prometheus.CounterVec
	activeSessions  prometheus.Gauge

	mu      sync.Mutex
	started map[string]time.Time
}

// NewMetrics creates the collectors on a dedicated registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		nodeVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_node_visits_total",
				Help: "Total number of node visits",
			},
			[]string{"document_id", "kind"},
		),
		optionsSelected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_options_selected_total",
				Help: "Total number of options picked by players",
			},
			[]string{"document_id", "node_id"},
		),
		sessionsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_sessions_started_total",
				Help: "Total number of dialogue sessions started",
			},
			[]string{"document_id"},
		),
		sessionsEnded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_sessions_ended_total",
				Help: "Total number of dialogue sessions ended, by reason",
			},
			[]string{"document_id", "reason"},
		),
		sessionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "parley_session_duration_seconds",
				Help:    "Wall time between session start and end",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
			},
			[]string{"document_id"},
		),
		variableWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "parley_variable_changes_total",
				Help: "Total number of blackboard variables changed",
			},
			[]string{"document_id"},
		),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "parley_active_sessions",
			Help: "Number of sessions in progress",
		}),
		started: make(map[string]time.Time),
	}
	m.registry.MustRegister(
		m.nodeVisits,
		m.optionsSelected,
		m.sessionsStarted,
		m.sessionsEnded,
		m.sessionDuration,
		m.variableWrites,
		m.activeSessions,
	)
	return m
}

// Registry exposes the registry, e.g. to add process collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.nodeVisits.WithLabelValues(e.DocumentID, string(e.NodeKind)).Inc()
		},
		OnOptionSelected: func(_ context.Context, e *domain.OptionEvent) {
			m.optionsSelected.WithLabelValues(e.DocumentID, e.NodeID).Inc()
		},
		OnSessionStart: func(_ context.Context, e *domain.SessionEvent) {
			m.sessionsStarted.WithLabelValues(e.DocumentID).Inc()
			m.activeSessions.Inc()
			m.mu.Lock()
			m.started[e.DocumentID] = e.Timestamp
			m.mu.Unlock()
		},
		OnSessionEnd: func(_ context.Context, e *domain.SessionEvent) {
			m.sessionsEnded.WithLabelValues(e.DocumentID, string(e.Reason)).Inc()
			m.activeSessions.Dec()
			m.mu.Lock()
			start, ok := m.started[e.DocumentID]
			delete(m.started, e.DocumentID)
			m.mu.Unlock()
			if ok {
				m.sessionDuration.WithLabelValues(e.DocumentID).Observe(e.Timestamp.Sub(start).Seconds())
			}
		},
		OnVariablesChanged: func(_ context.Context, e *domain.VariablesEvent) {
			if e.Diff == nil {
				return
			}
			n := len(e.Diff.Changed) + len(e.Diff.Added) + len(e.Diff.Removed)
			m.variableWrites.WithLabelValues(e.DocumentID).Add(float64(n))
		},
	}
}
