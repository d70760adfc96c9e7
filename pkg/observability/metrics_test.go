package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/observability"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func base(t domain.EventType, at time.Time) domain.EventBase {
	return domain.EventBase{Timestamp: at, Type: t, DocumentID: "shop"}
}

func TestMetrics_Hooks(t *testing.T) {
	ctx := context.Background()
	m := observability.NewMetrics()
	hooks := m.Hooks()
	start := time.Now()

	hooks.OnSessionStart(ctx, &domain.SessionEvent{EventBase: base(domain.EventSessionStart, start)})
	hooks.OnNodeEnter(ctx, &domain.NodeEvent{EventBase: base(domain.EventNodeEnter, start), NodeID: "root", NodeKind: domain.KindRoot})
	hooks.OnNodeEnter(ctx, &domain.NodeEvent{EventBase: base(domain.EventNodeEnter, start), NodeID: "hi", NodeKind: domain.KindSpeech})
	hooks.OnNodeEnter(ctx, &domain.NodeEvent{EventBase: base(domain.EventNodeEnter, start), NodeID: "bye", NodeKind: domain.KindSpeech})
	hooks.OnOptionSelected(ctx, &domain.OptionEvent{EventBase: base(domain.EventOptionSelected, start), NodeID: "ask", Index: 1})
	hooks.OnVariablesChanged(ctx, &domain.VariablesEvent{
		EventBase: base(domain.EventVariablesChanged, start),
		Diff:      &domain.BlackboardDiff{Changed: map[string]domain.ValueChange{"gold": {Old: int64(1), New: int64(2)}}},
	})

	hooks.OnSessionEnd(ctx, &domain.SessionEvent{
		EventBase: base(domain.EventSessionEnd, start.Add(3*time.Second)),
		Reason:    domain.EndNoConnection,
	})

	expected := `
# HELP parley_node_visits_total Total number of node visits
# TYPE parley_node_visits_total counter
parley_node_visits_total{document_id="shop",kind="root"} 1
parley_node_visits_total{document_id="shop",kind="speech"} 2
# HELP parley_sessions_ended_total Total number of dialogue sessions ended, by reason
# TYPE parley_sessions_ended_total counter
parley_sessions_ended_total{document_id="shop",reason="no_connection"} 1
# HELP parley_active_sessions Number of sessions in progress
# TYPE parley_active_sessions gauge
parley_active_sessions 0
`
	err := testutil.GatherAndCompare(m.Registry(), bytes.NewBufferString(expected),
		"parley_node_visits_total", "parley_sessions_ended_total", "parley_active_sessions")
	assert.NoError(t, err)

	for _, name := range []string{
		"parley_session_duration_seconds",
		"parley_options_selected_total",
		"parley_variable_changes_total",
	} {
		n, err := testutil.GatherAndCount(m.Registry(), name)
		require.NoError(t, err)
		assert.Equal(t, 1, n, name)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := observability.NewMetrics()
	m.Hooks().OnSessionStart(context.Background(), &domain.SessionEvent{EventBase: base(domain.EventSessionStart, time.Now())})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `parley_sessions_started_total{document_id="shop"} 1`)
}

func TestLoggingHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	hooks := observability.LoggingHooks(logger)

	hooks.OnSessionEnd(context.Background(), &domain.SessionEvent{
		EventBase: base(domain.EventSessionEnd, time.Now()),
		Reason:    domain.EndStepBudget,
		Err:       domain.ErrStepBudgetExceeded,
	})
	out := buf.String()
	assert.Contains(t, out, "session_end")
	assert.Contains(t, out, "reason=step_budget_exhausted")
	assert.Contains(t, out, "err=")
}
