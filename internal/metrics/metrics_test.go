package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	m := New()

	m.RecordCompletion("gpt-4o", time.Second, nil, map[string]int{"input_tokens": 100, "output_tokens": 20})
	m.RecordCompletion("gpt-4o", time.Second, errors.New("boom"), nil)
	m.RecordTool("Address.Validate", "success", time.Millisecond)
	m.SessionStarted()
	m.SessionEnded("completed", 3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CompletionCalls.WithLabelValues("gpt-4o", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CompletionCalls.WithLabelValues("gpt-4o", "error")))
	assert.Equal(t, 100.0, testutil.ToFloat64(m.CompletionTokens.WithLabelValues("gpt-4o", "input")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolInvocations.WithLabelValues("Address.Validate", "success")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.SessionsActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsEnded.WithLabelValues("completed")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordCompletion("m", time.Second, nil, nil)
		m.RecordTool("x", "error", 0)
		m.SessionStarted()
		m.SessionEnded("failed", 0)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.RecordTool("Billing.GetBalance", "not_found", 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `contactdesk_tool_invocations_total{operation="Billing.GetBalance",status="not_found"} 1`)
}
