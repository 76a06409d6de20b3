package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics()

	m.RecordTransition("enviar", "ok", 10*time.Millisecond)
	m.RecordTransition("enviar", "ok", 10*time.Millisecond)
	m.RecordTransition("enviar", "INVALID_TRANSITION", time.Millisecond)
	m.RecordMovement("enviar")
	m.RecordCollaboratorFailure("ledger")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("enviar", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("enviar", "INVALID_TRANSITION")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.movements.WithLabelValues("enviar")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.collaboratorFailures.WithLabelValues("ledger")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/x", "GET", 200, time.Millisecond)
		m.RecordError("/x", "GET", "NOT_FOUND")
		m.RecordTransition("entregar", "ok", time.Millisecond)
		m.RecordMovement("entregar")
		m.RecordCollaboratorFailure("directory")
		m.RecordReconciliationPending()
	})
}
