package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	m := New()
	reg := prometheus.NewRegistry()

	require.NoError(t, m.Register(reg))
	assert.Error(t, m.Register(reg), "second registration must fail")
}

func TestObservePopularityOp(t *testing.T) {
	m := New()

	m.ObservePopularityOp(OpIncrement, nil)
	m.ObservePopularityOp(OpIncrement, nil)
	m.ObservePopularityOp(OpIncrement, errors.New("down"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.popularityOps.WithLabelValues(OpIncrement, ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.popularityOps.WithLabelValues(OpIncrement, ResultFailure)))
}

func TestDegradedAndPruned(t *testing.T) {
	m := New()

	m.IncPopularityDegraded(OpScore)
	m.AddPopularityPruned(3)
	m.AddPopularityPruned(0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.popularityDegraded.WithLabelValues(OpScore)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.popularityPruned))
}

func TestNilReceiver(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObservePopularityOp(OpTopK, nil)
		m.IncPopularityDegraded(OpTopK)
		m.ObserveSearch("DISTANCE", 0.1, 3)
		m.ObserveHTTPRequest("GET", "/health", "200", 0.01)
		m.ObserveJob("prune", 1, nil)
		m.IncBreakerTransition("popularity-store", "open")
	})
}
