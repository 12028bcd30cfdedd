package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// Collectors register in the global Prometheus registry, so a single
// instance is shared by every test in this package.
var metrics = NewPrometheusMetrics()

func TestPrometheusMetrics_RecordLatency(t *testing.T) {
	before := testutil.CollectAndCount(metrics.passDuration)

	metrics.RecordLatency("derive", 120*time.Millisecond, nil)
	metrics.RecordLatency("derive", 80*time.Millisecond, map[string]string{"status": "error"})

	assert.Greater(t, testutil.CollectAndCount(metrics.passDuration), before)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.operationCounter.WithLabelValues("derive", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.operationCounter.WithLabelValues("derive", "error")))
}

func TestPrometheusMetrics_RecordCounter(t *testing.T) {
	metrics.RecordCounter("records", 250, nil)
	metrics.RecordCounter("records", 50, nil)
	assert.Equal(t, 300.0, testutil.ToFloat64(metrics.recordsProcessed))

	metrics.RecordCounter("cache_refresh", 1, nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.operationCounter.WithLabelValues("cache_refresh", "ok")))
}

func TestStartDeriveSpan(t *testing.T) {
	ctx, end := StartDeriveSpan(context.Background(), "league.Derive", 10, true, false)
	assert.NotNil(t, ctx)
	end(nil)

	_, end = StartDeriveSpan(context.Background(), "league.Derive", 0, false, false)
	end(errors.New("boom"))
}
