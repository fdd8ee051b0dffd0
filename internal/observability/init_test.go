package observability_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pbkcrack/internal/observability"
)

// Init installs global OTel providers, so these tests do not run in parallel.

func TestInit_NoopByDefault(t *testing.T) {
	var logs bytes.Buffer

	cfg := observability.DefaultConfig()
	cfg.LogOutput = &logs

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })

	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)
	assert.Nil(t, providers.MetricsHandler)

	providers.Logger.Info("started")
	assert.Contains(t, logs.String(), "service=pbkcrack")

	_, span := providers.Tracer.Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsSampled())
	span.End()
}

func TestInit_PrometheusExposesSearchMetrics(t *testing.T) {
	cfg := observability.DefaultConfig()
	cfg.Prometheus = true
	cfg.LogOutput = &bytes.Buffer{}

	providers, err := observability.Init(cfg)
	require.NoError(t, err)

	t.Cleanup(func() { require.NoError(t, providers.Shutdown(context.Background())) })

	require.NotNil(t, providers.MetricsHandler)

	sm, err := observability.NewSearchMetrics(providers.Meter)
	require.NoError(t, err)

	sm.Track(func() (uint64, float64) { return 4321, 12.5 })
	sm.RecordBatch(context.Background(), 10, 100, 250*time.Millisecond)
	sm.RecordRun(context.Background(), "found")

	rec := httptest.NewRecorder()
	providers.MetricsHandler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "pbkcrack_search_candidates_total")
	assert.Contains(t, body, "pbkcrack_search_batches_total")
	assert.Contains(t, body, "pbkcrack_search_attempts")
	assert.Contains(t, body, `outcome="found"`)
	assert.Contains(t, body, "target_info")
}

func TestParseOTLPHeaders(t *testing.T) {
	t.Parallel()

	assert.Nil(t, observability.ParseOTLPHeaders(""))
	assert.Nil(t, observability.ParseOTLPHeaders("garbage"))
	assert.Equal(t,
		map[string]string{"api-key": "secret", "tenant": "lab"},
		observability.ParseOTLPHeaders(" api-key = secret ,tenant=lab,broken"),
	)
}
