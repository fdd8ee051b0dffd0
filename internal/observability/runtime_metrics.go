package observability

import (
	"context"
	"fmt"
	runtimemetrics "runtime/metrics"

	"go.opentelemetry.io/otel/metric"

	"github.com/Sumatoshi-tech/pbkcrack/pkg/safeconv"
)

const (
	metricGoroutines = "pbkcrack.runtime.goroutines"
	metricGOMAXPROCS = "pbkcrack.runtime.gomaxprocs"

	sampleGoroutines = "/sched/goroutines:goroutines"
	sampleGOMAXPROCS = "/sched/gomaxprocs:threads"
)

// RuntimeMetrics exposes scheduler gauges read from runtime/metrics on
// every collection cycle.
type RuntimeMetrics struct {
	goroutines metric.Int64ObservableGauge
	gomaxprocs metric.Int64ObservableGauge
}

// NewRuntimeMetrics registers the runtime gauges on mt.
func NewRuntimeMetrics(mt metric.Meter) (*RuntimeMetrics, error) {
	b := newMetricBuilder(mt)

	rm := &RuntimeMetrics{
		goroutines: b.gauge(metricGoroutines, "Current number of live goroutines", "{goroutine}"),
		gomaxprocs: b.gauge(metricGOMAXPROCS, "Current GOMAXPROCS setting", "{thread}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	_, err := mt.RegisterCallback(rm.observe, rm.goroutines, rm.gomaxprocs)
	if err != nil {
		return nil, fmt.Errorf("register runtime metrics callback: %w", err)
	}

	return rm, nil
}

func (rm *RuntimeMetrics) observe(_ context.Context, obs metric.Observer) error {
	samples := []runtimemetrics.Sample{
		{Name: sampleGoroutines},
		{Name: sampleGOMAXPROCS},
	}

	runtimemetrics.Read(samples)

	for idx := range samples {
		val, ok := sampleInt64Value(samples[idx].Value)
		if !ok {
			continue
		}

		switch samples[idx].Name {
		case sampleGoroutines:
			obs.ObserveInt64(rm.goroutines, val)
		case sampleGOMAXPROCS:
			obs.ObserveInt64(rm.gomaxprocs, val)
		}
	}

	return nil
}

func sampleInt64Value(val runtimemetrics.Value) (int64, bool) {
	switch val.Kind() {
	case runtimemetrics.KindUint64:
		return safeconv.SaturatingInt64(val.Uint64()), true
	case runtimemetrics.KindFloat64:
		return int64(val.Float64()), true
	case runtimemetrics.KindBad, runtimemetrics.KindFloat64Histogram:
		return 0, false
	default:
		return 0, false
	}
}
