package observability

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Sumatoshi-tech/pbkcrack/pkg/safeconv"
)

const (
	metricCandidatesTotal  = "pbkcrack.search.candidates.total"
	metricWordsTotal       = "pbkcrack.search.words.total"
	metricBatchesTotal     = "pbkcrack.search.batches.total"
	metricBatchDuration    = "pbkcrack.search.batch.duration.seconds"
	metricRunsTotal        = "pbkcrack.search.runs.total"
	metricCheckpointWrites = "pbkcrack.checkpoint.writes.total"
	metricAttempts         = "pbkcrack.search.attempts"
	metricRate             = "pbkcrack.search.rate"

	attrOutcome = "outcome"
	attrStatus  = "status"

	statusOK    = "ok"
	statusError = "error"
)

// batchBucketBoundaries spans a fast batch at low iteration counts up to
// minutes-long batches at production iteration counts.
var batchBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600}

// ProgressSource reports the live attempt count and rate of a running search.
type ProgressSource func() (attempts uint64, rate float64)

// SearchMetrics holds the OTel instruments describing a search run.
// All methods are safe to call on a nil receiver.
type SearchMetrics struct {
	candidates       metric.Int64Counter
	words            metric.Int64Counter
	batches          metric.Int64Counter
	batchDuration    metric.Float64Histogram
	runs             metric.Int64Counter
	checkpointWrites metric.Int64Counter
	attempts         metric.Int64ObservableGauge
	rate             metric.Float64ObservableGauge

	source atomic.Pointer[ProgressSource]
}

// NewSearchMetrics creates the search instruments from mt.
func NewSearchMetrics(mt metric.Meter) (*SearchMetrics, error) {
	b := newMetricBuilder(mt)

	sm := &SearchMetrics{
		candidates:       b.counter(metricCandidatesTotal, "Candidates tested", "{candidate}"),
		words:            b.counter(metricWordsTotal, "Dictionary words consumed", "{word}"),
		batches:          b.counter(metricBatchesTotal, "Batches processed", "{batch}"),
		batchDuration:    b.histogram(metricBatchDuration, "Per-batch processing duration in seconds", "s", batchBucketBoundaries...),
		runs:             b.counter(metricRunsTotal, "Completed search runs by outcome", "{run}"),
		checkpointWrites: b.counter(metricCheckpointWrites, "Checkpoint writes by status", "{write}"),
		attempts:         b.gauge(metricAttempts, "Attempts made by the running search", "{candidate}"),
		rate:             b.floatGauge(metricRate, "Current candidate test rate", "{candidate}/s"),
	}

	if b.err != nil {
		return nil, b.err
	}

	_, err := mt.RegisterCallback(sm.observe, sm.attempts, sm.rate)
	if err != nil {
		return nil, err
	}

	return sm, nil
}

// Track makes src the source of the attempts and rate gauges.
func (sm *SearchMetrics) Track(src ProgressSource) {
	if sm == nil {
		return
	}

	sm.source.Store(&src)
}

// RecordBatch records one processed batch.
func (sm *SearchMetrics) RecordBatch(ctx context.Context, words int, candidates uint64, elapsed time.Duration) {
	if sm == nil {
		return
	}

	sm.batches.Add(ctx, 1)
	sm.words.Add(ctx, int64(words))
	sm.candidates.Add(ctx, safeconv.SaturatingInt64(candidates))
	sm.batchDuration.Record(ctx, elapsed.Seconds())
}

// RecordCheckpoint records a checkpoint write attempt.
func (sm *SearchMetrics) RecordCheckpoint(ctx context.Context, err error) {
	if sm == nil {
		return
	}

	status := statusOK
	if err != nil {
		status = statusError
	}

	sm.checkpointWrites.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, status)))
}

// RecordRun records the terminal outcome of a run.
func (sm *SearchMetrics) RecordRun(ctx context.Context, outcome string) {
	if sm == nil {
		return
	}

	sm.runs.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOutcome, outcome)))
}

func (sm *SearchMetrics) observe(_ context.Context, obs metric.Observer) error {
	src := sm.source.Load()
	if src == nil {
		return nil
	}

	attempts, rate := (*src)()
	obs.ObserveInt64(sm.attempts, safeconv.SaturatingInt64(attempts))
	obs.ObserveFloat64(sm.rate, rate)

	return nil
}
