package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/pbkcrack/internal/observability"
	"github.com/Sumatoshi-tech/pbkcrack/pkg/checkpoint"
	"github.com/Sumatoshi-tech/pbkcrack/pkg/rules"
	"github.com/Sumatoshi-tech/pbkcrack/pkg/safeconv"
	"github.com/Sumatoshi-tech/pbkcrack/pkg/wordlist"
)

// Outcome is the terminal state of a run.
type Outcome string

// Outcomes. Found and Exhausted are returned in Result; Fatal and Cancelled
// accompany an error and are only reported to metrics.
const (
	OutcomeFound     Outcome = "found"
	OutcomeExhausted Outcome = "exhausted"
	OutcomeFatal     Outcome = "fatal"
	OutcomeCancelled Outcome = "cancelled"
)

// ErrCancelled wraps the context error when a run is interrupted.
var ErrCancelled = errors.New("search: cancelled")

// Result describes a finished run.
type Result struct {
	Outcome  Outcome
	Password string

	// Word and WordOffset identify the dictionary word that produced
	// Password.
	Word       string
	WordOffset uint64

	// TotalAttempts counts candidates tested by this run only.
	TotalAttempts uint64

	// PriorAttempts is the attempt count restored from a checkpoint.
	PriorAttempts uint64

	StartOffset   uint64
	LastOffset    uint64
	WordsConsumed uint64
	RunID         string
	Elapsed       time.Duration
}

// CumulativeAttempts adds the attempts of resumed runs to this one.
func (r Result) CumulativeAttempts() uint64 {
	return r.PriorAttempts + r.TotalAttempts
}

// Rate returns candidates tested per second.
func (r Result) Rate() float64 {
	return rate(r.TotalAttempts, r.Elapsed)
}

// Snapshot is delivered to the progress callback after every batch.
type Snapshot struct {
	Attempts      uint64
	WordsConsumed uint64
	LastOffset    uint64
	Elapsed       time.Duration
	Rate          float64
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithMetrics records run statistics into m.
func WithMetrics(m *observability.SearchMetrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithTracer sets the tracer used for run and checkpoint spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Coordinator) { c.tracer = t }
}

// WithProgress registers fn to receive a Snapshot after each batch. fn is
// called on the coordinator goroutine.
func WithProgress(fn func(Snapshot)) Option {
	return func(c *Coordinator) { c.onProgress = fn }
}

// WithClock replaces time.Now for elapsed-time measurement.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// Coordinator owns a single search run. It is not reusable.
type Coordinator struct {
	cfg    Config
	tester Tester
	rules  []rules.Rule
	source WordSource

	logger     *slog.Logger
	metrics    *observability.SearchMetrics
	tracer     trace.Tracer
	onProgress func(Snapshot)
	now        func() time.Time

	progress Progress
}

// New creates a coordinator. A nil rule set is treated as the identity set.
func New(cfg Config, v Tester, rs *rules.Set, src WordSource, opts ...Option) *Coordinator {
	if rs == nil {
		rs = rules.Identity()
	}

	c := &Coordinator{
		cfg:    cfg.normalized(),
		tester: v,
		rules:  rs.Rules(),
		source: src,
		logger: slog.Default(),
		tracer: noop.NewTracerProvider().Tracer(""),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Progress exposes the shared run state.
func (c *Coordinator) Progress() *Progress {
	return &c.progress
}

// run carries the mutable per-run bookkeeping of the producer goroutine.
type run struct {
	id         string
	started    time.Time
	start      uint64
	prior      uint64
	lastOffset uint64
	consumed   uint64
	manager    *checkpoint.Manager
}

// Run executes the search until a match is found, the word list is
// exhausted, the stream fails or ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) (Result, error) {
	ctx, span := c.tracer.Start(ctx, "search.run")
	defer span.End()

	r := c.initialize(ctx)
	span.SetAttributes(
		attribute.String("run.id", r.id),
		attribute.Int("search.workers", c.cfg.Workers),
		attribute.Int("search.rules", len(c.rules)),
		attribute.Int64("search.start_offset", safeconv.SaturatingInt64(r.start)),
	)

	c.metrics.Track(func() (uint64, float64) {
		n := c.progress.Attempts()

		return n, rate(n, c.now().Sub(r.started))
	})

	res, outcome, err := c.stream(ctx, r)

	c.metrics.RecordRun(ctx, string(outcome))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.SetAttributes(attribute.String("search.outcome", string(outcome)))

	return res, err
}

func (c *Coordinator) initialize(ctx context.Context) *run {
	r := &run{
		id:      uuid.NewString(),
		started: c.now(),
	}

	if c.cfg.Resume {
		r.start, r.prior = c.restore(ctx)
	}

	r.lastOffset = r.start

	if c.cfg.Checkpointing {
		r.manager = checkpoint.NewManager(c.cfg.CheckpointPath, c.cfg.CheckpointInterval)
		r.manager.RunID = r.id
		r.manager.Reset(r.prior)
	}

	c.logger.InfoContext(ctx, "search started",
		"run_id", r.id,
		"workers", c.cfg.Workers,
		"batch_size", c.cfg.BatchSize,
		"rules", len(c.rules),
		"start_offset", r.start,
		"prior_attempts", r.prior,
	)

	return r
}

// restore loads the checkpoint. Missing or unreadable checkpoints start the
// run from the beginning.
func (c *Coordinator) restore(ctx context.Context) (offset, attempts uint64) {
	cp, err := checkpoint.Load(c.cfg.CheckpointPath)

	switch {
	case errors.Is(err, checkpoint.ErrNotFound):
		c.logger.WarnContext(ctx, "no checkpoint to resume from, starting at the first word",
			"path", c.cfg.CheckpointPath)

		return 0, 0
	case err != nil:
		c.logger.WarnContext(ctx, "ignoring unreadable checkpoint, starting at the first word",
			"path", c.cfg.CheckpointPath, "error", err)

		return 0, 0
	}

	c.logger.InfoContext(ctx, "resuming from checkpoint",
		"path", c.cfg.CheckpointPath,
		"wordlist_offset", cp.WordlistOffset,
		"total_attempts", cp.TotalAttempts,
		"previous_run_id", cp.RunID,
	)

	return cp.WordlistOffset, cp.TotalAttempts
}

func (c *Coordinator) stream(ctx context.Context, r *run) (Result, Outcome, error) {
	st, err := c.source.Stream(r.start)
	if err != nil {
		return c.result(r, OutcomeFatal), OutcomeFatal, fmt.Errorf("open word stream: %w", err)
	}
	defer st.Close()

	pool := NewPool(c.cfg.Workers, c.tester, &c.progress)
	defer pool.Close()

	stopOnCancel := context.AfterFunc(ctx, c.progress.Stop)
	defer stopOnCancel()

	records := make([]wordlist.Record, 0, c.cfg.BatchSize)
	candidates := make([]candidate, 0, c.cfg.BatchSize*len(c.rules))

	for {
		if ctx.Err() != nil {
			return c.cancel(ctx, r)
		}

		records = fill(st, records[:0], c.cfg.BatchSize)

		if st.Err() != nil {
			c.logger.ErrorContext(ctx, "word list read failed", "run_id", r.id, "error", st.Err())

			return c.result(r, OutcomeFatal), OutcomeFatal, fmt.Errorf("read word list: %w", st.Err())
		}

		if len(records) == 0 {
			break
		}

		candidates = c.expand(candidates[:0], records)

		b := newBatch(candidates)
		c.process(ctx, pool, b, len(records))

		if w, ok := b.winner(); ok {
			return c.found(ctx, r, w)
		}

		if ctx.Err() != nil {
			return c.cancel(ctx, r)
		}

		r.lastOffset = records[len(records)-1].Offset
		r.consumed += safeconv.MustIntToUint64(len(records))

		c.maybeCheckpoint(ctx, r)
		c.report(r)
	}

	res := c.result(r, OutcomeExhausted)

	c.logger.InfoContext(ctx, "word list exhausted",
		"run_id", r.id,
		"attempts", res.TotalAttempts,
		"words", res.WordsConsumed,
		"elapsed", res.Elapsed,
	)

	return res, OutcomeExhausted, nil
}

func fill(st *wordlist.Stream, dst []wordlist.Record, n int) []wordlist.Record {
	for len(dst) < n && st.Next() {
		dst = append(dst, st.Record())
	}

	return dst
}

func (c *Coordinator) expand(dst []candidate, records []wordlist.Record) []candidate {
	for _, rec := range records {
		for _, rule := range c.rules {
			dst = append(dst, candidate{
				text:   rule.Apply(rec.Text),
				word:   rec.Text,
				offset: rec.Offset,
			})
		}
	}

	return dst
}

func (c *Coordinator) process(ctx context.Context, pool *Pool, b *batch, words int) {
	if c.logger.Enabled(ctx, slog.LevelDebug) {
		_, span := c.tracer.Start(ctx, "search.batch",
			trace.WithAttributes(attribute.Int("batch.candidates", len(b.candidates))))
		defer span.End()
	}

	before := c.progress.Attempts()
	start := c.now()

	pool.run(b)

	elapsed := c.now().Sub(start)
	c.metrics.RecordBatch(ctx, words, c.progress.Attempts()-before, elapsed)

	c.logger.DebugContext(ctx, "batch done",
		"words", words,
		"candidates", len(b.candidates),
		"elapsed", elapsed,
	)
}

func (c *Coordinator) found(ctx context.Context, r *run, w candidate) (Result, Outcome, error) {
	res := c.result(r, OutcomeFound)
	res.Password, _ = c.progress.Found()
	res.Word = w.word
	res.WordOffset = w.offset

	if c.cfg.Resume || c.cfg.Checkpointing {
		err := checkpoint.Delete(c.cfg.CheckpointPath)
		if err != nil {
			c.logger.WarnContext(ctx, "failed to delete checkpoint", "path", c.cfg.CheckpointPath, "error", err)
		}
	}

	c.logger.InfoContext(ctx, "password found",
		"run_id", r.id,
		"word_offset", w.offset,
		"attempts", res.TotalAttempts,
		"elapsed", res.Elapsed,
	)

	return res, OutcomeFound, nil
}

func (c *Coordinator) cancel(ctx context.Context, r *run) (Result, Outcome, error) {
	if r.manager != nil {
		c.saveCheckpoint(ctx, r)
	}

	res := c.result(r, OutcomeCancelled)

	c.logger.WarnContext(ctx, "search interrupted",
		"run_id", r.id,
		"last_offset", r.lastOffset,
		"attempts", res.TotalAttempts,
	)

	return res, OutcomeCancelled, fmt.Errorf("%w: %w", ErrCancelled, context.Cause(ctx))
}

func (c *Coordinator) maybeCheckpoint(ctx context.Context, r *run) {
	if r.manager == nil || !r.manager.ShouldSave(r.prior+c.progress.Attempts()) {
		return
	}

	c.saveCheckpoint(ctx, r)
}

// saveCheckpoint writes unconditionally. Failures are logged and counted.
func (c *Coordinator) saveCheckpoint(ctx context.Context, r *run) {
	// The run context may already be cancelled; the write must still happen.
	ctx, span := c.tracer.Start(context.WithoutCancel(ctx), "checkpoint.save")
	defer span.End()

	total := r.prior + c.progress.Attempts()

	err := r.manager.Save(r.lastOffset, 0, total)
	c.metrics.RecordCheckpoint(ctx, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.WarnContext(ctx, "checkpoint write failed", "path", r.manager.Path, "error", err)

		return
	}

	c.logger.DebugContext(ctx, "checkpoint saved",
		"path", r.manager.Path,
		"wordlist_offset", r.lastOffset,
		"total_attempts", total,
	)
}

func (c *Coordinator) report(r *run) {
	if c.onProgress == nil {
		return
	}

	elapsed := c.now().Sub(r.started)
	n := c.progress.Attempts()

	c.onProgress(Snapshot{
		Attempts:      n,
		WordsConsumed: r.consumed,
		LastOffset:    r.lastOffset,
		Elapsed:       elapsed,
		Rate:          rate(n, elapsed),
	})
}

func (c *Coordinator) result(r *run, outcome Outcome) Result {
	return Result{
		Outcome:       outcome,
		TotalAttempts: c.progress.Attempts(),
		PriorAttempts: r.prior,
		StartOffset:   r.start,
		LastOffset:    r.lastOffset,
		WordsConsumed: r.consumed,
		RunID:         r.id,
		Elapsed:       c.now().Sub(r.started),
	}
}

func rate(attempts uint64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}

	return float64(attempts) / elapsed.Seconds()
}
