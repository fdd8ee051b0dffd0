package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pbkcrack/internal/observability"
	"github.com/Sumatoshi-tech/pbkcrack/pkg/config"
	"github.com/Sumatoshi-tech/pbkcrack/pkg/pbkdf2hash"
	"github.com/Sumatoshi-tech/pbkcrack/pkg/report"
	"github.com/Sumatoshi-tech/pbkcrack/pkg/rules"
	"github.com/Sumatoshi-tech/pbkcrack/pkg/search"
	"github.com/Sumatoshi-tech/pbkcrack/pkg/verifier"
	"github.com/Sumatoshi-tech/pbkcrack/pkg/wordlist"
)

const diagnosticsShutdownTimeout = 5 * time.Second

// errNotSearching is reported by the readiness probe before the search
// starts and after it ends.
var errNotSearching = errors.New("search not running")

// CrackCommand holds the flags of the crack command.
type CrackCommand struct {
	hash     string
	wordlist string

	rulesFile          string
	defaultRules       bool
	workers            int
	batchSize          int
	resume             bool
	checkpointPath     string
	checkpointInterval uint64
	noCheckpoint       bool
	format             string
	silent             bool
	countWords         bool
	diagnosticsAddr    string

	loadConfig configLoader
	initObs    observabilityInit
}

// NewCrackCommand creates the crack command.
func NewCrackCommand() *cobra.Command {
	return newCrackCommandWithDeps(config.LoadConfig, observability.Init)
}

func newCrackCommandWithDeps(loadConfig configLoader, initObs observabilityInit) *cobra.Command {
	cc := &CrackCommand{
		loadConfig: loadConfig,
		initObs:    initObs,
	}

	cmd := &cobra.Command{
		Use:   "crack --hash HASH --wordlist FILE",
		Short: "Search a word list for the password behind a hash",
		Long: `Stream the word list, expand every word through the rule set and test the
candidates on all workers until the password is found or the list runs out.

Progress is checkpointed periodically and on interrupt; rerun with --resume to
continue an interrupted search.`,
		Args:          cobra.NoArgs,
		RunE:          cc.run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVar(&cc.hash, "hash", "", "Target hash: pbkdf2:sha256:<iterations>$<salt>$<hex digest>")
	cmd.Flags().StringVarP(&cc.wordlist, "wordlist", "w", "", "Word list, one word per line (.lz4 files are decompressed)")
	cmd.Flags().StringVarP(&cc.rulesFile, "rules", "r", "", "Rules file")
	cmd.Flags().BoolVar(&cc.defaultRules, "default-rules", false, "Use the built-in rule preset")
	cmd.Flags().IntVar(&cc.workers, "workers", 0, "Number of parallel workers (0 = use CPU count)")
	cmd.Flags().IntVar(&cc.batchSize, "batch-size", config.DefaultSearchBatchSize, "Words per batch")
	cmd.Flags().BoolVar(&cc.resume, "resume", false, "Resume from the checkpoint if one exists")
	cmd.Flags().StringVar(&cc.checkpointPath, "checkpoint", config.DefaultCheckpointPath, "Checkpoint file")
	cmd.Flags().Uint64Var(&cc.checkpointInterval, "checkpoint-interval", config.DefaultCheckpointInterval,
		"Attempts between checkpoint writes")
	cmd.Flags().BoolVar(&cc.noCheckpoint, "no-checkpoint", false, "Disable checkpoint writes")
	cmd.Flags().StringVar(&cc.format, "format", config.DefaultOutputFormat, "Report format: text, json, yaml")
	cmd.Flags().BoolVar(&cc.silent, "silent", false, "Disable banner and progress output")
	cmd.Flags().BoolVar(&cc.countWords, "count-words", false, "Scan the word list once to show its word count in the banner")
	cmd.Flags().StringVar(&cc.diagnosticsAddr, "diagnostics-addr", "",
		"Serve /healthz, /readyz and /metrics on this address while searching")

	_ = cmd.MarkFlagRequired("hash")
	_ = cmd.MarkFlagRequired("wordlist")

	return cmd
}

func (cc *CrackCommand) run(cmd *cobra.Command, _ []string) error {
	g := readGlobals(cmd)
	silent := cc.silent || g.quiet
	progressWriter := cmd.ErrOrStderr()

	cfg, err := cc.resolveConfig(cmd, g)
	if err != nil {
		return err
	}

	desc, err := pbkdf2hash.Parse(cc.hash)
	if err != nil {
		return fmt.Errorf("parse hash: %w", err)
	}

	src, err := wordlist.Open(cc.wordlist)
	if err != nil {
		return err
	}

	providers, err := cc.initObs(buildObservabilityConfig(cfg, g, observability.ModeCrack, progressWriter))
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}
	defer shutdownObservability(providers)

	logger := providers.Logger

	rs, err := loadRules(cfg, func(stats rules.LoadStats) {
		logger.Info("rules loaded", "path", cfg.Search.RulesFile, "loaded", stats.Loaded, "dropped", stats.Dropped)

		if stats.Dropped > 0 {
			logger.Warn("rules file contains unparseable lines", "path", cfg.Search.RulesFile, "dropped", stats.Dropped)
		}
	})
	if err != nil {
		return err
	}

	metrics, err := observability.NewSearchMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("create search metrics: %w", err)
	}

	searchCfg := search.Config{
		Workers:            cfg.Search.Workers,
		BatchSize:          cfg.Search.BatchSize,
		CheckpointPath:     cfg.Checkpoint.Path,
		CheckpointInterval: cfg.Checkpoint.Interval,
		Resume:             cfg.Checkpoint.Resume,
		Checkpointing:      cfg.Checkpoint.Enabled,
	}

	opts := []search.Option{
		search.WithLogger(logger),
		search.WithMetrics(metrics),
		search.WithTracer(providers.Tracer),
	}

	if !silent {
		printer := report.NewProgressPrinter(progressWriter, cfg.Output.ProgressInterval)
		opts = append(opts, search.WithProgress(func(s search.Snapshot) { printer.Print(s) }))

		var words uint64

		if cc.countWords {
			words, err = src.Count()
			if err != nil {
				return fmt.Errorf("count words: %w", err)
			}
		}

		bannerErr := report.Banner(progressWriter, report.BannerInfo{
			Iterations:   desc.Iterations,
			SaltLength:   len(desc.Salt),
			Rules:        rs.Len(),
			Wordlist:     src.Path(),
			WordlistSize: src.Size(),
			Compressed:   src.Compressed(),
			Words:        words,
			Workers:      effectiveWorkers(searchCfg.Workers),
			BatchSize:    searchCfg.BatchSize,
			Resume:       searchCfg.Resume,
		})
		if bannerErr != nil {
			return bannerErr
		}
	}

	coord := search.New(searchCfg, verifier.New(desc), rs, src, opts...)

	var searching atomic.Bool

	if cfg.Observability.DiagnosticsAddr != "" {
		stopDiagnostics, diagErr := startDiagnostics(cfg.Observability.DiagnosticsAddr, providers, &searching, coord.Progress())
		if diagErr != nil {
			return diagErr
		}
		defer stopDiagnostics()

		progressf(silent, progressWriter, "diagnostics listening on %s", cfg.Observability.DiagnosticsAddr)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	searching.Store(true)
	res, err := coord.Run(ctx)
	searching.Store(false)

	if err != nil {
		if errors.Is(err, search.ErrCancelled) && searchCfg.Checkpointing {
			progressf(silent, progressWriter, "interrupted, progress saved to %s; rerun with --resume", searchCfg.CheckpointPath)
		}

		return err
	}

	summary := report.NewSummary(res, report.Meta{
		Wordlist:   src.Path(),
		Iterations: desc.Iterations,
		Rules:      rs.Len(),
		Workers:    effectiveWorkers(searchCfg.Workers),
	})

	err = report.Write(cmd.OutOrStdout(), cfg.Output.Format, summary)
	if err != nil {
		return err
	}

	if res.Outcome != search.OutcomeFound {
		return &ExitError{Code: ExitFailure}
	}

	return nil
}

// resolveConfig loads the config file and applies explicitly set flags on
// top of it.
func (cc *CrackCommand) resolveConfig(cmd *cobra.Command, g globals) (*config.Config, error) {
	cfg, err := cc.loadConfig(g.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	if flags.Changed("rules") {
		cfg.Search.RulesFile = cc.rulesFile
	}

	if flags.Changed("default-rules") {
		cfg.Search.DefaultRules = cc.defaultRules
	}

	if flags.Changed("workers") {
		cfg.Search.Workers = cc.workers
	}

	if flags.Changed("batch-size") {
		cfg.Search.BatchSize = cc.batchSize
	}

	if flags.Changed("resume") {
		cfg.Checkpoint.Resume = cc.resume
	}

	if flags.Changed("checkpoint") {
		cfg.Checkpoint.Path = cc.checkpointPath
	}

	if flags.Changed("checkpoint-interval") {
		cfg.Checkpoint.Interval = cc.checkpointInterval
	}

	if flags.Changed("no-checkpoint") {
		cfg.Checkpoint.Enabled = !cc.noCheckpoint
	}

	if flags.Changed("format") {
		cfg.Output.Format = cc.format
	}

	if flags.Changed("diagnostics-addr") {
		cfg.Observability.DiagnosticsAddr = cc.diagnosticsAddr
	}

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	return cfg, nil
}

// loadRules selects the rule set: a rules file, the built-in preset or the
// identity set. onFile receives the load statistics of a rules file.
func loadRules(cfg *config.Config, onFile func(rules.LoadStats)) (*rules.Set, error) {
	switch {
	case cfg.Search.RulesFile != "":
		rs, stats, err := rules.LoadFile(cfg.Search.RulesFile)
		if err != nil {
			return nil, err
		}

		onFile(stats)

		return rs, nil
	case cfg.Search.DefaultRules:
		return rules.Default(), nil
	default:
		return rules.Identity(), nil
	}
}

func startDiagnostics(
	addr string, providers observability.Providers, searching *atomic.Bool, progress *search.Progress,
) (func(), error) {
	_, err := observability.NewRuntimeMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("create runtime metrics: %w", err)
	}

	ready := func(context.Context) error {
		if !searching.Load() {
			return errNotSearching
		}

		return nil
	}

	state := func() observability.SearchState {
		_, found := progress.Found()

		return observability.SearchState{
			Searching: searching.Load(),
			Found:     found,
			Attempts:  progress.Attempts(),
		}
	}

	srv, err := observability.NewDiagnosticsServer(addr, providers.MetricsHandler, providers.Logger, state, ready)
	if err != nil {
		return nil, err
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), diagnosticsShutdownTimeout)
		defer cancel()

		closeErr := srv.Close(ctx)
		if closeErr != nil {
			providers.Logger.Warn("diagnostics shutdown failed", "error", closeErr)
		}
	}, nil
}

func effectiveWorkers(n int) int {
	if n > 0 {
		return n
	}

	return runtime.NumCPU()
}
