// Package config loads pbkcrack settings from a YAML file, PBKCRACK_*
// environment variables and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Output formats accepted by output.format.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var outputFormats = []string{FormatText, FormatJSON, FormatYAML}

var logLevels = []string{"debug", "info", "warn", "error"}

// Config is the top-level configuration struct.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Search        SearchConfig        `mapstructure:"search"`
	Checkpoint    CheckpointConfig    `mapstructure:"checkpoint"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Output        OutputConfig        `mapstructure:"output"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// SearchConfig holds search engine knobs.
type SearchConfig struct {
	RulesFile    string `mapstructure:"rules_file"`
	Workers      int    `mapstructure:"workers"`
	BatchSize    int    `mapstructure:"batch_size"`
	DefaultRules bool   `mapstructure:"default_rules"`
}

// CheckpointConfig holds checkpoint settings.
type CheckpointConfig struct {
	Path     string `mapstructure:"path"`
	Interval uint64 `mapstructure:"interval"`
	Enabled  bool   `mapstructure:"enabled"`
	Resume   bool   `mapstructure:"resume"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// OutputConfig holds terminal output settings.
type OutputConfig struct {
	Format           string        `mapstructure:"format"`
	ProgressInterval time.Duration `mapstructure:"progress_interval"`
}

// ObservabilityConfig holds telemetry export settings.
type ObservabilityConfig struct {
	OTLPEndpoint    string `mapstructure:"otlp_endpoint"`
	OTLPHeaders     string `mapstructure:"otlp_headers"`
	DiagnosticsAddr string `mapstructure:"diagnostics_addr"`
	Environment     string `mapstructure:"environment"`
	OTLPInsecure    bool   `mapstructure:"otlp_insecure"`
}

// Sentinel errors for configuration validation.
var (
	// ErrInvalidWorkers indicates the workers value is negative.
	ErrInvalidWorkers = errors.New("search.workers must be non-negative")
	// ErrInvalidBatchSize indicates the batch size is not positive.
	ErrInvalidBatchSize = errors.New("search.batch_size must be positive")
	// ErrConflictingRules indicates both a rules file and the default preset were requested.
	ErrConflictingRules = errors.New("search.rules_file and search.default_rules are mutually exclusive")
	// ErrInvalidCheckpointInterval indicates a zero checkpoint interval.
	ErrInvalidCheckpointInterval = errors.New("checkpoint.interval must be positive")
	// ErrEmptyCheckpointPath indicates checkpointing is enabled without a path.
	ErrEmptyCheckpointPath = errors.New("checkpoint.path must be set when checkpoints are enabled")
	// ErrInvalidLogLevel indicates an unknown log level name.
	ErrInvalidLogLevel = errors.New("logging.level must be one of debug, info, warn, error")
	// ErrInvalidFormat indicates an unknown output format.
	ErrInvalidFormat = errors.New("output.format must be one of text, json, yaml")
	// ErrInvalidProgressInterval indicates a negative progress interval.
	ErrInvalidProgressInterval = errors.New("output.progress_interval must be non-negative")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	searchErr := c.validateSearch()
	if searchErr != nil {
		return searchErr
	}

	checkpointErr := c.validateCheckpoint()
	if checkpointErr != nil {
		return checkpointErr
	}

	return c.validateOutput()
}

func (c *Config) validateSearch() error {
	if c.Search.Workers < 0 {
		return ErrInvalidWorkers
	}

	if c.Search.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	if c.Search.RulesFile != "" && c.Search.DefaultRules {
		return ErrConflictingRules
	}

	return nil
}

func (c *Config) validateCheckpoint() error {
	if !c.Checkpoint.Enabled {
		return nil
	}

	if c.Checkpoint.Interval == 0 {
		return ErrInvalidCheckpointInterval
	}

	if c.Checkpoint.Path == "" {
		return ErrEmptyCheckpointPath
	}

	return nil
}

func (c *Config) validateOutput() error {
	if !slices.Contains(logLevels, c.Logging.Level) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Logging.Level)
	}

	if !slices.Contains(outputFormats, c.Output.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.Output.Format)
	}

	if c.Output.ProgressInterval < 0 {
		return ErrInvalidProgressInterval
	}

	return nil
}
