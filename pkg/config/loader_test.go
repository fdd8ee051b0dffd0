package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/pbkcrack/pkg/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".pbkcrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_EmptyFile_UsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultSearchWorkers, cfg.Search.Workers)
	assert.Equal(t, config.DefaultSearchBatchSize, cfg.Search.BatchSize)
	assert.False(t, cfg.Search.DefaultRules)
	assert.True(t, cfg.Checkpoint.Enabled)
	assert.Equal(t, config.DefaultCheckpointPath, cfg.Checkpoint.Path)
	assert.Equal(t, uint64(config.DefaultCheckpointInterval), cfg.Checkpoint.Interval)
	assert.False(t, cfg.Checkpoint.Resume)
	assert.Equal(t, config.DefaultLoggingLevel, cfg.Logging.Level)
	assert.Equal(t, config.FormatText, cfg.Output.Format)
	assert.Equal(t, 2*time.Second, cfg.Output.ProgressInterval)
	assert.Empty(t, cfg.Observability.OTLPEndpoint)
}

func TestLoadConfig_ValidFile_Unmarshals(t *testing.T) {
	t.Parallel()

	content := `search:
  workers: 8
  batch_size: 250
  default_rules: true
checkpoint:
  path: /var/lib/pbkcrack/run.json
  interval: 5000
  resume: true
logging:
  level: DEBUG
  json: true
output:
  format: yaml
  progress_interval: 500ms
observability:
  otlp_endpoint: collector:4317
  otlp_insecure: true
  diagnostics_addr: 127.0.0.1:9464
`

	cfg, err := config.LoadConfig(writeConfig(t, content))
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Search.Workers)
	assert.Equal(t, 250, cfg.Search.BatchSize)
	assert.True(t, cfg.Search.DefaultRules)
	assert.Equal(t, "/var/lib/pbkcrack/run.json", cfg.Checkpoint.Path)
	assert.Equal(t, uint64(5000), cfg.Checkpoint.Interval)
	assert.True(t, cfg.Checkpoint.Resume)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSON)
	assert.Equal(t, config.FormatYAML, cfg.Output.Format)
	assert.Equal(t, 500*time.Millisecond, cfg.Output.ProgressInterval)
	assert.Equal(t, "collector:4317", cfg.Observability.OTLPEndpoint)
	assert.True(t, cfg.Observability.OTLPInsecure)
	assert.Equal(t, "127.0.0.1:9464", cfg.Observability.DiagnosticsAddr)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"negative workers", "search:\n  workers: -1\n", config.ErrInvalidWorkers},
		{"zero batch", "search:\n  batch_size: 0\n", config.ErrInvalidBatchSize},
		{"both rule sources", "search:\n  rules_file: r.txt\n  default_rules: true\n", config.ErrConflictingRules},
		{"zero interval", "checkpoint:\n  interval: 0\n", config.ErrInvalidCheckpointInterval},
		{"empty path", "checkpoint:\n  path: \"\"\n", config.ErrEmptyCheckpointPath},
		{"bad level", "logging:\n  level: chatty\n", config.ErrInvalidLogLevel},
		{"bad format", "output:\n  format: xml\n", config.ErrInvalidFormat},
		{"negative progress", "output:\n  progress_interval: -1s\n", config.ErrInvalidProgressInterval},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfig(writeConfig(t, tt.content))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadConfig_DisabledCheckpointSkipsCheckpointValidation(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, "checkpoint:\n  enabled: false\n  interval: 0\n  path: \"\"\n"))
	require.NoError(t, err)
	assert.False(t, cfg.Checkpoint.Enabled)
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(writeConfig(t, "search: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("PBKCRACK_SEARCH_BATCH_SIZE", "42")
	t.Setenv("PBKCRACK_CHECKPOINT_PATH", "env.json")

	cfg, err := config.LoadConfig(writeConfig(t, "search:\n  batch_size: 7\n"))
	require.NoError(t, err)

	assert.Equal(t, 42, cfg.Search.BatchSize)
	assert.Equal(t, "env.json", cfg.Checkpoint.Path)
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, config.DefaultSearchBatchSize, cfg.Search.BatchSize)
	assert.Equal(t, 2*time.Second, cfg.Output.ProgressInterval)
}
