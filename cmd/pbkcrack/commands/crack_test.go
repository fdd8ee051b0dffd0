package commands

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/pbkcrack/internal/observability"
	"github.com/Sumatoshi-tech/pbkcrack/pkg/checkpoint"
	"github.com/Sumatoshi-tech/pbkcrack/pkg/config"
	"github.com/Sumatoshi-tech/pbkcrack/pkg/pbkdf2hash"
)

type crackRun struct {
	stdout   bytes.Buffer
	stderr   bytes.Buffer
	logs     bytes.Buffer
	recorder *tracetest.SpanRecorder
	obsCfg   observability.Config
}

func executeCrack(t *testing.T, args ...string) (*crackRun, error) {
	t.Helper()

	run := &crackRun{recorder: tracetest.NewSpanRecorder()}

	cmd := newCrackCommandWithDeps(defaultLoader, recordingInit(run.recorder, &run.logs, &run.obsCfg))
	cmd.SetOut(&run.stdout)
	cmd.SetErr(&run.stderr)
	cmd.SetArgs(args)

	return run, cmd.Execute()
}

func TestCrackCommand_FindsPasswordWithDefaultRules(t *testing.T) {
	t.Parallel()

	words := writeFile(t, "words.txt", "winter", "summer", "spring")
	cp := filepath.Join(t.TempDir(), "cp.json")

	run, err := executeCrack(t,
		"--hash", fixtureHash(t, "summer2024"),
		"--wordlist", words,
		"--default-rules",
		"--checkpoint", cp,
		"--workers", "2",
		"--silent",
	)
	require.NoError(t, err)

	assert.Contains(t, run.stdout.String(), "Password found: summer2024")
	assert.Empty(t, run.stderr.String(), "silent mode prints no banner or progress")
	assert.Contains(t, spanNames(run.recorder), "search.run")
	assert.Equal(t, observability.ModeCrack, run.obsCfg.Mode)

	_, err = checkpoint.Load(cp)
	require.ErrorIs(t, err, checkpoint.ErrNotFound)
}

func TestCrackCommand_NotFoundExitsOne(t *testing.T) {
	t.Parallel()

	words := writeFile(t, "words.txt", "alpha", "bravo")
	cp := filepath.Join(t.TempDir(), "cp.json")

	run, err := executeCrack(t,
		"--hash", fixtureHash(t, "zulu"),
		"--wordlist", words,
		"--checkpoint", cp,
		"--checkpoint-interval", "1",
		"--format", "json",
		"--silent",
	)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitCode(err))

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	require.NoError(t, exitErr.Err, "not found is reported through the summary, not an error message")

	var summary map[string]any
	require.NoError(t, json.Unmarshal(run.stdout.Bytes(), &summary))
	assert.Equal(t, false, summary["found"])
	assert.InDelta(t, 2, summary["attempts"], 0)

	saved, err := checkpoint.Load(cp)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), saved.WordlistOffset)
	assert.NotContains(t, run.stderr.String(), "Usage:")
}

func TestCrackCommand_CountWordsInBanner(t *testing.T) {
	t.Parallel()

	words := writeFile(t, "words.txt", "alpha", "", "bravo", "charlie")

	run, err := executeCrack(t,
		"--hash", fixtureHash(t, "charlie"),
		"--wordlist", words,
		"--checkpoint", filepath.Join(t.TempDir(), "cp.json"),
		"--count-words",
	)
	require.NoError(t, err)

	assert.Contains(t, run.stderr.String(), "3 words)")
	assert.Contains(t, run.stdout.String(), "Password found: charlie")
	assert.NotContains(t, run.stdout.String(), "Usage:")
}

func TestCrackCommand_RulesFileWithDroppedLines(t *testing.T) {
	t.Parallel()

	words := writeFile(t, "words.txt", "pw")
	rulesFile := writeFile(t, "rules.txt", "# digits", "append_digit:1", "bogus_rule", "append_digit:x")

	run, err := executeCrack(t,
		"--hash", fixtureHash(t, "pw1"),
		"--wordlist", words,
		"--rules", rulesFile,
		"--no-checkpoint",
		"--silent",
	)
	require.NoError(t, err)

	assert.Contains(t, run.stdout.String(), "Password found: pw1")
	assert.Contains(t, run.logs.String(), "dropped=2")
}

func TestCrackCommand_BannerAndProgressOnStderr(t *testing.T) {
	t.Parallel()

	words := writeFile(t, "words.txt", "one", "two")

	run, err := executeCrack(t,
		"--hash", fixtureHash(t, "two"),
		"--wordlist", words,
		"--no-checkpoint",
	)
	require.NoError(t, err)

	assert.Contains(t, run.stderr.String(), "Target:    PBKDF2-HMAC-SHA256, 1 iterations, 4-byte salt")
	assert.Contains(t, run.stderr.String(), "Rules:     1 per word")
}

func TestCrackCommand_Errors(t *testing.T) {
	t.Parallel()

	words := writeFile(t, "words.txt", "a")

	tests := []struct {
		name string
		args []string
		want error
	}{
		{
			name: "malformed hash",
			args: []string{"--hash", "pbkdf2:sha256:1$salt", "--wordlist", words},
			want: pbkdf2hash.ErrMalformed,
		},
		{
			name: "conflicting rule sources",
			args: []string{"--hash", "x", "--wordlist", words, "--rules", "r.txt", "--default-rules"},
			want: config.ErrConflictingRules,
		},
		{
			name: "invalid format",
			args: []string{"--hash", "x", "--wordlist", words, "--format", "xml"},
			want: config.ErrInvalidFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := executeCrack(t, tt.args...)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, ExitFailure, ExitCode(err))
		})
	}
}

func TestCrackCommand_MissingWordlist(t *testing.T) {
	t.Parallel()

	_, err := executeCrack(t,
		"--hash", fixtureHash(t, "x"),
		"--wordlist", filepath.Join(t.TempDir(), "absent.txt"),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot open")
}

func TestCrackCommand_FlagsOverrideConfig(t *testing.T) {
	t.Parallel()

	cc := &CrackCommand{loadConfig: func(string) (*config.Config, error) {
		cfg := config.Default()
		cfg.Search.Workers = 3
		cfg.Search.BatchSize = 50
		cfg.Checkpoint.Path = "from-file.json"

		return cfg, nil
	}}

	cmd := newCrackCommandWithDeps(cc.loadConfig, nil)
	require.NoError(t, cmd.ParseFlags([]string{"--batch-size", "7", "--no-checkpoint", "--resume"}))

	cc.batchSize, _ = cmd.Flags().GetInt("batch-size")
	cc.noCheckpoint, _ = cmd.Flags().GetBool("no-checkpoint")
	cc.resume, _ = cmd.Flags().GetBool("resume")

	cfg, err := cc.resolveConfig(cmd, globals{})
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Search.Workers, "unset flags keep the file value")
	assert.Equal(t, 7, cfg.Search.BatchSize)
	assert.False(t, cfg.Checkpoint.Enabled)
	assert.True(t, cfg.Checkpoint.Resume)
	assert.Equal(t, "from-file.json", cfg.Checkpoint.Path)
}

func TestBuildObservabilityConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.Observability.DiagnosticsAddr = "127.0.0.1:0"
	cfg.Observability.OTLPHeaders = "authorization=Bearer x"

	obsCfg := buildObservabilityConfig(cfg, globals{logJSON: true}, observability.ModeCrack, &bytes.Buffer{})
	assert.Equal(t, slog.LevelError, obsCfg.LogLevel)
	assert.True(t, obsCfg.LogJSON)
	assert.True(t, obsCfg.Prometheus)
	assert.Equal(t, "Bearer x", obsCfg.OTLPHeaders["authorization"])

	verbose := buildObservabilityConfig(cfg, globals{verbose: true}, observability.ModeCrack, nil)
	assert.Equal(t, slog.LevelDebug, verbose.LogLevel)

	quiet := buildObservabilityConfig(config.Default(), globals{quiet: true}, observability.ModeCrack, nil)
	assert.Equal(t, slog.LevelWarn, quiet.LogLevel)
}
