package commands

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/pbkcrack/internal/observability"
	"github.com/Sumatoshi-tech/pbkcrack/pkg/config"
	"github.com/Sumatoshi-tech/pbkcrack/pkg/pbkdf2hash"
)

// defaultLoader ignores config files and the environment.
func defaultLoader(string) (*config.Config, error) {
	return config.Default(), nil
}

// recordingInit returns providers whose spans land in recorder and whose
// logs go to logs. The last config passed to it is stored in seen.
func recordingInit(recorder *tracetest.SpanRecorder, logs io.Writer, seen *observability.Config) observabilityInit {
	return func(cfg observability.Config) (observability.Providers, error) {
		if seen != nil {
			*seen = cfg
		}

		tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

		return observability.Providers{
			Tracer:   tp.Tracer("test"),
			Meter:    noopmetric.NewMeterProvider().Meter("test"),
			Logger:   slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: cfg.LogLevel})),
			Shutdown: tp.Shutdown,
		}, nil
	}
}

func writeFile(t *testing.T, name string, lines ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))

	return path
}

func fixtureHash(t *testing.T, password string) string {
	t.Helper()

	desc, err := pbkdf2hash.Make(password, "s4lt", 1)
	require.NoError(t, err)

	return desc.String()
}

func spanNames(recorder *tracetest.SpanRecorder) []string {
	ended := recorder.Ended()
	names := make([]string, 0, len(ended))

	for _, s := range ended {
		names = append(names, s.Name())
	}

	return names
}

