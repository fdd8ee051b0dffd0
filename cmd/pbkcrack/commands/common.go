// Package commands implements the pbkcrack subcommands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pbkcrack/internal/observability"
	"github.com/Sumatoshi-tech/pbkcrack/pkg/config"
	"github.com/Sumatoshi-tech/pbkcrack/pkg/version"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitNoMatch = 2
)

const (
	flagVerbose = "verbose"
	flagQuiet   = "quiet"
	flagLogJSON = "log-json"
	flagConfig  = "config"
)

// ExitError carries a process exit code. A nil Err marks an expected
// non-zero exit that needs no error message.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}

	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	return ExitFailure
}

// RegisterGlobalFlags adds the persistent flags shared by every command.
func RegisterGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().BoolP(flagVerbose, "v", false, "Enable debug logging")
	root.PersistentFlags().BoolP(flagQuiet, "q", false, "Suppress banner and progress output")
	root.PersistentFlags().Bool(flagLogJSON, false, "Emit logs as JSON")
	root.PersistentFlags().String(flagConfig, "", "Config file (default: .pbkcrack.yaml in CWD or $HOME)")
}

// globals holds the persistent flag values visible to a command. Flags that
// are not registered (a command run on its own in tests) read as zero.
type globals struct {
	verbose    bool
	quiet      bool
	logJSON    bool
	configPath string
}

func readGlobals(cmd *cobra.Command) globals {
	var g globals

	g.verbose, _ = cmd.Flags().GetBool(flagVerbose)
	g.quiet, _ = cmd.Flags().GetBool(flagQuiet)
	g.logJSON, _ = cmd.Flags().GetBool(flagLogJSON)
	g.configPath, _ = cmd.Flags().GetString(flagConfig)

	return g
}

type configLoader func(path string) (*config.Config, error)

type observabilityInit func(cfg observability.Config) (observability.Providers, error)

// buildObservabilityConfig maps file settings and global flags onto the
// telemetry configuration for mode.
func buildObservabilityConfig(cfg *config.Config, g globals, mode observability.AppMode, logOut io.Writer) observability.Config {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.Version
	obsCfg.Mode = mode
	obsCfg.Environment = cfg.Observability.Environment
	obsCfg.OTLPEndpoint = cfg.Observability.OTLPEndpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(cfg.Observability.OTLPHeaders)
	obsCfg.OTLPInsecure = cfg.Observability.OTLPInsecure
	obsCfg.Prometheus = cfg.Observability.DiagnosticsAddr != ""
	obsCfg.LogLevel = observability.ParseLevel(cfg.Logging.Level)
	obsCfg.LogJSON = cfg.Logging.JSON || g.logJSON
	obsCfg.LogOutput = logOut

	switch {
	case g.verbose:
		obsCfg.LogLevel = slog.LevelDebug
	case g.quiet:
		obsCfg.LogLevel = slog.LevelWarn
	}

	return obsCfg
}

func shutdownObservability(providers observability.Providers) {
	err := providers.Shutdown(context.Background())
	if err != nil {
		providers.Logger.Warn("observability shutdown failed", "error", err)
	}
}

func progressf(silent bool, writer io.Writer, format string, args ...any) {
	if silent {
		return
	}

	_, _ = fmt.Fprintf(writer, "progress: "+format+"\n", args...)
}
