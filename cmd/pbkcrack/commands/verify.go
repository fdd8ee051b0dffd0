package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Sumatoshi-tech/pbkcrack/internal/observability"
	"github.com/Sumatoshi-tech/pbkcrack/pkg/config"
	"github.com/Sumatoshi-tech/pbkcrack/pkg/pbkdf2hash"
	"github.com/Sumatoshi-tech/pbkcrack/pkg/verifier"
)

// NewVerifyCommand creates the verify command. It exits 0 on a match,
// 2 on a mismatch and 1 on error.
func NewVerifyCommand() *cobra.Command {
	return newVerifyCommandWithDeps(config.LoadConfig, observability.Init)
}

func newVerifyCommandWithDeps(loadConfig configLoader, initObs observabilityInit) *cobra.Command {
	var hash, password string

	cmd := &cobra.Command{
		Use:           "verify --hash HASH --password PASSWORD",
		Short:         "Test one password against a hash",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g := readGlobals(cmd)

			cfg, err := loadConfig(g.configPath)
			if err != nil {
				return &ExitError{Code: ExitFailure, Err: err}
			}

			providers, err := initObs(buildObservabilityConfig(cfg, g, observability.ModeVerify, cmd.ErrOrStderr()))
			if err != nil {
				return &ExitError{Code: ExitFailure, Err: fmt.Errorf("init observability: %w", err)}
			}
			defer shutdownObservability(providers)

			desc, err := pbkdf2hash.Parse(hash)
			if err != nil {
				return &ExitError{Code: ExitFailure, Err: fmt.Errorf("parse hash: %w", err)}
			}

			ctx, span := providers.Tracer.Start(cmd.Context(), "verify")
			span.SetAttributes(attribute.Int64("pbkdf2.iterations", int64(desc.Iterations)))
			matched := verifier.New(desc).Test(password)
			span.SetAttributes(attribute.Bool("verify.match", matched))
			span.End()

			providers.Logger.DebugContext(ctx, "verified candidate", "iterations", desc.Iterations, "match", matched)

			if !matched {
				fmt.Fprintln(cmd.OutOrStdout(), "no match")

				return &ExitError{Code: ExitNoMatch}
			}

			fmt.Fprintln(cmd.OutOrStdout(), "match")

			return nil
		},
	}

	cmd.Flags().StringVar(&hash, "hash", "", "Target hash")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Candidate password")
	_ = cmd.MarkFlagRequired("hash")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
