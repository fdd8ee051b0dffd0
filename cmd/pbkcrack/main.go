// Package main provides the entry point for the pbkcrack CLI tool.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pbkcrack/cmd/pbkcrack/commands"
	"github.com/Sumatoshi-tech/pbkcrack/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	rootCmd := newRootCommand()

	err := rootCmd.Execute()
	if err != nil {
		var exitErr *commands.ExitError
		if !errors.As(err, &exitErr) || exitErr.Err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}

		os.Exit(commands.ExitCode(err))
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pbkcrack",
		Short: "Offline dictionary attack on PBKDF2-HMAC-SHA256 password hashes",
		Long: `pbkcrack recovers passwords from pbkdf2:sha256:<iterations>$<salt>$<digest>
hashes by streaming a word list through a rule set on every CPU.

Commands:
  crack     Search a word list for the password
  verify    Test a single password against a hash
  hash      Produce a hash in the target format
  rules     Show how a rules file is parsed`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	commands.RegisterGlobalFlags(rootCmd)

	rootCmd.AddCommand(commands.NewCrackCommand())
	rootCmd.AddCommand(commands.NewVerifyCommand())
	rootCmd.AddCommand(commands.NewHashCommand())
	rootCmd.AddCommand(commands.NewRulesCommand())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
