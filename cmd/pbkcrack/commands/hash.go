package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pbkcrack/pkg/pbkdf2hash"
)

// NewHashCommand creates the hash command, which prints a hash string in
// the format crack and verify accept.
func NewHashCommand() *cobra.Command {
	var (
		password   string
		salt       string
		iterations uint32
	)

	cmd := &cobra.Command{
		Use:   "hash --password PASSWORD",
		Short: "Hash a password as pbkdf2:sha256",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if salt == "" {
				generated, err := pbkdf2hash.GenerateSalt(pbkdf2hash.DefaultSaltLength)
				if err != nil {
					return err
				}

				salt = generated
			}

			desc, err := pbkdf2hash.Make(password, salt, iterations)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), desc.String())

			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Password to hash")
	cmd.Flags().StringVar(&salt, "salt", "", "Salt token (default: random 16 characters)")
	cmd.Flags().Uint32Var(&iterations, "iterations", pbkdf2hash.DefaultIterations, "PBKDF2 iterations")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
