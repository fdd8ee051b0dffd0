package commands

import (
	"errors"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pbkcrack/pkg/rules"
)

var (
	errRulesSourceConflict = errors.New("--default-rules and FILE are mutually exclusive")
	errRulesSourceMissing  = errors.New("a rules FILE or --default-rules is required")
)

// NewRulesCommand creates the rules command, which lists the rules a file
// or the built-in preset expands to.
func NewRulesCommand() *cobra.Command {
	var defaultRules bool

	cmd := &cobra.Command{
		Use:   "rules [--default-rules | FILE]",
		Short: "List parsed rules",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				rs    *rules.Set
				stats rules.LoadStats
			)

			switch {
			case defaultRules && len(args) > 0:
				return errRulesSourceConflict
			case defaultRules:
				rs = rules.Default()
				stats.Loaded = rs.Len()
			case len(args) == 1:
				var err error

				rs, stats, err = rules.LoadFile(args[0])
				if err != nil {
					return err
				}
			default:
				return errRulesSourceMissing
			}

			tbl := table.NewWriter()
			tbl.SetStyle(table.StyleLight)
			tbl.AppendHeader(table.Row{"#", "Rule", "Example"})

			for i, r := range rs.Rules() {
				tbl.AppendRow(table.Row{i, r.String(), r.Apply("password")})
			}

			fmt.Fprintln(cmd.OutOrStdout(), tbl.Render())
			fmt.Fprintf(cmd.ErrOrStderr(), "loaded %d rules, dropped %d lines, skipped %d lines\n",
				stats.Loaded, stats.Dropped, stats.Skipped)

			return nil
		},
	}

	cmd.Flags().BoolVar(&defaultRules, "default-rules", false, "Show the built-in preset")

	return cmd
}
