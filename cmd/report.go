// =============================================================================
// Ledger Consolidation - Report Command
// =============================================================================
//
// This file defines the 'report' command, which shows how one ledger is
// consolidated on the server.
//
// COMMAND USAGE:
//   consolidator report LEDGER_CODE [--plain] [--width N]
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/ledger-consolidation/internal/report"
)

// plain prints raw markdown instead of styled terminal output.
var plain bool

// reportWidth is the wrap width of the styled output.
var reportWidth int

var reportCmd = &cobra.Command{
	Use:   "report LEDGER_CODE",
	Short: "Show the consolidated view of a ledger",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		code := args[0]
		r, err := client.GetConsolidationReport(cmd.Context(), code)
		if err != nil {
			return fmt.Errorf("failed to load consolidation report for %s: %w", code, err)
		}
		logger.WithField("ledger_code", code).WithField("found", r != nil).Debug("consolidation report loaded")

		md := report.ConsolidationMarkdown(code, r)
		fmt.Fprint(cmd.OutOrStdout(), report.Render(md, reportWidth, plain))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().BoolVar(&plain, "plain", false, "Print raw markdown")
	reportCmd.Flags().IntVar(&reportWidth, "width", 80, "Wrap width of the styled output")
}
