// =============================================================================
// Ledger Consolidation - Edit Command
// =============================================================================
//
// This file defines the 'edit' command, which opens the interactive
// consolidation form.
//
// COMMAND USAGE:
//   consolidator edit
//
// KEYS:
//   arrows / hjkl : Move between rows and fields
//   enter         : Choose a ledger, group or status for the field
//   /             : Search inside a picker
//   ctrl+n        : Add a row
//   ctrl+s        : Validate and submit
//   esc           : Close a picker, or leave the form
//
// =============================================================================

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/ledger-consolidation/internal/tui"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the interactive consolidation form",
	Long: `The edit command loads the ledgers, sub groups and main groups from the
server and opens a form with one row per consolidation link to create.

Setting a row's status to active adds a new empty row below it. Rows are only
written when you submit (ctrl+s) and confirm. Leaving the form discards
anything not submitted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd.Context())
		if err != nil {
			return err
		}
		return tui.Run(cmd.Context(), s.submission, s.ref)
	},
}

func init() {
	rootCmd.AddCommand(editCmd)
}
