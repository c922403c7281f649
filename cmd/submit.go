// =============================================================================
// Ledger Consolidation - Submit Command
// =============================================================================
//
// This file defines the 'submit' command, which commits a batch file of
// consolidation rows without the interactive form.
//
// COMMAND USAGE:
//   consolidator submit FILE [flags]
//
// FLAGS:
//   --dry-run : Validate and print the plan without writing anything
//   --yes     : Do not ask for confirmation
//
// PROCESSING PIPELINE:
//   1. Load the reference data (ledgers, groups, active links)
//   2. Read and normalize the batch file
//   3. Apply each row to the row model, as the form would
//   4. Validate the rows
//   5. Confirm, then commit the rows one after another
//   6. Print the per-row results
//   7. Write the commit report and archive the batch file
//
// =============================================================================

package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/ledger-consolidation/internal/batchfile"
	"github.com/ginjaninja78/ledger-consolidation/internal/committer"
	"github.com/ginjaninja78/ledger-consolidation/internal/notify"
	"github.com/ginjaninja78/ledger-consolidation/internal/report"
	"github.com/ginjaninja78/ledger-consolidation/internal/types"
	"github.com/ginjaninja78/ledger-consolidation/internal/validation"
	"github.com/ginjaninja78/ledger-consolidation/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun validates without writing.
var dryRun bool

// assumeYes skips the confirmation prompt.
var assumeYes bool

// =============================================================================
// SUBMIT COMMAND DEFINITION
// =============================================================================

var submitCmd = &cobra.Command{
	Use:   "submit FILE",
	Short: "Submit a batch file of consolidation rows",
	Long: `The submit command reads consolidation rows from an XLSX, CSV or YAML file
and commits them to the server, one row at a time and in file order.

Columns (by header name): ledger_code, sub_group_code, main_group_code, status.
Codes must exist in the server's master lists. Rows without a ledger code are
skipped under the lenient policy and rejected under the strict one.

Nothing is written when validation fails. When every row succeeds:
  - The batch file is moved to the archive directory (if configured)

When a row fails, its error is printed and the remaining rows are still
committed. The batch file stays in place and the command exits non-zero.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSubmit(cmd.Context(), args[0], cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Validate and print the plan without writing anything",
	)

	submitCmd.Flags().BoolVarP(
		&assumeYes,
		"yes",
		"y",
		false,
		"Submit without asking for confirmation",
	)
}

// =============================================================================
// SUBMIT LOGIC
// =============================================================================

func runSubmit(ctx context.Context, path string, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.WithField("batch_file", path)

	// Step 1: Reference data.
	s, err := newSession(ctx)
	if err != nil {
		return err
	}
	if ns := notify.FromReference(s.ref.Failures); len(ns) > 0 {
		notify.Render(out, ns)
	}

	// Step 2 and 3: Batch file into the row model.
	entries, err := batchfile.Load(path, appConfig.Batch)
	if err != nil {
		return err
	}
	if err := batchfile.Apply(entries, s.ref, s.submission.Model); err != nil {
		return fmt.Errorf("batch file %s has unknown codes:\n%w", path, err)
	}
	log.WithField("entries", len(entries)).Info("batch file loaded")

	// Step 4: Validation.
	vr := s.submission.Validate()
	if !vr.IsValid {
		fmt.Fprintln(out, validation.FormatErrors(vr.Errors))
		return exitError{"validation failed"}
	}

	// Step 5: Confirmation and commit.
	printPlan(out, vr)
	if dryRun {
		fmt.Fprintln(out, "Dry run: nothing was submitted.")
		return nil
	}
	if !assumeYes && !confirm(in, out, notify.Confirmation(vr)) {
		fmt.Fprintln(out, "Cancelled.")
		return nil
	}

	rowIDs := s.submission.Model.IDs()
	outcome, err := s.submission.Commit(ctx, vr)
	if err != nil {
		return err
	}
	s.submission.Settle(outcome)
	batch := outcome.Batch

	// Step 6: Results.
	printResults(out, batch)
	notify.Render(out, notify.FromBatch(batch, rowIDs))
	if outcome.RefreshError != nil {
		fmt.Fprintf(out, "Warning: could not refresh active links: %v\n", outcome.RefreshError)
	}

	// Step 7: Report and archive.
	fm := utils.NewFileManager(appConfig.Output.ReportDir, appConfig.Output.ArchiveDir)
	fm.UseTimestampSubdirs = appConfig.Output.ArchiveByDate
	if err := fm.EnsureDirectories(); err != nil {
		return err
	}
	finishBatch(fm, batch, path, out, log)

	if batch.Failed > 0 {
		return exitError{fmt.Sprintf("%d of %d rows failed", batch.Failed, len(batch.Rows))}
	}
	return nil
}

// finishBatch writes the commit report and archives a fully committed
// batch file. Failures here are reported but do not fail the command: the
// rows are already on the server.
func finishBatch(fm *utils.FileManager, batch *committer.BatchResult, path string, out io.Writer, log logrus.FieldLogger) {
	if reportPath := fm.ReportPath(appConfig.Output.ReportFormat, path); reportPath != "" {
		if err := report.WriteCommitReport(batch, path, reportPath); err != nil {
			log.WithError(err).Error("failed to write commit report")
			fmt.Fprintf(out, "Warning: %v\n", err)
		} else {
			fmt.Fprintf(out, "Report: %s\n", reportPath)
		}
	}

	if batch.Failed > 0 {
		return
	}
	archived, err := fm.ArchiveBatchFile(path)
	if err != nil {
		log.WithError(err).Error("failed to archive batch file")
		fmt.Fprintf(out, "Warning: %v\n", err)
		return
	}
	if archived != path {
		fmt.Fprintf(out, "Archived: %s\n", archived)
	}
}

func printPlan(out io.Writer, vr *validation.ValidationResult) {
	fmt.Fprintln(out, "Rows to submit:")
	for i, row := range vr.Effective {
		link := types.LinkFromDraft(i+1, row)
		fmt.Fprintf(out, "  %3d. %-12s sub=%-10s main=%-10s %s\n",
			link.SerialNo,
			link.LedgerCode,
			orDash(types.Deref(link.SubGroupCode)),
			orDash(types.Deref(link.MainGroupCode)),
			link.Status,
		)
	}
}

func printResults(out io.Writer, batch *committer.BatchResult) {
	fmt.Fprintf(out, "\nBatch %s (%s):\n", batch.BatchID, batch.Elapsed.Round(time.Millisecond))
	for _, r := range batch.Rows {
		mark := "ok"
		if !r.Success {
			mark = fmt.Sprintf("FAILED at %s: %s", r.Stage, r.Detail)
		}
		fmt.Fprintf(out, "  %3d. %-12s %s\n", r.SerialNo, r.Link.LedgerCode, mark)
	}
}

// confirm asks a yes/no question. Anything but y or yes is no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
