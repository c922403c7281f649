// =============================================================================
// Ledger Consolidation - Report Writer
// =============================================================================
//
// This module writes the results of a batch submission and renders the
// consolidated view of a ledger.
//
// COMMIT REPORT (XLSX):
//   Sheet "Results", one row per committed row:
//
//   | Serial | Ledger | Sub Group | Main Group | Status | Outcome | Stage | Error |
//   |--------|--------|-----------|------------|--------|---------|-------|-------|
//   | 1      | L100   |           | MG01       | active | ok      |       |       |
//   | 2      | L200   | SG01      |            | active | failed  | merge | ...   |
//
//   Sheet "Summary" holds the batch id, timing and counts.
//
// CONSOLIDATION REPORT (Markdown):
//   Rendered for the terminal with glamour, or printed as plain Markdown.
//
// =============================================================================

package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/ledger-consolidation/internal/committer"
	"github.com/ginjaninja78/ledger-consolidation/internal/types"
)

// Sheet names of the commit report.
const (
	ResultsSheet = "Results"
	SummarySheet = "Summary"
)

// ResultColumns are the header cells of the Results sheet.
var ResultColumns = []string{"Serial", "Ledger", "Sub Group", "Main Group", "Status", "Outcome", "Stage", "Error"}

// Outcome cell values.
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomePartial = "partially applied"
)

// =============================================================================
// COMMIT REPORT
// =============================================================================

// WriteCommitReport writes the XLSX report of a batch.
//
// PARAMETERS:
//   - batch: The result of the commit.
//   - source: The batch file the rows came from, for the summary. May be empty.
//   - path: The file to create. Its directory is created when missing.
//
// RETURNS:
//   - An error if the workbook cannot be built or saved.
func WriteCommitReport(batch *committer.BatchResult, source, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with "Sheet1".
	if err := f.SetSheetName(f.GetSheetName(0), ResultsSheet); err != nil {
		return fmt.Errorf("failed to name results sheet: %w", err)
	}
	if err := writeResults(f, batch); err != nil {
		return err
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := writeSummary(f, batch, source); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func writeResults(f *excelize.File, batch *committer.BatchResult) error {
	header := make([]any, len(ResultColumns))
	for i, c := range ResultColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(ResultsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(ResultColumns), 1)
	if err := f.SetCellStyle(ResultsSheet, "A1", last, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, r := range batch.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := ResultRow(r)
		if err := f.SetSheetRow(ResultsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r.SerialNo, err)
		}
	}

	if err := f.SetPanes(ResultsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}
	return nil
}

// ResultRow returns the cells of one Results row.
func ResultRow(r committer.RowResult) []any {
	outcome := OutcomeOK
	switch {
	case r.PartiallyApplied():
		outcome = OutcomePartial
	case !r.Success:
		outcome = OutcomeFailed
	}
	return []any{
		r.SerialNo,
		r.Link.LedgerCode,
		types.Deref(r.Link.SubGroupCode),
		types.Deref(r.Link.MainGroupCode),
		string(r.Link.Status),
		outcome,
		string(r.Stage),
		r.Detail,
	}
}

func writeSummary(f *excelize.File, batch *committer.BatchResult, source string) error {
	rows := [][]any{
		{"Batch ID", batch.BatchID},
		{"Source", source},
		{"Started", batch.StartedAt.Format(time.RFC3339)},
		{"Elapsed", batch.Elapsed.Round(time.Millisecond).String()},
		{"Outcome", string(batch.Outcome())},
		{"Succeeded", batch.Succeeded},
		{"Failed", batch.Failed},
		{"Skipped", batch.Skipped},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	return nil
}
