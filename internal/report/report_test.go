package report

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/ledger-consolidation/internal/api"
	"github.com/ginjaninja78/ledger-consolidation/internal/committer"
	"github.com/ginjaninja78/ledger-consolidation/internal/types"
)

func strptr(s string) *string { return &s }

func sampleBatch() *committer.BatchResult {
	return &committer.BatchResult{
		BatchID:   "b-1",
		StartedAt: time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC),
		Elapsed:   1500 * time.Millisecond,
		Succeeded: 1,
		Failed:    2,
		Skipped:   1,
		Rows: []committer.RowResult{
			{
				SerialNo: 1,
				Link:     types.ConsolidationLink{SerialNo: 1, LedgerCode: "L100", MainGroupCode: strptr("MG01"), Status: types.StatusActive},
				Success:  true,
			},
			{
				SerialNo: 2,
				Link:     types.ConsolidationLink{SerialNo: 2, LedgerCode: "L200", SubGroupCode: strptr("SG01"), Status: types.StatusActive},
				Stage:    committer.StageMerge,
				Created:  types.Record{"id": 7},
				Error:    errors.New("boom"),
				Detail:   "Ledger is locked",
			},
			{
				SerialNo: 3,
				Link:     types.ConsolidationLink{SerialNo: 3, LedgerCode: "L300", SubGroupCode: strptr("SG01"), Status: types.StatusInactive},
				Stage:    committer.StageCreate,
				Error:    errors.New("boom"),
				Detail:   "Duplicate link",
			},
		},
	}
}

func TestWriteCommitReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "batch.xlsx")
	require.NoError(t, WriteCommitReport(sampleBatch(), "batch.csv", path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ResultsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, ResultColumns, rows[0])
	assert.Equal(t, []string{"1", "L100", "", "MG01", "active", OutcomeOK}, rows[1])
	assert.Equal(t, []string{"2", "L200", "SG01", "", "active", OutcomePartial, "merge", "Ledger is locked"}, rows[2])
	assert.Equal(t, []string{"3", "L300", "SG01", "", "inactive", OutcomeFailed, "create", "Duplicate link"}, rows[3])

	summary, err := f.GetRows(SummarySheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Batch ID", "b-1"}, summary[0])
	assert.Equal(t, []string{"Source", "batch.csv"}, summary[1])
	assert.Equal(t, []string{"Outcome", "partial"}, summary[4])
	assert.Equal(t, []string{"Failed", "2"}, summary[6])
}

func TestConsolidationMarkdown(t *testing.T) {
	r := &api.ConsolidationReport{
		LedgerCode:    "L100",
		LedgerName:    "Freight | Income",
		MainGroupCode: "MG01",
		MainGroupName: "Income",
		DebitCredit:   "Credit",
		TrialBalance:  api.Amount{Value: decimal.RequireFromString("1234.5"), Valid: true},
		Status:        "active",
	}
	md := ConsolidationMarkdown("L100", r)

	assert.Contains(t, md, "# Consolidation report: L100")
	assert.Contains(t, md, `| Ledger | L100 - Freight \| Income |`)
	assert.Contains(t, md, "| Sub Group | - |")
	assert.Contains(t, md, "| Main Group | MG01 - Income |")
	assert.Contains(t, md, "| Trial Balance | 1234.50 |")
	assert.NotContains(t, md, NoDataMessage)
}

func TestConsolidationMarkdownWithoutData(t *testing.T) {
	md := ConsolidationMarkdown("L404", nil)
	assert.Contains(t, md, NoDataMessage)
}

func TestRenderPlain(t *testing.T) {
	md := ConsolidationMarkdown("L404", nil)
	assert.Equal(t, md, Render(md, 80, true))

	out := Render(md, 80, false)
	assert.Contains(t, out, "consolidation")
	assert.NotEqual(t, md, out)
}
