package batchfile

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/ledger-consolidation/internal/config"
)

// readXLSX reads the configured sheet, or the first one.
func readXLSX(path string, settings config.BatchConfig) ([]Entry, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := settings.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
		if sheet == "" {
			return nil, fmt.Errorf("workbook has no sheets")
		}
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("sheet %q not found", sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return fromTable(rows, settings.HeaderRow)
}
