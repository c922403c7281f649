// =============================================================================
// Ledger Consolidation - Batch File Reader
// =============================================================================
//
// This module reads consolidation rows from a file so a batch can be
// submitted without the interactive form.
//
// SUPPORTED FORMATS:
//   - .xlsx       : First sheet (or the configured one), header row + data
//   - .csv        : Comma separated, header row + data
//   - .yaml/.yml  : A sequence of mappings, bare or under "rows"
//
// COLUMNS (matched by header name, case and spacing ignored):
//   | ledger_code | sub_group_code | main_group_code | status |
//   |-------------|----------------|-----------------|--------|
//   | L100        |                | MG01            | active |
//
// Only ledger_code is mandatory as a column. Fully blank rows are ignored.
//
// =============================================================================

package batchfile

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/ledger-consolidation/internal/config"
)

// Column names.
const (
	ColumnLedger    = "ledger_code"
	ColumnSubGroup  = "sub_group_code"
	ColumnMainGroup = "main_group_code"
	ColumnStatus    = "status"
)

// Entry is one row of a batch file, codes as written in the file.
type Entry struct {
	// RowNumber is the 1-based line or row of the entry in the file.
	RowNumber     int
	LedgerCode    string
	SubGroupCode  string
	MainGroupCode string
	Status        string
}

// IsBlank reports whether every column is empty.
func (e Entry) IsBlank() bool {
	return e.LedgerCode == "" && e.SubGroupCode == "" && e.MainGroupCode == "" && e.Status == ""
}

func (e Entry) get(column string) string {
	switch column {
	case ColumnLedger:
		return e.LedgerCode
	case ColumnSubGroup:
		return e.SubGroupCode
	case ColumnMainGroup:
		return e.MainGroupCode
	case ColumnStatus:
		return e.Status
	}
	return ""
}

func (e *Entry) set(column, value string) {
	switch column {
	case ColumnLedger:
		e.LedgerCode = value
	case ColumnSubGroup:
		e.SubGroupCode = value
	case ColumnMainGroup:
		e.MainGroupCode = value
	case ColumnStatus:
		e.Status = value
	}
}

// Load reads the batch file at path, normalizing every code with the
// configured rules.
//
// PARAMETERS:
//   - path: The batch file. The extension selects the format.
//   - settings: Sheet, header row and normalization rules.
//
// RETURNS:
//   - The non-blank entries in file order.
//   - An error if the file cannot be read, lacks a ledger_code column, or a
//     normalization rule fails.
func Load(path string, settings config.BatchConfig) ([]Entry, error) {
	var (
		entries []Entry
		err     error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		entries, err = readXLSX(path, settings)
	case ".csv":
		entries, err = readCSV(path, settings)
	case ".yaml", ".yml":
		entries, err = readYAML(path)
	default:
		return nil, fmt.Errorf("unsupported batch file type %q (want .xlsx, .csv or .yaml)", filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}

	normalizer := NewNormalizer(settings.Normalize)
	for i := range entries {
		if err := normalizer.NormalizeEntry(&entries[i]); err != nil {
			return nil, fmt.Errorf("row %d: %w", entries[i].RowNumber, err)
		}
	}
	return entries, nil
}

// fromTable converts header + data rows into entries. headerRow is 1-based.
func fromTable(rows [][]string, headerRow int) ([]Entry, error) {
	if headerRow < 1 {
		headerRow = 1
	}
	if len(rows) < headerRow {
		return nil, fmt.Errorf("file has fewer rows than header_row %d", headerRow)
	}

	columns := map[string]int{}
	for i, h := range rows[headerRow-1] {
		name := columnName(h)
		if _, dup := columns[name]; name != "" && !dup {
			columns[name] = i
		}
	}
	if _, ok := columns[ColumnLedger]; !ok {
		return nil, fmt.Errorf("missing %s column in header row %d", ColumnLedger, headerRow)
	}

	var entries []Entry
	for i := headerRow; i < len(rows); i++ {
		e := Entry{RowNumber: i + 1}
		for _, col := range []string{ColumnLedger, ColumnSubGroup, ColumnMainGroup, ColumnStatus} {
			idx, ok := columns[col]
			if ok && idx < len(rows[i]) {
				e.set(col, strings.TrimSpace(rows[i][idx]))
			}
		}
		if e.IsBlank() {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// columnName maps "Ledger Code", "ledger-code" and "LEDGER_CODE" to
// "ledger_code".
func columnName(header string) string {
	h := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header, "\ufeff")))
	h = strings.NewReplacer(" ", "_", "-", "_").Replace(h)
	for strings.Contains(h, "__") {
		h = strings.ReplaceAll(h, "__", "_")
	}
	return h
}
