package batchfile

import (
	"errors"
	"fmt"

	"github.com/ginjaninja78/ledger-consolidation/internal/refdata"
	"github.com/ginjaninja78/ledger-consolidation/internal/rowmodel"
	"github.com/ginjaninja78/ledger-consolidation/internal/types"
)

// RowError is a batch file row that cannot become a draft row.
type RowError struct {
	RowNumber int
	Column    string
	Value     string
	Err       error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s %q: %v", e.RowNumber, e.Column, e.Value, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// ErrUnknownCode is wrapped by RowError when a code is not in its master list.
var ErrUnknownCode = errors.New("unknown code")

type resolved struct {
	ledger, sub, main *types.Option
	status            types.Status
}

// Apply turns entries into draft rows through the row model operations, as
// if an operator had filled the form one row at a time: activating a row
// appends the next one, and after an inactive row the next one is added
// explicitly. Every code is resolved before the model is touched; when any
// row is invalid the model is left unchanged and all row errors are
// returned joined.
func Apply(entries []Entry, ref *refdata.ReferenceData, model *rowmodel.Model) error {
	rows := make([]resolved, 0, len(entries))
	var errs []error

	for _, e := range entries {
		var r resolved
		var err error

		if r.ledger, err = resolve(ref.Ledgers, e, ColumnLedger, e.LedgerCode); err != nil {
			errs = append(errs, err)
		}
		if r.sub, err = resolve(ref.SubGroups, e, ColumnSubGroup, e.SubGroupCode); err != nil {
			errs = append(errs, err)
		}
		if r.main, err = resolve(ref.MainGroups, e, ColumnMainGroup, e.MainGroupCode); err != nil {
			errs = append(errs, err)
		}
		if r.status, err = types.ParseStatus(e.Status); err != nil {
			errs = append(errs, &RowError{RowNumber: e.RowNumber, Column: ColumnStatus, Value: e.Status, Err: err})
		}
		rows = append(rows, r)
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	for i, r := range rows {
		id := model.Last()
		if err := model.SetLedger(id, r.ledger); err != nil {
			return err
		}
		if err := model.SetSubGroup(id, r.sub); err != nil {
			return err
		}
		if err := model.SetMainGroup(id, r.main); err != nil {
			return err
		}
		added, err := model.SetStatus(id, r.status)
		if err != nil {
			return err
		}
		if added == 0 && i < len(rows)-1 {
			model.AppendEmptyRow()
		}
	}
	return nil
}

func resolve(set *refdata.OptionSet, e Entry, column, code string) (*types.Option, error) {
	if code == "" {
		return nil, nil
	}
	opt, ok := set.Find(code)
	if !ok {
		return nil, &RowError{RowNumber: e.RowNumber, Column: column, Value: code, Err: ErrUnknownCode}
	}
	return &opt, nil
}
