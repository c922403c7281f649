// Package rowmodel owns the ordered set of draft rows edited in one
// consolidation session.
//
// Rows are addressed by a local ID rather than by position, so appending a
// row never shifts the identity of the row being edited. The model is not
// safe for concurrent use; it is mutated from the UI event loop only.
package rowmodel

import (
	"fmt"

	"github.com/ginjaninja78/ledger-consolidation/internal/types"
)

// UnknownRowError is returned when an operation names a row that does not
// exist (for example a row discarded by a reset).
type UnknownRowError struct {
	ID int
}

func (e *UnknownRowError) Error() string {
	return fmt.Sprintf("rowmodel: no row with id %d", e.ID)
}

// Model is the ordered, mutable collection of draft rows.
type Model struct {
	order  []int
	rows   map[int]*types.DraftRow
	nextID int
}

// New returns a model holding a single empty row.
func New() *Model {
	m := &Model{rows: make(map[int]*types.DraftRow), nextID: 1}
	m.AppendEmptyRow()
	return m
}

// AppendEmptyRow adds an empty inactive row at the end and returns its ID.
func (m *Model) AppendEmptyRow() int {
	id := m.nextID
	m.nextID++
	m.rows[id] = &types.DraftRow{ID: id, Status: types.StatusInactive}
	m.order = append(m.order, id)
	return id
}

// ResetToSingleEmptyRow discards every row and seeds one fresh row.
// IDs keep increasing across resets.
func (m *Model) ResetToSingleEmptyRow() int {
	m.order = m.order[:0]
	m.rows = make(map[int]*types.DraftRow)
	return m.AppendEmptyRow()
}

// SetLedger replaces the ledger of a row. A nil option clears it.
func (m *Model) SetLedger(id int, ledger *types.Option) error {
	row, err := m.lookup(id)
	if err != nil {
		return err
	}
	row.Ledger = clone(ledger)
	return nil
}

// SetSubGroup replaces the sub group of a row. A nil option clears it.
func (m *Model) SetSubGroup(id int, group *types.Option) error {
	row, err := m.lookup(id)
	if err != nil {
		return err
	}
	row.SubGroup = clone(group)
	return nil
}

// SetMainGroup replaces the main group of a row. A nil option clears it.
func (m *Model) SetMainGroup(id int, group *types.Option) error {
	row, err := m.lookup(id)
	if err != nil {
		return err
	}
	row.MainGroup = clone(group)
	return nil
}

// SetStatus replaces the status of a row. Activating a row always appends a
// new empty row, whether or not the activated row is complete, so the
// operator can keep linking ledgers without an explicit add action.
// It returns the ID of the appended row, or 0 when nothing was appended.
func (m *Model) SetStatus(id int, status types.Status) (int, error) {
	row, err := m.lookup(id)
	if err != nil {
		return 0, err
	}
	row.Status = status
	if status.IsActive() {
		return m.AppendEmptyRow(), nil
	}
	return 0, nil
}

// Len is the number of rows.
func (m *Model) Len() int {
	return len(m.order)
}

// IDs returns the row IDs in display order.
func (m *Model) IDs() []int {
	out := make([]int, len(m.order))
	copy(out, m.order)
	return out
}

// Row returns a copy of the row with the given ID.
func (m *Model) Row(id int) (types.DraftRow, bool) {
	row, ok := m.rows[id]
	if !ok {
		return types.DraftRow{}, false
	}
	return *row, true
}

// At returns a copy of the row at a display position.
func (m *Model) At(pos int) (types.DraftRow, bool) {
	if pos < 0 || pos >= len(m.order) {
		return types.DraftRow{}, false
	}
	return *m.rows[m.order[pos]], true
}

// Last returns the ID of the final row.
func (m *Model) Last() int {
	return m.order[len(m.order)-1]
}

// Rows returns copies of all rows in display order. Callers may not mutate
// the model through the result.
func (m *Model) Rows() []types.DraftRow {
	out := make([]types.DraftRow, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.rows[id])
	}
	return out
}

func (m *Model) lookup(id int) (*types.DraftRow, error) {
	row, ok := m.rows[id]
	if !ok {
		return nil, &UnknownRowError{ID: id}
	}
	return row, nil
}

func clone(o *types.Option) *types.Option {
	if o == nil {
		return nil
	}
	c := *o
	return &c
}
