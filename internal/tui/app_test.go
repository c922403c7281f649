package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/ledger-consolidation/internal/committer"
	"github.com/ginjaninja78/ledger-consolidation/internal/notify"
	"github.com/ginjaninja78/ledger-consolidation/internal/refdata"
	"github.com/ginjaninja78/ledger-consolidation/internal/rowmodel"
	"github.com/ginjaninja78/ledger-consolidation/internal/types"
	"github.com/ginjaninja78/ledger-consolidation/internal/validation"
)

type fakeBackend struct {
	creates []types.ConsolidationLink
	fail    map[string]error
}

func (f *fakeBackend) CreateConsolidationLink(_ context.Context, link types.ConsolidationLink) (types.Record, error) {
	f.creates = append(f.creates, link)
	if err := f.fail[link.LedgerCode]; err != nil {
		return nil, err
	}
	return types.Record{"ledger_code": link.LedgerCode}, nil
}

func (f *fakeBackend) MergeLedgerWithGroups(context.Context, types.MergeRequest) error { return nil }

func (f *fakeBackend) DemergeLedger(context.Context, string) error { return nil }

func reference() *refdata.ReferenceData {
	return &refdata.ReferenceData{
		Ledgers: refdata.NewOptionSet(types.KindLedger, []types.Record{
			{"ledger_code": "L100", "ledger_name": "Freight Income"},
			{"ledger_code": "L200", "ledger_name": "Rent", "report": "P&L"},
		}),
		SubGroups:  refdata.NewOptionSet(types.KindSubGroup, []types.Record{{"sub_group_code": "SG01", "sub_group_name": "Direct"}}),
		MainGroups: refdata.NewOptionSet(types.KindMainGroup, []types.Record{{"main_group_code": "MG01", "main_group_name": "Income"}}),
	}
}

func newForm(t *testing.T, backend *fakeBackend) *Model {
	t.Helper()
	log, _ := test.NewNullLogger()
	sub := committer.NewSubmission(
		rowmodel.New(),
		committer.New(backend, log),
		validation.PolicyLenient,
		committer.ResetOnZeroFailures,
		nil,
		nil,
		log,
	)
	m := New(context.Background(), sub, reference())
	m.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	return m
}

func press(m *Model, msgs ...tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	down  = tea.KeyMsg{Type: tea.KeyDown}
	up    = tea.KeyMsg{Type: tea.KeyUp}
	right = tea.KeyMsg{Type: tea.KeyRight}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
	save  = tea.KeyMsg{Type: tea.KeyCtrlS}
)

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestPickLedger(t *testing.T) {
	m := newForm(t, &fakeBackend{})

	press(m, enter)
	require.Equal(t, modePicker, m.mode)

	press(m, down, enter)
	assert.Equal(t, modeTable, m.mode)

	row, _ := m.sub.Model.At(0)
	assert.Equal(t, "L100", row.LedgerCode())
	assert.Equal(t, "Freight Income", row.LedgerName())
	assert.Contains(t, m.View(), "Freight Income")
}

func TestPickNoneClearsCell(t *testing.T) {
	m := newForm(t, &fakeBackend{})
	press(m, enter, down, enter)

	// The picker opens on the current value; up moves to "(none)".
	press(m, enter, up, enter)
	row, _ := m.sub.Model.At(0)
	assert.False(t, row.HasLedger())
}

func TestActivatingAppendsRow(t *testing.T) {
	m := newForm(t, &fakeBackend{})
	press(m, right, right, right, enter)
	require.Equal(t, modePicker, m.mode)

	// Inactive is preselected; active is above it.
	press(m, up, enter)
	row, _ := m.sub.Model.At(0)
	assert.Equal(t, types.StatusActive, row.Status)
	assert.Equal(t, 2, m.sub.Model.Len())
}

func TestEscClosesPickerThenQuits(t *testing.T) {
	m := newForm(t, &fakeBackend{})
	press(m, enter)
	require.Equal(t, modePicker, m.mode)

	cmd := press(m, esc)
	assert.Equal(t, modeTable, m.mode)
	assert.Nil(t, cmd)

	cmd = press(m, esc)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestQDoesNotQuit(t *testing.T) {
	m := newForm(t, &fakeBackend{})
	press(m, enter, down, enter)

	cmd := press(m, runes("q"))
	assert.Nil(t, cmd)
	assert.False(t, m.quitting)
	assert.Equal(t, modeTable, m.mode)
	row, _ := m.sub.Model.At(0)
	assert.Equal(t, "L100", row.LedgerCode(), "the draft survives")
}

func TestSubmitNothingShowsValidationError(t *testing.T) {
	backend := &fakeBackend{}
	m := newForm(t, backend)

	press(m, save)
	assert.Equal(t, modeTable, m.mode)
	require.NotEmpty(t, m.notes)
	assert.Equal(t, notify.Error, m.notes[0].Severity)
	assert.Empty(t, backend.creates)
}

func TestSubmitConfirmCommitAndReset(t *testing.T) {
	backend := &fakeBackend{}
	m := newForm(t, backend)

	// L100 with main group MG01, activated.
	press(m, enter, down, enter, right, right, enter, down, enter, right, enter, up, enter)
	require.Equal(t, 2, m.sub.Model.Len())

	press(m, save)
	require.Equal(t, modeConfirm, m.mode)
	assert.Contains(t, m.View(), "Submit 1 row? 1 empty placeholder row will be skipped.")

	cmd := press(m, runes("y"))
	require.Equal(t, modeBusy, m.mode)
	require.NotNil(t, cmd)
	assert.Empty(t, backend.creates, "nothing is written before the command runs")

	m.Update(cmd())
	assert.Equal(t, modeTable, m.mode)
	require.Len(t, backend.creates, 1)
	assert.Equal(t, "L100", backend.creates[0].LedgerCode)
	assert.Equal(t, "MG01", types.Deref(backend.creates[0].MainGroupCode))

	require.NotEmpty(t, m.notes)
	assert.Equal(t, notify.Info, m.notes[0].Severity)
	assert.Equal(t, 1, m.sub.Model.Len(), "form resets after a clean batch")
	row, _ := m.sub.Model.At(0)
	assert.True(t, row.IsBlank())
}

func TestSubmitFailureKeepsRows(t *testing.T) {
	backend := &fakeBackend{fail: map[string]error{"L100": errors.New("Ledger is locked")}}
	m := newForm(t, backend)
	press(m, enter, down, enter, right, enter, down, enter)

	press(m, save)
	require.Equal(t, modeConfirm, m.mode)
	cmd := press(m, enter)
	m.Update(cmd())

	require.NotEmpty(t, m.notes)
	assert.Equal(t, notify.Error, notify.Worst(m.notes))
	row, _ := m.sub.Model.At(0)
	assert.Equal(t, "L100", row.LedgerCode(), "rows stay for correction")
}

func TestFailedRowNumberedByFormPosition(t *testing.T) {
	backend := &fakeBackend{fail: map[string]error{"L100": errors.New("Ledger is locked")}}
	m := newForm(t, backend)

	// Rows: blank placeholder, L200, L100.
	model := m.sub.Model
	rent := model.AppendEmptyRow()
	freight := model.AppendEmptyRow()
	sg := &types.Option{Kind: types.KindSubGroup, Code: "SG01", Name: "Direct"}
	require.NoError(t, model.SetLedger(rent, &types.Option{Kind: types.KindLedger, Code: "L200", Name: "Rent"}))
	require.NoError(t, model.SetSubGroup(rent, sg))
	require.NoError(t, model.SetLedger(freight, &types.Option{Kind: types.KindLedger, Code: "L100", Name: "Freight Income"}))
	require.NoError(t, model.SetSubGroup(freight, sg))

	press(m, save)
	require.Equal(t, modeConfirm, m.mode)
	cmd := press(m, enter)
	m.Update(cmd())

	require.Len(t, backend.creates, 2)
	require.Len(t, m.notes, 2)
	assert.Equal(t, "Row 3 (L100) failed at create", m.notes[1].Title)
	assert.True(t, m.failed[freight])
	assert.False(t, m.failed[rent])
	assert.Contains(t, m.View(), "Row 3 (L100)")
}

func TestCancelConfirmation(t *testing.T) {
	backend := &fakeBackend{}
	m := newForm(t, backend)
	press(m, enter, down, enter, right, enter, down, enter)

	press(m, save)
	require.Equal(t, modeConfirm, m.mode)
	cmd := press(m, runes("n"))
	assert.Nil(t, cmd)
	assert.Equal(t, modeTable, m.mode)
	assert.Empty(t, backend.creates)
}

func TestSearchFilter(t *testing.T) {
	ref := reference()
	filter := searchFilter(ref.Ledgers)
	targets := []string{noneLabel, "L100", "L200"}

	ranks := filter("freight", targets)
	require.Len(t, ranks, 1)
	assert.Equal(t, 1, ranks[0].Index)

	ranks = filter("p&l", targets)
	require.Len(t, ranks, 1)
	assert.Equal(t, 2, ranks[0].Index)

	ranks = filter("none", targets)
	require.Len(t, ranks, 1)
	assert.Equal(t, 0, ranks[0].Index)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
}
