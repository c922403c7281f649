// Package tui is the interactive consolidation form: one table row per draft
// row, searchable pickers for ledgers and groups, and a confirmation modal in
// front of every submission.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ginjaninja78/ledger-consolidation/internal/committer"
	"github.com/ginjaninja78/ledger-consolidation/internal/notify"
	"github.com/ginjaninja78/ledger-consolidation/internal/refdata"
	"github.com/ginjaninja78/ledger-consolidation/internal/types"
	"github.com/ginjaninja78/ledger-consolidation/internal/validation"
)

type mode int

const (
	modeTable mode = iota
	modePicker
	modeConfirm
	modeBusy
)

// column is an editable cell of a row.
type column int

const (
	colLedger column = iota
	colSubGroup
	colMainGroup
	colStatus
)

var (
	headers = []string{"Serial", "Ledger", "Name", "Sub Group", "Name", "Main Group", "Name", "Status"}
	widths  = []int{8, 14, 26, 14, 22, 14, 22, 10}

	// cellIndex maps an editable column to its table column.
	cellIndex = map[column]int{colLedger: 1, colSubGroup: 3, colMainGroup: 5, colStatus: 7}
)

// commitDoneMsg carries the result of a commit back to the UI goroutine.
type commitDoneMsg struct {
	out *committer.CommitOutcome
	err error
}

// Model is the bubbletea model of the form. The row model is only touched
// from Update; the commit itself runs as a tea.Cmd.
type Model struct {
	ctx  context.Context
	sub  *committer.Submission
	ref  *refdata.ReferenceData
	keys keyMap
	help help.Model

	mode mode
	row  int
	col  column

	picker    list.Model
	pickRowID int
	pickCol   column

	pending *validation.ValidationResult
	notes   []notify.Notification

	// failed holds the IDs of rows whose last commit failed.
	failed map[int]bool

	width, height int
	quitting      bool
}

// New creates the form over an existing submission session.
func New(ctx context.Context, sub *committer.Submission, ref *refdata.ReferenceData) *Model {
	return &Model{
		ctx:   ctx,
		sub:   sub,
		ref:   ref,
		keys:  defaultKeys(),
		help:  help.New(),
		notes: notify.FromReference(ref.Failures),
	}
}

// Run shows the form until the user leaves it.
func Run(ctx context.Context, sub *committer.Submission, ref *refdata.ReferenceData) error {
	_, err := tea.NewProgram(New(ctx, sub, ref), tea.WithAltScreen()).Run()
	return err
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		if m.mode == modePicker {
			m.picker.SetSize(m.pickerSize())
		}
		return m, nil

	case commitDoneMsg:
		m.finishCommit(msg)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		switch m.mode {
		case modePicker:
			return m.updatePicker(msg)
		case modeConfirm:
			return m.updateConfirm(msg)
		case modeBusy:
			return m, nil
		default:
			return m.updateTable(msg)
		}
	}

	// Filter results and other list messages.
	if m.mode == modePicker {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}
	return m, nil
}

// =============================================================================
// TABLE
// =============================================================================

func (m *Model) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.row > 0 {
			m.row--
		}
	case key.Matches(msg, m.keys.Down):
		if m.row < m.sub.Model.Len()-1 {
			m.row++
		}
	case key.Matches(msg, m.keys.Left):
		if m.col > colLedger {
			m.col--
		}
	case key.Matches(msg, m.keys.Right):
		if m.col < colStatus {
			m.col++
		}
	case key.Matches(msg, m.keys.Edit):
		m.openPicker()
	case key.Matches(msg, m.keys.AddRow):
		m.sub.Model.AppendEmptyRow()
		m.row = m.sub.Model.Len() - 1
	case key.Matches(msg, m.keys.Submit):
		m.requestSubmit()
	case key.Matches(msg, m.keys.Back):
		// Leaving the form discards the draft rows; nothing is written.
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// =============================================================================
// PICKER
// =============================================================================

func (m *Model) openPicker() {
	row, ok := m.sub.Model.At(m.row)
	if !ok {
		return
	}
	w, h := m.pickerSize()
	switch m.col {
	case colLedger:
		m.picker = newOptionPicker(m.ref.Ledgers, row.Ledger, w, h)
	case colSubGroup:
		m.picker = newOptionPicker(m.ref.SubGroups, row.SubGroup, w, h)
	case colMainGroup:
		m.picker = newOptionPicker(m.ref.MainGroups, row.MainGroup, w, h)
	case colStatus:
		m.picker = newStatusPicker(row.Status, w, h)
	}
	m.pickRowID = row.ID
	m.pickCol = m.col
	m.mode = modePicker
}

func (m *Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.picker.FilterState() != list.Filtering {
		switch {
		case msg.Type == tea.KeyEsc && m.picker.FilterState() == list.Unfiltered:
			m.mode = modeTable
			return m, nil
		case key.Matches(msg, m.keys.Edit):
			m.choose()
			m.mode = modeTable
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	return m, cmd
}

// choose applies the highlighted picker entry to the row being edited.
func (m *Model) choose() {
	var err error
	switch it := m.picker.SelectedItem().(type) {
	case optionItem:
		switch m.pickCol {
		case colLedger:
			err = m.sub.Model.SetLedger(m.pickRowID, it.opt)
		case colSubGroup:
			err = m.sub.Model.SetSubGroup(m.pickRowID, it.opt)
		case colMainGroup:
			err = m.sub.Model.SetMainGroup(m.pickRowID, it.opt)
		}
	case statusItem:
		_, err = m.sub.Model.SetStatus(m.pickRowID, it.status)
	}
	if err != nil {
		m.notes = []notify.Notification{{Severity: notify.Error, Title: "Edit failed", Message: err.Error()}}
	}
}

func (m *Model) pickerSize() (int, int) {
	w, h := 60, 16
	if m.width > 0 && m.width-8 < w {
		w = max(20, m.width-8)
	}
	if m.height > 0 && m.height-8 < h {
		h = max(5, m.height-8)
	}
	return w, h
}

// =============================================================================
// SUBMISSION
// =============================================================================

func (m *Model) requestSubmit() {
	vr := m.sub.Validate()
	if !vr.IsValid {
		m.notes = notify.FromValidation(vr)
		return
	}
	m.notes = nil
	m.pending = vr
	m.mode = modeConfirm
}

func (m *Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		vr := m.pending
		m.mode = modeBusy
		return m, m.commit(vr)
	case key.Matches(msg, m.keys.Cancel):
		m.pending = nil
		m.mode = modeTable
	}
	return m, nil
}

// commit runs off the UI goroutine and must not touch the row model.
func (m *Model) commit(vr *validation.ValidationResult) tea.Cmd {
	ctx, sub := m.ctx, m.sub
	return func() tea.Msg {
		out, err := sub.Commit(ctx, vr)
		return commitDoneMsg{out: out, err: err}
	}
}

func (m *Model) finishCommit(msg commitDoneMsg) {
	m.mode = modeTable
	m.pending = nil
	if msg.err != nil {
		m.notes = []notify.Notification{{Severity: notify.Error, Title: "Submission failed", Message: msg.err.Error()}}
		return
	}

	rowIDs := m.sub.Model.IDs()
	m.failed = map[int]bool{}
	for _, r := range msg.out.Batch.Failures() {
		m.failed[r.RowID] = true
	}
	if m.sub.Settle(msg.out) {
		m.row, m.col = 0, colLedger
		m.failed = nil
	}
	m.notes = notify.FromBatch(msg.out.Batch, rowIDs)
	if msg.out.RefreshError != nil {
		m.notes = append(m.notes, notify.Notification{
			Severity: notify.Warning,
			Title:    "Active links not refreshed",
			Message:  msg.out.RefreshError.Error(),
		})
	}
	if m.row >= m.sub.Model.Len() {
		m.row = m.sub.Model.Len() - 1
	}
}

// =============================================================================
// VIEW
// =============================================================================

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		titleStyle.Render(fmt.Sprintf("Ledger Consolidation  ·  %d row(s)", m.sub.Model.Len())),
	}

	switch m.mode {
	case modePicker:
		sections = append(sections, modalStyle.Render(m.picker.View()))
	case modeConfirm:
		body := notify.Confirmation(m.pending) + "\n\n" + footerStyle.Render("y/enter: submit   n/esc: cancel")
		sections = append(sections, m.renderTable(), modalStyle.Render(body))
	case modeBusy:
		sections = append(sections, m.renderTable(), modalStyle.Render("Submitting..."))
	default:
		sections = append(sections, m.renderTable())
	}

	if len(m.notes) > 0 {
		sections = append(sections, m.renderNotes())
	}
	sections = append(sections, footerStyle.Render(m.help.View(m.keys)))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderTable() string {
	head := make([]string, len(headers))
	for i, h := range headers {
		head[i] = headerStyle.Width(widths[i]).Render(h)
	}
	lines := []string{lipgloss.JoinHorizontal(lipgloss.Top, head...)}

	rows := m.sub.Model.Rows()
	start, end := 0, len(rows)
	if visible := m.height - 14; m.height > 0 && visible > 0 && len(rows) > visible {
		if m.row >= visible {
			start = m.row - visible + 1
		}
		end = start + visible
	}

	for pos := start; pos < end; pos++ {
		lines = append(lines, m.renderRow(pos, rows[pos]))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderRow(pos int, row types.DraftRow) string {
	status := row.Status
	if status == "" {
		status = types.StatusInactive
	}
	values := []string{
		fmt.Sprintf("%d", pos+1),
		short(row.Ledger),
		row.LedgerName(),
		short(row.SubGroup),
		row.SubGroupName(),
		short(row.MainGroup),
		row.MainGroupName(),
		string(status),
	}

	cells := make([]string, len(values))
	for i, v := range values {
		style := cellStyle
		switch {
		case pos == m.row && i == cellIndex[m.col]:
			style = cursorCellStyle
		case pos == m.row:
			style = cursorRowStyle
		case i == 2 || i == 4 || i == 6:
			style = derivedStyle
		}
		cells[i] = style.Width(widths[i]).Render(truncate(v, widths[i]-2))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (m *Model) renderNotes() string {
	lines := make([]string, len(m.notes))
	for i, n := range m.notes {
		lines[i] = severityStyle(n.Severity).Render(n.String())
	}
	return strings.Join(lines, "\n")
}

func short(o *types.Option) string {
	if o == nil {
		return ""
	}
	return o.Short()
}

func truncate(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
