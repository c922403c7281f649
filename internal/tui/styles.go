package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ginjaninja78/ledger-consolidation/internal/notify"
)

var (
	colorAccent  = lipgloss.Color("#5B8DEF")
	colorMuted   = lipgloss.Color("#888888")
	colorInfo    = lipgloss.Color("#4CAF50")
	colorWarning = lipgloss.Color("#F7B801")
	colorError   = lipgloss.Color("#FF6B6B")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#CCCCCC")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(colorMuted)

	cellStyle       = lipgloss.NewStyle().Padding(0, 1)
	cursorCellStyle = cellStyle.
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(colorAccent).
			Bold(true)
	cursorRowStyle = cellStyle.Foreground(lipgloss.Color("#FFFFFF"))
	derivedStyle   = cellStyle.Foreground(colorMuted)
	failedRowStyle = cellStyle.Foreground(colorError)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(1, 2)

	footerStyle = lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 1)
)

func severityStyle(s notify.Severity) lipgloss.Style {
	base := lipgloss.NewStyle().Padding(0, 1)
	switch s {
	case notify.Error:
		return base.Foreground(colorError).Bold(true)
	case notify.Warning:
		return base.Foreground(colorWarning).Bold(true)
	default:
		return base.Foreground(colorInfo)
	}
}
