package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/ginjaninja78/ledger-consolidation/internal/api"
)

// NoDataMessage is shown when the backend has no consolidated view of a ledger.
const NoDataMessage = "No consolidation data found for this ledger."

// ConsolidationMarkdown formats the consolidated view of a ledger. A nil
// report yields NoDataMessage.
func ConsolidationMarkdown(code string, r *api.ConsolidationReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Consolidation report: %s\n\n", code)
	if r == nil {
		b.WriteString(NoDataMessage + "\n")
		return b.String()
	}

	b.WriteString("| Field | Value |\n")
	b.WriteString("|-------|-------|\n")
	row := func(field, value string) {
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(&b, "| %s | %s |\n", field, escapeCell(value))
	}
	row("Ledger", labeled(r.LedgerCode, r.LedgerName))
	row("Sub Group", labeled(r.SubGroupCode, r.SubGroupName))
	row("Main Group", labeled(r.MainGroupCode, r.MainGroupName))
	row("Tally Report", r.TallyReport)
	row("Debit / Credit", r.DebitCredit)
	row("Trial Balance", r.TrialBalance.String())
	row("Status", r.Status)
	return b.String()
}

// Render renders markdown for a terminal of the given width. When plain is
// set, or rendering fails, the markdown is returned unchanged.
func Render(markdown string, width int, plain bool) string {
	if plain {
		return markdown
	}
	if width < 20 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return markdown
	}
	out, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}

func labeled(code, name string) string {
	switch {
	case code == "":
		return name
	case name == "":
		return code
	}
	return code + " - " + name
}

func escapeCell(s string) string {
	return strings.NewReplacer("|", `\|`, "\n", " ").Replace(s)
}
