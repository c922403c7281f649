// Package notify maps validation and commit results to the notifications
// an operator sees. It is shared by the interactive form and the batch
// command so both report the same outcome with the same words.
package notify

import (
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/ledger-consolidation/internal/committer"
	"github.com/ginjaninja78/ledger-consolidation/internal/refdata"
	"github.com/ginjaninja78/ledger-consolidation/internal/validation"
)

// Severity orders notifications from informational to error.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Notification is one message for the operator.
type Notification struct {
	Severity Severity
	Title    string
	Message  string
}

func (n Notification) String() string {
	if n.Message == "" {
		return fmt.Sprintf("[%s] %s", n.Severity, n.Title)
	}
	return fmt.Sprintf("[%s] %s: %s", n.Severity, n.Title, n.Message)
}

// FromReference reports the master lists that failed to load. The form
// stays usable with those pickers empty.
func FromReference(failures []refdata.ListError) []Notification {
	out := make([]Notification, 0, len(failures))
	for _, f := range failures {
		out = append(out, Notification{
			Severity: Warning,
			Title:    "Reference data unavailable",
			Message:  fmt.Sprintf("could not load %s (%v); its picker is empty", strings.ReplaceAll(f.List, "_", " "), f.Err),
		})
	}
	return out
}

// FromValidation returns one error notification per validation error. A
// valid result yields nothing.
func FromValidation(vr *validation.ValidationResult) []Notification {
	if vr == nil || vr.IsValid {
		return nil
	}
	out := make([]Notification, 0, len(vr.Errors))
	for _, e := range vr.Errors {
		out = append(out, Notification{
			Severity: Error,
			Title:    "Validation failed",
			Message:  e.Error(),
		})
	}
	return out
}

// Confirmation is the question asked before anything is written.
func Confirmation(vr *validation.ValidationResult) string {
	n := len(vr.Effective)
	return fmt.Sprintf("Submit %d %s? %d empty placeholder %s will be skipped.",
		n, plural(n, "row", "rows"), vr.Skipped, plural(vr.Skipped, "row", "rows"))
}

// FromBatch returns the aggregate notification first, followed by one
// notification per failed row.
//
// PARAMETERS:
//   - b: the committed batch
//   - rowIDs: the draft row IDs in form order, as returned by the row
//     model's IDs before the form was reset
//
// Failed rows are numbered by their 1-based position in rowIDs, the same
// numbering the form and the validation messages use. A row missing from
// rowIDs falls back to its batch serial number.
func FromBatch(b *committer.BatchResult, rowIDs []int) []Notification {
	if b == nil {
		return nil
	}

	var out []Notification
	skipped := ""
	if b.Skipped > 0 {
		skipped = fmt.Sprintf(", %d empty %s skipped", b.Skipped, plural(b.Skipped, "row", "rows"))
	}

	switch b.Outcome() {
	case committer.OutcomeAllSucceeded:
		out = append(out, Notification{
			Severity: Info,
			Title:    "Consolidation saved",
			Message:  fmt.Sprintf("%d %s submitted%s", b.Succeeded, plural(b.Succeeded, "row", "rows"), skipped),
		})
	case committer.OutcomePartial:
		out = append(out, Notification{
			Severity: Warning,
			Title:    "Consolidation partially saved",
			Message:  fmt.Sprintf("%d succeeded, %d failed%s", b.Succeeded, b.Failed, skipped),
		})
	case committer.OutcomeAllFailed:
		out = append(out, Notification{
			Severity: Error,
			Title:    "Consolidation failed",
			Message:  fmt.Sprintf("all %d %s failed%s", b.Failed, plural(b.Failed, "row", "rows"), skipped),
		})
	default:
		out = append(out, Notification{Severity: Info, Title: "Nothing was submitted"})
	}

	positions := make(map[int]int, len(rowIDs))
	for i, id := range rowIDs {
		positions[id] = i + 1
	}
	for _, r := range b.Failures() {
		pos, ok := positions[r.RowID]
		if !ok {
			pos = r.SerialNo
		}
		out = append(out, rowFailure(pos, r))
	}
	return out
}

func rowFailure(pos int, r committer.RowResult) Notification {
	n := Notification{
		Severity: Error,
		Title:    fmt.Sprintf("Row %d (%s) failed at %s", pos, r.Link.LedgerCode, r.Stage),
		Message:  r.Detail,
	}
	if r.PartiallyApplied() {
		n.Message += "; the link record was created, server state may need manual reconciliation"
	}
	return n
}

// Worst returns the highest severity in ns, Info when empty.
func Worst(ns []Notification) Severity {
	worst := Info
	for _, n := range ns {
		if n.Severity > worst {
			worst = n.Severity
		}
	}
	return worst
}

// Render writes one line per notification.
func Render(w io.Writer, ns []Notification) error {
	for _, n := range ns {
		if _, err := fmt.Fprintln(w, n.String()); err != nil {
			return err
		}
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
