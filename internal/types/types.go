// =============================================================================
// Ledger Consolidation - Shared Types
// =============================================================================
//
// This package contains the domain types shared by every layer of the
// consolidation workflow, kept here to avoid import cycles. Types defined
// here are used by:
//   - api        (wire payloads)
//   - refdata    (selectable options)
//   - rowmodel   (draft rows)
//   - validation (effective rows)
//   - committer  (consolidation links)
//
// =============================================================================

package types

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// STATUS
// =============================================================================

// Status is the activation state of a consolidation link.
type Status string

const (
	// StatusInactive is the default status of a new draft row.
	StatusInactive Status = "inactive"

	// StatusActive marks the single link a ledger is consolidated under.
	StatusActive Status = "active"
)

// IsActive reports whether the status is active.
func (s Status) IsActive() bool {
	return s == StatusActive
}

// ParseStatus converts user or file input into a Status.
// An empty value yields the default, inactive.
func ParseStatus(value string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "inactive":
		return StatusInactive, nil
	case "active":
		return StatusActive, nil
	default:
		return "", fmt.Errorf("unknown status %q (want active or inactive)", value)
	}
}

// =============================================================================
// REFERENCE ENTITIES
// =============================================================================

// Kind identifies one of the three master lists.
type Kind int

const (
	KindLedger Kind = iota
	KindSubGroup
	KindMainGroup
)

// Kinds lists every master list in load order.
var Kinds = []Kind{KindLedger, KindSubGroup, KindMainGroup}

func (k Kind) String() string {
	switch k {
	case KindLedger:
		return "ledger"
	case KindSubGroup:
		return "sub group"
	case KindMainGroup:
		return "main group"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// CodeField is the JSON attribute holding the entity code.
func (k Kind) CodeField() string {
	switch k {
	case KindSubGroup:
		return "sub_group_code"
	case KindMainGroup:
		return "main_group_code"
	default:
		return "ledger_code"
	}
}

// NameField is the JSON attribute holding the entity name.
func (k Kind) NameField() string {
	switch k {
	case KindSubGroup:
		return "sub_group_name"
	case KindMainGroup:
		return "main_group_name"
	default:
		return "ledger_name"
	}
}

// Record is a raw JSON object as returned by the backend.
type Record map[string]any

// String returns the named attribute formatted as text.
// Missing and null attributes yield "".
func (r Record) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		// encoding/json decodes every number as float64; %v would turn a
		// code like 1000000 into 1e+06.
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// Option is a selectable reference entity (ledger, sub group or main group).
// Source keeps every attribute the backend returned so the presentation
// layer can compose labels from more than the code and name.
type Option struct {
	Kind   Kind
	Code   string
	Name   string
	Source Record
}

// NewOption builds an option from a backend record of the given kind.
func NewOption(kind Kind, rec Record) Option {
	src := make(Record, len(rec))
	for k, v := range rec {
		src[k] = v
	}
	return Option{
		Kind:   kind,
		Code:   rec.String(kind.CodeField()),
		Name:   rec.String(kind.NameField()),
		Source: src,
	}
}

// Label is the text shown in a picker: code and name together.
func (o Option) Label() string {
	if o.Name == "" {
		return o.Code
	}
	return o.Code + " - " + o.Name
}

// Short is the text shown once the option is selected.
func (o Option) Short() string {
	return o.Code
}

// Field returns a pass-through attribute of the source record.
func (o Option) Field(name string) string {
	return o.Source.String(name)
}

// =============================================================================
// DRAFT ROW
// =============================================================================

// DraftRow is one not-yet-submitted consolidation link in the form.
// ID addresses the row locally and is never sent to the backend.
type DraftRow struct {
	ID        int
	Ledger    *Option
	SubGroup  *Option
	MainGroup *Option
	Status    Status
}

// HasLedger reports whether a ledger is selected.
func (r DraftRow) HasLedger() bool { return r.Ledger != nil }

// HasGroup reports whether a sub group or a main group is selected.
func (r DraftRow) HasGroup() bool { return r.SubGroup != nil || r.MainGroup != nil }

// IsBlank reports whether no field has been selected at all.
func (r DraftRow) IsBlank() bool { return !r.HasLedger() && !r.HasGroup() }

// LedgerCode returns the selected ledger code or "".
func (r DraftRow) LedgerCode() string { return code(r.Ledger) }

// LedgerName is derived at render time from the selected ledger.
func (r DraftRow) LedgerName() string { return name(r.Ledger) }

// SubGroupName is derived at render time from the selected sub group.
func (r DraftRow) SubGroupName() string { return name(r.SubGroup) }

// MainGroupName is derived at render time from the selected main group.
func (r DraftRow) MainGroupName() string { return name(r.MainGroup) }

func code(o *Option) string {
	if o == nil {
		return ""
	}
	return o.Code
}

func name(o *Option) string {
	if o == nil {
		return ""
	}
	return o.Name
}

// nullable maps an unselected option to a JSON null.
func nullable(o *Option) *string {
	if o == nil || o.Code == "" {
		return nil
	}
	c := o.Code
	return &c
}

// =============================================================================
// WIRE PAYLOADS
// =============================================================================

// ConsolidationLink is the persisted association of a ledger with a group.
// SerialNo is local to one submission batch.
type ConsolidationLink struct {
	SerialNo      int     `json:"serial_no"`
	LedgerCode    string  `json:"ledger_code"`
	SubGroupCode  *string `json:"sub_group_code"`
	MainGroupCode *string `json:"main_group_code"`
	Status        Status  `json:"status"`
}

// LinkFromDraft turns an effective draft row into the create payload.
func LinkFromDraft(serial int, row DraftRow) ConsolidationLink {
	status := row.Status
	if status == "" {
		status = StatusInactive
	}
	return ConsolidationLink{
		SerialNo:      serial,
		LedgerCode:    row.LedgerCode(),
		SubGroupCode:  nullable(row.SubGroup),
		MainGroupCode: nullable(row.MainGroup),
		Status:        status,
	}
}

// MergeRequest associates a ledger with the chosen groups.
type MergeRequest struct {
	LedgerCode    string  `json:"ledger_code"`
	SubGroupCode  *string `json:"sub_group_code"`
	MainGroupCode *string `json:"main_group_code"`
}

// MergeRequest derives the merge payload from the link.
func (l ConsolidationLink) MergeRequest() MergeRequest {
	return MergeRequest{
		LedgerCode:    l.LedgerCode,
		SubGroupCode:  l.SubGroupCode,
		MainGroupCode: l.MainGroupCode,
	}
}

// DemergeRequest removes every group association of a ledger.
type DemergeRequest struct {
	LedgerCode string `json:"ledger_code"`
}

// Deref returns the pointed-to code or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
