// =============================================================================
// Ledger Consolidation - Validation Engine
// =============================================================================
//
// This module decides whether a set of draft rows may be submitted. It is a
// pure function of its inputs: it performs no I/O and never mutates the row
// model. It checks:
//   - Completeness: a ledger AND (a sub group OR a main group) per row
//   - Uniqueness:   at most one active row per ledger in the batch
//   - Exclusivity:  no ledger submitted as active may already be active on
//                   the server (the caller passes the known active set)
//
// POLICIES:
//   - lenient: rows with no ledger are placeholders and are skipped; the
//              batch fails only when nothing is left to submit
//   - strict:  every row must be complete
//
// ERROR HANDLING:
//   - Errors are collected, not returned at the first failure
//   - Each error carries the 1-based form row it refers to (0 = batch-wide)
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/ledger-consolidation/internal/types"
)

// =============================================================================
// POLICY
// =============================================================================

// Policy selects how incomplete rows are treated.
type Policy string

const (
	// PolicyLenient skips rows without a ledger as empty placeholders.
	PolicyLenient Policy = "lenient"

	// PolicyStrict requires every row to be complete.
	PolicyStrict Policy = "strict"
)

// ParsePolicy converts a configuration value into a Policy.
func ParsePolicy(value string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(value))) {
	case "", PolicyLenient:
		return PolicyLenient, nil
	case PolicyStrict:
		return PolicyStrict, nil
	default:
		return "", fmt.Errorf("unknown validation policy %q", value)
	}
}

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ErrorCode classifies a validation error so callers can branch on it.
type ErrorCode string

const (
	ErrCodeMissingLedger   ErrorCode = "missing_ledger"
	ErrCodeMissingGroup    ErrorCode = "missing_group"
	ErrCodeNothingToSubmit ErrorCode = "nothing_to_submit"
	ErrCodeDuplicateActive ErrorCode = "duplicate_active"
	ErrCodeAlreadyActive   ErrorCode = "already_active"
)

// ValidationError represents a single validation error.
type ValidationError struct {
	// Code classifies the error.
	Code ErrorCode

	// Field is the form field at fault ("ledger", "group"), empty for
	// batch-wide errors.
	Field string

	// Message is a human-readable error message.
	Message string

	// RowNumber is the 1-based position of the row in the form.
	// Zero for errors that concern the batch as a whole.
	RowNumber int

	// RowID is the local identifier of the row, zero for batch-wide errors.
	RowID int

	// LedgerCodes names the offending ledgers of a uniqueness error.
	LedgerCodes []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.RowNumber > 0 {
		return fmt.Sprintf("Row %d: %s", e.RowNumber, e.Message)
	}
	return e.Message
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// Policy is the policy the rows were validated under.
	Policy Policy

	// IsValid is true if there are no errors.
	IsValid bool

	// Errors contains all validation errors.
	Errors []*ValidationError

	// Effective holds the rows to commit, in form order. Empty unless the
	// batch is valid.
	Effective []types.DraftRow

	// Skipped is the number of placeholder rows excluded by the lenient
	// policy.
	Skipped int

	// RowsValidated is the number of rows inspected.
	RowsValidated int
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator validates draft rows under one policy.
type Validator struct {
	policy Policy
}

// NewValidator creates a Validator. An empty policy means lenient.
func NewValidator(policy Policy) *Validator {
	if policy == "" {
		policy = PolicyLenient
	}
	return &Validator{policy: policy}
}

// Validate checks rows against completeness and uniqueness rules.
//
// PARAMETERS:
//   - rows: The draft rows in form order.
//   - knownActive: Ledger codes that already have an active link on the
//     server. May be nil.
//   - policy: The completeness policy.
//
// RETURNS:
//   - A ValidationResult holding either the effective rows or the errors.
func Validate(rows []types.DraftRow, knownActive []string, policy Policy) *ValidationResult {
	return NewValidator(policy).ValidateAll(rows, knownActive)
}

// ValidateAll validates a batch and returns a detailed result.
func (v *Validator) ValidateAll(rows []types.DraftRow, knownActive []string) *ValidationResult {
	result := &ValidationResult{
		Policy:        v.policy,
		IsValid:       true,
		Errors:        make([]*ValidationError, 0),
		RowsValidated: len(rows),
	}

	// =========================================================================
	// STEP 1: COMPLETENESS
	// =========================================================================

	candidates := make([]types.DraftRow, 0, len(rows))
	for i, row := range rows {
		if v.policy == PolicyLenient && !row.HasLedger() {
			result.Skipped++
			continue
		}
		result.Errors = append(result.Errors, v.ValidateRow(i+1, row)...)
		candidates = append(candidates, row)
	}

	if len(candidates) == 0 {
		result.Errors = append(result.Errors, &ValidationError{
			Code:    ErrCodeNothingToSubmit,
			Message: "Nothing to submit: select a ledger and a sub group or main group on at least one row",
		})
	}

	// =========================================================================
	// STEP 2: UNIQUENESS OF ACTIVE LINKS
	// =========================================================================

	result.Errors = append(result.Errors, checkActiveUniqueness(candidates, knownActive)...)

	if len(result.Errors) > 0 {
		result.IsValid = false
		return result
	}

	result.Effective = candidates
	return result
}

// ValidateRow checks a single row for completeness.
// rowNumber is the 1-based form position used in messages.
func (v *Validator) ValidateRow(rowNumber int, row types.DraftRow) []*ValidationError {
	var errors []*ValidationError

	if !row.HasLedger() {
		errors = append(errors, &ValidationError{
			Code:      ErrCodeMissingLedger,
			Field:     "ledger",
			Message:   "select a ledger",
			RowNumber: rowNumber,
			RowID:     row.ID,
		})
	}

	if !row.HasGroup() {
		errors = append(errors, &ValidationError{
			Code:      ErrCodeMissingGroup,
			Field:     "group",
			Message:   "select a sub group or a main group",
			RowNumber: rowNumber,
			RowID:     row.ID,
		})
	}

	return errors
}

// checkActiveUniqueness enforces at most one active link per ledger, across
// the batch and against the server's current active set. Ledgers are named
// in the order they first appear in the batch.
func checkActiveUniqueness(rows []types.DraftRow, knownActive []string) []*ValidationError {
	var errors []*ValidationError

	known := make(map[string]bool, len(knownActive))
	for _, code := range knownActive {
		known[code] = true
	}

	seen := make(map[string]int)
	var duplicates, alreadyActive []string
	for _, row := range rows {
		if !row.Status.IsActive() || !row.HasLedger() {
			continue
		}
		code := row.LedgerCode()
		seen[code]++
		if seen[code] == 2 {
			duplicates = append(duplicates, code)
		}
		if seen[code] == 1 && known[code] {
			alreadyActive = append(alreadyActive, code)
		}
	}

	if len(duplicates) > 0 {
		errors = append(errors, &ValidationError{
			Code: ErrCodeDuplicateActive,
			Message: fmt.Sprintf("Ledger %s is set active on more than one row; a ledger may have only one active consolidation",
				strings.Join(duplicates, ", ")),
			LedgerCodes: duplicates,
		})
	}

	if len(alreadyActive) > 0 {
		errors = append(errors, &ValidationError{
			Code: ErrCodeAlreadyActive,
			Message: fmt.Sprintf("Ledger %s already has an active consolidation; deactivate it before linking it again",
				strings.Join(alreadyActive, ", ")),
			LedgerCodes: alreadyActive,
		})
	}

	return errors
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats validation errors for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation failed with %d error(s):\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}
