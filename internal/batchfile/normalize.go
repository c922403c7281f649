package batchfile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ginjaninja78/ledger-consolidation/internal/config"
)

// =============================================================================
// NORMALIZER
// =============================================================================

// Normalizer rewrites batch file codes into the form the backend uses, for
// example "100" into "L000100". Columns without a rule pass through.
type Normalizer struct {
	rules map[string][]config.NormalizeAction
}

// NewNormalizer creates a Normalizer. Rules for the same column are chained
// in the order given.
func NewNormalizer(rules []config.NormalizeRule) *Normalizer {
	n := &Normalizer{rules: make(map[string][]config.NormalizeAction)}
	for _, r := range rules {
		n.rules[r.Field] = append(n.rules[r.Field], r.Actions...)
	}
	return n
}

// Normalize applies the rules of one column to a value. Empty values are
// left empty: a missing code stays missing.
func (n *Normalizer) Normalize(column, value string) (string, error) {
	if value == "" {
		return "", nil
	}
	result := value
	for _, action := range n.rules[column] {
		var err error
		result, err = ApplyAction(result, action)
		if err != nil {
			return "", fmt.Errorf("%s: normalization %q failed: %w", column, action.Type, err)
		}
	}
	return result, nil
}

// NormalizeEntry normalizes every column of an entry in place.
func (n *Normalizer) NormalizeEntry(e *Entry) error {
	for _, col := range []string{ColumnLedger, ColumnSubGroup, ColumnMainGroup, ColumnStatus} {
		v, err := n.Normalize(col, e.get(col))
		if err != nil {
			return err
		}
		e.set(col, v)
	}
	return nil
}

// ApplyAction applies a single normalization action.
//
// SUPPORTED ACTIONS:
//   - "trim"                : "  L100 " -> "L100"
//   - "uppercase"           : "l100" -> "L100"
//   - "lowercase"           : "ACTIVE" -> "active"
//   - "pad_zeros_to_length" : "100" with value "6" -> "000100"
//   - "prepend_string"      : "000100" with value "L" -> "L000100"
//                             (a value that already starts with it is kept)
//   - "lookup"              : replaced through lookup_table when present
func ApplyAction(value string, action config.NormalizeAction) (string, error) {
	switch action.Type {
	case "trim":
		return strings.TrimSpace(value), nil

	case "uppercase":
		return strings.ToUpper(value), nil

	case "lowercase":
		return strings.ToLower(value), nil

	case "pad_zeros_to_length":
		target, err := strconv.Atoi(strings.TrimSpace(action.Value))
		if err != nil || target <= 0 {
			return "", fmt.Errorf("invalid length %q", action.Value)
		}
		return PadLeft(value, target, '0'), nil

	case "prepend_string":
		if strings.HasPrefix(value, action.Value) {
			return value, nil
		}
		return action.Value + value, nil

	case "lookup":
		if replacement, ok := action.LookupTable[value]; ok {
			return replacement, nil
		}
		return value, nil

	default:
		return "", fmt.Errorf("unknown normalization %q", action.Type)
	}
}

// PadLeft pads value on the left with pad up to length runes.
func PadLeft(value string, length int, pad rune) string {
	n := len([]rune(value))
	if n >= length {
		return value
	}
	return strings.Repeat(string(pad), length-n) + value
}
