package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ConsolidationReport is the consolidated view of one ledger.
type ConsolidationReport struct {
	LedgerCode    string `json:"ledger_code"`
	LedgerName    string `json:"ledger_name"`
	SubGroupCode  string `json:"sub_group_code"`
	SubGroupName  string `json:"sub_group_name"`
	MainGroupCode string `json:"main_group_code"`
	MainGroupName string `json:"main_group_name"`
	TallyReport   string `json:"ledger_tally_report"`
	DebitCredit   string `json:"ledger_debit_credit"`
	TrialBalance  Amount `json:"ledger_trial_balance"`
	Status        string `json:"status"`
}

// Amount is a monetary value that may be absent. The backend sends it as a
// JSON number, a numeric string, an empty string or null.
type Amount struct {
	Value decimal.Decimal
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*a = Amount{}
		return nil
	}

	text := string(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		text = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	}
	if text == "" {
		*a = Amount{}
		return nil
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", text, err)
	}
	*a = Amount{Value: d, Valid: true}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return []byte(a.Value.String()), nil
}

// String formats the amount with two decimals, or "" when absent.
func (a Amount) String() string {
	if !a.Valid {
		return ""
	}
	return a.Value.StringFixed(2)
}
