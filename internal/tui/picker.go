package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/ginjaninja78/ledger-consolidation/internal/refdata"
	"github.com/ginjaninja78/ledger-consolidation/internal/types"
)

const noneLabel = "(none)"

// optionItem is one entry of a ledger or group picker. A nil option is the
// "(none)" entry that clears the cell.
type optionItem struct {
	opt *types.Option
}

func (i optionItem) Title() string {
	if i.opt == nil {
		return noneLabel
	}
	return i.opt.Label()
}

func (i optionItem) Description() string { return "" }

// FilterValue is the option code; searchFilter matches on more than that.
func (i optionItem) FilterValue() string {
	if i.opt == nil {
		return noneLabel
	}
	return i.opt.Code
}

type statusItem struct {
	status types.Status
}

func (i statusItem) Title() string       { return string(i.status) }
func (i statusItem) Description() string { return "" }
func (i statusItem) FilterValue() string { return string(i.status) }

func newPickerList(title string, items []list.Item, width, height int) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetHeight(1)
	delegate.SetSpacing(0)

	l := list.New(items, delegate, width, height)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	// esc and ctrl+c belong to the form.
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	return l
}

// newOptionPicker lists "(none)" followed by every option of set, with the
// current selection highlighted.
func newOptionPicker(set *refdata.OptionSet, current *types.Option, width, height int) list.Model {
	options := set.All()
	items := make([]list.Item, 0, len(options)+1)
	items = append(items, optionItem{})
	selected := 0
	for i := range options {
		opt := options[i]
		items = append(items, optionItem{opt: &opt})
		if current != nil && opt.Code == current.Code {
			selected = i + 1
		}
	}

	l := newPickerList("Select "+set.Kind().String(), items, width, height)
	l.SetFilteringEnabled(true)
	l.Filter = searchFilter(set)
	l.Select(selected)
	return l
}

func newStatusPicker(current types.Status, width, height int) list.Model {
	items := []list.Item{statusItem{types.StatusActive}, statusItem{types.StatusInactive}}
	l := newPickerList("Select status", items, width, height)
	l.SetFilteringEnabled(false)
	if current != types.StatusActive {
		l.Select(1)
	}
	return l
}

// searchFilter filters picker items with OptionSet.Search, so typing part
// of a name, report or status finds the option, not only its code.
func searchFilter(set *refdata.OptionSet) list.FilterFunc {
	return func(term string, targets []string) []list.Rank {
		found := map[string]bool{}
		for _, opt := range set.Search(term) {
			found[opt.Code] = true
		}
		term = strings.ToLower(strings.TrimSpace(term))

		var ranks []list.Rank
		for i, code := range targets {
			if found[code] || (code == noneLabel && strings.Contains(noneLabel, term)) {
				ranks = append(ranks, list.Rank{Index: i})
			}
		}
		return ranks
	}
}
