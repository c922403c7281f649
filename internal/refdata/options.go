package refdata

import (
	"strings"

	"github.com/ginjaninja78/ledger-consolidation/internal/types"
)

// searchFields are the pass-through attributes matched by Search besides
// code and name.
var searchFields = []string{"report", "status", "link_status"}

// OptionSet is the lookup-ready list of options for one master list.
// Options keep the order the backend returned them in.
type OptionSet struct {
	kind    types.Kind
	options []types.Option
	byCode  map[string]int
}

// NewOptionSet converts backend records into options. Records without a
// code cannot be selected and are dropped; a repeated code keeps its first
// occurrence.
func NewOptionSet(kind types.Kind, records []types.Record) *OptionSet {
	s := &OptionSet{
		kind:    kind,
		options: make([]types.Option, 0, len(records)),
		byCode:  make(map[string]int, len(records)),
	}
	for _, rec := range records {
		opt := types.NewOption(kind, rec)
		if opt.Code == "" {
			continue
		}
		if _, dup := s.byCode[opt.Code]; dup {
			continue
		}
		s.byCode[opt.Code] = len(s.options)
		s.options = append(s.options, opt)
	}
	return s
}

// Kind reports which master list the set holds.
func (s *OptionSet) Kind() types.Kind { return s.kind }

// Len is the number of options.
func (s *OptionSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.options)
}

// All returns the options in source order.
func (s *OptionSet) All() []types.Option {
	if s == nil {
		return nil
	}
	out := make([]types.Option, len(s.options))
	copy(out, s.options)
	return out
}

// Find returns the option with exactly the given code.
func (s *OptionSet) Find(code string) (types.Option, bool) {
	if s == nil {
		return types.Option{}, false
	}
	i, ok := s.byCode[code]
	if !ok {
		return types.Option{}, false
	}
	return s.options[i], true
}

// Search returns the options whose code, name or pass-through report and
// status fields contain term, ignoring case. An empty term matches all.
func (s *OptionSet) Search(term string) []types.Option {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return s.All()
	}

	var out []types.Option
	for _, opt := range s.All() {
		if matches(opt, term) {
			out = append(out, opt)
		}
	}
	return out
}

func matches(opt types.Option, term string) bool {
	if strings.Contains(strings.ToLower(opt.Code), term) ||
		strings.Contains(strings.ToLower(opt.Name), term) {
		return true
	}
	for _, f := range searchFields {
		if strings.Contains(strings.ToLower(opt.Field(f)), term) {
			return true
		}
	}
	return false
}
