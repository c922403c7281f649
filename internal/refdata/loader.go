// Package refdata loads the master lists the consolidation form selects
// from and turns them into searchable option sets.
package refdata

import (
	"context"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/ledger-consolidation/internal/types"
)

// Source is the part of the backend the loader reads from.
type Source interface {
	ListLedgers(ctx context.Context) ([]types.Record, error)
	ListSubGroups(ctx context.Context) ([]types.Record, error)
	ListMainGroups(ctx context.Context) ([]types.Record, error)
	ListActiveConsolidationLinks(ctx context.Context) ([]types.ConsolidationLink, error)
}

// ListError records a master list that could not be loaded.
type ListError struct {
	List string
	Err  error
}

func (e ListError) Error() string { return e.List + ": " + e.Err.Error() }

// ReferenceData is everything the form needs before the first edit.
// A list that failed to load is an empty, non-nil OptionSet.
type ReferenceData struct {
	Ledgers    *OptionSet
	SubGroups  *OptionSet
	MainGroups *OptionSet

	// ActiveLedgerCodes holds the ledgers with an active link on the server.
	// Nil when the active links were not requested or failed to load.
	ActiveLedgerCodes []string

	// Failures lists every list that failed, in load order.
	Failures []ListError
}

// Options returns the set for a kind.
func (r *ReferenceData) Options(kind types.Kind) *OptionSet {
	switch kind {
	case types.KindSubGroup:
		return r.SubGroups
	case types.KindMainGroup:
		return r.MainGroups
	default:
		return r.Ledgers
	}
}

// Loader fetches reference data from a Source.
type Loader struct {
	source        Source
	includeActive bool
	log           logrus.FieldLogger
}

// NewLoader creates a loader. includeActive also fetches the active
// consolidation links for the duplicate-active check.
func NewLoader(source Source, includeActive bool, log logrus.FieldLogger) *Loader {
	return &Loader{source: source, includeActive: includeActive, log: log}
}

const (
	listLedgers    = "ledgers"
	listSubGroups  = "sub_groups"
	listMainGroups = "main_groups"
	listActive     = "active_links"
)

// Load issues the list requests concurrently. A failing list is logged and
// left empty; it never prevents the others from loading, so Load has no
// error return. There are no retries: call Load again to reload.
func (l *Loader) Load(ctx context.Context) *ReferenceData {
	var (
		mu       sync.Mutex
		failures = map[string]error{}
		records  = map[types.Kind][]types.Record{}
		active   []string
		g        errgroup.Group
	)

	fail := func(list string, err error) {
		l.log.WithError(err).WithField("list", list).Warn("failed to load reference list")
		mu.Lock()
		failures[list] = err
		mu.Unlock()
	}

	fetch := func(kind types.Kind, list string, fn func(context.Context) ([]types.Record, error)) {
		g.Go(func() error {
			recs, err := fn(ctx)
			if err != nil {
				fail(list, err)
				return nil
			}
			mu.Lock()
			records[kind] = recs
			mu.Unlock()
			return nil
		})
	}

	fetch(types.KindLedger, listLedgers, l.source.ListLedgers)
	fetch(types.KindSubGroup, listSubGroups, l.source.ListSubGroups)
	fetch(types.KindMainGroup, listMainGroups, l.source.ListMainGroups)

	if l.includeActive {
		g.Go(func() error {
			codes, err := l.ActiveLedgerCodes(ctx)
			if err != nil {
				fail(listActive, err)
				return nil
			}
			mu.Lock()
			active = codes
			mu.Unlock()
			return nil
		})
	}

	// Every goroutine returns nil; failures are collected above.
	_ = g.Wait()

	data := &ReferenceData{
		Ledgers:           NewOptionSet(types.KindLedger, records[types.KindLedger]),
		SubGroups:         NewOptionSet(types.KindSubGroup, records[types.KindSubGroup]),
		MainGroups:        NewOptionSet(types.KindMainGroup, records[types.KindMainGroup]),
		ActiveLedgerCodes: active,
	}
	for _, list := range []string{listLedgers, listSubGroups, listMainGroups, listActive} {
		if err, ok := failures[list]; ok {
			data.Failures = append(data.Failures, ListError{List: list, Err: err})
		}
	}

	l.log.WithFields(logrus.Fields{
		"ledgers":     data.Ledgers.Len(),
		"sub_groups":  data.SubGroups.Len(),
		"main_groups": data.MainGroups.Len(),
		"active":      len(data.ActiveLedgerCodes),
		"failures":    len(data.Failures),
	}).Info("reference data loaded")

	return data
}

// ActiveLedgerCodes returns the sorted, de-duplicated ledger codes that
// currently have an active consolidation link.
func (l *Loader) ActiveLedgerCodes(ctx context.Context) ([]string, error) {
	links, err := l.source.ListActiveConsolidationLinks(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(links))
	codes := make([]string, 0, len(links))
	for _, link := range links {
		if !link.Status.IsActive() || link.LedgerCode == "" || seen[link.LedgerCode] {
			continue
		}
		seen[link.LedgerCode] = true
		codes = append(codes, link.LedgerCode)
	}
	sort.Strings(codes)
	return codes, nil
}
