// =============================================================================
// Ledger Consolidation - Consolidation Committer
// =============================================================================
//
// This module executes the write protocol for a validated batch. Each
// effective row becomes one ConsolidationLink and is committed in order:
//
// COMMIT PROTOCOL (per row):
//   1. Create the consolidation link record
//   2. If the create succeeded:
//        - status active:   merge the ledger with its groups
//        - status inactive: demerge the ledger from every group
//   3. Record the row outcome (success, or the failing stage and message)
//
// ORDERING:
//   Rows are committed strictly one after another, in form order. Merge and
//   demerge mutate shared server-side state, so a later row on the same
//   ledger must observe the effect of an earlier one. A failing row never
//   stops the batch: every row is attempted.
//
// CANCELLATION:
//   A commit is not cancellable once started. The caller's context is
//   detached from cancellation before the first request.
//
// =============================================================================

package committer

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/ledger-consolidation/internal/api"
	"github.com/ginjaninja78/ledger-consolidation/internal/types"
	"github.com/ginjaninja78/ledger-consolidation/internal/validation"
)

// =============================================================================
// BACKEND
// =============================================================================

// Backend is the set of write operations the committer needs.
// *api.Client satisfies it.
type Backend interface {
	CreateConsolidationLink(ctx context.Context, link types.ConsolidationLink) (types.Record, error)
	MergeLedgerWithGroups(ctx context.Context, req types.MergeRequest) error
	DemergeLedger(ctx context.Context, ledgerCode string) error
}

// Stage names the request a row failed at.
type Stage string

const (
	StageCreate  Stage = "create"
	StageMerge   Stage = "merge"
	StageDemerge Stage = "demerge"
)

// =============================================================================
// RESULT STRUCTURES
// =============================================================================

// RowResult is the outcome of committing one effective row.
type RowResult struct {
	// SerialNo is the 1-based position of the row in the batch.
	SerialNo int

	// RowID is the draft row the link came from.
	RowID int

	// Link is the payload sent to the create request.
	Link types.ConsolidationLink

	// Success is true when the create and the merge or demerge succeeded.
	Success bool

	// Stage is the request that failed. Empty on success.
	Stage Stage

	// Created is the record returned by the create request, when it
	// succeeded. A non-nil Created on a failed row means the server now
	// holds a link whose merge or demerge did not happen.
	Created types.Record

	// Error is the error returned by the failing request.
	Error error

	// Detail is the human-readable failure message, verbatim from the
	// server where it sent one.
	Detail string
}

// PartiallyApplied reports whether the row failed after its record was
// created, leaving server state that may need reconciliation.
func (r RowResult) PartiallyApplied() bool {
	return !r.Success && r.Stage != StageCreate && r.Stage != ""
}

// Outcome is the aggregate classification of a batch.
type Outcome string

const (
	OutcomeAllSucceeded Outcome = "all_succeeded"
	OutcomePartial      Outcome = "partial"
	OutcomeAllFailed    Outcome = "all_failed"
	OutcomeNothing      Outcome = "nothing"
)

// BatchResult aggregates the row results of one commit.
type BatchResult struct {
	// BatchID identifies the batch in logs and reports.
	BatchID string

	// Rows holds one result per effective row, in commit order.
	Rows []RowResult

	// Succeeded and Failed count the rows by outcome.
	Succeeded int
	Failed    int

	// Skipped is the number of placeholder rows the validation excluded.
	Skipped int

	// StartedAt and Elapsed time the commit.
	StartedAt time.Time
	Elapsed   time.Duration
}

// Outcome classifies the batch.
func (b *BatchResult) Outcome() Outcome {
	switch {
	case len(b.Rows) == 0:
		return OutcomeNothing
	case b.Failed == 0:
		return OutcomeAllSucceeded
	case b.Succeeded == 0:
		return OutcomeAllFailed
	default:
		return OutcomePartial
	}
}

// Created counts the rows whose link record was created, whether or not
// the row succeeded.
func (b *BatchResult) Created() int {
	n := 0
	for _, r := range b.Rows {
		if r.Created != nil {
			n++
		}
	}
	return n
}

// Failures returns the failed rows in commit order.
func (b *BatchResult) Failures() []RowResult {
	var out []RowResult
	for _, r := range b.Rows {
		if !r.Success {
			out = append(out, r)
		}
	}
	return out
}

// =============================================================================
// COMMITTER
// =============================================================================

// Committer runs the commit protocol against a Backend.
type Committer struct {
	backend Backend
	log     logrus.FieldLogger
}

// New creates a Committer.
func New(backend Backend, log logrus.FieldLogger) *Committer {
	return &Committer{backend: backend, log: log}
}

// ErrNotValidated is returned when Commit is given a failed validation.
var ErrNotValidated = errors.New("committer: batch did not pass validation")

// Commit writes the effective rows of a successful validation.
//
// PARAMETERS:
//   - ctx: Carries values only; cancellation is ignored.
//   - vr: A valid ValidationResult.
//
// RETURNS:
//   - The batch result. Per-row failures are reported in it, never as the
//     returned error, which is reserved for a batch that was not valid.
func (c *Committer) Commit(ctx context.Context, vr *validation.ValidationResult) (*BatchResult, error) {
	if vr == nil || !vr.IsValid {
		return nil, ErrNotValidated
	}
	ctx = context.WithoutCancel(ctx)

	batch := &BatchResult{
		BatchID:   uuid.NewString(),
		Rows:      make([]RowResult, 0, len(vr.Effective)),
		Skipped:   vr.Skipped,
		StartedAt: time.Now(),
	}
	log := c.log.WithField("batch_id", batch.BatchID)
	log.WithFields(logrus.Fields{
		"rows":    len(vr.Effective),
		"skipped": vr.Skipped,
	}).Info("committing consolidation batch")

	for i, row := range vr.Effective {
		result := c.commitRow(ctx, log, i+1, row)
		if result.Success {
			batch.Succeeded++
		} else {
			batch.Failed++
		}
		batch.Rows = append(batch.Rows, result)
	}

	batch.Elapsed = time.Since(batch.StartedAt)
	log.WithFields(logrus.Fields{
		"succeeded": batch.Succeeded,
		"failed":    batch.Failed,
		"outcome":   batch.Outcome(),
		"elapsed":   batch.Elapsed.String(),
	}).Info("consolidation batch finished")

	return batch, nil
}

func (c *Committer) commitRow(ctx context.Context, log logrus.FieldLogger, serial int, row types.DraftRow) RowResult {
	link := types.LinkFromDraft(serial, row)
	result := RowResult{SerialNo: serial, RowID: row.ID, Link: link}
	log = log.WithFields(logrus.Fields{
		"serial_no":   serial,
		"ledger_code": link.LedgerCode,
		"status":      link.Status,
	})

	fail := func(stage Stage, err error) RowResult {
		result.Stage = stage
		result.Error = err
		result.Detail = detail(err)
		log.WithError(err).WithField("stage", stage).Warn("consolidation row failed")
		return result
	}

	created, err := c.backend.CreateConsolidationLink(ctx, link)
	if err != nil {
		return fail(StageCreate, err)
	}
	result.Created = created

	if link.Status.IsActive() {
		if err := c.backend.MergeLedgerWithGroups(ctx, link.MergeRequest()); err != nil {
			return fail(StageMerge, err)
		}
	} else {
		if err := c.backend.DemergeLedger(ctx, link.LedgerCode); err != nil {
			return fail(StageDemerge, err)
		}
	}

	result.Success = true
	log.Debug("consolidation row committed")
	return result
}

// detail prefers the server's own message.
func detail(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.ServerMessage()
	}
	return err.Error()
}
