package committer

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ginjaninja78/ledger-consolidation/internal/rowmodel"
	"github.com/ginjaninja78/ledger-consolidation/internal/validation"
)

// ResetPolicy decides when a submitted form is cleared.
type ResetPolicy string

const (
	// ResetOnZeroFailures clears the form only when every row succeeded.
	ResetOnZeroFailures ResetPolicy = "on_zero_failures"

	// ResetOnAnySuccess clears the form as soon as one row succeeded.
	ResetOnAnySuccess ResetPolicy = "on_any_success"
)

// ParseResetPolicy converts a configuration value.
func ParseResetPolicy(value string) (ResetPolicy, error) {
	switch ResetPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", ResetOnZeroFailures:
		return ResetOnZeroFailures, nil
	case ResetOnAnySuccess:
		return ResetOnAnySuccess, nil
	default:
		return "", fmt.Errorf("unknown reset policy %q", value)
	}
}

// ShouldReset applies the policy to a batch.
func (p ResetPolicy) ShouldReset(b *BatchResult) bool {
	if b == nil || len(b.Rows) == 0 {
		return false
	}
	if p == ResetOnAnySuccess {
		return b.Succeeded > 0
	}
	return b.Failed == 0
}

// ActiveLedgers refreshes the server-side active set after a commit.
// *refdata.Loader satisfies it.
type ActiveLedgers interface {
	ActiveLedgerCodes(ctx context.Context) ([]string, error)
}

// Submission ties one editing session together: the row model, the
// validation policy, the committer and the known active ledgers.
//
// Validate and Settle touch the row model and must run on the goroutine
// that owns it. Commit only performs I/O and may run elsewhere.
type Submission struct {
	Model     *rowmodel.Model
	Committer *Committer
	Policy    validation.Policy
	Reset     ResetPolicy

	// Active is optional. When set, the known active set is refreshed
	// after every commit.
	Active ActiveLedgers

	// KnownActive is passed to every validation.
	KnownActive []string

	log logrus.FieldLogger
}

// NewSubmission creates a Submission.
func NewSubmission(model *rowmodel.Model, c *Committer, policy validation.Policy, reset ResetPolicy, active ActiveLedgers, knownActive []string, log logrus.FieldLogger) *Submission {
	return &Submission{
		Model:       model,
		Committer:   c,
		Policy:      policy,
		Reset:       reset,
		Active:      active,
		KnownActive: knownActive,
		log:         log,
	}
}

// Validate checks the current rows. It performs no I/O.
func (s *Submission) Validate() *validation.ValidationResult {
	return validation.Validate(s.Model.Rows(), s.KnownActive, s.Policy)
}

// CommitOutcome is what Commit hands back to the owning goroutine.
type CommitOutcome struct {
	Batch *BatchResult

	// RefreshedActive is the active set read after the commit; nil when it
	// was not refreshed.
	RefreshedActive []string

	// RefreshError is set when the refresh was attempted and failed.
	RefreshError error
}

// Commit writes a validated batch and refreshes the active set. The refresh
// runs whenever a link record was created, including rows that failed later
// at merge or demerge.
func (s *Submission) Commit(ctx context.Context, vr *validation.ValidationResult) (*CommitOutcome, error) {
	batch, err := s.Committer.Commit(ctx, vr)
	if err != nil {
		return nil, err
	}

	out := &CommitOutcome{Batch: batch}
	if s.Active != nil && batch.Created() > 0 {
		codes, err := s.Active.ActiveLedgerCodes(context.WithoutCancel(ctx))
		if err != nil {
			s.log.WithError(err).Warn("failed to refresh active consolidation links")
			out.RefreshError = err
		} else {
			out.RefreshedActive = codes
		}
	}
	return out, nil
}

// Settle applies a commit outcome to the session. It reports whether the
// row model was reset.
func (s *Submission) Settle(out *CommitOutcome) bool {
	if out == nil {
		return false
	}
	if out.RefreshedActive != nil {
		s.KnownActive = out.RefreshedActive
	}
	if !s.Reset.ShouldReset(out.Batch) {
		return false
	}
	s.Model.ResetToSingleEmptyRow()
	s.log.WithField("batch_id", out.Batch.BatchID).Debug("form reset after submission")
	return true
}

// Submit validates, commits and settles in one call. When validation fails
// no request is made and the returned outcome is nil.
func (s *Submission) Submit(ctx context.Context) (*validation.ValidationResult, *CommitOutcome, error) {
	vr := s.Validate()
	if !vr.IsValid {
		return vr, nil, nil
	}
	out, err := s.Commit(ctx, vr)
	if err != nil {
		return vr, nil, err
	}
	s.Settle(out)
	return vr, out, nil
}
