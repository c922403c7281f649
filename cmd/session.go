package cmd

import (
	"context"

	"github.com/ginjaninja78/ledger-consolidation/internal/committer"
	"github.com/ginjaninja78/ledger-consolidation/internal/refdata"
	"github.com/ginjaninja78/ledger-consolidation/internal/rowmodel"
	"github.com/ginjaninja78/ledger-consolidation/internal/validation"
)

// session is what edit and submit share: the reference data and a
// Submission over a fresh row model.
type session struct {
	ref        *refdata.ReferenceData
	submission *committer.Submission
}

// newSession loads the reference data and builds the submission workflow
// from the configuration.
func newSession(ctx context.Context) (*session, error) {
	policy, err := validation.ParsePolicy(appConfig.Validation.Policy)
	if err != nil {
		return nil, err
	}
	reset, err := committer.ParseResetPolicy(appConfig.Submission.ResetPolicy)
	if err != nil {
		return nil, err
	}

	checkActive := appConfig.Submission.CheckActive()
	loader := refdata.NewLoader(client, checkActive, logger)
	ref := loader.Load(ctx)

	var active committer.ActiveLedgers
	if checkActive {
		active = loader
	}

	sub := committer.NewSubmission(
		rowmodel.New(),
		committer.New(client, logger),
		policy,
		reset,
		active,
		ref.ActiveLedgerCodes,
		logger,
	)
	return &session{ref: ref, submission: sub}, nil
}
