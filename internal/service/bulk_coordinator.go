package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/shift-sync-api/internal/dto"
	"github.com/noah-isme/shift-sync-api/internal/models"
	appErrors "github.com/noah-isme/shift-sync-api/pkg/errors"
)

type proposalSubmitter interface {
	Submit(ctx context.Context, req dto.SubmitProposalRequest, actorID string, origin models.ProposalOrigin) (*models.ChangeProposal, error)
}

// BulkChangeCoordinator pushes an ordered batch of proposals through the
// workflow one at a time. There is no transaction and no rollback: each item
// settles on its own, and an item that fails or rejects never blocks the rest
// of the batch.
type BulkChangeCoordinator struct {
	proposals proposalSubmitter
	logger    *zap.Logger
}

// NewBulkChangeCoordinator constructs the coordinator.
func NewBulkChangeCoordinator(proposals proposalSubmitter, logger *zap.Logger) *BulkChangeCoordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkChangeCoordinator{proposals: proposals, logger: logger}
}

// SubmitBatch processes items strictly in request order and reports one
// outcome per item. Items submitted with base versions captured before the
// batch ran can go stale when an earlier item commits against the same shift;
// that surfaces as a CONCURRENT_MODIFICATION rejection, not a batch error.
func (c *BulkChangeCoordinator) SubmitBatch(ctx context.Context, req dto.BulkChangeRequest, actorID string, origin models.ProposalOrigin) ([]dto.BulkItemOutcome, error) {
	if len(req.Items) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "batch must contain at least one item")
	}

	outcomes := make([]dto.BulkItemOutcome, 0, len(req.Items))
	for i, item := range req.Items {
		if err := ctx.Err(); err != nil {
			outcomes = append(outcomes, dto.BulkItemOutcome{Index: i, Error: "canceled before processing"})
			continue
		}

		outcome := dto.BulkItemOutcome{Index: i}
		proposal, err := c.proposals.Submit(ctx, item, actorID, origin)
		if err != nil {
			outcome.Error = appErrors.FromError(err).Message
			c.logger.Warn("bulk item failed",
				zap.Int("index", i),
				zap.String("kind", string(item.Kind)),
				zap.Error(err))
			outcomes = append(outcomes, outcome)
			continue
		}

		outcome.ProposalID = proposal.ID
		outcome.Status = proposal.Status
		if proposal.Resolution != nil {
			outcome.Resolution = *proposal.Resolution
		}
		if verdict, err := proposal.DecodeVerdict(); err == nil && verdict != nil {
			outcome.Verdict = verdict
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}
