package dto

import (
	"github.com/noah-isme/shift-sync-api/internal/models"
)

// SubmitProposalRequest is the payload for proposing a schedule change. The
// payload carries the complete resulting field values; for MODIFY an omitted
// owner or date falls back to the target shift's current value, while nil
// start and end times mean all-day.
type SubmitProposalRequest struct {
	Kind          models.ProposalKind `json:"kind" validate:"required,oneof=CREATE MODIFY DELETE SWAP"`
	TargetShiftID *string             `json:"targetShiftId,omitempty" validate:"required_unless=Kind CREATE"`
	BaseVersion   int                 `json:"baseVersion" validate:"gte=0"`
	Payload       models.ShiftPayload `json:"payload"`
	Note          string              `json:"note"`
}

// ReviewProposalRequest carries the optional note attached to an approve,
// deny, or cancel decision.
type ReviewProposalRequest struct {
	Note string `json:"note"`
}

// BulkChangeRequest is an ordered batch of proposals. Base versions are fixed
// at batch-construction time; later items may go stale when earlier items in
// the same batch touch an overlapping shift.
type BulkChangeRequest struct {
	Items []SubmitProposalRequest `json:"items" validate:"required,min=1,dive"`
}

// BulkItemOutcome reports one batch item's result. Batches have no rollback;
// partial success is expected and reported item by item.
type BulkItemOutcome struct {
	Index      int                     `json:"index"`
	ProposalID string                  `json:"proposalId,omitempty"`
	Status     models.ProposalStatus   `json:"status,omitempty"`
	Resolution string                  `json:"resolution,omitempty"`
	Verdict    *models.ConflictVerdict `json:"verdict,omitempty"`
	Error      string                  `json:"error,omitempty"`
}

// ProposalQuery mirrors supported listing filters.
type ProposalQuery struct {
	Status      []models.ProposalStatus
	Origin      models.ProposalOrigin
	Kind        models.ProposalKind
	SubmittedBy string
	Limit       int
	Offset      int
}
