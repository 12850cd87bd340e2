package models

import (
	"encoding/json"
	"time"
)

// ProposalKind enumerates supported schedule mutations.
type ProposalKind string

const (
	ProposalKindCreate ProposalKind = "CREATE"
	ProposalKindModify ProposalKind = "MODIFY"
	ProposalKindDelete ProposalKind = "DELETE"
	ProposalKindSwap   ProposalKind = "SWAP"
)

// ProposalOrigin identifies the submitter path.
type ProposalOrigin string

const (
	ProposalOriginUser         ProposalOrigin = "USER"
	ProposalOriginExternalSync ProposalOrigin = "EXTERNAL_SYNC"
)

// ProposalStatus captures the persisted workflow state. SUBMITTED and
// EVALUATED are transient and never stored; a proposal row always lands in
// one of these three.
type ProposalStatus string

const (
	ProposalStatusPendingApproval ProposalStatus = "PENDING_APPROVAL"
	ProposalStatusCommitted       ProposalStatus = "COMMITTED"
	ProposalStatusRejected        ProposalStatus = "REJECTED"
)

// Resolution reasons recorded on terminal proposals.
const (
	ResolutionAutoClean              = "AUTO_CLEAN"
	ResolutionApproved               = "APPROVED"
	ResolutionDenied                 = "DENIED"
	ResolutionCanceled               = "CANCELED"
	ResolutionHardConflict           = "HARD_CONFLICT"
	ResolutionConcurrentModification = "CONCURRENT_MODIFICATION"
)

// ShiftPayload carries the requested field values of a proposal. For SWAP the
// two shifts exchange owners and SwapWithShiftID names the counterpart.
type ShiftPayload struct {
	OwnerID         string  `json:"ownerId,omitempty"`
	Date            string  `json:"date,omitempty"`
	StartTime       *string `json:"startTime,omitempty"`
	EndTime         *string `json:"endTime,omitempty"`
	Role            string  `json:"role,omitempty"`
	ExternalRef     *string `json:"externalRef,omitempty"`
	SwapWithShiftID *string `json:"swapWithShiftId,omitempty"`
	// Resurrection marks a sync-originated create whose shift was deliberately
	// deleted before; the detector downgrades it to a soft conflict so the
	// owner confirms the re-creation.
	Resurrection bool `json:"resurrection,omitempty"`
}

// ChangeProposal is a requested schedule mutation awaiting a workflow
// decision. BaseVersion is the target shift version the proposal was computed
// against and drives optimistic-concurrency detection.
type ChangeProposal struct {
	ID            string          `db:"id" json:"id"`
	TargetShiftID *string         `db:"target_shift_id" json:"targetShiftId,omitempty"`
	Kind          ProposalKind    `db:"kind" json:"kind"`
	Origin        ProposalOrigin  `db:"origin" json:"origin"`
	Payload       json.RawMessage `db:"payload" json:"payload"`
	BaseVersion   int             `db:"base_version" json:"baseVersion"`
	ExternalRef   *string         `db:"external_ref" json:"externalRef,omitempty"`
	Status        ProposalStatus  `db:"status" json:"status"`
	Verdict       json.RawMessage `db:"verdict" json:"verdict,omitempty"`
	Resolution    *string         `db:"resolution" json:"resolution,omitempty"`
	Note          *string         `db:"note" json:"note,omitempty"`
	SubmittedBy   string          `db:"submitted_by" json:"submittedBy"`
	ResolvedBy    *string         `db:"resolved_by" json:"resolvedBy,omitempty"`
	SubmittedAt   time.Time       `db:"submitted_at" json:"submittedAt"`
	ResolvedAt    *time.Time      `db:"resolved_at" json:"resolvedAt,omitempty"`
}

// DecodePayload unmarshals the raw payload.
func (p *ChangeProposal) DecodePayload() (ShiftPayload, error) {
	var payload ShiftPayload
	if len(p.Payload) == 0 {
		return payload, nil
	}
	err := json.Unmarshal(p.Payload, &payload)
	return payload, err
}

// DecodeVerdict unmarshals the stored verdict, nil when none was recorded.
func (p *ChangeProposal) DecodeVerdict() (*ConflictVerdict, error) {
	if len(p.Verdict) == 0 {
		return nil, nil
	}
	var verdict ConflictVerdict
	if err := json.Unmarshal(p.Verdict, &verdict); err != nil {
		return nil, err
	}
	return &verdict, nil
}

// SetVerdict stores the verdict JSON on the proposal row.
func (p *ChangeProposal) SetVerdict(v ConflictVerdict) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	p.Verdict = raw
}

// ProposalFilter constrains proposal listing queries.
type ProposalFilter struct {
	Status        []ProposalStatus
	Origin        ProposalOrigin
	Kind          ProposalKind
	TargetShiftID string
	SubmittedBy   string
	Limit         int
	Offset        int
}
