package models

import (
	"encoding/json"
	"time"
)

// ChangeDecision records the workflow outcome an entry documents.
type ChangeDecision string

const (
	ChangeDecisionCommitted       ChangeDecision = "COMMITTED"
	ChangeDecisionRejected        ChangeDecision = "REJECTED"
	ChangeDecisionPendingApproval ChangeDecision = "PENDING_APPROVAL"
)

// ChangeLogEntry is one immutable record in the append-only change log.
// SequenceNumber is assigned on append and its order is the total order of
// truth; entries are never updated or removed, corrections are new entries
// pointing back via CorrectsSequence.
type ChangeLogEntry struct {
	SequenceNumber   int64           `db:"sequence_number" json:"sequenceNumber"`
	ProposalID       string          `db:"proposal_id" json:"proposalId"`
	ShiftID          *string         `db:"shift_id" json:"shiftId,omitempty"`
	Kind             ProposalKind    `db:"kind" json:"kind"`
	Origin           ProposalOrigin  `db:"origin" json:"origin"`
	Decision         ChangeDecision  `db:"decision" json:"decision"`
	Verdict          json.RawMessage `db:"verdict" json:"verdict,omitempty"`
	Resolution       *string         `db:"resolution" json:"resolution,omitempty"`
	BaseVersion      int             `db:"base_version" json:"baseVersion"`
	ShiftSnapshot    json.RawMessage `db:"shift_snapshot" json:"shiftSnapshot,omitempty"`
	SwapSnapshot     json.RawMessage `db:"swap_snapshot" json:"swapSnapshot,omitempty"`
	ExternalRef      *string         `db:"external_ref" json:"externalRef,omitempty"`
	Note             *string         `db:"note" json:"note,omitempty"`
	CorrectsSequence *int64          `db:"corrects_sequence" json:"correctsSequence,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"createdAt"`
}

// DecodeVerdict unmarshals the attached verdict, when present.
func (e *ChangeLogEntry) DecodeVerdict() (ConflictVerdict, error) {
	var verdict ConflictVerdict
	if len(e.Verdict) == 0 {
		return verdict, nil
	}
	err := json.Unmarshal(e.Verdict, &verdict)
	return verdict, err
}

// DecodeSnapshot unmarshals the post-commit shift snapshot, when present.
func (e *ChangeLogEntry) DecodeSnapshot() (*Shift, error) {
	return decodeShift(e.ShiftSnapshot)
}

// DecodeSwapSnapshot unmarshals the counterpart snapshot of a swap commit.
func (e *ChangeLogEntry) DecodeSwapSnapshot() (*Shift, error) {
	return decodeShift(e.SwapSnapshot)
}

func decodeShift(raw json.RawMessage) (*Shift, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var shift Shift
	if err := json.Unmarshal(raw, &shift); err != nil {
		return nil, err
	}
	return &shift, nil
}
