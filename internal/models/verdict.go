package models

// VerdictStatus classifies a proposal against current schedule state.
type VerdictStatus string

const (
	VerdictClean        VerdictStatus = "CLEAN"
	VerdictSoftConflict VerdictStatus = "SOFT_CONFLICT"
	VerdictHardConflict VerdictStatus = "HARD_CONFLICT"
)

// ReasonCode is a symbolic conflict reason. A verdict reports every reason
// that triggered, in evaluation order.
type ReasonCode string

const (
	ReasonOverlap              ReasonCode = "OVERLAP"
	ReasonAllDayDuplicate      ReasonCode = "ALL_DAY_DUPLICATE"
	ReasonExternalEventOverlap ReasonCode = "EXTERNAL_EVENT_OVERLAP"
	ReasonResurrection         ReasonCode = "DELETED_EXTERNALLY_RESTORED"
	ReasonMalformedRange       ReasonCode = "MALFORMED_RANGE"
	ReasonTargetNotFound       ReasonCode = "TARGET_NOT_FOUND"
	ReasonSwapTargetMissing    ReasonCode = "SWAP_TARGET_MISSING"
)

// ConflictVerdict is the detector's classification of a proposal. Hard wins
// over soft when both apply; ReasonCodes still lists every triggered reason.
type ConflictVerdict struct {
	Status              VerdictStatus `json:"status"`
	ConflictingShiftIDs []string      `json:"conflictingShiftIds,omitempty"`
	ReasonCodes         []ReasonCode  `json:"reasonCodes,omitempty"`
}

// HasReason reports whether the verdict includes the given reason.
func (v ConflictVerdict) HasReason(code ReasonCode) bool {
	for _, r := range v.ReasonCodes {
		if r == code {
			return true
		}
	}
	return false
}
