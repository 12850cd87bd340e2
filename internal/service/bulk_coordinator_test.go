package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shift-sync-api/internal/dto"
	"github.com/noah-isme/shift-sync-api/internal/models"
)

func TestBulkBatchProcessesInOrderWithoutRollback(t *testing.T) {
	svc, shifts, _, _ := newWorkflow(t)
	bulk := NewBulkChangeCoordinator(svc, nil)

	outcomes, err := bulk.SubmitBatch(context.Background(), dto.BulkChangeRequest{
		Items: []dto.SubmitProposalRequest{
			createReq("me", "2025-06-02", clock("09:00"), clock("13:00")),
			// Overlaps the first item, which commits before this one runs.
			createReq("me", "2025-06-02", clock("12:00"), clock("16:00")),
			createReq("me", "2025-06-02", clock("14:00"), clock("18:00")),
		},
	}, "local", models.ProposalOriginUser)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	require.Equal(t, models.ProposalStatusCommitted, outcomes[0].Status)
	require.Equal(t, models.ProposalStatusRejected, outcomes[1].Status)
	require.Equal(t, models.ResolutionHardConflict, outcomes[1].Resolution)
	require.NotNil(t, outcomes[1].Verdict)
	require.Equal(t, models.VerdictHardConflict, outcomes[1].Verdict.Status)
	require.Equal(t, models.ProposalStatusCommitted, outcomes[2].Status)

	require.Len(t, shifts.shifts, 2)
	for i, outcome := range outcomes {
		require.Equal(t, i, outcome.Index)
		require.NotEmpty(t, outcome.ProposalID)
	}
}

func TestBulkBatchStaleLaterItem(t *testing.T) {
	svc, shifts, _, _ := newWorkflow(t)
	bulk := NewBulkChangeCoordinator(svc, nil)
	shifts.shifts["shift-1"] = &models.Shift{
		ID:        "shift-1",
		OwnerID:   "me",
		Date:      day(t, "2025-06-02"),
		StartTime: clock("09:00"),
		EndTime:   clock("13:00"),
		Version:   1,
	}

	target := "shift-1"
	modify := func(start, end string) dto.SubmitProposalRequest {
		return dto.SubmitProposalRequest{
			Kind:          models.ProposalKindModify,
			TargetShiftID: &target,
			BaseVersion:   1,
			Payload: models.ShiftPayload{
				StartTime: clock(start),
				EndTime:   clock(end),
			},
		}
	}

	// Both items carry the base version captured before the batch ran; the
	// first commit bumps the shift, so the second loses the optimistic race.
	outcomes, err := bulk.SubmitBatch(context.Background(), dto.BulkChangeRequest{
		Items: []dto.SubmitProposalRequest{
			modify("10:00", "14:00"),
			modify("11:00", "15:00"),
		},
	}, "local", models.ProposalOriginUser)
	require.NoError(t, err)
	require.Equal(t, models.ProposalStatusCommitted, outcomes[0].Status)
	require.Equal(t, models.ProposalStatusRejected, outcomes[1].Status)
	require.Equal(t, models.ResolutionConcurrentModification, outcomes[1].Resolution)
	require.Equal(t, 2, shifts.shifts["shift-1"].Version)
}

func TestBulkBatchRejectsEmpty(t *testing.T) {
	svc, _, _, _ := newWorkflow(t)
	bulk := NewBulkChangeCoordinator(svc, nil)
	_, err := bulk.SubmitBatch(context.Background(), dto.BulkChangeRequest{}, "local", models.ProposalOriginUser)
	require.Error(t, err)
}
