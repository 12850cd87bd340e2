package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shift-sync-api/internal/dto"
	"github.com/noah-isme/shift-sync-api/internal/models"
)

func (s *shiftStoreStub) ListExternallySynced(ctx context.Context, ownerID string, dateRange models.DateRange) ([]models.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []models.Shift
	for _, shift := range s.shifts {
		if shift.OwnerID != ownerID || shift.SourceOrigin != models.SourceOriginExternalSync {
			continue
		}
		if shift.Date.Before(dateRange.From) || shift.Date.After(dateRange.To) {
			continue
		}
		result = append(result, *shift)
	}
	return result, nil
}

func (l *changeLogStub) HasCommittedDelete(ctx context.Context, externalRef string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, entry := range l.entries {
		if entry.Kind == models.ProposalKindDelete && entry.Decision == models.ChangeDecisionCommitted &&
			entry.ExternalRef != nil && *entry.ExternalRef == externalRef {
			return true, nil
		}
	}
	return false, nil
}

func (p *proposalStoreStub) HasOpenForExternalRef(ctx context.Context, externalRef string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, proposal := range p.proposals {
		if proposal.Status == models.ProposalStatusPendingApproval &&
			proposal.ExternalRef != nil && *proposal.ExternalRef == externalRef {
			return true, nil
		}
	}
	return false, nil
}

func upcomingDay() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, 3)
}

func newReconcilerHarness(t *testing.T, calendar *calendarStub) (*ReconcilerService, *shiftStoreStub, *changeLogStub, *proposalStoreStub) {
	t.Helper()
	shifts := newShiftStoreStub()
	log := &changeLogStub{}
	proposals := newProposalStoreStub()
	workflow := NewProposalService(shifts, log, proposals, nil, WithCalendarProvider(calendar))
	reconciler := NewReconcilerService(shifts, log, proposals, workflow, calendar, nil, nil, ReconcilerConfig{WindowDays: 7})
	return reconciler, shifts, log, proposals
}

func TestReconcileCreatesMissingMirrors(t *testing.T) {
	eventDay := upcomingDay()
	calendar := &calendarStub{events: []models.ExternalEvent{
		{
			ExternalID: "evt-1",
			OwnerID:    "me",
			Title:      "on-call",
			Date:       eventDay,
			StartTime:  clock("09:00"),
			EndTime:    clock("17:00"),
		},
	}}
	reconciler, shifts, _, _ := newReconcilerHarness(t, calendar)

	result, err := reconciler.ReconcileOwner(context.Background(), "me")
	require.NoError(t, err)
	require.Equal(t, 1, result.Submitted)
	require.Zero(t, result.Failures)

	require.Len(t, shifts.shifts, 1)
	for _, shift := range shifts.shifts {
		require.Equal(t, models.SourceOriginExternalSync, shift.SourceOrigin)
		require.NotNil(t, shift.ExternalRef)
		require.Equal(t, "evt-1", *shift.ExternalRef)
		require.Equal(t, "on-call", shift.Role)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	eventDay := upcomingDay()
	calendar := &calendarStub{events: []models.ExternalEvent{
		{
			ExternalID: "evt-1",
			OwnerID:    "me",
			Date:       eventDay,
			StartTime:  clock("09:00"),
			EndTime:    clock("17:00"),
		},
	}}
	reconciler, shifts, log, _ := newReconcilerHarness(t, calendar)

	first, err := reconciler.ReconcileOwner(context.Background(), "me")
	require.NoError(t, err)
	require.Equal(t, 1, first.Submitted)

	second, err := reconciler.ReconcileOwner(context.Background(), "me")
	require.NoError(t, err)
	require.Zero(t, second.Submitted)
	require.Equal(t, 1, second.Skipped)

	require.Len(t, shifts.shifts, 1)
	require.Len(t, log.entries, 1)
}

func TestReconcileModifiesDriftedMirror(t *testing.T) {
	eventDay := upcomingDay()
	calendar := &calendarStub{events: []models.ExternalEvent{
		{
			ExternalID: "evt-1",
			OwnerID:    "me",
			Date:       eventDay,
			StartTime:  clock("10:00"),
			EndTime:    clock("18:00"),
		},
	}}
	reconciler, shifts, _, _ := newReconcilerHarness(t, calendar)
	ref := "evt-1"
	shifts.shifts["shift-1"] = &models.Shift{
		ID:           "shift-1",
		OwnerID:      "me",
		Date:         eventDay,
		StartTime:    clock("09:00"),
		EndTime:      clock("17:00"),
		SourceOrigin: models.SourceOriginExternalSync,
		ExternalRef:  &ref,
		Version:      1,
	}

	result, err := reconciler.ReconcileOwner(context.Background(), "me")
	require.NoError(t, err)
	require.Equal(t, 1, result.Submitted)

	require.Equal(t, clock("10:00"), shifts.shifts["shift-1"].StartTime)
	require.Equal(t, 2, shifts.shifts["shift-1"].Version)
}

func TestReconcileDeletesOrphanedMirror(t *testing.T) {
	calendar := &calendarStub{}
	reconciler, shifts, _, _ := newReconcilerHarness(t, calendar)
	ref := "evt-gone"
	shifts.shifts["shift-1"] = &models.Shift{
		ID:           "shift-1",
		OwnerID:      "me",
		Date:         upcomingDay(),
		StartTime:    clock("09:00"),
		EndTime:      clock("17:00"),
		SourceOrigin: models.SourceOriginExternalSync,
		ExternalRef:  &ref,
		Version:      1,
	}

	result, err := reconciler.ReconcileOwner(context.Background(), "me")
	require.NoError(t, err)
	require.Equal(t, 1, result.Submitted)
	require.Empty(t, shifts.shifts)
}

func TestReconcileResurrectionNeedsApproval(t *testing.T) {
	eventDay := upcomingDay()
	ref := "evt-1"
	calendar := &calendarStub{events: []models.ExternalEvent{
		{
			ExternalID: ref,
			OwnerID:    "me",
			Date:       eventDay,
			StartTime:  clock("09:00"),
			EndTime:    clock("17:00"),
		},
	}}
	reconciler, shifts, log, proposals := newReconcilerHarness(t, calendar)
	// The mirror of this event was deliberately deleted before.
	log.entries = append(log.entries, models.ChangeLogEntry{
		SequenceNumber: 1,
		ProposalID:     "old",
		Kind:           models.ProposalKindDelete,
		Origin:         models.ProposalOriginUser,
		Decision:       models.ChangeDecisionCommitted,
		ExternalRef:    &ref,
	})

	result, err := reconciler.ReconcileOwner(context.Background(), "me")
	require.NoError(t, err)
	require.Equal(t, 1, result.Submitted)
	require.Empty(t, shifts.shifts)

	var pending *models.ChangeProposal
	for _, proposal := range proposals.proposals {
		pending = proposal
	}
	require.NotNil(t, pending)
	require.Equal(t, models.ProposalStatusPendingApproval, pending.Status)
	verdict, err := pending.DecodeVerdict()
	require.NoError(t, err)
	require.Contains(t, verdict.ReasonCodes, models.ReasonResurrection)

	// While the resurrection awaits a decision the next run skips the event.
	again, err := reconciler.ReconcileOwner(context.Background(), "me")
	require.NoError(t, err)
	require.Zero(t, again.Submitted)
	require.Equal(t, 1, again.Skipped)
}

type flakySubmitter struct {
	inner    proposalSubmitter
	failures int
}

func (f *flakySubmitter) Submit(ctx context.Context, req dto.SubmitProposalRequest, actorID string, origin models.ProposalOrigin) (*models.ChangeProposal, error) {
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("transient storage failure")
	}
	return f.inner.Submit(ctx, req, actorID, origin)
}

func TestReconcileRetriesFailedSubmissionsOnce(t *testing.T) {
	eventDay := upcomingDay()
	calendar := &calendarStub{events: []models.ExternalEvent{
		{
			ExternalID: "evt-1",
			OwnerID:    "me",
			Date:       eventDay,
			StartTime:  clock("09:00"),
			EndTime:    clock("17:00"),
		},
	}}
	shifts := newShiftStoreStub()
	log := &changeLogStub{}
	proposals := newProposalStoreStub()
	workflow := NewProposalService(shifts, log, proposals, nil, WithCalendarProvider(calendar))

	flaky := &flakySubmitter{inner: workflow, failures: 1}
	reconciler := NewReconcilerService(shifts, log, proposals, flaky, calendar, nil, nil, ReconcilerConfig{WindowDays: 7})

	result, err := reconciler.ReconcileOwner(context.Background(), "me")
	require.NoError(t, err)
	require.Equal(t, 1, result.Submitted)
	require.Zero(t, result.Failures)
	require.Len(t, shifts.shifts, 1)

	// Two failures exhaust the single retry and count as a failure.
	delete(shifts.shifts, firstKey(shifts.shifts))
	flaky.failures = 2
	result, err = reconciler.ReconcileOwner(context.Background(), "me")
	require.NoError(t, err)
	require.Zero(t, result.Submitted)
	require.Equal(t, 1, result.Failures)
}

func firstKey(m map[string]*models.Shift) string {
	for k := range m {
		return k
	}
	return ""
}
