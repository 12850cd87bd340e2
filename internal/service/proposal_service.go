package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/shift-sync-api/internal/dto"
	"github.com/noah-isme/shift-sync-api/internal/models"
	"github.com/noah-isme/shift-sync-api/internal/repository"
	appErrors "github.com/noah-isme/shift-sync-api/pkg/errors"
)

type shiftStore interface {
	Get(ctx context.Context, id string) (*models.Shift, error)
	ListByOwnerAndRange(ctx context.Context, ownerID string, dateRange models.DateRange) ([]models.Shift, error)
	ApplyCommitted(ctx context.Context, entry *models.ChangeLogEntry) (*models.Shift, error)
}

type changeLog interface {
	Append(ctx context.Context, entry *models.ChangeLogEntry) (int64, error)
}

type proposalStore interface {
	Create(ctx context.Context, proposal *models.ChangeProposal) error
	GetByID(ctx context.Context, id string) (*models.ChangeProposal, error)
	List(ctx context.Context, filter models.ProposalFilter) ([]models.ChangeProposal, error)
	Resolve(ctx context.Context, params repository.ResolveProposalParams) error
}

// CalendarProvider supplies externally observed events for soft-conflict
// detection and reconciliation. Implementations are read-only adapters.
type CalendarProvider interface {
	ListEvents(ctx context.Context, ownerID string, dateRange models.DateRange) ([]models.ExternalEvent, error)
}

type scheduleInvalidator interface {
	InvalidateOwner(ctx context.Context, ownerID string) error
}

// ProposalService runs the approval workflow: every proposed change is
// evaluated against a snapshot, then auto-committed, parked for approval, or
// rejected. The shift store is only ever written through a committed entry,
// and every decision lands in the change log.
type ProposalService struct {
	shifts    shiftStore
	log       changeLog
	proposals proposalStore
	detector  ConflictDetector
	calendar  CalendarProvider
	cache     scheduleInvalidator
	metrics   *MetricsService
	logger    *zap.Logger
	validate  *validator.Validate
	locks     *ownerLocks
	// reviews serializes decisions per proposal id, so a cancel cannot land
	// between an approve's commit and its row resolution.
	reviews *ownerLocks
}

// ProposalServiceOption configures the service.
type ProposalServiceOption func(*ProposalService)

// WithCalendarProvider wires external events into soft-conflict detection.
func WithCalendarProvider(provider CalendarProvider) ProposalServiceOption {
	return func(s *ProposalService) { s.calendar = provider }
}

// WithScheduleInvalidator wires cache invalidation after commits.
func WithScheduleInvalidator(cache scheduleInvalidator) ProposalServiceOption {
	return func(s *ProposalService) { s.cache = cache }
}

// WithMetrics wires workflow instrumentation.
func WithMetrics(metrics *MetricsService) ProposalServiceOption {
	return func(s *ProposalService) { s.metrics = metrics }
}

// WithDetector overrides detector policy.
func WithDetector(detector ConflictDetector) ProposalServiceOption {
	return func(s *ProposalService) { s.detector = detector }
}

// NewProposalService constructs the workflow service.
func NewProposalService(shifts shiftStore, log changeLog, proposals proposalStore, logger *zap.Logger, opts ...ProposalServiceOption) *ProposalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ProposalService{
		shifts:    shifts,
		log:       log,
		proposals: proposals,
		logger:    logger,
		validate:  validator.New(),
		locks:     newOwnerLocks(),
		reviews:   newOwnerLocks(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc
}

// Submit runs a proposal through evaluation and records the outcome. The
// returned proposal carries the decision: COMMITTED for a clean auto-commit,
// PENDING_APPROVAL for a soft conflict, REJECTED for a hard conflict or a
// lost optimistic race. Errors are reserved for invalid requests, unknown
// targets, and storage failures.
func (s *ProposalService) Submit(ctx context.Context, req dto.SubmitProposalRequest, actorID string, origin models.ProposalOrigin) (*models.ChangeProposal, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if origin == "" {
		origin = models.ProposalOriginUser
	}

	payload := req.Payload
	rawPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "payload is not serializable")
	}

	proposal := &models.ChangeProposal{
		ID:            uuid.NewString(),
		TargetShiftID: req.TargetShiftID,
		Kind:          req.Kind,
		Origin:        origin,
		Payload:       rawPayload,
		BaseVersion:   req.BaseVersion,
		ExternalRef:   payload.ExternalRef,
		SubmittedBy:   actorID,
		SubmittedAt:   time.Now().UTC(),
	}
	if req.Note != "" {
		note := req.Note
		proposal.Note = &note
	}
	s.metrics.RecordProposalSubmitted(origin)

	input, err := s.buildInput(ctx, proposal, payload, true)
	if err != nil {
		return nil, err
	}
	if proposal.BaseVersion == 0 && input.TargetShift != nil {
		proposal.BaseVersion = input.TargetShift.Version
	}

	verdict := s.detector.Evaluate(input)
	proposal.SetVerdict(verdict)
	s.metrics.RecordVerdict(verdict.Status)

	switch verdict.Status {
	case models.VerdictHardConflict:
		s.markResolved(proposal, models.ProposalStatusRejected, models.ResolutionHardConflict, actorID)
		if err := s.proposals.Create(ctx, proposal); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStorageIO.Code, appErrors.ErrStorageIO.Status, "persist rejected proposal")
		}
		if err := s.appendOutcome(ctx, proposal, models.ChangeDecisionRejected, nil, nil); err != nil {
			return nil, err
		}
		s.metrics.RecordProposalResolved(proposal.Status, models.ResolutionHardConflict)
		return proposal, nil

	case models.VerdictSoftConflict:
		proposal.Status = models.ProposalStatusPendingApproval
		if err := s.proposals.Create(ctx, proposal); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStorageIO.Code, appErrors.ErrStorageIO.Status, "persist pending proposal")
		}
		if err := s.appendOutcome(ctx, proposal, models.ChangeDecisionPendingApproval, nil, nil); err != nil {
			return nil, err
		}
		return proposal, nil

	default:
		_, err := s.commit(ctx, proposal, payload, models.ResolutionAutoClean)
		if err != nil {
			if errors.Is(err, appErrors.ErrStaleVersion) {
				return s.rejectStaleSubmit(ctx, proposal, actorID)
			}
			return nil, err
		}
		s.markResolved(proposal, models.ProposalStatusCommitted, models.ResolutionAutoClean, actorID)
		if err := s.proposals.Create(ctx, proposal); err != nil {
			// The store and log already hold the truth; the proposal row is
			// secondary, so surface the failure loudly but keep the outcome.
			s.logger.Error("failed to persist committed proposal", zap.String("proposal_id", proposal.ID), zap.Error(err))
		}
		s.metrics.RecordProposalResolved(proposal.Status, models.ResolutionAutoClean)
		return proposal, nil
	}
}

// Approve accepts a soft-conflicted proposal and commits it. A lost
// optimistic race during the commit resolves the workflow as rejected with
// reason CONCURRENT_MODIFICATION; the caller must resubmit, a blind retry
// could mask a real conflict introduced by the intervening change.
func (s *ProposalService) Approve(ctx context.Context, id string, req dto.ReviewProposalRequest, actorID string) (*models.ChangeProposal, error) {
	release := s.reviews.acquire(id)
	defer release()

	proposal, err := s.getPending(ctx, id)
	if err != nil {
		return nil, err
	}
	payload, err := proposal.DecodePayload()
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "stored payload is unreadable")
	}

	_, err = s.commit(ctx, proposal, payload, models.ResolutionApproved)
	if err != nil {
		if errors.Is(err, appErrors.ErrStaleVersion) {
			return s.resolveTerminal(ctx, proposal, models.ProposalStatusRejected, models.ResolutionConcurrentModification, req.Note, actorID)
		}
		return nil, err
	}
	return s.resolveTerminal(ctx, proposal, models.ProposalStatusCommitted, models.ResolutionApproved, req.Note, actorID)
}

// Deny declines a pending proposal; the store stays untouched.
func (s *ProposalService) Deny(ctx context.Context, id string, req dto.ReviewProposalRequest, actorID string) (*models.ChangeProposal, error) {
	release := s.reviews.acquire(id)
	defer release()

	proposal, err := s.getPending(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.resolveTerminal(ctx, proposal, models.ProposalStatusRejected, models.ResolutionDenied, req.Note, actorID)
}

// Cancel withdraws a pending proposal before a decision; logged terminally
// with reason CANCELED.
func (s *ProposalService) Cancel(ctx context.Context, id string, actorID string) (*models.ChangeProposal, error) {
	release := s.reviews.acquire(id)
	defer release()

	proposal, err := s.getPending(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.resolveTerminal(ctx, proposal, models.ProposalStatusRejected, models.ResolutionCanceled, "", actorID)
}

// Get returns a proposal by id.
func (s *ProposalService) Get(ctx context.Context, id string) (*models.ChangeProposal, error) {
	proposal, err := s.proposals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageIO.Code, appErrors.ErrStorageIO.Status, "load proposal")
	}
	return proposal, nil
}

// List returns proposals matching the query.
func (s *ProposalService) List(ctx context.Context, query dto.ProposalQuery) ([]models.ChangeProposal, error) {
	proposals, err := s.proposals.List(ctx, models.ProposalFilter{
		Status:      query.Status,
		Origin:      query.Origin,
		Kind:        query.Kind,
		SubmittedBy: query.SubmittedBy,
		Limit:       query.Limit,
		Offset:      query.Offset,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageIO.Code, appErrors.ErrStorageIO.Status, "list proposals")
	}
	return proposals, nil
}

func (s *ProposalService) getPending(ctx context.Context, id string) (*models.ChangeProposal, error) {
	proposal, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if proposal.Status != models.ProposalStatusPendingApproval {
		return nil, appErrors.Clone(appErrors.ErrConflict, "proposal already resolved")
	}
	return proposal, nil
}

// buildInput loads the snapshot one evaluation runs against: target and
// counterpart shifts, the committed schedules of every touched owner, and the
// owners' external events when a provider is wired.
func (s *ProposalService) buildInput(ctx context.Context, proposal *models.ChangeProposal, payload models.ShiftPayload, withExternal bool) (DetectorInput, error) {
	input := DetectorInput{Proposal: *proposal, Payload: payload}

	if proposal.Kind != models.ProposalKindCreate {
		if proposal.TargetShiftID == nil {
			return input, appErrors.Clone(appErrors.ErrValidation, "targetShiftId is required")
		}
		target, err := s.shifts.Get(ctx, *proposal.TargetShiftID)
		if err != nil {
			return input, err
		}
		input.TargetShift = target
	}
	if proposal.Kind == models.ProposalKindSwap {
		if payload.SwapWithShiftID == nil {
			return input, appErrors.Clone(appErrors.ErrValidation, "swapWithShiftId is required")
		}
		counterpart, err := s.shifts.Get(ctx, *payload.SwapWithShiftID)
		if err != nil {
			return input, err
		}
		input.CounterpartShift = counterpart
	}

	ownerID, dateRange, ok := touchedWindow(payload, input.TargetShift, input.CounterpartShift)
	if !ok {
		// Malformed dates are the detector's verdict to make, not an error.
		return input, nil
	}

	ownerShifts, err := s.shifts.ListByOwnerAndRange(ctx, ownerID, dateRange)
	if err != nil {
		return input, err
	}
	input.OwnerShifts = ownerShifts

	if input.CounterpartShift != nil && input.CounterpartShift.OwnerID != ownerID {
		counterpartShifts, err := s.shifts.ListByOwnerAndRange(ctx, input.CounterpartShift.OwnerID, dateRange)
		if err != nil {
			return input, err
		}
		input.CounterpartOwnerShifts = counterpartShifts
	} else if input.CounterpartShift != nil {
		input.CounterpartOwnerShifts = ownerShifts
	}

	if withExternal && s.calendar != nil {
		owners := []string{ownerID}
		if input.CounterpartShift != nil && input.CounterpartShift.OwnerID != ownerID {
			owners = append(owners, input.CounterpartShift.OwnerID)
		}
		for _, owner := range owners {
			events, err := s.calendar.ListEvents(ctx, owner, dateRange)
			if err != nil {
				s.logger.Warn("calendar provider unavailable, soft checks degraded",
					zap.String("owner_id", owner), zap.Error(err))
				continue
			}
			input.ExternalEvents = append(input.ExternalEvents, events...)
		}
	}
	return input, nil
}

// commit holds the owners' locks, re-checks the proposal against a fresh
// snapshot to close the evaluate-to-commit gap, applies the committed entry
// to the store, and appends it to the change log. ErrStaleVersion means a
// competing commit won.
func (s *ProposalService) commit(ctx context.Context, proposal *models.ChangeProposal, payload models.ShiftPayload, resolution string) (*models.ChangeLogEntry, error) {
	freshPayload := payload
	freshPayload.Resurrection = false

	// Owners are not always named by the payload (modify, delete, swap), so a
	// preliminary load discovers them before the locks are taken.
	preliminary, err := s.buildInput(ctx, proposal, freshPayload, false)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrStaleVersion, "target shift no longer exists")
		}
		return nil, err
	}
	owners := touchedOwners(payload, preliminary.TargetShift, preliminary.CounterpartShift)
	release := s.locks.acquire(owners...)
	defer release()

	input, err := s.buildInput(ctx, proposal, freshPayload, false)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrStaleVersion, "target shift no longer exists")
		}
		return nil, err
	}
	if input.TargetShift != nil && proposal.BaseVersion != 0 && input.TargetShift.Version != proposal.BaseVersion {
		return nil, appErrors.Clone(appErrors.ErrStaleVersion, "target shift version moved")
	}
	if recheck := s.detector.Evaluate(input); recheck.Status == models.VerdictHardConflict {
		return nil, appErrors.Clone(appErrors.ErrStaleVersion, "concurrent commit introduced a conflict")
	}

	res := resolution
	proposal.Resolution = &res
	entry, err := buildCommitEntry(proposal, payload, input.TargetShift, input.CounterpartShift)
	if err != nil {
		return nil, err
	}

	applied, err := s.shifts.ApplyCommitted(ctx, entry)
	if err != nil {
		return nil, err
	}
	if _, err := s.log.Append(ctx, entry); err != nil {
		// The store mutated but the log append failed; this is a durability
		// fault the caller must see, never a silent drop.
		s.logger.Error("change log append failed after commit",
			zap.String("proposal_id", proposal.ID), zap.Error(err))
		return nil, err
	}

	s.invalidateOwners(ctx, owners, applied)
	return entry, nil
}

func (s *ProposalService) invalidateOwners(ctx context.Context, owners []string, applied *models.Shift) {
	if s.cache == nil {
		return
	}
	seen := map[string]struct{}{}
	if applied != nil {
		owners = append(owners, applied.OwnerID)
	}
	for _, owner := range owners {
		if owner == "" {
			continue
		}
		if _, dup := seen[owner]; dup {
			continue
		}
		seen[owner] = struct{}{}
		if err := s.cache.InvalidateOwner(ctx, owner); err != nil {
			s.logger.Warn("schedule cache invalidation failed", zap.String("owner_id", owner), zap.Error(err))
		}
	}
}

func (s *ProposalService) rejectStaleSubmit(ctx context.Context, proposal *models.ChangeProposal, actorID string) (*models.ChangeProposal, error) {
	s.markResolved(proposal, models.ProposalStatusRejected, models.ResolutionConcurrentModification, actorID)
	if err := s.proposals.Create(ctx, proposal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageIO.Code, appErrors.ErrStorageIO.Status, "persist stale proposal")
	}
	if err := s.appendOutcome(ctx, proposal, models.ChangeDecisionRejected, nil, nil); err != nil {
		return nil, err
	}
	s.metrics.RecordProposalResolved(proposal.Status, models.ResolutionConcurrentModification)
	return proposal, nil
}

// resolveTerminal moves a pending proposal to its terminal state and appends
// the matching change-log entry.
func (s *ProposalService) resolveTerminal(ctx context.Context, proposal *models.ChangeProposal, status models.ProposalStatus, resolution, note, actorID string) (*models.ChangeProposal, error) {
	now := time.Now().UTC()
	params := repository.ResolveProposalParams{
		ID:         proposal.ID,
		Status:     status,
		Resolution: resolution,
		ResolvedBy: actorID,
		ResolvedAt: now,
	}
	if note != "" {
		params.Note = &note
	}
	if err := s.proposals.Resolve(ctx, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "proposal already resolved")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageIO.Code, appErrors.ErrStorageIO.Status, "resolve proposal")
	}

	proposal.Status = status
	res := resolution
	proposal.Resolution = &res
	proposal.ResolvedBy = &actorID
	proposal.ResolvedAt = &now
	if note != "" {
		proposal.Note = &note
	}

	decision := models.ChangeDecisionRejected
	if status == models.ProposalStatusCommitted {
		// The committed entry was already appended by the commit path.
		s.metrics.RecordProposalResolved(status, resolution)
		return proposal, nil
	}
	if err := s.appendOutcome(ctx, proposal, decision, nil, nil); err != nil {
		return nil, err
	}
	s.metrics.RecordProposalResolved(status, resolution)
	return proposal, nil
}

func (s *ProposalService) markResolved(proposal *models.ChangeProposal, status models.ProposalStatus, resolution, actorID string) {
	now := time.Now().UTC()
	res := resolution
	proposal.Status = status
	proposal.Resolution = &res
	proposal.ResolvedBy = &actorID
	proposal.ResolvedAt = &now
}

// appendOutcome writes a non-commit decision entry for the proposal.
func (s *ProposalService) appendOutcome(ctx context.Context, proposal *models.ChangeProposal, decision models.ChangeDecision, snapshot, swapSnapshot json.RawMessage) error {
	entry := &models.ChangeLogEntry{
		ProposalID:    proposal.ID,
		ShiftID:       proposal.TargetShiftID,
		Kind:          proposal.Kind,
		Origin:        proposal.Origin,
		Decision:      decision,
		Verdict:       proposal.Verdict,
		Resolution:    proposal.Resolution,
		BaseVersion:   proposal.BaseVersion,
		ShiftSnapshot: snapshot,
		SwapSnapshot:  swapSnapshot,
		ExternalRef:   proposal.ExternalRef,
		Note:          proposal.Note,
	}
	if _, err := s.log.Append(ctx, entry); err != nil {
		s.logger.Error("change log append failed", zap.String("proposal_id", proposal.ID), zap.Error(err))
		return err
	}
	return nil
}

// buildCommitEntry projects the committed state for each proposal kind.
func buildCommitEntry(proposal *models.ChangeProposal, payload models.ShiftPayload, target, counterpart *models.Shift) (*models.ChangeLogEntry, error) {
	entry := &models.ChangeLogEntry{
		ProposalID:  proposal.ID,
		Kind:        proposal.Kind,
		Origin:      proposal.Origin,
		Decision:    models.ChangeDecisionCommitted,
		Verdict:     proposal.Verdict,
		Resolution:  proposal.Resolution,
		BaseVersion: proposal.BaseVersion,
		ExternalRef: proposal.ExternalRef,
		Note:        proposal.Note,
	}

	switch proposal.Kind {
	case models.ProposalKindCreate:
		day, err := time.Parse("2006-01-02", payload.Date)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "payload date is malformed")
		}
		origin := models.SourceOriginLocal
		if proposal.Origin == models.ProposalOriginExternalSync {
			origin = models.SourceOriginExternalSync
		}
		shift := models.Shift{
			ID:           uuid.NewString(),
			OwnerID:      payload.OwnerID,
			Date:         day,
			StartTime:    payload.StartTime,
			EndTime:      payload.EndTime,
			Role:         payload.Role,
			SourceOrigin: origin,
			ExternalRef:  payload.ExternalRef,
			Version:      1,
		}
		return withSnapshot(entry, &shift, nil)

	case models.ProposalKindModify:
		if target == nil {
			return nil, appErrors.Clone(appErrors.ErrStaleVersion, "target shift no longer exists")
		}
		shift := *target
		if payload.OwnerID != "" {
			shift.OwnerID = payload.OwnerID
		}
		if payload.Date != "" {
			day, err := time.Parse("2006-01-02", payload.Date)
			if err != nil {
				return nil, appErrors.Clone(appErrors.ErrValidation, "payload date is malformed")
			}
			shift.Date = day
		}
		shift.StartTime = payload.StartTime
		shift.EndTime = payload.EndTime
		if payload.Role != "" {
			shift.Role = payload.Role
		}
		if payload.ExternalRef != nil {
			shift.ExternalRef = payload.ExternalRef
		}
		shift.Version = proposal.BaseVersion + 1
		return withSnapshot(entry, &shift, nil)

	case models.ProposalKindDelete:
		entry.ShiftID = proposal.TargetShiftID
		return entry, nil

	case models.ProposalKindSwap:
		if target == nil || counterpart == nil {
			return nil, appErrors.Clone(appErrors.ErrStaleVersion, "swap shifts no longer exist")
		}
		primary := *target
		secondary := *counterpart
		primary.OwnerID, secondary.OwnerID = counterpart.OwnerID, target.OwnerID
		primary.Version = target.Version + 1
		secondary.Version = counterpart.Version + 1
		entry.BaseVersion = target.Version
		return withSnapshot(entry, &primary, &secondary)

	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported proposal kind")
	}
}

func withSnapshot(entry *models.ChangeLogEntry, primary, counterpart *models.Shift) (*models.ChangeLogEntry, error) {
	raw, err := json.Marshal(primary)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode shift snapshot")
	}
	entry.ShiftID = &primary.ID
	entry.ShiftSnapshot = raw
	if counterpart != nil {
		swapRaw, err := json.Marshal(counterpart)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode swap snapshot")
		}
		entry.SwapSnapshot = swapRaw
	}
	return entry, nil
}

// touchedWindow derives the owner and day window a payload touches. ok is
// false when no parsable day exists yet; the detector then rules on the raw
// payload.
func touchedWindow(payload models.ShiftPayload, target, counterpart *models.Shift) (string, models.DateRange, bool) {
	ownerID := payload.OwnerID
	if ownerID == "" && target != nil {
		ownerID = target.OwnerID
	}
	if ownerID == "" {
		return "", models.DateRange{}, false
	}

	days := make([]time.Time, 0, 3)
	if payload.Date != "" {
		if day, err := time.Parse("2006-01-02", payload.Date); err == nil {
			days = append(days, day)
		}
	}
	if target != nil {
		days = append(days, target.Date)
	}
	if counterpart != nil {
		days = append(days, counterpart.Date)
	}
	if len(days) == 0 {
		return "", models.DateRange{}, false
	}

	dateRange := models.DateRange{From: days[0], To: days[0]}
	for _, day := range days[1:] {
		if day.Before(dateRange.From) {
			dateRange.From = day
		}
		if day.After(dateRange.To) {
			dateRange.To = day
		}
	}
	return ownerID, dateRange, true
}

// touchedOwners lists every owner a commit may touch, for lock ordering and
// cache invalidation.
func touchedOwners(payload models.ShiftPayload, target, counterpart *models.Shift) []string {
	owners := make([]string, 0, 3)
	if payload.OwnerID != "" {
		owners = append(owners, payload.OwnerID)
	}
	if target != nil {
		owners = append(owners, target.OwnerID)
	}
	if counterpart != nil {
		owners = append(owners, counterpart.OwnerID)
	}
	return owners
}
