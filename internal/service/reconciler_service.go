package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/shift-sync-api/internal/dto"
	"github.com/noah-isme/shift-sync-api/internal/models"
	appErrors "github.com/noah-isme/shift-sync-api/pkg/errors"
	"github.com/noah-isme/shift-sync-api/pkg/jobs"
)

type syncedShiftLister interface {
	ListExternallySynced(ctx context.Context, ownerID string, dateRange models.DateRange) ([]models.Shift, error)
}

type deletionChecker interface {
	HasCommittedDelete(ctx context.Context, externalRef string) (bool, error)
}

type openProposalChecker interface {
	HasOpenForExternalRef(ctx context.Context, externalRef string) (bool, error)
}

// ReconcilerConfig tunes the periodic reconciliation loop.
type ReconcilerConfig struct {
	Interval    time.Duration
	WindowDays  int
	Owners      []string
	Concurrency int
	QueueBuffer int
}

// ReconcileResult summarizes one owner's reconciliation run.
type ReconcileResult struct {
	Submitted int `json:"submitted"`
	Skipped   int `json:"skipped"`
	Failures  int `json:"failures"`
}

// ReconcilerService diffs each owner's external calendar against the mirrored
// shifts and feeds the differences through the normal proposal workflow. It
// never writes the shift store directly, so reconciliation changes obey the
// same conflict rules and audit trail as user changes.
type ReconcilerService struct {
	shifts    syncedShiftLister
	log       deletionChecker
	proposals openProposalChecker
	submitter proposalSubmitter
	provider  CalendarProvider
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       ReconcilerConfig

	queue  *jobs.Queue
	cancel context.CancelFunc
	done   chan struct{}
}

// NewReconcilerService constructs the reconciler.
func NewReconcilerService(shifts syncedShiftLister, log deletionChecker, proposals openProposalChecker,
	submitter proposalSubmitter, provider CalendarProvider, metrics *MetricsService,
	logger *zap.Logger, cfg ReconcilerConfig) *ReconcilerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = 28
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}
	return &ReconcilerService{
		shifts:    shifts,
		log:       log,
		proposals: proposals,
		submitter: submitter,
		provider:  provider,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// Start launches the ticker loop. Each tick enqueues one job per configured
// owner, keyed by owner id, so a slow cycle never stacks behind itself.
func (s *ReconcilerService) Start(ctx context.Context) {
	if s.provider == nil {
		s.logger.Info("reconciler disabled, no calendar provider wired")
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	s.queue = jobs.NewQueue("calendar-reconcile", s.handleJob, jobs.QueueConfig{
		Workers:    s.cfg.Concurrency,
		BufferSize: s.cfg.QueueBuffer,
		Logger:     s.logger,
	})
	s.queue.Start(runCtx)

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		s.enqueueOwners()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				s.enqueueOwners()
			}
		}
	}()
	s.logger.Info("reconciler started",
		zap.Duration("interval", s.cfg.Interval),
		zap.Int("window_days", s.cfg.WindowDays),
		zap.Int("owners", len(s.cfg.Owners)))
}

// Stop halts the loop and waits for in-flight jobs.
func (s *ReconcilerService) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.queue.Stop()
	s.logger.Info("reconciler stopped")
}

func (s *ReconcilerService) enqueueOwners() {
	for _, owner := range s.cfg.Owners {
		job := jobs.Job{
			ID:      uuid.NewString(),
			Type:    "reconcile-owner",
			Key:     owner,
			Payload: owner,
		}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("failed to enqueue reconcile job", zap.String("owner_id", owner), zap.Error(err))
		}
	}
}

func (s *ReconcilerService) handleJob(ctx context.Context, job jobs.Job) error {
	owner, ok := job.Payload.(string)
	if !ok || owner == "" {
		return nil
	}
	result, err := s.ReconcileOwner(ctx, owner)
	if err != nil {
		return err
	}
	s.metrics.RecordReconcileCycle(result.Failures)
	s.logger.Info("owner reconciled",
		zap.String("owner_id", owner),
		zap.Int("submitted", result.Submitted),
		zap.Int("skipped", result.Skipped),
		zap.Int("failures", result.Failures))
	return nil
}

// ReconcileOwner diffs one owner's calendar window against the mirrored
// shifts and submits proposals for every difference. The run is idempotent:
// events already mirrored, and events with an open proposal in flight, are
// skipped. Failed submissions are retried once within the same run.
func (s *ReconcilerService) ReconcileOwner(ctx context.Context, ownerID string) (ReconcileResult, error) {
	var result ReconcileResult
	if s.provider == nil {
		return result, appErrors.Clone(appErrors.ErrValidation, "no calendar provider configured")
	}

	window := s.window()
	events, err := s.provider.ListEvents(ctx, ownerID, window)
	if err != nil {
		return result, err
	}
	mirrored, err := s.shifts.ListExternallySynced(ctx, ownerID, window)
	if err != nil {
		return result, err
	}

	byRef := make(map[string]*models.Shift, len(mirrored))
	for i := range mirrored {
		shift := &mirrored[i]
		if shift.ExternalRef != nil {
			byRef[*shift.ExternalRef] = shift
		}
	}

	var retry []dto.SubmitProposalRequest
	submit := func(req dto.SubmitProposalRequest) {
		if _, err := s.submitter.Submit(ctx, req, "reconciler", models.ProposalOriginExternalSync); err != nil {
			s.logger.Warn("reconcile submission failed",
				zap.String("owner_id", ownerID),
				zap.String("kind", string(req.Kind)),
				zap.Error(err))
			retry = append(retry, req)
			return
		}
		result.Submitted++
	}

	seen := make(map[string]struct{}, len(events))
	for i := range events {
		event := &events[i]
		ref := event.ExternalID
		seen[ref] = struct{}{}

		open, err := s.proposals.HasOpenForExternalRef(ctx, ref)
		if err != nil {
			return result, err
		}
		if open {
			result.Skipped++
			continue
		}

		if existing, mirroredAlready := byRef[ref]; mirroredAlready {
			if !eventDrifted(event, existing) {
				result.Skipped++
				continue
			}
			submit(modifyRequest(event, existing))
			continue
		}

		deleted, err := s.log.HasCommittedDelete(ctx, ref)
		if err != nil {
			return result, err
		}
		submit(createRequest(event, deleted))
	}

	// Mirrored shifts whose source event disappeared are proposed for
	// deletion, the reverse direction of the drift check.
	for i := range mirrored {
		shift := &mirrored[i]
		if shift.ExternalRef == nil {
			continue
		}
		ref := *shift.ExternalRef
		if _, present := seen[ref]; present {
			continue
		}
		open, err := s.proposals.HasOpenForExternalRef(ctx, ref)
		if err != nil {
			return result, err
		}
		if open {
			result.Skipped++
			continue
		}
		submit(deleteRequest(shift))
	}

	for _, req := range retry {
		if _, err := s.submitter.Submit(ctx, req, "reconciler", models.ProposalOriginExternalSync); err != nil {
			result.Failures++
			continue
		}
		result.Submitted++
	}
	return result, nil
}

func (s *ReconcilerService) window() models.DateRange {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	return models.DateRange{
		From: today,
		To:   today.AddDate(0, 0, s.cfg.WindowDays),
	}
}

// eventDrifted reports whether a mirrored shift no longer matches its source
// event on date, clock range, or role.
func eventDrifted(event *models.ExternalEvent, shift *models.Shift) bool {
	if event.Date.Format("2006-01-02") != shift.Date.Format("2006-01-02") {
		return true
	}
	if !sameClock(event.StartTime, shift.StartTime) || !sameClock(event.EndTime, shift.EndTime) {
		return true
	}
	if event.Title != "" && event.Title != shift.Role {
		return true
	}
	return false
}

func sameClock(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func createRequest(event *models.ExternalEvent, resurrection bool) dto.SubmitProposalRequest {
	ref := event.ExternalID
	return dto.SubmitProposalRequest{
		Kind: models.ProposalKindCreate,
		Payload: models.ShiftPayload{
			OwnerID:      event.OwnerID,
			Date:         event.Date.Format("2006-01-02"),
			StartTime:    event.StartTime,
			EndTime:      event.EndTime,
			Role:         event.Title,
			ExternalRef:  &ref,
			Resurrection: resurrection,
		},
	}
}

func modifyRequest(event *models.ExternalEvent, shift *models.Shift) dto.SubmitProposalRequest {
	ref := event.ExternalID
	targetID := shift.ID
	role := event.Title
	if role == "" {
		role = shift.Role
	}
	return dto.SubmitProposalRequest{
		Kind:          models.ProposalKindModify,
		TargetShiftID: &targetID,
		BaseVersion:   shift.Version,
		Payload: models.ShiftPayload{
			OwnerID:     shift.OwnerID,
			Date:        event.Date.Format("2006-01-02"),
			StartTime:   event.StartTime,
			EndTime:     event.EndTime,
			Role:        role,
			ExternalRef: &ref,
		},
	}
}

func deleteRequest(shift *models.Shift) dto.SubmitProposalRequest {
	targetID := shift.ID
	return dto.SubmitProposalRequest{
		Kind:          models.ProposalKindDelete,
		TargetShiftID: &targetID,
		BaseVersion:   shift.Version,
		Payload: models.ShiftPayload{
			OwnerID:     shift.OwnerID,
			ExternalRef: shift.ExternalRef,
		},
	}
}
