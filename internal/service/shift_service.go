package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/shift-sync-api/internal/models"
	appErrors "github.com/noah-isme/shift-sync-api/pkg/errors"
)

type shiftReader interface {
	Get(ctx context.Context, id string) (*models.Shift, error)
	ListByOwnerAndRange(ctx context.Context, ownerID string, dateRange models.DateRange) ([]models.Shift, error)
}

type scheduleCache interface {
	GetSchedule(ctx context.Context, ownerID string, dateRange models.DateRange) ([]models.Shift, error)
	SetSchedule(ctx context.Context, ownerID string, dateRange models.DateRange, shifts []models.Shift) error
}

// ShiftService is the read surface over the shift store. Schedule windows go
// through the cache when one is wired; single-shift reads always hit the
// store because they feed version checks.
type ShiftService struct {
	shifts  shiftReader
	cache   scheduleCache
	metrics *MetricsService
	logger  *zap.Logger
}

// NewShiftService constructs the read service. cache may be nil.
func NewShiftService(shifts shiftReader, cache scheduleCache, metrics *MetricsService, logger *zap.Logger) *ShiftService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShiftService{shifts: shifts, cache: cache, metrics: metrics, logger: logger}
}

// Get fetches one shift by id.
func (s *ShiftService) Get(ctx context.Context, id string) (*models.Shift, error) {
	return s.shifts.Get(ctx, id)
}

// GetSchedule returns an owner's shifts in the inclusive day window,
// cache-first when a cache is wired.
func (s *ShiftService) GetSchedule(ctx context.Context, ownerID string, dateRange models.DateRange) ([]models.Shift, error) {
	if ownerID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "ownerId is required")
	}
	if dateRange.To.Before(dateRange.From) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date range end precedes start")
	}

	if s.cache != nil {
		start := time.Now()
		cached, err := s.cache.GetSchedule(ctx, ownerID, dateRange)
		elapsed := time.Since(start)
		if err == nil {
			s.metrics.RecordCacheOperation(true, elapsed)
			return cached, nil
		}
		s.metrics.RecordCacheOperation(false, elapsed)
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("schedule cache read failed", zap.String("owner_id", ownerID), zap.Error(err))
		}
	}

	shifts, err := s.shifts.ListByOwnerAndRange(ctx, ownerID, dateRange)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetSchedule(ctx, ownerID, dateRange, shifts); err != nil {
			s.logger.Warn("schedule cache write failed", zap.String("owner_id", ownerID), zap.Error(err))
		}
	}
	return shifts, nil
}
