package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/shift-sync-api/internal/models"
	appErrors "github.com/noah-isme/shift-sync-api/pkg/errors"
)

// ScheduleCacheRepository caches owner schedule windows in Redis. A nil
// client degrades to pass-through so the read path works without Redis.
type ScheduleCacheRepository struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewScheduleCacheRepository constructs the cache repository.
func NewScheduleCacheRepository(client *redis.Client, logger *zap.Logger, ttl time.Duration) *ScheduleCacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleCacheRepository{client: client, logger: logger, ttl: ttl}
}

func scheduleKey(ownerID string, dateRange models.DateRange) string {
	return fmt.Sprintf("schedule:%s:%s:%s", ownerID, dateRange.From.Format("2006-01-02"), dateRange.To.Format("2006-01-02"))
}

// GetSchedule retrieves a cached schedule window.
func (r *ScheduleCacheRepository) GetSchedule(ctx context.Context, ownerID string, dateRange models.DateRange) ([]models.Shift, error) {
	if r.client == nil {
		return nil, appErrors.ErrCacheMiss
	}
	raw, err := r.client.Get(ctx, scheduleKey(ownerID, dateRange)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get schedule: %w", err)
	}
	var shifts []models.Shift
	if err := json.Unmarshal(raw, &shifts); err != nil {
		return nil, fmt.Errorf("unmarshal cached schedule: %w", err)
	}
	return shifts, nil
}

// SetSchedule stores a schedule window with the configured TTL.
func (r *ScheduleCacheRepository) SetSchedule(ctx context.Context, ownerID string, dateRange models.DateRange, shifts []models.Shift) error {
	if r.client == nil {
		return nil
	}
	payload, err := json.Marshal(shifts)
	if err != nil {
		return fmt.Errorf("marshal schedule: %w", err)
	}
	if err := r.client.Set(ctx, scheduleKey(ownerID, dateRange), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set schedule: %w", err)
	}
	return nil
}

// InvalidateOwner drops every cached window for the owner. Called after each
// committed mutation so reads never serve a pre-commit schedule past the TTL.
func (r *ScheduleCacheRepository) InvalidateOwner(ctx context.Context, ownerID string) error {
	if r.client == nil {
		return nil
	}
	pattern := fmt.Sprintf("schedule:%s:*", ownerID)
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis delete %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan %s: %w", pattern, err)
	}
	return nil
}
