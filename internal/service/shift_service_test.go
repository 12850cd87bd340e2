package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shift-sync-api/internal/models"
	appErrors "github.com/noah-isme/shift-sync-api/pkg/errors"
)

type scheduleCacheStub struct {
	windows map[string][]models.Shift
	sets    int
}

func cacheKey(ownerID string, dateRange models.DateRange) string {
	return ownerID + ":" + dateRange.From.Format("2006-01-02") + ":" + dateRange.To.Format("2006-01-02")
}

func (c *scheduleCacheStub) GetSchedule(ctx context.Context, ownerID string, dateRange models.DateRange) ([]models.Shift, error) {
	if shifts, ok := c.windows[cacheKey(ownerID, dateRange)]; ok {
		return shifts, nil
	}
	return nil, appErrors.ErrCacheMiss
}

func (c *scheduleCacheStub) SetSchedule(ctx context.Context, ownerID string, dateRange models.DateRange, shifts []models.Shift) error {
	c.sets++
	c.windows[cacheKey(ownerID, dateRange)] = shifts
	return nil
}

func TestGetScheduleCachesWindow(t *testing.T) {
	shifts := newShiftStoreStub()
	shifts.shifts["shift-1"] = &models.Shift{
		ID:      "shift-1",
		OwnerID: "me",
		Date:    day(t, "2025-06-02"),
		Version: 1,
	}
	cache := &scheduleCacheStub{windows: make(map[string][]models.Shift)}
	svc := NewShiftService(shifts, cache, nil, nil)

	window := models.DateRange{From: day(t, "2025-06-01"), To: day(t, "2025-06-07")}
	first, err := svc.GetSchedule(context.Background(), "me", window)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, 1, cache.sets)

	// Second read is served from the cache; mutate the store to prove it.
	delete(shifts.shifts, "shift-1")
	second, err := svc.GetSchedule(context.Background(), "me", window)
	require.NoError(t, err)
	require.Len(t, second, 1)
}

func TestGetScheduleWorksWithoutCache(t *testing.T) {
	shifts := newShiftStoreStub()
	svc := NewShiftService(shifts, nil, nil, nil)

	window := models.DateRange{From: day(t, "2025-06-01"), To: day(t, "2025-06-07")}
	result, err := svc.GetSchedule(context.Background(), "me", window)
	require.NoError(t, err)
	require.Empty(t, result)
}

func TestGetScheduleValidatesInput(t *testing.T) {
	svc := NewShiftService(newShiftStoreStub(), nil, nil, nil)

	_, err := svc.GetSchedule(context.Background(), "", models.DateRange{})
	require.Error(t, err)

	window := models.DateRange{From: day(t, "2025-06-07"), To: day(t, "2025-06-01")}
	_, err = svc.GetSchedule(context.Background(), "me", window)
	require.Error(t, err)
}
