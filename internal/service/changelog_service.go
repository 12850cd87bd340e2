package service

import (
	"context"

	"github.com/noah-isme/shift-sync-api/internal/models"
)

type changeLogStore interface {
	ReadFrom(ctx context.Context, after int64, limit int) ([]models.ChangeLogEntry, error)
	Latest(ctx context.Context) (int64, error)
}

// ChangeLogService is the read surface over the append-only change log.
type ChangeLogService struct {
	log changeLogStore
}

// NewChangeLogService constructs the service.
func NewChangeLogService(log changeLogStore) *ChangeLogService {
	return &ChangeLogService{log: log}
}

// ReadFrom returns entries after the given sequence number in append order.
func (s *ChangeLogService) ReadFrom(ctx context.Context, after int64, limit int) ([]models.ChangeLogEntry, error) {
	return s.log.ReadFrom(ctx, after, limit)
}

// Latest returns the highest assigned sequence number.
func (s *ChangeLogService) Latest(ctx context.Context) (int64, error) {
	return s.log.Latest(ctx)
}
