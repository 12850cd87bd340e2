package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/shift-sync-api/internal/models"
	appErrors "github.com/noah-isme/shift-sync-api/pkg/errors"
)

const shiftColumns = `id, owner_id, shift_date, start_time, end_time, role, source_origin, external_ref, version, created_at, updated_at`

// ShiftRepository is the authoritative shift store. Reads are lock-free;
// ApplyCommitted is the only mutation entry point and guards every write with
// the entry's base version, so a lost optimistic race surfaces as
// ErrStaleVersion instead of silent corruption.
type ShiftRepository struct {
	db *sqlx.DB
}

// NewShiftRepository constructs the repository.
func NewShiftRepository(db *sqlx.DB) *ShiftRepository {
	return &ShiftRepository{db: db}
}

// Get fetches a shift by identifier.
func (r *ShiftRepository) Get(ctx context.Context, id string) (*models.Shift, error) {
	query := fmt.Sprintf(`SELECT %s FROM shifts WHERE id = $1`, shiftColumns)
	var shift models.Shift
	if err := r.db.GetContext(ctx, &shift, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageIO.Code, appErrors.ErrStorageIO.Status, "get shift")
	}
	return &shift, nil
}

// ListByOwnerAndRange returns an owner's shifts inside the inclusive day
// range, ordered by date then start time (all-day shifts first).
func (r *ShiftRepository) ListByOwnerAndRange(ctx context.Context, ownerID string, dateRange models.DateRange) ([]models.Shift, error) {
	query := fmt.Sprintf(`SELECT %s FROM shifts
		WHERE owner_id = $1 AND shift_date >= $2 AND shift_date <= $3
		ORDER BY shift_date, start_time NULLS FIRST, id`, shiftColumns)
	var shifts []models.Shift
	if err := r.db.SelectContext(ctx, &shifts, query, ownerID, dateRange.From, dateRange.To); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageIO.Code, appErrors.ErrStorageIO.Status, "list shifts")
	}
	return shifts, nil
}

// ListExternallySynced returns the owner's shifts mirrored from an external
// calendar inside the day range, used by the reconciler diff.
func (r *ShiftRepository) ListExternallySynced(ctx context.Context, ownerID string, dateRange models.DateRange) ([]models.Shift, error) {
	query := fmt.Sprintf(`SELECT %s FROM shifts
		WHERE owner_id = $1 AND source_origin = $2 AND shift_date >= $3 AND shift_date <= $4
		ORDER BY shift_date, start_time NULLS FIRST, id`, shiftColumns)
	var shifts []models.Shift
	if err := r.db.SelectContext(ctx, &shifts, query, ownerID, models.SourceOriginExternalSync, dateRange.From, dateRange.To); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageIO.Code, appErrors.ErrStorageIO.Status, "list synced shifts")
	}
	return shifts, nil
}

// ApplyCommitted applies a committed change-log entry to the store. The
// returned shift is the post-commit state, nil for deletions. Every write is
// guarded by the base version; zero affected rows means a competing commit
// won the race and the caller gets ErrStaleVersion.
func (r *ShiftRepository) ApplyCommitted(ctx context.Context, entry *models.ChangeLogEntry) (*models.Shift, error) {
	if entry == nil || entry.Decision != models.ChangeDecisionCommitted {
		return nil, appErrors.Clone(appErrors.ErrValidation, "apply requires a committed entry")
	}
	switch entry.Kind {
	case models.ProposalKindCreate:
		return r.applyCreate(ctx, entry)
	case models.ProposalKindModify:
		return r.applyModify(ctx, entry)
	case models.ProposalKindDelete:
		return nil, r.applyDelete(ctx, entry)
	case models.ProposalKindSwap:
		return r.applySwap(ctx, entry)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported proposal kind: %s", entry.Kind))
	}
}

func (r *ShiftRepository) applyCreate(ctx context.Context, entry *models.ChangeLogEntry) (*models.Shift, error) {
	shift, err := entry.DecodeSnapshot()
	if err != nil || shift == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "create entry requires a shift snapshot")
	}
	now := time.Now().UTC()
	shift.CreatedAt = now
	shift.UpdatedAt = now
	const query = `INSERT INTO shifts (id, owner_id, shift_date, start_time, end_time, role, source_origin, external_ref, version, created_at, updated_at)
		VALUES (:id, :owner_id, :shift_date, :start_time, :end_time, :role, :source_origin, :external_ref, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, shift); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageIO.Code, appErrors.ErrStorageIO.Status, "insert shift")
	}
	return shift, nil
}

func (r *ShiftRepository) applyModify(ctx context.Context, entry *models.ChangeLogEntry) (*models.Shift, error) {
	shift, err := entry.DecodeSnapshot()
	if err != nil || shift == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "modify entry requires a shift snapshot")
	}
	shift.UpdatedAt = time.Now().UTC()
	const query = `UPDATE shifts SET owner_id = :owner_id, shift_date = :shift_date, start_time = :start_time,
		end_time = :end_time, role = :role, source_origin = :source_origin, external_ref = :external_ref,
		version = :version, updated_at = :updated_at
		WHERE id = :id AND version = :base_version`
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":            shift.ID,
		"owner_id":      shift.OwnerID,
		"shift_date":    shift.Date,
		"start_time":    shift.StartTime,
		"end_time":      shift.EndTime,
		"role":          shift.Role,
		"source_origin": shift.SourceOrigin,
		"external_ref":  shift.ExternalRef,
		"version":       shift.Version,
		"updated_at":    shift.UpdatedAt,
		"base_version":  entry.BaseVersion,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageIO.Code, appErrors.ErrStorageIO.Status, "update shift")
	}
	if affected, err := result.RowsAffected(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageIO.Code, appErrors.ErrStorageIO.Status, "check update result")
	} else if affected == 0 {
		return nil, appErrors.Clone(appErrors.ErrStaleVersion, fmt.Sprintf("shift %s moved past version %d", shift.ID, entry.BaseVersion))
	}
	return shift, nil
}

func (r *ShiftRepository) applyDelete(ctx context.Context, entry *models.ChangeLogEntry) error {
	if entry.ShiftID == nil {
		return appErrors.Clone(appErrors.ErrValidation, "delete entry requires a shift id")
	}
	const query = `DELETE FROM shifts WHERE id = $1 AND version = $2`
	result, err := r.db.ExecContext(ctx, query, *entry.ShiftID, entry.BaseVersion)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorageIO.Code, appErrors.ErrStorageIO.Status, "delete shift")
	}
	if affected, err := result.RowsAffected(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorageIO.Code, appErrors.ErrStorageIO.Status, "check delete result")
	} else if affected == 0 {
		return appErrors.Clone(appErrors.ErrStaleVersion, fmt.Sprintf("shift %s moved past version %d", *entry.ShiftID, entry.BaseVersion))
	}
	return nil
}

// applySwap updates both shifts in one transaction; either both version
// guards hold or the whole swap rolls back stale.
func (r *ShiftRepository) applySwap(ctx context.Context, entry *models.ChangeLogEntry) (*models.Shift, error) {
	primary, err := entry.DecodeSnapshot()
	if err != nil || primary == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "swap entry requires a shift snapshot")
	}
	counterpart, err := entry.DecodeSwapSnapshot()
	if err != nil || counterpart == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "swap entry requires a counterpart snapshot")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageIO.Code, appErrors.ErrStorageIO.Status, "begin swap")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	for _, shift := range []*models.Shift{primary, counterpart} {
		shift.UpdatedAt = now
		const query = `UPDATE shifts SET owner_id = $1, version = $2, updated_at = $3 WHERE id = $4 AND version = $5`
		result, err := tx.ExecContext(ctx, query, shift.OwnerID, shift.Version, shift.UpdatedAt, shift.ID, shift.Version-1)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStorageIO.Code, appErrors.ErrStorageIO.Status, "swap shift")
		}
		if affected, err := result.RowsAffected(); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStorageIO.Code, appErrors.ErrStorageIO.Status, "check swap result")
		} else if affected == 0 {
			return nil, appErrors.Clone(appErrors.ErrStaleVersion, fmt.Sprintf("shift %s moved past version %d", shift.ID, shift.Version-1))
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageIO.Code, appErrors.ErrStorageIO.Status, "commit swap")
	}
	return primary, nil
}
