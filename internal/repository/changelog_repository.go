package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/shift-sync-api/internal/models"
	appErrors "github.com/noah-isme/shift-sync-api/pkg/errors"
)

const changeLogColumns = `sequence_number, proposal_id, shift_id, kind, origin, decision, verdict, resolution,
       base_version, shift_snapshot, swap_snapshot, external_ref, note, corrects_sequence, created_at`

// ChangeLogRepository owns the append-only change log. The public contract is
// append and read; no update or delete path exists, corrections are new
// entries referencing the superseded sequence number.
type ChangeLogRepository struct {
	db *sqlx.DB
}

// NewChangeLogRepository constructs the repository.
func NewChangeLogRepository(db *sqlx.DB) *ChangeLogRepository {
	return &ChangeLogRepository{db: db}
}

// Append inserts a new entry and returns its assigned sequence number.
// Storage failure here is fatal to the caller's operation, never retried.
func (r *ChangeLogRepository) Append(ctx context.Context, entry *models.ChangeLogEntry) (int64, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO change_log
		(proposal_id, shift_id, kind, origin, decision, verdict, resolution, base_version, shift_snapshot, swap_snapshot, external_ref, note, corrects_sequence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING sequence_number`
	var seq int64
	err := r.db.QueryRowxContext(ctx, query,
		entry.ProposalID,
		entry.ShiftID,
		entry.Kind,
		entry.Origin,
		entry.Decision,
		entry.Verdict,
		entry.Resolution,
		entry.BaseVersion,
		entry.ShiftSnapshot,
		entry.SwapSnapshot,
		entry.ExternalRef,
		entry.Note,
		entry.CorrectsSequence,
		entry.CreatedAt,
	).Scan(&seq)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrStorageIO.Code, appErrors.ErrStorageIO.Status, "append change log entry")
	}
	entry.SequenceNumber = seq
	return seq, nil
}

// ReadFrom returns up to limit entries with sequence numbers strictly greater
// than after, in append order. Re-invoke with the last returned sequence to
// resume.
func (r *ChangeLogRepository) ReadFrom(ctx context.Context, after int64, limit int) ([]models.ChangeLogEntry, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT %s FROM change_log WHERE sequence_number > $1 ORDER BY sequence_number LIMIT %d`, changeLogColumns, limit)
	var entries []models.ChangeLogEntry
	if err := r.db.SelectContext(ctx, &entries, query, after); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageIO.Code, appErrors.ErrStorageIO.Status, "read change log")
	}
	return entries, nil
}

// Latest returns the highest assigned sequence number, zero when empty.
func (r *ChangeLogRepository) Latest(ctx context.Context) (int64, error) {
	const query = `SELECT COALESCE(MAX(sequence_number), 0) FROM change_log`
	var seq int64
	if err := r.db.GetContext(ctx, &seq, query); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrStorageIO.Code, appErrors.ErrStorageIO.Status, "read latest sequence")
	}
	return seq, nil
}

// HasCommittedDelete reports whether a committed delete entry exists for the
// given external reference. The reconciler uses this to tell a deliberate
// local deletion from an event it simply has not mirrored yet.
func (r *ChangeLogRepository) HasCommittedDelete(ctx context.Context, externalRef string) (bool, error) {
	const query = `SELECT EXISTS (
		SELECT 1 FROM change_log WHERE external_ref = $1 AND kind = $2 AND decision = $3
	)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, externalRef, models.ProposalKindDelete, models.ChangeDecisionCommitted); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrStorageIO.Code, appErrors.ErrStorageIO.Status, "check deleted external ref")
	}
	return exists, nil
}
