package repository

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shift-sync-api/internal/models"
	appErrors "github.com/noah-isme/shift-sync-api/pkg/errors"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func shiftColumnsRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "owner_id", "shift_date", "start_time", "end_time", "role", "source_origin", "external_ref", "version", "created_at", "updated_at"})
}

func snapshotEntry(t *testing.T, kind models.ProposalKind, shift models.Shift, baseVersion int) *models.ChangeLogEntry {
	t.Helper()
	raw, err := json.Marshal(shift)
	require.NoError(t, err)
	return &models.ChangeLogEntry{
		ProposalID:    "prop-1",
		ShiftID:       &shift.ID,
		Kind:          kind,
		Origin:        models.ProposalOriginUser,
		Decision:      models.ChangeDecisionCommitted,
		BaseVersion:   baseVersion,
		ShiftSnapshot: raw,
	}
}

func TestShiftRepositoryGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewShiftRepository(db)
	now := time.Now()
	rows := shiftColumnsRows().
		AddRow("shift-1", "me", now, "09:00", "17:00", "barista", "LOCAL", nil, 1, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, owner_id, shift_date")).
		WithArgs("shift-1").
		WillReturnRows(rows)

	shift, err := repo.Get(context.Background(), "shift-1")
	require.NoError(t, err)
	require.Equal(t, "shift-1", shift.ID)
	require.Equal(t, 1, shift.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftRepositoryGetNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewShiftRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, owner_id, shift_date")).
		WithArgs("missing").
		WillReturnRows(shiftColumnsRows())

	_, err := repo.Get(context.Background(), "missing")
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestShiftRepositoryApplyCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewShiftRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO shifts")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	shift := models.Shift{ID: "shift-1", OwnerID: "me", Date: time.Now(), Version: 1}
	applied, err := repo.ApplyCommitted(context.Background(), snapshotEntry(t, models.ProposalKindCreate, shift, 0))
	require.NoError(t, err)
	require.Equal(t, "shift-1", applied.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftRepositoryApplyModifyStale(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewShiftRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE shifts SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	shift := models.Shift{ID: "shift-1", OwnerID: "me", Date: time.Now(), Version: 3}
	_, err := repo.ApplyCommitted(context.Background(), snapshotEntry(t, models.ProposalKindModify, shift, 2))
	require.ErrorIs(t, err, appErrors.ErrStaleVersion)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftRepositoryApplyDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewShiftRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM shifts")).
		WithArgs("shift-1", 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	shiftID := "shift-1"
	entry := &models.ChangeLogEntry{
		ProposalID:  "prop-1",
		ShiftID:     &shiftID,
		Kind:        models.ProposalKindDelete,
		Origin:      models.ProposalOriginUser,
		Decision:    models.ChangeDecisionCommitted,
		BaseVersion: 2,
	}
	applied, err := repo.ApplyCommitted(context.Background(), entry)
	require.NoError(t, err)
	require.Nil(t, applied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftRepositoryApplySwapRollsBackOnStale(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewShiftRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE shifts SET owner_id")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE shifts SET owner_id")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	primary := models.Shift{ID: "shift-1", OwnerID: "them", Version: 2}
	counterpart := models.Shift{ID: "shift-2", OwnerID: "me", Version: 3}
	entry := snapshotEntry(t, models.ProposalKindSwap, primary, 1)
	swapRaw, err := json.Marshal(counterpart)
	require.NoError(t, err)
	entry.SwapSnapshot = swapRaw

	_, err = repo.ApplyCommitted(context.Background(), entry)
	require.ErrorIs(t, err, appErrors.ErrStaleVersion)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestShiftRepositoryRejectsNonCommittedEntry(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewShiftRepository(db)
	entry := &models.ChangeLogEntry{Kind: models.ProposalKindCreate, Decision: models.ChangeDecisionRejected}
	_, err := repo.ApplyCommitted(context.Background(), entry)
	require.Error(t, err)
}
