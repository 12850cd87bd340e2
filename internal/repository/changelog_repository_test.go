package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shift-sync-api/internal/models"
)

func TestChangeLogRepositoryAppendAssignsSequence(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewChangeLogRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO change_log")).
		WillReturnRows(sqlmock.NewRows([]string{"sequence_number"}).AddRow(7))

	entry := &models.ChangeLogEntry{
		ProposalID: "prop-1",
		Kind:       models.ProposalKindCreate,
		Origin:     models.ProposalOriginUser,
		Decision:   models.ChangeDecisionCommitted,
	}
	seq, err := repo.Append(context.Background(), entry)
	require.NoError(t, err)
	require.Equal(t, int64(7), seq)
	require.Equal(t, int64(7), entry.SequenceNumber)
	require.False(t, entry.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeLogRepositoryReadFrom(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewChangeLogRepository(db)
	rows := sqlmock.NewRows([]string{"sequence_number", "proposal_id", "shift_id", "kind", "origin", "decision", "verdict", "resolution", "base_version", "shift_snapshot", "swap_snapshot", "external_ref", "note", "corrects_sequence", "created_at"}).
		AddRow(3, "prop-1", nil, "CREATE", "USER", "COMMITTED", nil, "AUTO_CLEAN", 0, nil, nil, nil, nil, nil, time.Now()).
		AddRow(4, "prop-2", nil, "DELETE", "USER", "REJECTED", nil, "DENIED", 1, nil, nil, nil, nil, nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT sequence_number, proposal_id")).
		WithArgs(int64(2)).
		WillReturnRows(rows)

	entries, err := repo.ReadFrom(context.Background(), 2, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, int64(3), entries[0].SequenceNumber)
	require.Equal(t, int64(4), entries[1].SequenceNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeLogRepositoryLatest(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewChangeLogRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(sequence_number), 0)")).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(42))

	seq, err := repo.Latest(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(42), seq)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestChangeLogRepositoryHasCommittedDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewChangeLogRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("evt-1", string(models.ProposalKindDelete), string(models.ChangeDecisionCommitted)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	deleted, err := repo.HasCommittedDelete(context.Background(), "evt-1")
	require.NoError(t, err)
	require.True(t, deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}
