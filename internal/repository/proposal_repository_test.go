package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/shift-sync-api/internal/models"
)

func TestProposalRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProposalRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO proposals")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	proposal := &models.ChangeProposal{
		Kind:        models.ProposalKindCreate,
		Origin:      models.ProposalOriginUser,
		Payload:     []byte(`{}`),
		Status:      models.ProposalStatusCommitted,
		SubmittedBy: "local",
	}
	require.NoError(t, repo.Create(context.Background(), proposal))
	require.NotEmpty(t, proposal.ID)
	require.False(t, proposal.SubmittedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProposalRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProposalRepository(db)
	rows := sqlmock.NewRows([]string{"id", "target_shift_id", "kind", "origin", "payload", "base_version", "external_ref", "status", "verdict", "resolution", "note", "submitted_by", "resolved_by", "submitted_at", "resolved_at"}).
		AddRow("prop-1", nil, "CREATE", "EXTERNAL_SYNC", []byte(`{}`), 0, nil, "PENDING_APPROVAL", nil, nil, nil, "reconciler", nil, time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, target_shift_id")).
		WithArgs(string(models.ProposalStatusPendingApproval), string(models.ProposalOriginExternalSync)).
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.ProposalFilter{
		Status: []models.ProposalStatus{models.ProposalStatusPendingApproval},
		Origin: models.ProposalOriginExternalSync,
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "prop-1", list[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProposalRepositoryResolveGuardsStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProposalRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE proposals SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Resolve(context.Background(), ResolveProposalParams{
		ID:         "prop-1",
		Status:     models.ProposalStatusRejected,
		Resolution: models.ResolutionDenied,
		ResolvedBy: "local",
		ResolvedAt: time.Now(),
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProposalRepositoryHasOpenForExternalRef(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewProposalRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("evt-1", string(models.ProposalStatusPendingApproval)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	open, err := repo.HasOpenForExternalRef(context.Background(), "evt-1")
	require.NoError(t, err)
	require.False(t, open)
	require.NoError(t, mock.ExpectationsWereMet())
}
