package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/shift-sync-api/internal/models"
)

const proposalColumns = `id, target_shift_id, kind, origin, payload, base_version, external_ref, status,
       verdict, resolution, note, submitted_by, resolved_by, submitted_at, resolved_at`

// ProposalRepository persists approval-workflow instances.
type ProposalRepository struct {
	db *sqlx.DB
}

// NewProposalRepository constructs the repository.
func NewProposalRepository(db *sqlx.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

// Create inserts a new proposal row.
func (r *ProposalRepository) Create(ctx context.Context, proposal *models.ChangeProposal) error {
	if proposal.ID == "" {
		proposal.ID = uuid.NewString()
	}
	if proposal.SubmittedAt.IsZero() {
		proposal.SubmittedAt = time.Now().UTC()
	}
	const query = `INSERT INTO proposals
		(id, target_shift_id, kind, origin, payload, base_version, external_ref, status, verdict, resolution, note, submitted_by, resolved_by, submitted_at, resolved_at)
		VALUES (:id, :target_shift_id, :kind, :origin, :payload, :base_version, :external_ref, :status, :verdict, :resolution, :note, :submitted_by, :resolved_by, :submitted_at, :resolved_at)`
	if _, err := r.db.NamedExecContext(ctx, query, proposal); err != nil {
		return fmt.Errorf("create proposal: %w", err)
	}
	return nil
}

// GetByID fetches a proposal by identifier.
func (r *ProposalRepository) GetByID(ctx context.Context, id string) (*models.ChangeProposal, error) {
	query := fmt.Sprintf(`SELECT %s FROM proposals WHERE id = $1`, proposalColumns)
	var proposal models.ChangeProposal
	if err := r.db.GetContext(ctx, &proposal, query, id); err != nil {
		return nil, err
	}
	return &proposal, nil
}

// List returns proposals matching the filter (latest first).
func (r *ProposalRepository) List(ctx context.Context, filter models.ProposalFilter) ([]models.ChangeProposal, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 6)
	builder.WriteString(fmt.Sprintf(`SELECT %s FROM proposals`, proposalColumns))

	conditions := make([]string, 0, 5)
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Origin != "" {
		args = append(args, filter.Origin)
		conditions = append(conditions, fmt.Sprintf("origin = $%d", len(args)))
	}
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		conditions = append(conditions, fmt.Sprintf("kind = $%d", len(args)))
	}
	if filter.TargetShiftID != "" {
		args = append(args, filter.TargetShiftID)
		conditions = append(conditions, fmt.Sprintf("target_shift_id = $%d", len(args)))
	}
	if filter.SubmittedBy != "" {
		args = append(args, filter.SubmittedBy)
		conditions = append(conditions, fmt.Sprintf("submitted_by = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY submitted_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var proposals []models.ChangeProposal
	if err := r.db.SelectContext(ctx, &proposals, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	return proposals, nil
}

// ResolveProposalParams groups the columns written when a workflow reaches a
// terminal state.
type ResolveProposalParams struct {
	ID         string
	Status     models.ProposalStatus
	Resolution string
	Verdict    []byte
	Note       *string
	ResolvedBy string
	ResolvedAt time.Time
}

// Resolve moves a pending proposal to a terminal state. Guarded on the
// current status so a second decision loses with sql.ErrNoRows.
func (r *ProposalRepository) Resolve(ctx context.Context, params ResolveProposalParams) error {
	setParts := []string{
		"status = :status",
		"resolution = :resolution",
		"resolved_by = :resolved_by",
		"resolved_at = :resolved_at",
	}
	if params.Note != nil {
		setParts = append(setParts, "note = :note")
	}
	if len(params.Verdict) > 0 {
		setParts = append(setParts, "verdict = :verdict")
	}
	query := fmt.Sprintf("UPDATE proposals SET %s WHERE id = :id AND status = '%s'",
		strings.Join(setParts, ", "),
		models.ProposalStatusPendingApproval,
	)
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":          params.ID,
		"status":      params.Status,
		"resolution":  params.Resolution,
		"verdict":     params.Verdict,
		"note":        params.Note,
		"resolved_by": params.ResolvedBy,
		"resolved_at": params.ResolvedAt,
	})
	if err != nil {
		return fmt.Errorf("resolve proposal: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check proposal resolution rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// HasOpenForExternalRef reports whether a pending proposal already references
// the external event, keeping reconciliation cycles idempotent.
func (r *ProposalRepository) HasOpenForExternalRef(ctx context.Context, externalRef string) (bool, error) {
	const query = `SELECT EXISTS (
		SELECT 1 FROM proposals WHERE external_ref = $1 AND status = $2
	)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, externalRef, models.ProposalStatusPendingApproval); err != nil {
		return false, fmt.Errorf("check open proposal: %w", err)
	}
	return exists, nil
}
