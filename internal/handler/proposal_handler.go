package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/shift-sync-api/internal/dto"
	"github.com/noah-isme/shift-sync-api/internal/models"
	appErrors "github.com/noah-isme/shift-sync-api/pkg/errors"
	"github.com/noah-isme/shift-sync-api/pkg/response"
)

type proposalService interface {
	Submit(ctx context.Context, req dto.SubmitProposalRequest, actorID string, origin models.ProposalOrigin) (*models.ChangeProposal, error)
	Approve(ctx context.Context, id string, req dto.ReviewProposalRequest, actorID string) (*models.ChangeProposal, error)
	Deny(ctx context.Context, id string, req dto.ReviewProposalRequest, actorID string) (*models.ChangeProposal, error)
	Cancel(ctx context.Context, id string, actorID string) (*models.ChangeProposal, error)
	Get(ctx context.Context, id string) (*models.ChangeProposal, error)
	List(ctx context.Context, query dto.ProposalQuery) ([]models.ChangeProposal, error)
}

type bulkService interface {
	SubmitBatch(ctx context.Context, req dto.BulkChangeRequest, actorID string, origin models.ProposalOrigin) ([]dto.BulkItemOutcome, error)
}

// ProposalHandler exposes the change-proposal workflow endpoints.
type ProposalHandler struct {
	service proposalService
	bulk    bulkService
}

// NewProposalHandler builds a new handler.
func NewProposalHandler(service proposalService, bulk bulkService) *ProposalHandler {
	return &ProposalHandler{service: service, bulk: bulk}
}

// Submit godoc
// @Summary Submit a change proposal
// @Tags Proposals
// @Accept json
// @Produce json
// @Param payload body dto.SubmitProposalRequest true "Proposal payload"
// @Success 201 {object} response.Envelope
// @Router /proposals [post]
func (h *ProposalHandler) Submit(c *gin.Context) {
	var req dto.SubmitProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid proposal payload"))
		return
	}
	proposal, err := h.service.Submit(c.Request.Context(), req, actorFromContext(c), models.ProposalOriginUser)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, proposal)
}

// SubmitBulk godoc
// @Summary Submit an ordered batch of proposals
// @Tags Proposals
// @Accept json
// @Produce json
// @Param payload body dto.BulkChangeRequest true "Batch payload"
// @Success 200 {object} response.Envelope
// @Router /proposals/bulk [post]
func (h *ProposalHandler) SubmitBulk(c *gin.Context) {
	var req dto.BulkChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid batch payload"))
		return
	}
	outcomes, err := h.bulk.SubmitBatch(c.Request.Context(), req, actorFromContext(c), models.ProposalOriginUser)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcomes, nil)
}

// List godoc
// @Summary List proposals
// @Tags Proposals
// @Produce json
// @Param status query string false "Comma-separated statuses"
// @Param origin query string false "Submitter origin"
// @Param kind query string false "Proposal kind"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Router /proposals [get]
func (h *ProposalHandler) List(c *gin.Context) {
	query := dto.ProposalQuery{
		Origin:      models.ProposalOrigin(c.Query("origin")),
		Kind:        models.ProposalKind(c.Query("kind")),
		SubmittedBy: c.Query("submittedBy"),
	}
	if raw := c.Query("status"); raw != "" {
		for _, status := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(status); trimmed != "" {
				query.Status = append(query.Status, models.ProposalStatus(trimmed))
			}
		}
	}
	query.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	query.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	proposals, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposals, nil)
}

// Get godoc
// @Summary Get proposal by id
// @Tags Proposals
// @Produce json
// @Param id path string true "Proposal id"
// @Success 200 {object} response.Envelope
// @Router /proposals/{id} [get]
func (h *ProposalHandler) Get(c *gin.Context) {
	proposal, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// Approve godoc
// @Summary Approve a pending proposal
// @Tags Proposals
// @Accept json
// @Produce json
// @Param id path string true "Proposal id"
// @Param payload body dto.ReviewProposalRequest false "Review note"
// @Success 200 {object} response.Envelope
// @Router /proposals/{id}/approve [post]
func (h *ProposalHandler) Approve(c *gin.Context) {
	var req dto.ReviewProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}
	proposal, err := h.service.Approve(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// Deny godoc
// @Summary Deny a pending proposal
// @Tags Proposals
// @Accept json
// @Produce json
// @Param id path string true "Proposal id"
// @Param payload body dto.ReviewProposalRequest false "Review note"
// @Success 200 {object} response.Envelope
// @Router /proposals/{id}/deny [post]
func (h *ProposalHandler) Deny(c *gin.Context) {
	var req dto.ReviewProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}
	proposal, err := h.service.Deny(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}

// Cancel godoc
// @Summary Cancel a pending proposal
// @Tags Proposals
// @Produce json
// @Param id path string true "Proposal id"
// @Success 200 {object} response.Envelope
// @Router /proposals/{id} [delete]
func (h *ProposalHandler) Cancel(c *gin.Context) {
	proposal, err := h.service.Cancel(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, proposal, nil)
}
